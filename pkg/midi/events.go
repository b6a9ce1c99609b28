// Package midi holds the short MIDI messages an engine sends to its host
// and the fixed size queue that carries them across a render cycle.
package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypePolyPressure
	EventTypeControlChange
	EventTypeProgramChange
	EventTypeChannelPressure
	EventTypePitchBend
	EventTypeClock
	EventTypeStart
	EventTypeContinue
	EventTypeStop
)

var statusBytes = [...]uint8{
	EventTypeNoteOff:         0x80,
	EventTypeNoteOn:          0x90,
	EventTypePolyPressure:    0xA0,
	EventTypeControlChange:   0xB0,
	EventTypeProgramChange:   0xC0,
	EventTypeChannelPressure: 0xD0,
	EventTypePitchBend:       0xE0,
	EventTypeClock:           0xF8,
	EventTypeStart:           0xFA,
	EventTypeContinue:        0xFB,
	EventTypeStop:            0xFC,
}

var typeNames = [...]string{
	EventTypeNoteOff:         "NoteOff",
	EventTypeNoteOn:          "NoteOn",
	EventTypePolyPressure:    "PolyPressure",
	EventTypeControlChange:   "CC",
	EventTypeProgramChange:   "ProgramChange",
	EventTypeChannelPressure: "ChannelPressure",
	EventTypePitchBend:       "PitchBend",
	EventTypeClock:           "Clock",
	EventTypeStart:           "Start",
	EventTypeContinue:        "Continue",
	EventTypeStop:            "Stop",
}

func (t EventType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

// Event is a short MIDI message. It is a plain value so queue slots can
// be reused without allocation.
type Event struct {
	Type    EventType
	Channel uint8
	Data1   uint8
	Data2   uint8
	// Offset is the frame within the buffer the event belongs to.
	Offset int32
}

func NoteOn(channel, key, velocity uint8) Event {
	return Event{Type: EventTypeNoteOn, Channel: channel & 0x0F, Data1: key & 0x7F, Data2: velocity & 0x7F}
}

func NoteOff(channel, key uint8) Event {
	return Event{Type: EventTypeNoteOff, Channel: channel & 0x0F, Data1: key & 0x7F}
}

func ControlChange(channel, controller, value uint8) Event {
	return Event{Type: EventTypeControlChange, Channel: channel & 0x0F, Data1: controller & 0x7F, Data2: value & 0x7F}
}

func ProgramChange(channel, program uint8) Event {
	return Event{Type: EventTypeProgramChange, Channel: channel & 0x0F, Data1: program & 0x7F}
}

// Realtime returns a system realtime event such as EventTypeClock.
func Realtime(t EventType) Event {
	return Event{Type: t}
}

func (e Event) realtime() bool {
	return e.Type >= EventTypeClock
}

// Len returns the encoded length in bytes.
func (e Event) Len() int {
	switch e.Type {
	case EventTypeProgramChange, EventTypeChannelPressure:
		return 2
	case EventTypeClock, EventTypeStart, EventTypeContinue, EventTypeStop:
		return 1
	}
	return 3
}

// Encode writes the wire bytes into buf and returns them as a message
// sharing buf's memory. Nothing is allocated.
// An unknown type encodes to an empty message.
func (e Event) Encode(buf *[3]byte) gomidi.Message {
	if int(e.Type) >= len(statusBytes) {
		return nil
	}
	status := statusBytes[e.Type]
	if !e.realtime() {
		status |= e.Channel & 0x0F
	}
	buf[0] = status
	buf[1] = e.Data1 & 0x7F
	buf[2] = e.Data2 & 0x7F
	return gomidi.Message(buf[:e.Len()])
}

// FromMessage decodes a short MIDI message. System exclusive and other
// messages longer than three bytes are not supported.
func FromMessage(msg gomidi.Message) (Event, bool) {
	var ch, a, b uint8
	switch {
	case msg.GetNoteOn(&ch, &a, &b):
		return Event{Type: EventTypeNoteOn, Channel: ch, Data1: a, Data2: b}, true
	case msg.GetNoteOff(&ch, &a, &b):
		return Event{Type: EventTypeNoteOff, Channel: ch, Data1: a, Data2: b}, true
	case msg.GetControlChange(&ch, &a, &b):
		return Event{Type: EventTypeControlChange, Channel: ch, Data1: a, Data2: b}, true
	case msg.GetProgramChange(&ch, &a):
		return Event{Type: EventTypeProgramChange, Channel: ch, Data1: a}, true
	}

	if len(msg) == 0 || len(msg) > 3 || msg[0] < 0x80 {
		return Event{}, false
	}
	for t, status := range statusBytes {
		match := msg[0] == status
		if status < 0xF0 {
			match = msg[0]&0xF0 == status
		}
		if !match {
			continue
		}
		e := Event{Type: EventType(t)}
		if status < 0xF0 {
			e.Channel = msg[0] & 0x0F
		}
		if len(msg) < e.Len() {
			return Event{}, false
		}
		if len(msg) > 1 {
			e.Data1 = msg[1]
		}
		if len(msg) > 2 {
			e.Data2 = msg[2]
		}
		return e, true
	}
	return Event{}, false
}

func (e Event) String() string {
	switch e.Type {
	case EventTypeNoteOn, EventTypeNoteOff:
		return fmt.Sprintf("%s{ch:%d, note:%d, vel:%d, offset:%d}", e.Type, e.Channel, e.Data1, e.Data2, e.Offset)
	case EventTypeControlChange:
		return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}", e.Channel, e.Data1, e.Data2, e.Offset)
	case EventTypeProgramChange, EventTypeChannelPressure:
		return fmt.Sprintf("%s{ch:%d, val:%d, offset:%d}", e.Type, e.Channel, e.Data1, e.Offset)
	case EventTypeClock, EventTypeStart, EventTypeContinue, EventTypeStop:
		return fmt.Sprintf("%s{offset:%d}", e.Type, e.Offset)
	}
	return fmt.Sprintf("%s{ch:%d, %d, %d, offset:%d}", e.Type, e.Channel, e.Data1, e.Data2, e.Offset)
}

var noteNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNumberToName returns the name of a note, middle C (60) being C4.
func NoteNumberToName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-1)
}
