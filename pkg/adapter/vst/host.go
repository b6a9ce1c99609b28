package vst

import (
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
)

// host adapts a HostCallback to the adapter. MIDI is batched per process
// call since VST hosts take events in one block.
type host struct {
	cb      HostCallback
	events  []MIDIEvent
	once    *debug.Once
	dropped atomic.Uint64
}

func newHost(cb HostCallback, capacity int) *host {
	return &host{cb: cb, events: make([]MIDIEvent, 0, capacity)}
}

// setLogger reports the first full batch on logger.
func (h *host) setLogger(logger *debug.Logger) {
	h.once = debug.NewOnce(logger, 1)
}

// Dropped returns the number of events lost to a full batch.
func (h *host) Dropped() uint64 { return h.dropped.Load() }

func (h *host) Transport(s *hostsync.Sample, tempo bool) bool {
	flags := PPQPosValid
	if tempo {
		flags |= TempoValid | TimeSigValid
	}
	ti := h.cb.TimeInfo(flags)
	if ti == nil {
		return false
	}

	s.SamplePosition = ti.SamplePos
	if ti.Flags&PPQPosValid != 0 {
		s.BeatPosition = ti.PPQPos
	}
	s.TransportChanged = ti.Flags&TransportChanged != 0
	s.TransportPlaying = ti.Flags&TransportPlaying != 0

	if tempo {
		if ti.SampleRate > 0 {
			s.SampleRate = int(ti.SampleRate)
		}
		if ti.Flags&TempoValid != 0 {
			s.Tempo = ti.Tempo
		}
		s.Numerator, s.Denominator = 4, 4
		if ti.Flags&TimeSigValid != 0 {
			s.Numerator = int(ti.TimeSigNumerator)
			s.Denominator = int(ti.TimeSigDenominator)
		}
	}
	return true
}

func (h *host) AutomateParameter(index int, value float32) {
	h.cb.AutomateParameter(int32(index), value)
}

func (h *host) SendMIDI(msg gomidi.Message, offset int32) {
	if len(h.events) == cap(h.events) {
		h.dropped.Add(1)
		if h.once != nil && !h.once.Seen(0) {
			h.once.Warn(0, "midi batch full at %d events, dropping", cap(h.events))
		}
		return
	}
	ev := MIDIEvent{DeltaFrames: offset, Length: int32(len(msg))}
	copy(ev.Data[:], msg)
	h.events = append(h.events, ev)
}

// flush hands the batched events to the host.
func (h *host) flush() {
	if len(h.events) == 0 {
		return
	}
	h.cb.ProcessEvents(h.events)
	h.events = h.events[:0]
}
