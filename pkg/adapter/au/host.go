package au

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
)

type host struct {
	cb       HostCallbacks
	midi     MIDIOutput
	listener ParameterListener
}

func newHost(cb HostCallbacks) *host {
	h := &host{cb: cb}
	h.midi, _ = cb.(MIDIOutput)
	h.listener, _ = cb.(ParameterListener)
	return h
}

func (h *host) Transport(s *hostsync.Sample, tempo bool) bool {
	if h.cb == nil {
		return false
	}
	bt, ok := h.cb.BeatAndTempo()
	if !ok {
		return false
	}
	s.BeatPosition = bt.CurrentBeat
	if ts, ok := h.cb.TransportState(); ok {
		s.SamplePosition = ts.CurrentSampleInTimeLine
		s.TransportChanged = ts.TransportStateChanged
		s.TransportPlaying = ts.IsPlaying
	}

	if tempo {
		s.Tempo = bt.CurrentTempo
		s.Numerator, s.Denominator = 4, 4
		if mt, ok := h.cb.MusicalTimeLocation(); ok && mt.TimeSigNumerator > 0 {
			s.Numerator = int(mt.TimeSigNumerator)
			s.Denominator = int(mt.TimeSigDenominator)
		}
	}
	return true
}

func (h *host) AutomateParameter(index int, value float32) {
	if h.listener != nil {
		h.listener.ParameterChanged(uint32(index), value)
	}
}

func (h *host) SendMIDI(msg gomidi.Message, offset int32) {
	if h.midi != nil {
		h.midi.MIDIOutput(msg, offset)
	}
}
