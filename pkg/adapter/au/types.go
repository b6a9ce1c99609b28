package au

import gomidi "gitlab.com/gomidi/midi/v2"

// AudioBuffer is one non-interleaved channel. Data may be nil, in which
// case the unit supplies its own memory for output.
type AudioBuffer struct {
	NumberChannels uint32
	Data           []float32
}

// AudioBufferList is the set of channels of one render call.
type AudioBufferList struct {
	Buffers []AudioBuffer
}

// NewAudioBufferList allocates a list of mono buffers.
func NewAudioBufferList(channels, frames int) *AudioBufferList {
	l := &AudioBufferList{Buffers: make([]AudioBuffer, channels)}
	for i := range l.Buffers {
		l.Buffers[i] = AudioBuffer{NumberChannels: 1, Data: make([]float32, frames)}
	}
	return l
}

// BeatAndTempo is what the host reports for the current render call.
type BeatAndTempo struct {
	CurrentBeat  float64
	CurrentTempo float64
}

// MusicalTimeLocation is the host's meter.
type MusicalTimeLocation struct {
	DeltaSampleOffsetToNextBeat uint32
	TimeSigNumerator            float32
	TimeSigDenominator          uint32
	CurrentMeasureDownBeat      float64
}

// TransportState is the host's transport.
type TransportState struct {
	IsPlaying               bool
	TransportStateChanged   bool
	CurrentSampleInTimeLine float64
	IsCycling               bool
	CycleStartBeat          float64
	CycleEndBeat            float64
}

// HostCallbacks are the host's time callbacks. Each returns false when
// the host does not provide that information.
type HostCallbacks interface {
	BeatAndTempo() (BeatAndTempo, bool)
	MusicalTimeLocation() (MusicalTimeLocation, bool)
	TransportState() (TransportState, bool)
}

// MIDIOutput is implemented by hosts that accept MIDI from the unit.
type MIDIOutput interface {
	MIDIOutput(msg gomidi.Message, offset int32)
}

// ParameterListener is implemented by hosts that want to hear about
// parameter changes made by the unit.
type ParameterListener interface {
	ParameterChanged(id uint32, value float32)
}

// ParameterUnit is how a host presents a parameter.
type ParameterUnit int

const (
	UnitGeneric ParameterUnit = iota
	UnitIndexed
	UnitBoolean
	UnitCustom
)

// Parameter flags
const (
	FlagValuesHaveStrings uint32 = 1 << 21
	FlagNonRealTime       uint32 = 1 << 24
	FlagHasName           uint32 = 1 << 27
	FlagReadable          uint32 = 1 << 30
	FlagWritable          uint32 = 1 << 31
)

// ParameterInfo describes a parameter to the host.
type ParameterInfo struct {
	Name         string
	UnitName     string
	Unit         ParameterUnit
	Min          float32
	Max          float32
	Default      float32
	Flags        uint32
	ValueStrings []string
}

// ClassInfo is the saved state of a unit, the keys of an aupreset
// dictionary.
type ClassInfo struct {
	Version      int32
	Type         string
	Subtype      string
	Manufacturer string
	Name         string
	Data         []byte
}
