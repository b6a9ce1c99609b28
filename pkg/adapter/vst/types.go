package vst

// Time info flags, requested from and reported by the host
const (
	TransportChanged     int32 = 1 << 0
	TransportPlaying     int32 = 1 << 1
	TransportCycleActive int32 = 1 << 2
	TransportRecording   int32 = 1 << 3
	AutomationWriting    int32 = 1 << 6
	AutomationReading    int32 = 1 << 7
	NanosValid           int32 = 1 << 8
	PPQPosValid          int32 = 1 << 9
	TempoValid           int32 = 1 << 10
	BarsValid            int32 = 1 << 11
	CyclePosValid        int32 = 1 << 12
	TimeSigValid         int32 = 1 << 13
	SmpteValid           int32 = 1 << 14
	ClockValid           int32 = 1 << 15
)

// TimeInfo is the host transport state. Only the fields whose flag is set
// are valid.
type TimeInfo struct {
	SamplePos          float64
	SampleRate         float64
	NanoSeconds        float64
	PPQPos             float64
	Tempo              float64
	BarStartPos        float64
	CycleStartPos      float64
	CycleEndPos        float64
	TimeSigNumerator   int32
	TimeSigDenominator int32
	SmpteOffset        int32
	SmpteFrameRate     int32
	SamplesToNextClock int32
	Flags              int32
}

// MIDIEvent is a short MIDI message sent to the host.
type MIDIEvent struct {
	DeltaFrames int32
	Data        [4]byte
	Length      int32
}

// HostCallback is the host side of the plugin, the audioMaster calls the
// adapter needs.
type HostCallback interface {
	// TimeInfo returns the transport state or nil when the host has none.
	// flags names the fields the plugin needs.
	TimeInfo(flags int32) *TimeInfo

	// ProcessEvents delivers the MIDI events of one process call. The
	// slice is reused after the call returns.
	ProcessEvents(events []MIDIEvent)

	// AutomateParameter reports a plugin side change of a parameter
	// with a normalized value.
	AutomateParameter(index int32, value float32)

	// ProductString returns the host product name.
	ProductString() string
}
