package hostsync

// AudioTime is the per-cycle snapshot handed to the engine. It is a plain
// value overwritten in place once per cycle; readers on other threads may
// observe a torn update and must not depend on it.
type AudioTime struct {
	Playing bool
	// Resumed and Stopped are set only on the cycle the transport changed.
	Resumed bool
	Stopped bool

	Tempo         float64
	BeatsPerBar   int
	BeatsPerFrame float64

	// BeatPosition is the host's beat position at the first frame.
	BeatPosition float64
	Beat         int
	// BarBeat is the beat within the current bar, 0 at a bar boundary.
	BarBeat int

	BeatBoundary bool
	BarBoundary  bool
	// BoundaryOffset is the frame within the buffer the boundary falls on.
	BoundaryOffset int
}

// Transfer copies the state derived by the last Advance into t.
func (s *State) Transfer(t *AudioTime) {
	t.Playing = s.playing
	t.Resumed = s.resumed
	t.Stopped = s.stopped
	t.Tempo = s.tempo
	t.BeatsPerBar = s.beatsPerBar
	t.BeatsPerFrame = s.beatsPerFrame
	t.BeatPosition = s.beatPosition
	t.Beat = s.lastBeat
	t.BarBeat = s.barBeat
	t.BeatBoundary = s.beatBoundary
	t.BarBoundary = s.barBoundary
	t.BoundaryOffset = s.boundaryOffset
}

// Apply feeds a complete host sample through UpdateTempo and Advance.
// Adapters that throttle tempo queries call the two steps separately.
func (s *State) Apply(sample Sample) {
	s.UpdateTempo(sample.SampleRate, sample.Tempo, sample.Numerator, sample.Denominator)
	s.Advance(sample.Frames, sample.SamplePosition, sample.BeatPosition, sample.TransportChanged, sample.TransportPlaying)
}
