package hostsync

import (
	"math"
	"testing"
)

// driver feeds a State a continuously advancing transport.
type driver struct {
	s      *State
	frames int
	cycle  int
	origin float64
}

func newDriver(cfg Config, rate int, tempo float64, frames int) *driver {
	s := New(cfg)
	s.UpdateTempo(rate, tempo, 4, 4)
	return &driver{s: s, frames: frames}
}

// position returns the beat position of the current cycle's first frame.
func (d *driver) position() float64 {
	return d.origin + float64(d.cycle*d.frames)*d.s.BeatsPerFrame()
}

func (d *driver) step(playing bool) AudioTime {
	pos := d.position()
	d.s.Advance(d.frames, float64(d.cycle*d.frames), pos, false, playing)
	d.cycle++
	var t AudioTime
	d.s.Transfer(&t)
	return t
}

func TestBarBeats(t *testing.T) {
	tests := []struct {
		num, den int
		want     int
	}{
		{4, 4, 4},
		{3, 4, 3},
		{5, 4, 5},
		{6, 8, 3},
		{7, 8, 3},
		{2, 2, 4},
		{3, 16, 1},
		{4, 0, 4},
		{0, 4, 4},
		{-3, 4, 4},
	}

	for _, tt := range tests {
		if got := BarBeats(tt.num, tt.den); got != tt.want {
			t.Errorf("BarBeats(%d, %d) = %d, want %d", tt.num, tt.den, got, tt.want)
		}
	}
}

func TestUpdateTempo(t *testing.T) {
	s := New(Config{})

	s.UpdateTempo(48000, 120, 3, 0)
	if got, want := s.BeatsPerFrame(), 120.0/(60.0*48000.0); math.Abs(got-want) > 1e-15 {
		t.Errorf("Expected beats per frame %g, got %g", want, got)
	}
	if s.BeatsPerBar() != 3 {
		t.Errorf("Expected 3 beats per bar with zero denominator, got %d", s.BeatsPerBar())
	}

	s.UpdateTempo(0, 120, 4, 4)
	if s.BeatsPerFrame() != 0 {
		t.Errorf("Expected no beats per frame without a sample rate, got %g", s.BeatsPerFrame())
	}
}

func TestMonotonicBeatCounting(t *testing.T) {
	d := newDriver(Config{}, 48000, 120, 256)

	lastBeat := math.MinInt32
	boundaries := 0
	bars := 0
	for boundaries < 50 && d.cycle < 100000 {
		tm := d.step(true)

		if tm.Beat < lastBeat {
			t.Fatalf("Cycle %d: beat went backwards from %d to %d", d.cycle, lastBeat, tm.Beat)
		}
		if tm.BeatBoundary {
			if lastBeat != math.MinInt32 && tm.Beat != lastBeat+1 {
				t.Fatalf("Cycle %d: boundary moved beat from %d to %d", d.cycle, lastBeat, tm.Beat)
			}
			boundaries++
		} else if lastBeat != math.MinInt32 && tm.Beat != lastBeat {
			t.Fatalf("Cycle %d: beat changed from %d to %d without boundary", d.cycle, lastBeat, tm.Beat)
		}
		if tm.BarBoundary {
			if !tm.BeatBoundary {
				t.Fatalf("Cycle %d: bar boundary without beat boundary", d.cycle)
			}
			if tm.BarBeat != 0 {
				t.Errorf("Cycle %d: expected bar beat 0 at bar boundary, got %d", d.cycle, tm.BarBeat)
			}
			bars++
		}
		lastBeat = tm.Beat
	}

	if boundaries != 50 {
		t.Fatalf("Expected 50 boundaries, got %d", boundaries)
	}
	if bars != 12 && bars != 13 {
		t.Errorf("Expected 12 or 13 bars for 50 beats, got %d", bars)
	}
}

func TestBoundaryOffset(t *testing.T) {
	// 0.01 beats per frame
	s := New(Config{})
	s.UpdateTempo(100, 60, 4, 4)

	s.Advance(100, 0, 3.5, true, true)
	var tm AudioTime
	s.Transfer(&tm)

	if !tm.BeatBoundary {
		t.Fatal("Expected a boundary between 3.5 and 4.49")
	}
	if tm.Beat != 4 {
		t.Errorf("Expected beat 4, got %d", tm.Beat)
	}
	if tm.BoundaryOffset != 50 {
		t.Errorf("Expected boundary at frame 50, got %d", tm.BoundaryOffset)
	}
	if !tm.BarBoundary {
		t.Error("Expected beat 4 to start a bar after resume")
	}
}

func TestBoundaryToleratesFloatNoise(t *testing.T) {
	tests := []struct {
		name     string
		position float64
		boundary bool
		offset   int
		beat     int
	}{
		{"exact", 128.0, true, 0, 128},
		{"slightly over", 128.00000000002, true, 0, 128},
		{"slightly under", 127.99999999998, true, 0, 128},
		{"mid beat", 128.5, false, 0, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{})
			s.UpdateTempo(48000, 120, 4, 4)
			s.Advance(256, 0, tt.position, true, true)

			var tm AudioTime
			s.Transfer(&tm)
			if tm.BeatBoundary != tt.boundary {
				t.Fatalf("Expected boundary %v, got %v", tt.boundary, tm.BeatBoundary)
			}
			if tm.BoundaryOffset != tt.offset {
				t.Errorf("Expected offset %d, got %d", tt.offset, tm.BoundaryOffset)
			}
			if tm.Beat != tt.beat {
				t.Errorf("Expected beat %d, got %d", tt.beat, tm.Beat)
			}
		})
	}
}

func TestZeroCrossingPreRoll(t *testing.T) {
	s := New(Config{})
	s.UpdateTempo(100, 60, 4, 4)

	s.Advance(100, 0, -1.5, true, true)
	var tm AudioTime
	s.Transfer(&tm)
	if !tm.BeatBoundary || tm.Beat != -1 {
		t.Fatalf("Expected boundary at beat -1, got boundary=%v beat=%d", tm.BeatBoundary, tm.Beat)
	}
	if tm.BarBeat != 3 {
		t.Errorf("Expected beat -1 to be the last beat of the pre-roll bar, got %d", tm.BarBeat)
	}

	s.Advance(100, 100, -0.5, false, true)
	s.Transfer(&tm)
	if !tm.BeatBoundary || tm.Beat != 0 {
		t.Fatalf("Expected boundary at beat 0, got boundary=%v beat=%d", tm.BeatBoundary, tm.Beat)
	}
	if tm.BoundaryOffset != 50 {
		t.Errorf("Expected zero crossing at frame 50, got %d", tm.BoundaryOffset)
	}
	if !tm.BarBoundary {
		t.Error("Expected bar boundary when crossing zero")
	}
}

func TestRewindOnResume(t *testing.T) {
	s := New(Config{RewindsOnResume: true})
	s.UpdateTempo(100, 60, 4, 4)
	var tm AudioTime

	// play a little, then stop at a position sitting exactly on a beat
	s.Advance(100, 0, 3.5, true, true)
	s.Advance(100, 0, 4.0, true, false)
	s.Transfer(&tm)
	if !tm.Stopped || tm.Playing {
		t.Fatalf("Expected stop, got playing=%v stopped=%v", tm.Playing, tm.Stopped)
	}

	before := s.Recalculations()

	// resume, host still reports the stale position for two buffers
	s.Advance(100, 0, 4.0, true, true)
	s.Transfer(&tm)
	if tm.BeatBoundary {
		t.Error("Resume buffer at the stale position must not report a boundary")
	}
	if !s.AwaitingRewind() {
		t.Error("Expected to wait for the rewind")
	}

	s.Advance(100, 0, 4.0, false, true)
	s.Transfer(&tm)
	if tm.BeatBoundary {
		t.Error("Pre-roll buffer at the stale position must not report a boundary")
	}

	// the host rewinds to the real position
	s.Advance(100, 0, 2.0, false, true)
	s.Transfer(&tm)
	if s.AwaitingRewind() {
		t.Error("Rewind should clear the latch")
	}
	if !tm.BeatBoundary || tm.Beat != 2 {
		t.Fatalf("Expected one boundary at beat 2, got boundary=%v beat=%d", tm.BeatBoundary, tm.Beat)
	}
	if tm.BarBeat != 2 {
		t.Errorf("Expected bar beat 2, got %d", tm.BarBeat)
	}
	if got := s.Recalculations() - before; got != 1 {
		t.Errorf("Expected exactly one recalculation, got %d", got)
	}

	s.Advance(100, 0, 3.0, false, true)
	s.Transfer(&tm)
	if !tm.BeatBoundary || tm.Beat != 3 || tm.BarBeat != 3 {
		t.Errorf("Expected next boundary at beat 3, got boundary=%v beat=%d barBeat=%d", tm.BeatBoundary, tm.Beat, tm.BarBeat)
	}
	if got := s.Recalculations() - before; got != 1 {
		t.Errorf("Expected no further recalculation, got %d", got)
	}
}

func TestRewindOnFirstResume(t *testing.T) {
	s := New(Config{RewindsOnResume: true})
	s.UpdateTempo(100, 60, 4, 4)
	var tm AudioTime

	steps := []struct {
		name     string
		pos      float64
		changed  bool
		boundary bool
		awaiting bool
	}{
		{"resume", 4.0, true, false, true},
		{"stale", 4.0, false, false, true},
		{"rewound", 2.0, false, true, false},
	}
	for _, st := range steps {
		s.Advance(100, 0, st.pos, st.changed, true)
		s.Transfer(&tm)
		if tm.BeatBoundary != st.boundary {
			t.Errorf("%s: Expected boundary=%v, got %v", st.name, st.boundary, tm.BeatBoundary)
		}
		if s.AwaitingRewind() != st.awaiting {
			t.Errorf("%s: Expected awaiting=%v, got %v", st.name, st.awaiting, s.AwaitingRewind())
		}
	}
	if tm.Beat != 2 || tm.BarBeat != 2 {
		t.Errorf("Expected beat 2 bar beat 2 after rewind, got %d/%d", tm.Beat, tm.BarBeat)
	}
	if got := s.Recalculations(); got != 1 {
		t.Errorf("Expected exactly one recalculation, got %d", got)
	}
}

func TestDuplicateBoundarySuppression(t *testing.T) {
	s := New(Config{})
	s.UpdateTempo(48000, 120, 4, 4)
	var tm AudioTime

	s.Advance(256, 0, 8.0, true, true)
	s.Transfer(&tm)
	if !tm.BeatBoundary {
		t.Fatal("Expected boundary at beat 8")
	}

	suppressed := 0
	for i := 0; i < 10; i++ {
		s.Advance(256, 0, 8.0, false, true)
		s.Transfer(&tm)
		if tm.BeatBoundary {
			break
		}
		suppressed++
	}

	if suppressed != DefaultDuplicateLimit {
		t.Errorf("Expected %d suppressed replays, got %d", DefaultDuplicateLimit, suppressed)
	}
	if !tm.BeatBoundary {
		t.Error("Expected the boundary to be reported once the replay persisted")
	}
}

func TestLoopWrapRecomputesBar(t *testing.T) {
	s := New(Config{})
	s.UpdateTempo(100, 60, 4, 4)
	var tm AudioTime

	s.Advance(100, 0, 5.5, true, true)
	s.Advance(100, 0, 6.5, false, true)
	s.Advance(100, 0, 7.5, false, true)
	s.Transfer(&tm)
	if tm.Beat != 8 || !tm.BarBoundary {
		t.Fatalf("Expected bar at beat 8, got beat=%d bar=%v", tm.Beat, tm.BarBoundary)
	}

	// loop back to beat 1
	s.Advance(100, 0, 1.0, true, true)
	s.Transfer(&tm)
	if !tm.BeatBoundary || tm.Beat != 1 {
		t.Fatalf("Expected boundary at beat 1 after wrap, got boundary=%v beat=%d", tm.BeatBoundary, tm.Beat)
	}
	if tm.BarBeat != 1 || tm.BarBoundary {
		t.Errorf("Expected bar beat 1 without bar boundary, got barBeat=%d bar=%v", tm.BarBeat, tm.BarBoundary)
	}
}

func TestForwardSkip(t *testing.T) {
	s := New(Config{})
	s.UpdateTempo(100, 60, 4, 4)
	var tm AudioTime

	// half a beat per buffer
	s.Advance(50, 0, 0.2, true, true)
	s.Advance(50, 0, 10.2, false, true)
	s.Transfer(&tm)

	if tm.BeatBoundary {
		t.Error("Skip into the middle of a beat is not a boundary")
	}
	if tm.Beat != 10 || tm.BarBeat != 2 {
		t.Errorf("Expected beat 10 bar beat 2, got %d and %d", tm.Beat, tm.BarBeat)
	}
}

func TestStopClearsBoundaries(t *testing.T) {
	s := New(Config{})
	s.UpdateTempo(100, 60, 4, 4)
	var tm AudioTime

	s.Advance(100, 0, 0.0, true, true)
	s.Transfer(&tm)
	if !tm.BeatBoundary || !tm.Resumed {
		t.Fatal("Expected resume with boundary at beat 0")
	}

	s.Advance(100, 0, 1.0, true, false)
	s.Transfer(&tm)
	if tm.BeatBoundary || tm.BarBoundary || tm.Playing || !tm.Stopped {
		t.Errorf("Unexpected state after stop: %+v", tm)
	}

	s.Advance(100, 0, 1.0, false, false)
	s.Transfer(&tm)
	if tm.Stopped {
		t.Error("Stopped is a one-shot flag")
	}
}

func TestTransportDetection(t *testing.T) {
	t.Run("SamplePosition", func(t *testing.T) {
		s := New(Config{SampleTransport: true, PPQTransport: true})
		s.UpdateTempo(100, 60, 4, 4)

		s.Advance(100, 1000, 0.0, false, true)
		if s.Playing() {
			t.Error("First buffer has no previous position to compare")
		}
		s.Advance(100, 1000, 0.0, false, true)
		if s.Playing() {
			t.Error("Unmoved sample position means stopped, flags are ignored")
		}
		s.Advance(100, 1100, 0.0, false, false)
		if !s.Playing() {
			t.Error("Moving sample position means playing")
		}
		if s.Config().PPQTransport {
			t.Error("Only one detection method should be authoritative")
		}
	})

	t.Run("BeatPosition", func(t *testing.T) {
		s := New(Config{PPQTransport: true})
		s.UpdateTempo(100, 60, 4, 4)

		s.Advance(100, 0, 2.0, true, false)
		s.Advance(100, 100, 2.0, true, true)
		if s.Playing() {
			t.Error("Unmoved beat position means stopped")
		}
		s.Advance(100, 200, 3.0, false, false)
		if !s.Playing() {
			t.Error("Moving beat position means playing")
		}
	})

	t.Run("ExplicitFlags", func(t *testing.T) {
		s := New(Config{})
		s.UpdateTempo(100, 60, 4, 4)

		s.Advance(100, 0, 0, false, true)
		if !s.Playing() {
			t.Error("Playing level should be taken even without change flag")
		}
		s.Advance(100, 0, 1, true, false)
		if s.Playing() {
			t.Error("Expected stop")
		}
	})
}

func TestNoDetectionWithoutTempo(t *testing.T) {
	s := New(Config{})
	s.Advance(256, 0, 0.0, true, true)

	var tm AudioTime
	s.Transfer(&tm)
	if tm.BeatBoundary {
		t.Error("No boundaries can be detected before a tempo is known")
	}
	if !tm.Playing {
		t.Error("Playing state does not depend on tempo")
	}
}

func TestReset(t *testing.T) {
	s := New(Config{RewindsOnResume: true})
	s.UpdateTempo(100, 60, 4, 4)
	s.Advance(100, 0, 3.0, true, true)
	s.Advance(100, 0, 4.0, true, false)
	s.Advance(100, 0, 4.0, true, true)
	if !s.AwaitingRewind() {
		t.Fatal("Expected rewind latch")
	}

	s.Reset()
	if s.AwaitingRewind() || s.Playing() {
		t.Error("Reset should clear transport tracking")
	}
	if s.BeatsPerBar() != 4 || s.Tempo() != 60 {
		t.Error("Reset should keep tempo")
	}
}

func TestApply(t *testing.T) {
	s := New(Config{})
	s.Apply(Sample{
		SampleRate:       100,
		Tempo:            60,
		Numerator:        6,
		Denominator:      8,
		BeatPosition:     2.5,
		TransportChanged: true,
		TransportPlaying: true,
		Frames:           100,
	})

	var tm AudioTime
	s.Transfer(&tm)
	if tm.BeatsPerBar != 3 {
		t.Errorf("Expected 3 beats per bar for 6/8, got %d", tm.BeatsPerBar)
	}
	if !tm.BeatBoundary || tm.Beat != 3 || !tm.BarBoundary {
		t.Errorf("Expected bar boundary at beat 3, got %+v", tm)
	}
	if tm.BeatPosition != 2.5 {
		t.Errorf("Expected beat position 2.5, got %g", tm.BeatPosition)
	}
}
