package hostsync

import (
	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
)

// DefaultDuplicateLimit is the number of cycles during which a boundary
// reported again at the same beat is treated as a duplicate.
const DefaultDuplicateLimit = 4

// Config holds the per-host compatibility flags. The zero value trusts
// the host's explicit transport flags and its positions.
type Config struct {
	// RewindsOnResume marks hosts that report the pre-stop position for a
	// few buffers after play resumes and then jump to the real position.
	RewindsOnResume bool

	// PPQTransport derives the playing state from movement of the beat
	// position instead of the transport flags.
	PPQTransport bool

	// SampleTransport derives the playing state from movement of the
	// sample position. It takes precedence over PPQTransport.
	SampleTransport bool

	// DuplicateLimit overrides DefaultDuplicateLimit when positive.
	DuplicateLimit int
}

// Sample is the raw transport a host reported for one buffer.
type Sample struct {
	SampleRate       int
	Tempo            float64
	Numerator        int
	Denominator      int
	SamplePosition   float64
	BeatPosition     float64
	TransportChanged bool
	TransportPlaying bool
	Frames           int
}

// State is the host sync state machine. It is not safe for concurrent
// use; the audio thread owns it.
type State struct {
	cfg    Config
	logger *debug.Logger

	// tempo
	sampleRate    int
	tempo         float64
	numerator     int
	denominator   int
	beatsPerFrame float64
	beatsPerBar   int

	// transport
	hasPosition        bool
	lastSamplePosition float64
	lastBeatPosition   float64
	beatPosition       float64
	playing            bool
	resumed            bool
	stopped            bool
	awaitingRewind     bool

	// beats
	lastBeat         int
	barBeat          int
	beatDecay        int
	haveBoundary     bool
	lastBoundaryBeat int
	beatBoundary     bool
	barBoundary      bool
	boundaryOffset   int

	recalculations int
}

// New creates a State with the given compatibility flags.
func New(cfg Config) *State {
	s := &State{beatsPerBar: 4, numerator: 4, denominator: 4}
	s.SetHost(cfg)
	return s
}

// SetHost installs the compatibility flags for the detected host.
func (s *State) SetHost(cfg Config) {
	if cfg.DuplicateLimit <= 0 {
		cfg.DuplicateLimit = DefaultDuplicateLimit
	}
	if cfg.SampleTransport && cfg.PPQTransport {
		// one detection method is authoritative
		cfg.PPQTransport = false
	}
	s.cfg = cfg
}

// Config returns the installed compatibility flags.
func (s *State) Config() Config {
	return s.cfg
}

// SetLogger sets the logger used for trace messages. A nil logger
// silences them.
func (s *State) SetLogger(l *debug.Logger) {
	s.logger = l
}

// Reset forgets all transport and beat tracking, keeping tempo and
// configuration. Hosts call this through the adapter when they relocate
// or reconfigure the plugin.
func (s *State) Reset() {
	s.hasPosition = false
	s.lastSamplePosition = 0
	s.lastBeatPosition = 0
	s.beatPosition = 0
	s.playing = false
	s.resumed = false
	s.stopped = false
	s.awaitingRewind = false
	s.lastBeat = 0
	s.barBeat = 0
	s.beatDecay = 0
	s.haveBoundary = false
	s.clearBoundary()
}

// UpdateTempo recomputes the tempo derived fields. Adapters call it at
// most once per cycle, and usually only every few cycles.
func (s *State) UpdateTempo(sampleRate int, tempo float64, numerator, denominator int) {
	if denominator == 0 {
		denominator = 4
	}

	if sampleRate != s.sampleRate || tempo != s.tempo {
		s.sampleRate = sampleRate
		s.tempo = tempo
		if sampleRate > 0 && tempo > 0 {
			s.beatsPerFrame = tempo / (60.0 * float64(sampleRate))
		} else {
			s.beatsPerFrame = 0
		}
		s.trace("tempo %.3f at %d Hz, %.9f beats per frame", tempo, sampleRate, s.beatsPerFrame)
	}

	if numerator != s.numerator || denominator != s.denominator {
		s.numerator = numerator
		s.denominator = denominator
		bpb := BarBeats(numerator, denominator)
		if bpb != s.beatsPerBar {
			s.trace("time signature %d/%d, %d beats per bar", numerator, denominator, bpb)
			s.beatsPerBar = bpb
		}
		if numerator > 0 && denominator > 0 && float64(numerator)*4 != float64(bpb*denominator) {
			s.trace("time signature %d/%d truncated to %d beats per bar", numerator, denominator, bpb)
		}
	}
}

// BarBeats returns the number of quarter-note beats in a bar of the given
// time signature, truncated to an integer and never less than one.
// Signatures such as 7/8 lose their fractional beat.
func BarBeats(numerator, denominator int) int {
	if denominator <= 0 {
		denominator = 4
	}
	if numerator <= 0 {
		numerator = 4
	}
	beats := float64(numerator) / (float64(denominator) / 4.0)
	n := int(beats)
	if n < 1 {
		n = 1
	}
	return n
}

// Tempo returns the last reported tempo in beats per minute.
func (s *State) Tempo() float64 { return s.tempo }

// BeatsPerFrame returns the beat distance covered by one frame.
func (s *State) BeatsPerFrame() float64 { return s.beatsPerFrame }

// BeatsPerBar returns the integer bar length in beats.
func (s *State) BeatsPerBar() int { return s.beatsPerBar }

// Playing reports the normalized transport state.
func (s *State) Playing() bool { return s.playing }

// AwaitingRewind reports whether a resume is waiting for the host to
// rewind before beats are counted.
func (s *State) AwaitingRewind() bool { return s.awaitingRewind }

// Recalculations returns how many times the bar relative beat was
// recomputed from the absolute beat after a resume or jump.
func (s *State) Recalculations() int { return s.recalculations }

func (s *State) trace(format string, args ...interface{}) {
	if s.logger.Enabled(debug.LogLevelTrace) {
		s.logger.Trace(format, args...)
	}
}
