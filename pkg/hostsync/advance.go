package hostsync

import "math"

// Advance moves the state forward by one render cycle. It must be called
// exactly once per cycle, whether or not UpdateTempo was called.
//
// beatPosition is the host's beat position at the first frame of the
// buffer; its integer part is the current beat.
func (s *State) Advance(frames int, samplePosition, beatPosition float64, transportChanged, transportPlaying bool) {
	s.resumed = false
	s.stopped = false
	s.clearBoundary()

	wasPlaying := s.playing
	s.playing = s.detectPlaying(samplePosition, beatPosition, transportChanged, transportPlaying)
	switch {
	case s.playing && !wasPlaying:
		s.resumed = true
	case wasPlaying && !s.playing:
		s.stopped = true
	}

	resume := false
	switch {
	case s.stopped:
		if s.awaitingRewind {
			s.trace("stopped while waiting for rewind")
		}
		s.awaitingRewind = false
	case s.resumed:
		if s.cfg.RewindsOnResume {
			// the position is not trusted until it moves, even when
			// nothing was recorded before the resume
			s.awaitingRewind = true
			s.trace("resumed at beat %.4f, waiting for rewind", beatPosition)
		} else {
			resume = true
		}
	case s.awaitingRewind:
		if beatPosition != s.lastBeatPosition {
			s.awaitingRewind = false
			resume = true
			s.trace("rewind from %.4f to %.4f", s.lastBeatPosition, beatPosition)
		}
	}

	if s.playing && !s.awaitingRewind && s.beatsPerFrame > 0 && frames > 0 {
		s.count(frames, beatPosition, resume)
	} else {
		s.decay()
	}

	s.hasPosition = true
	s.lastSamplePosition = samplePosition
	s.lastBeatPosition = beatPosition
	s.beatPosition = beatPosition
}

// detectPlaying applies the single transport detection method selected by
// the configuration.
func (s *State) detectPlaying(samplePosition, beatPosition float64, changed, playing bool) bool {
	switch {
	case s.cfg.SampleTransport:
		return s.hasPosition && samplePosition != s.lastSamplePosition
	case s.cfg.PPQTransport:
		return s.hasPosition && beatPosition != s.lastBeatPosition
	}

	if changed {
		return playing
	}
	if playing != s.playing {
		s.trace("transport level changed to %v without change flag", playing)
	}
	return playing
}

// count finds the beat boundary inside the buffer, if any, and keeps the
// bar relative beat counter.
func (s *State) count(frames int, beatPosition float64, resume bool) {
	bpf := s.beatsPerFrame
	offset, boundary := boundaryIn(beatPosition, bpf, frames)

	var newBeat int
	if boundary {
		newBeat = int(math.Ceil(beatPosition - bpf/2))
	} else {
		newBeat = int(math.Floor(beatPosition + bpf/2))
	}

	jump := false
	if s.hasPosition && !resume {
		switch {
		case beatPosition <= s.lastBeatPosition:
			jump = true
			s.trace("rewind from %.4f to %.4f", s.lastBeatPosition, beatPosition)
		case newBeat > s.lastBeat+1:
			jump = true
			s.trace("skip from beat %d to %d", s.lastBeat, newBeat)
		case newBeat != s.lastBeat && !boundary:
			jump = true
			s.trace("beat %d to %d without a boundary", s.lastBeat, newBeat)
		}
	}

	if resume {
		// beat state from before the stop is stale
		s.haveBoundary = false
	}

	if boundary && s.haveBoundary && newBeat == s.lastBoundaryBeat {
		if s.beatDecay < s.cfg.DuplicateLimit {
			s.trace("suppressed duplicate boundary at beat %d", newBeat)
			boundary = false
		} else {
			s.trace("host repeated boundary at beat %d after %d cycles", newBeat, s.beatDecay+1)
		}
	}

	bar := false
	if resume || jump {
		s.barBeat = floorMod(newBeat, s.beatsPerBar)
		s.recalculations++
		bar = boundary && s.barBeat == 0
	} else if boundary {
		s.barBeat++
		if s.barBeat >= s.beatsPerBar {
			s.barBeat = 0
			bar = true
		}
	}

	if boundary {
		s.beatBoundary = true
		s.barBoundary = bar
		s.boundaryOffset = offset
		s.beatDecay = 0
		s.haveBoundary = true
		s.lastBoundaryBeat = newBeat
	} else {
		s.decay()
	}
	s.lastBeat = newBeat
}

// boundaryIn reports whether an integer beat falls inside the buffer and
// the frame it falls on. Frame i owns the beat positions within half a
// frame of its own position, so contiguous buffers never both claim a
// beat and a host reporting 128.00000000002 lands on frame 0 of beat 128.
func boundaryIn(start, bpf float64, frames int) (int, bool) {
	eps := bpf / 2
	end := start + bpf*float64(frames-1)
	k := math.Ceil(start - eps)
	if k >= end+eps {
		return 0, false
	}
	offset := int(math.Round((k - start) / bpf))
	if offset < 0 {
		offset = 0
	} else if offset > frames-1 {
		offset = frames - 1
	}
	return offset, true
}

func (s *State) decay() {
	if s.beatDecay < math.MaxInt32 {
		s.beatDecay++
	}
}

func (s *State) clearBoundary() {
	s.beatBoundary = false
	s.barBoundary = false
	s.boundaryOffset = 0
}

func floorMod(a, n int) int {
	if n <= 0 {
		return 0
	}
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
