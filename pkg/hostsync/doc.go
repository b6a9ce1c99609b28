// Package hostsync turns the transport a plugin host reports each render
// cycle into a stable beat and bar clock.
//
// Hosts disagree about how they report transport. Some never set the
// transport-changed flag, some keep advancing the sample position while
// stopped, some report the old position for a buffer or two after play
// resumes and then rewind, and looping transports can replay the frame a
// boundary fell on. State absorbs all of that: every anomaly becomes "no
// boundary this cycle" plus a trace message, never an error.
//
// A State is owned by one adapter and driven from the audio thread:
//
//	s.UpdateTempo(rate, tempo, num, den) // at most once per cycle
//	s.Advance(frames, samplePos, beatPos, changed, playing)
//	s.Transfer(&snapshot)
package hostsync
