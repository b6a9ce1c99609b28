package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mobius-looper/mobius-sub008/pkg/adapter"
	"github.com/mobius-looper/mobius-sub008/pkg/engine/metronome"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/plugin"
	"github.com/mobius-looper/mobius-sub008/pkg/hostprofile"
)

const channels = 2

var metronomeInfo = plugin.Info{
	ID:      "com.mobius.metronome",
	Name:    "Metronome",
	Vendor:  "Mobius",
	Version: "1.0.0",
	Code:    "Mtrn",
}

// Session runs a script against the metronome engine in one plugin
// flavor.
type Session struct {
	Script   *Script
	Profiles *hostprofile.Set
	Logger   *debug.Logger
	Registry prometheus.Registerer
	// Events receives one line per beat; nil discards them.
	Events io.Writer
	// WAV is the output file; empty skips it.
	WAV string
}

// Result summarizes a finished session.
type Result struct {
	Profile  string
	Blocks   int
	Frames   int
	Beats    int
	Bars     int
	MIDI     int
	Exports  int
	Rejected int
}

// Run renders the whole script. It stops between blocks when ctx is done.
func (s *Session) Run(ctx context.Context) (Result, error) {
	sc := s.Script
	logger := s.Logger
	if logger == nil {
		logger = debug.Default()
	}
	events := s.Events
	if events == nil {
		events = io.Discard
	}

	t := newTransport(sc.Host, sc.SampleRate)
	inst, err := newInstance(sc.Flavor, metronome.Factory, t, s.Profiles, adapter.Options{
		Info:       metronomeInfo,
		Logger:     logger,
		Registerer: s.Registry,
		Instance:   sc.Flavor,
	})
	if err != nil {
		return Result{}, err
	}
	defer inst.close()

	a := inst.Adapter()
	unsubscribe := a.OnStateChanged(func(ev adapter.StateChangedEvent) {
		logger.Debug("%s: %s -> %s", ev.Instance, ev.From, ev.To)
	})
	defer unsubscribe()

	if err := inst.start(sc.SampleRate, sc.Frames); err != nil {
		return Result{}, err
	}
	if err := applyParams(inst, sc.Params); err != nil {
		return Result{}, err
	}

	in, out := buffers(sc.Frames), buffers(sc.Frames)
	rec := newRecording(channels, sc.Blocks()*sc.Frames)
	res := Result{Profile: inst.Profile().Name}

	for i, seg := range sc.Segments {
		t.begin(seg)
		inst.setBypass(seg.Bypass)
		logger.Info("segment %d: %d blocks at %g bpm %d/%d playing=%v",
			i+1, seg.Blocks, seg.Tempo, seg.Numerator, seg.Denominator, seg.playing())

		for b := 0; b < seg.Blocks; b++ {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if err := inst.render(in, out, sc.Frames); err != nil {
				res.Rejected++
				logger.Debug("block %d: %v", res.Blocks, err)
			}

			at := a.Time()
			if at.BeatBoundary {
				res.Beats++
				mark := ""
				if at.BarBoundary {
					res.Bars++
					mark = " bar"
				}
				frame := res.Frames + at.BoundaryOffset
				fmt.Fprintf(events, "%10d  beat %4d  %d/%d%s\n", frame, at.Beat, at.BarBeat+1, at.BeatsPerBar, mark)
			}

			rec.append(out, sc.Frames)
			t.advance(sc.Frames)
			res.Blocks++
			res.Frames += sc.Frames
		}
	}
	res.MIDI = t.midi
	res.Exports = t.automated

	if s.WAV != "" {
		if err := rec.writeWAV(s.WAV, sc.SampleRate); err != nil {
			return res, err
		}
		logger.Info("wrote %d frames to %s", rec.Frames(), s.WAV)
	}
	return res, nil
}

func applyParams(inst instance, params map[string]string) error {
	a := inst.Adapter()
	for name, display := range params {
		p := findParameter(a, name)
		if p == nil {
			return fmt.Errorf("unknown parameter %q", name)
		}
		v, err := p.Parse(display)
		if err != nil {
			return err
		}
		if err := inst.setParameter(p.Index, v); err != nil {
			return fmt.Errorf("set %s: %w", p.Name, err)
		}
	}
	return nil
}

func buffers(frames int) [][]float32 {
	b := make([][]float32, channels)
	for i := range b {
		b[i] = make([]float32, frames)
	}
	return b
}
