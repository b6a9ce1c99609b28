// Package metronome is a small engine that passes audio through and
// clicks on the host's beats. It stands in for the looper when testing
// adapters against real or scripted hosts.
package metronome

import (
	"sync/atomic"

	"github.com/mobius-looper/mobius-sub008/pkg/engine"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/param"
	"github.com/mobius-looper/mobius-sub008/pkg/midi"
)

// Parameter ids
const (
	ParamOutput = iota + 1
	ParamClick
	ParamSound
	ParamTap
	ParamBars
	paramCount
)

// MIDI notes sent on the drum channel
const (
	DrumChannel uint8 = 9
	NoteBar     uint8 = 76
	NoteBeat    uint8 = 77
	NoteTap     uint8 = 60
)

var sounds = []struct {
	name      string
	beat, bar float64
}{
	{"Tick", 1000, 1500},
	{"Beep", 440, 880},
	{"Wood", 2000, 2600},
}

// Engine is the metronome engine.
type Engine struct {
	logger *debug.Logger
	ports  int
	width  int

	values    [paramCount]atomic.Int64
	suspended atomic.Bool
	started   atomic.Bool

	click    click
	noteOff  bool
	lastNote uint8
	bars     int
}

// New creates a metronome with default parameter values.
func New() *Engine {
	e := &Engine{logger: debug.Discard()}
	for _, d := range e.Parameters() {
		e.values[d.ID].Store(int64(d.Default))
	}
	return e
}

// Factory satisfies engine.Factory.
func Factory() (engine.Engine, error) {
	return New(), nil
}

func (e *Engine) Start(host engine.HostInterface) error {
	if l := host.Logger(); l != nil {
		e.logger = l.With("metronome")
	}
	audio := host.Audio()
	e.ports = audio.OutputPorts()
	e.width = audio.ChannelsPerPort()
	e.started.Store(true)
	e.logger.Info("started for %q with %d ports at %d Hz", host.HostName(), e.ports, audio.SampleRate())
	return nil
}

func (e *Engine) Suspend() {
	e.suspended.Store(true)
}

func (e *Engine) Resume() {
	e.suspended.Store(false)
	e.click.remaining = 0
}

func (e *Engine) Stop() {
	e.started.Store(false)
	e.logger.Info("stopped after %d bars", e.bars)
}

// Started reports whether the engine is between Start and Stop.
func (e *Engine) Started() bool {
	return e.started.Load()
}

func (e *Engine) Parameters() []param.Definition {
	names := make([]string, len(sounds))
	for i, s := range sounds {
		names[i] = s.name
	}
	return []param.Definition{
		param.New(ParamOutput, "Output Level").ShortName("Output").Default(127).Build(),
		param.New(ParamClick, "Click").Toggle().Default(1).Build(),
		param.New(ParamSound, "Click Sound").ShortName("Sound").Enumeration(names...).Build(),
		param.New(ParamTap, "Tap").Button().Build(),
		param.New(ParamBars, "Bars").ReadOnly().Build(),
	}
}

func (e *Engine) ParameterValue(id int) int {
	if id <= 0 || id >= paramCount {
		return 0
	}
	return int(e.values[id].Load())
}

func (e *Engine) SetParameterValue(id int, value int) {
	if id <= 0 || id >= paramCount || id == ParamBars {
		return
	}
	e.values[id].Store(int64(value))
}

func (e *Engine) ProcessAudioBuffers(stream engine.AudioStream) {
	frames := stream.InterruptFrames()
	t := stream.Time()

	gain := float32(e.values[ParamOutput].Load()) / 127
	for p := 0; p < e.ports; p++ {
		in, out := stream.InterruptBuffers(p, p)
		for i := range out {
			if i < len(in) {
				out[i] = in[i] * gain
			}
		}
	}

	if e.noteOff {
		stream.SendMIDI(midi.NoteOff(DrumChannel, e.lastNote))
		e.noteOff = false
	}

	if t.BeatBoundary && e.values[ParamClick].Load() != 0 {
		sound := sounds[min(int(e.values[ParamSound].Load()), len(sounds)-1)]
		freq, amp, note := sound.beat, 0.3, NoteBeat
		if t.BarBoundary {
			freq, amp, note = sound.bar, 0.6, NoteBar
		}
		e.click.trigger(stream.SampleRate(), freq, amp, t.BoundaryOffset)

		ev := midi.NoteOn(DrumChannel, note, 100)
		ev.Offset = int32(t.BoundaryOffset)
		if stream.SendMIDI(ev) {
			e.noteOff = true
			e.lastNote = note
		}
	}

	if t.BarBoundary {
		e.bars++
		e.values[ParamBars].Store(int64(e.bars % 128))
	}

	if e.values[ParamTap].Load() != 0 {
		// momentary, released by the engine
		e.values[ParamTap].Store(0)
		if stream.SendMIDI(midi.NoteOn(DrumChannel, NoteTap, 127)) && !e.noteOff {
			e.noteOff = true
			e.lastNote = NoteTap
		}
	}

	if e.click.active() {
		_, out := stream.InterruptBuffers(0, 0)
		e.click.render(out, e.width, frames)
	}
}

// Bars returns the number of bars counted since Start.
func (e *Engine) Bars() int {
	return e.bars
}
