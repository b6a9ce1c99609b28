package adapter

import (
	"github.com/mobius-looper/mobius-sub008/pkg/framework/bus"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/param"
	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
)

// Validate checks a host buffer against the layout and scratch size
// without touching anything.
func (a *Adapter) Validate(in, out [][]float32, frames int) error {
	switch {
	case frames <= 0:
		return ErrZeroFrames
	case frames > a.router.MaxFrames():
		return ErrBufferTooLarge
	case len(in) > a.layout.ChannelCount(bus.DirectionInput),
		len(out) > a.layout.ChannelCount(bus.DirectionOutput):
		return ErrPortRange
	}
	return nil
}

// Render runs one cycle over non-interleaved host channels. In replace
// mode the output is overwritten, otherwise engine output is added to it.
// A buffer that fails Validate leaves out untouched.
func (a *Adapter) Render(in, out [][]float32, frames int, replace bool) {
	if err := a.Validate(in, out, frames); err != nil {
		a.reject(err.(Error), frames)
		return
	}

	switch a.Lifecycle() {
	case Resumed:
		a.cycle(in, out, frames, replace)
	case Closed:
		if replace {
			silence(out, frames)
		}
	default:
		a.absorb(in, out, frames, replace)
	}
}

func (a *Adapter) reject(err Error, frames int) {
	a.metrics.reject(err)
	if a.once.Seen(int(err)) {
		return
	}
	a.once.Warn(int(err), "render rejected: %v (%d frames, %d max)", err, frames, a.router.MaxFrames())
}

// absorb handles a cycle the engine does not see.
func (a *Adapter) absorb(in, out [][]float32, frames int, replace bool) {
	if a.opts.Suspended == SuspendedPassthrough {
		a.router.ResetCycle()
		for p := 0; p < a.router.Ports(); p++ {
			a.router.Passthrough(p, in, out, frames, replace)
		}
		return
	}
	if replace {
		silence(out, frames)
	}
}

func (a *Adapter) cycle(in, out [][]float32, frames int, replace bool) {
	rate := int(a.sampleRate.Load())

	// transport, with tempo and meter only every few cycles
	withTempo := a.tempoCountdown <= 0 || a.sync.Tempo() == 0
	a.sample = hostsync.Sample{SampleRate: rate, Frames: frames}
	known := a.host.Transport(&a.sample, withTempo)
	if withTempo {
		a.tempoCountdown = a.opts.TempoCheckInterval
		if known {
			if a.sample.SampleRate <= 0 {
				a.sample.SampleRate = rate
			}
			a.sync.UpdateTempo(a.sample.SampleRate, a.sample.Tempo, a.sample.Numerator, a.sample.Denominator)
		}
	}
	a.tempoCountdown--

	a.sync.Advance(frames, a.sample.SamplePosition, a.sample.BeatPosition,
		a.sample.TransportChanged, a.sample.TransportPlaying)
	a.sync.Transfer(&a.time)

	a.router.ResetCycle()
	a.stream.Begin(in, frames, rate, &a.time)

	bypass := a.bypass.Load()
	if !bypass {
		a.engine.ProcessAudioBuffers(a.stream)
	}

	a.exchangeParameters(a.table.Load())

	for p := 0; p < a.router.Ports(); p++ {
		if bypass {
			a.router.Passthrough(p, in, out, frames, replace)
		} else {
			a.router.FlushOutput(p, out, frames, replace)
		}
	}

	a.drainMIDI()
	a.stream.End()

	a.metrics.cycles.Inc()
	if a.time.BeatBoundary {
		a.metrics.beats.Inc()
	}
	if a.time.BarBoundary {
		a.metrics.bars.Inc()
	}
}

// exchangeParameters applies values the host staged and reports values
// the engine changed on its own. A staged value is not echoed back.
func (a *Adapter) exchangeParameters(table *param.Table) {
	for _, p := range table.All() {
		a.exchange(p)
	}
}

func (a *Adapter) exchange(p *param.Parameter) {
	if v, ok := p.TakeStaged(); ok {
		a.engine.SetParameterValue(p.ID, v)
		p.SetValue(v)
		p.SetEngineValue(v)
		return
	}

	// compare with what the engine had, the host value may be newer
	v := a.engine.ParameterValue(p.ID)
	if v == p.EngineValue() {
		return
	}
	p.SetEngineValue(v)
	if p.Staged() {
		// a host set arrived meanwhile and reaches the engine next cycle
		return
	}
	p.SetValue(v)
	a.host.AutomateParameter(p.Index, a.scaler.ToHost(&p.Definition, v))
	a.metrics.exports.Inc()
}

// onceInvalidMIDI is the once key for events that do not encode. Error
// codes start at one, so it does not collide with them.
const onceInvalidMIDI = 0

func (a *Adapter) drainMIDI() {
	for {
		e, ok := a.queue.Pop()
		if !ok {
			return
		}
		msg := e.Encode(&a.midiBuf)
		if len(msg) == 0 {
			if !a.once.Seen(onceInvalidMIDI) {
				a.once.Warn(onceInvalidMIDI, "dropping midi event of unknown type %d", e.Type)
			}
			continue
		}
		a.host.SendMIDI(msg, e.Offset)
		a.metrics.midi.Inc()
	}
}

func silence(out [][]float32, frames int) {
	for _, ch := range out {
		n := frames
		if n > len(ch) {
			n = len(ch)
		}
		clear(ch[:n])
	}
}
