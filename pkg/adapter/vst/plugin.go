// Package vst presents an adapter as a VST 2 style effect: normalized
// parameters, host time info queried per process call and MIDI delivered
// in one event block.
package vst

import (
	"bytes"

	"github.com/mobius-looper/mobius-sub008/pkg/adapter"
	"github.com/mobius-looper/mobius-sub008/pkg/engine"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/bus"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/param"
	"github.com/mobius-looper/mobius-sub008/pkg/hostprofile"
	"github.com/mobius-looper/mobius-sub008/pkg/midi"
)

const (
	// DefaultPorts is the number of stereo ports presented by default.
	DefaultPorts = 8

	defaultSampleRate = 44100
	defaultBlockSize  = 512
)

// Plugin is one VST effect instance.
type Plugin struct {
	adapter *adapter.Adapter
	host    *host
	logger  *debug.Logger
	profile hostprofile.Profile

	sampleRate float64
	blockSize  int
}

// New creates a plugin around the engine made by factory. The host
// profile is matched against the host's product string; profiles may be
// nil for the built in set.
func New(factory engine.Factory, cb HostCallback, profiles *hostprofile.Set, opts adapter.Options) (*Plugin, error) {
	if profiles == nil {
		profiles = hostprofile.Defaults()
	}
	queue := opts.MIDIQueueSize
	if queue <= 0 {
		queue = midi.DefaultQueueSize
	}

	p := &Plugin{
		host:       newHost(cb, queue),
		sampleRate: defaultSampleRate,
		blockSize:  defaultBlockSize,
	}

	opts.HostName = cb.ProductString()
	if opts.Layout == nil {
		opts.Layout = bus.NewMultiPort(DefaultPorts)
	}
	opts.Scaler = param.Normalized{}
	opts.Suspended = adapter.SuspendedSilence
	opts.Host = p.host
	p.profile = profiles.Match(opts.HostName)
	p.profile.Apply(&opts)

	a, err := adapter.New(factory, opts)
	if err != nil {
		return nil, err
	}
	p.adapter = a
	p.logger = a.Logger()
	p.host.setLogger(p.logger)
	p.logger.Info("host %q using profile %q", opts.HostName, p.profile.Name)
	return p, nil
}

// Adapter returns the underlying adapter.
func (p *Plugin) Adapter() *adapter.Adapter { return p.adapter }

// DroppedMIDI returns the number of events the host's batch had no room
// for.
func (p *Plugin) DroppedMIDI() uint64 { return p.host.Dropped() }

// Profile returns the host profile in use.
func (p *Plugin) Profile() hostprofile.Profile { return p.profile }

// Open prepares the plugin with the default or last set sample rate so
// parameters can be queried before the first resume.
func (p *Plugin) Open() {
	defer adapter.Recover(p.logger, "Open")
	if err := p.adapter.Initialize(int(p.sampleRate), p.blockSize); err != nil {
		p.logger.Error("open: %v", err)
	}
}

// SetSampleRate is called by the host while the plugin is suspended.
func (p *Plugin) SetSampleRate(rate float32) {
	defer adapter.Recover(p.logger, "SetSampleRate")
	if rate <= 0 {
		return
	}
	p.sampleRate = float64(rate)
	p.reinitialize()
}

// SetBlockSize gives the largest buffer the host will process.
func (p *Plugin) SetBlockSize(frames int32) {
	defer adapter.Recover(p.logger, "SetBlockSize")
	if frames <= 0 {
		return
	}
	p.blockSize = int(frames)
	p.reinitialize()
}

func (p *Plugin) reinitialize() {
	if p.adapter.Lifecycle() == adapter.Constructed {
		return
	}
	if err := p.adapter.Initialize(int(p.sampleRate), p.blockSize); err != nil {
		p.logger.Warn("initialize: %v", err)
	}
}

// MainsChanged resumes or suspends processing.
func (p *Plugin) MainsChanged(on bool) {
	defer adapter.Recover(p.logger, "MainsChanged")
	if p.adapter.Lifecycle() == adapter.Constructed {
		p.Open()
	}
	var err error
	if on {
		err = p.adapter.Resume()
	} else {
		err = p.adapter.Suspend()
	}
	if err != nil {
		p.logger.Warn("mains %v: %v", on, err)
	}
}

// ProcessReplacing renders into out, overwriting it.
func (p *Plugin) ProcessReplacing(in, out [][]float32, frames int32) {
	defer adapter.Recover(p.logger, "ProcessReplacing")
	p.adapter.Render(in, out, int(frames), true)
	p.host.flush()
}

// Process renders and adds to out.
func (p *Plugin) Process(in, out [][]float32, frames int32) {
	defer adapter.Recover(p.logger, "Process")
	p.adapter.Render(in, out, int(frames), false)
	p.host.flush()
}

// NumParams returns the number of parameters.
func (p *Plugin) NumParams() int32 {
	return int32(p.adapter.ParameterCount())
}

// GetParameter returns a normalized parameter value.
func (p *Plugin) GetParameter(index int32) (value float32) {
	defer adapter.Recover(p.logger, "GetParameter")
	return p.adapter.GetParameter(int(index))
}

// SetParameter takes a normalized parameter value.
func (p *Plugin) SetParameter(index int32, value float32) {
	defer adapter.Recover(p.logger, "SetParameter")
	if err := p.adapter.SetParameter(int(index), value); err != nil {
		p.logger.Debug("set parameter %d: %v", index, err)
	}
}

// GetParameterName returns the short parameter name the host shows.
func (p *Plugin) GetParameterName(index int32) string {
	if prm := p.adapter.Parameter(int(index)); prm != nil {
		return prm.ShortName
	}
	return ""
}

// GetParameterDisplay returns the formatted parameter value.
func (p *Plugin) GetParameterDisplay(index int32) string {
	return p.adapter.ParameterDisplay(int(index))
}

// GetParameterLabel returns the parameter unit.
func (p *Plugin) GetParameterLabel(index int32) string {
	return p.adapter.ParameterLabel(int(index))
}

// CanBeAutomated reports whether the host may record a parameter.
func (p *Plugin) CanBeAutomated(index int32) bool {
	prm := p.adapter.Parameter(int(index))
	return prm != nil && prm.Flags&param.CanAutomate != 0 && prm.Flags&param.IsReadOnly == 0
}

// SetBypass switches soft bypass and reports that it is supported.
func (p *Plugin) SetBypass(bypass bool) bool {
	p.adapter.SetBypass(bypass)
	return true
}

// GetChunk returns the plugin state.
func (p *Plugin) GetChunk() []byte {
	defer adapter.Recover(p.logger, "GetChunk")
	var buf bytes.Buffer
	if err := p.adapter.SaveState(&buf); err != nil {
		p.logger.Error("save state: %v", err)
		return nil
	}
	return buf.Bytes()
}

// SetChunk restores state written by GetChunk.
func (p *Plugin) SetChunk(data []byte) error {
	defer adapter.Recover(p.logger, "SetChunk")
	if err := p.adapter.LoadState(bytes.NewReader(data)); err != nil {
		p.logger.Error("load state: %v", err)
		return err
	}
	return nil
}

// NumInputs returns the number of input channels.
func (p *Plugin) NumInputs() int32 {
	return int32(p.adapter.Layout().ChannelCount(bus.DirectionInput))
}

// NumOutputs returns the number of output channels.
func (p *Plugin) NumOutputs() int32 {
	return int32(p.adapter.Layout().ChannelCount(bus.DirectionOutput))
}

// UniqueID returns the plugin id packed from its four character code.
func (p *Plugin) UniqueID() int32 {
	return p.adapter.Info().UniqueID()
}

// Version returns the plugin version number.
func (p *Plugin) Version() int32 {
	v, err := p.adapter.Info().VersionCode()
	if err != nil {
		return 0
	}
	return v
}

// EffectName returns the plugin name.
func (p *Plugin) EffectName() string { return p.adapter.Info().Name }

// VendorString returns the plugin vendor.
func (p *Plugin) VendorString() string { return p.adapter.Info().Vendor }

// Close suspends and releases the plugin.
func (p *Plugin) Close() {
	defer adapter.Recover(p.logger, "Close")
	if err := p.adapter.Close(); err != nil {
		p.logger.Error("close: %v", err)
	}
}
