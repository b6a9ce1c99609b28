// Package au presents an adapter as an Audio Unit effect: parameters in
// their native range, time from the host callbacks and buffer lists whose
// output channels may need unit memory.
package au

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mobius-looper/mobius-sub008/pkg/adapter"
	"github.com/mobius-looper/mobius-sub008/pkg/engine"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/bus"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/param"
	"github.com/mobius-looper/mobius-sub008/pkg/hostprofile"
)

const (
	// TypeEffect is the component type of a music effect.
	TypeEffect = "aumf"
	// DefaultManufacturer is used when Config leaves it empty.
	DefaultManufacturer = "Mbus"
)

// ErrWrongUnit is returned when restoring class info saved by another
// component.
var ErrWrongUnit = errors.New("class info belongs to another unit")

// Config identifies the host and the component.
type Config struct {
	// HostName is the bundle name of the host application.
	HostName     string
	Manufacturer string
	// Profiles defaults to the built in set.
	Profiles *hostprofile.Set
}

// Unit is one Audio Unit instance.
type Unit struct {
	adapter      *adapter.Adapter
	host         *host
	logger       *debug.Logger
	profile      hostprofile.Profile
	manufacturer string

	in, out [][]float32
	// output memory for buffers the host left empty
	scratch [][]float32
}

// New creates a unit around the engine made by factory.
func New(factory engine.Factory, cb HostCallbacks, cfg Config, opts adapter.Options) (*Unit, error) {
	if cfg.Profiles == nil {
		cfg.Profiles = hostprofile.Defaults()
	}
	if cfg.Manufacturer == "" {
		cfg.Manufacturer = DefaultManufacturer
	}

	u := &Unit{host: newHost(cb), manufacturer: cfg.Manufacturer}

	opts.HostName = cfg.HostName
	if opts.Layout == nil {
		opts.Layout = bus.NewStereo()
	}
	opts.Scaler = param.Native{}
	opts.Suspended = adapter.SuspendedPassthrough
	opts.Host = u.host
	u.profile = cfg.Profiles.Match(cfg.HostName)
	u.profile.Apply(&opts)

	a, err := adapter.New(factory, opts)
	if err != nil {
		return nil, err
	}
	u.adapter = a
	u.logger = a.Logger()

	layout := a.Layout()
	u.in = make([][]float32, 0, layout.ChannelCount(bus.DirectionInput))
	u.out = make([][]float32, 0, layout.ChannelCount(bus.DirectionOutput))
	u.scratch = make([][]float32, layout.ChannelCount(bus.DirectionOutput))
	for i := range u.scratch {
		u.scratch[i] = make([]float32, a.MaxFrames())
	}

	u.logger.Info("host %q using profile %q", cfg.HostName, u.profile.Name)
	return u, nil
}

// Adapter returns the underlying adapter.
func (u *Unit) Adapter() *adapter.Adapter { return u.adapter }

// Profile returns the host profile in use.
func (u *Unit) Profile() hostprofile.Profile { return u.profile }

// Initialize prepares the unit to render.
func (u *Unit) Initialize(sampleRate float64, maxFramesPerSlice int) error {
	defer adapter.Recover(u.logger, "Initialize")
	if err := u.adapter.Initialize(int(sampleRate), maxFramesPerSlice); err != nil {
		return err
	}
	return u.adapter.Resume()
}

// Uninitialize stops rendering. The host may still call Render, which then
// passes input through.
func (u *Unit) Uninitialize() error {
	defer adapter.Recover(u.logger, "Uninitialize")
	return u.adapter.Suspend()
}

// Reset forgets the transport history, as after a locate.
func (u *Unit) Reset() error {
	defer adapter.Recover(u.logger, "Reset")
	if u.adapter.Lifecycle() != adapter.Resumed {
		return nil
	}
	if err := u.adapter.Suspend(); err != nil {
		return err
	}
	return u.adapter.Resume()
}

// Render processes one slice. Output buffers with nil Data are pointed at
// unit memory. The whole output is always replaced.
func (u *Unit) Render(frames int, in, out *AudioBufferList) error {
	defer adapter.Recover(u.logger, "Render")

	u.in, u.out = u.in[:0], u.out[:0]
	if in != nil {
		if len(in.Buffers) > cap(u.in) {
			return adapter.ErrPortRange
		}
		for _, b := range in.Buffers {
			u.in = append(u.in, b.Data)
		}
	}
	if out != nil {
		if len(out.Buffers) > cap(u.out) {
			return adapter.ErrPortRange
		}
		for i := range out.Buffers {
			b := &out.Buffers[i]
			if b.Data == nil && frames > 0 && frames <= len(u.scratch[i]) {
				b.Data = u.scratch[i][:frames]
			}
			u.out = append(u.out, b.Data)
		}
	}

	u.adapter.Render(u.in, u.out, frames, true)
	return u.adapter.Validate(u.in, u.out, frames)
}

// ParameterList returns the parameter ids, which are the host indices.
func (u *Unit) ParameterList() []uint32 {
	ids := make([]uint32, u.adapter.ParameterCount())
	for i := range ids {
		ids[i] = uint32(i)
	}
	return ids
}

// ParameterInfo describes a parameter.
func (u *Unit) ParameterInfo(id uint32) (ParameterInfo, error) {
	p := u.adapter.Parameter(int(id))
	if p == nil {
		return ParameterInfo{}, adapter.ErrParameterRange
	}

	info := ParameterInfo{
		Name:     p.Name,
		UnitName: p.Unit,
		Min:      float32(p.Min),
		Max:      float32(p.Max),
		Default:  float32(p.Default),
		Flags:    FlagReadable | FlagHasName,
	}
	if p.Flags&param.IsReadOnly == 0 {
		info.Flags |= FlagWritable
	}
	switch p.Type {
	case param.Enumeration:
		info.Unit = UnitIndexed
		info.ValueStrings = p.Labels
		info.Flags |= FlagValuesHaveStrings
	case param.Boolean, param.Button:
		info.Unit = UnitBoolean
	}
	return info, nil
}

// GetParameter returns a parameter value in its native range.
func (u *Unit) GetParameter(id uint32) (float32, error) {
	if u.adapter.Parameter(int(id)) == nil {
		return 0, adapter.ErrParameterRange
	}
	return u.adapter.GetParameter(int(id)), nil
}

// SetParameter takes a value in the parameter's native range.
func (u *Unit) SetParameter(id uint32, value float32) error {
	defer adapter.Recover(u.logger, "SetParameter")
	return u.adapter.SetParameter(int(id), value)
}

// ParameterValueString formats a value of an indexed parameter.
func (u *Unit) ParameterValueString(id uint32) string {
	return u.adapter.ParameterDisplay(int(id))
}

// SetBypass switches bypass.
func (u *Unit) SetBypass(bypass bool) {
	u.adapter.SetBypass(bypass)
}

// SaveClassInfo returns the unit state for a preset.
func (u *Unit) SaveClassInfo() (ClassInfo, error) {
	var buf bytes.Buffer
	if err := u.adapter.SaveState(&buf); err != nil {
		return ClassInfo{}, err
	}
	info := u.adapter.Info()
	version, _ := info.VersionCode()
	return ClassInfo{
		Version:      version,
		Type:         TypeEffect,
		Subtype:      info.Code,
		Manufacturer: u.manufacturer,
		Name:         info.Name,
		Data:         buf.Bytes(),
	}, nil
}

// RestoreClassInfo loads state saved by SaveClassInfo.
func (u *Unit) RestoreClassInfo(ci ClassInfo) error {
	if ci.Subtype != u.adapter.Info().Code || ci.Manufacturer != u.manufacturer {
		return fmt.Errorf("%w: %s/%s", ErrWrongUnit, ci.Manufacturer, ci.Subtype)
	}
	return u.adapter.LoadState(bytes.NewReader(ci.Data))
}

// Close releases the unit.
func (u *Unit) Close() error {
	defer adapter.Recover(u.logger, "Close")
	return u.adapter.Close()
}
