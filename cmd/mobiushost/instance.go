package main

import (
	"fmt"
	"strings"

	"github.com/mobius-looper/mobius-sub008/pkg/adapter"
	"github.com/mobius-looper/mobius-sub008/pkg/adapter/au"
	"github.com/mobius-looper/mobius-sub008/pkg/adapter/vst"
	"github.com/mobius-looper/mobius-sub008/pkg/engine"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/param"
	"github.com/mobius-looper/mobius-sub008/pkg/hostprofile"
)

// instance is one plugin flavor as the harness drives it. in and out hold
// the first stereo port.
type instance interface {
	Adapter() *adapter.Adapter
	Profile() hostprofile.Profile
	start(sampleRate, frames int) error
	setParameter(index int, native int) error
	setBypass(bypass bool)
	render(in, out [][]float32, frames int) error
	close()
}

func newInstance(flavor string, factory engine.Factory, t *transport, profiles *hostprofile.Set, opts adapter.Options) (instance, error) {
	switch flavor {
	case FlavorVST:
		p, err := vst.New(factory, t, profiles, opts)
		if err != nil {
			return nil, err
		}
		return &vstInstance{Plugin: p}, nil
	case FlavorAU:
		u, err := au.New(factory, t, au.Config{HostName: t.product, Profiles: profiles}, opts)
		if err != nil {
			return nil, err
		}
		return &auInstance{
			Unit: u,
			in:   &au.AudioBufferList{Buffers: make([]au.AudioBuffer, 2)},
			out:  &au.AudioBufferList{Buffers: make([]au.AudioBuffer, 2)},
		}, nil
	}
	return nil, fmt.Errorf("unknown flavor %q", flavor)
}

type vstInstance struct {
	*vst.Plugin
}

func (v *vstInstance) start(sampleRate, frames int) error {
	v.SetSampleRate(float32(sampleRate))
	v.SetBlockSize(int32(frames))
	v.Open()
	if l := v.Adapter().Lifecycle(); l != adapter.Initialized {
		return fmt.Errorf("open: plugin is %s", l)
	}
	return nil
}

func (v *vstInstance) setParameter(index int, native int) error {
	p := v.Adapter().Parameter(index)
	if p == nil {
		return adapter.ErrParameterRange
	}
	v.SetParameter(int32(index), param.Normalized{}.ToHost(&p.Definition, native))
	return nil
}

func (v *vstInstance) setBypass(bypass bool) { v.SetBypass(bypass) }

func (v *vstInstance) render(in, out [][]float32, frames int) error {
	if v.Adapter().Lifecycle() != adapter.Resumed {
		v.MainsChanged(true)
	}
	v.ProcessReplacing(in, out, int32(frames))
	return v.Adapter().Validate(in, out, frames)
}

func (v *vstInstance) close() { v.Close() }

type auInstance struct {
	*au.Unit
	in, out *au.AudioBufferList
}

func (u *auInstance) start(sampleRate, frames int) error {
	return u.Initialize(float64(sampleRate), frames)
}

func (u *auInstance) setParameter(index int, native int) error {
	return u.SetParameter(uint32(index), float32(native))
}

func (u *auInstance) setBypass(bypass bool) { u.SetBypass(bypass) }

func (u *auInstance) render(in, out [][]float32, frames int) error {
	for i := range u.in.Buffers {
		u.in.Buffers[i] = au.AudioBuffer{NumberChannels: 1, Data: in[i]}
		u.out.Buffers[i] = au.AudioBuffer{NumberChannels: 1, Data: out[i]}
	}
	return u.Render(frames, u.in, u.out)
}

func (u *auInstance) close() {
	if err := u.Close(); err != nil {
		u.Adapter().Logger().Warn("close: %v", err)
	}
}

// findParameter matches a parameter by full or short name, ignoring case.
func findParameter(a *adapter.Adapter, name string) *param.Parameter {
	for i := 0; i < a.ParameterCount(); i++ {
		p := a.Parameter(i)
		if strings.EqualFold(p.Name, name) || strings.EqualFold(p.ShortName, name) {
			return p
		}
	}
	return nil
}
