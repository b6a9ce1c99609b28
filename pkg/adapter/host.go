package adapter

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/mobius-looper/mobius-sub008/pkg/engine"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/bus"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
)

// Host is the host side of a render cycle. Each plugin flavor implements
// it over its protocol's callbacks. All methods are called on the render
// thread.
type Host interface {
	// Transport fills the positions and transport flags of s. When tempo
	// is set it also fills the sample rate, tempo and time signature.
	// It returns false when the host has no time information.
	Transport(s *hostsync.Sample, tempo bool) bool

	// AutomateParameter reports an engine side change of a parameter.
	AutomateParameter(index int, value float32)

	// SendMIDI delivers an event. msg is only valid during the call.
	SendMIDI(msg gomidi.Message, offset int32)
}

// NopHost is a host with no transport that discards everything.
type NopHost struct{}

func (NopHost) Transport(*hostsync.Sample, bool) bool { return false }
func (NopHost) AutomateParameter(int, float32)        {}
func (NopHost) SendMIDI(gomidi.Message, int32)        {}

// audioInterface presents the adapter's port layout to the engine.
type audioInterface struct {
	a *Adapter
}

func (d audioInterface) InputPorts() int {
	return d.a.layout.PortCount(bus.DirectionInput)
}

func (d audioInterface) OutputPorts() int {
	return d.a.layout.PortCount(bus.DirectionOutput)
}

func (d audioInterface) ChannelsPerPort() int {
	return d.a.layout.ChannelsPerPort()
}

func (d audioInterface) MaxFrames() int {
	return d.a.router.MaxFrames()
}

func (d audioInterface) SampleRate() int {
	return int(d.a.sampleRate.Load())
}

// environment is the engine's HostInterface.
type environment struct {
	a *Adapter
}

func (e environment) Audio() engine.AudioInterface {
	return e.a.audio
}

func (e environment) HostName() string {
	return e.a.opts.HostName
}

func (e environment) Logger() *debug.Logger {
	return e.a.logger
}
