// Package engine defines the boundary between a plugin adapter and the
// audio engine it hosts. The adapter implements AudioStream,
// AudioInterface and HostInterface; the engine implements Engine.
package engine

import (
	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/param"
	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
	"github.com/mobius-looper/mobius-sub008/pkg/midi"
)

// AudioStream is the engine's view of one render cycle. It must only be
// used from within ProcessAudioBuffers.
type AudioStream interface {
	// InterruptFrames returns the number of frames in this cycle.
	InterruptFrames() int

	// Time returns the host synchronization snapshot for this cycle.
	Time() *hostsync.AudioTime

	// InterruptBuffers returns the interleaved input of inPort and the
	// output scratch of outPort. Either is nil when the port does not
	// exist. Repeated calls in one cycle return the same buffers.
	InterruptBuffers(inPort, outPort int) (in, out []float32)

	// SampleRate returns the current sample rate.
	SampleRate() int

	// SendMIDI queues an event for the host. It returns false when the
	// queue is full.
	SendMIDI(e midi.Event) bool
}

// AudioInterface describes the audio device the adapter presents.
type AudioInterface interface {
	InputPorts() int
	OutputPorts() int
	ChannelsPerPort() int
	MaxFrames() int
	SampleRate() int
}

// HostInterface is the engine's handle on the plugin environment.
type HostInterface interface {
	Audio() AudioInterface
	// HostName returns the product name the host reported, if any.
	HostName() string
	Logger() *debug.Logger
}

// Engine is an audio engine driven by an adapter. Start, Suspend, Resume
// and Stop are called from host control threads; ProcessAudioBuffers is
// called from the render thread and must not block or allocate.
type Engine interface {
	Start(host HostInterface) error
	Suspend()
	Resume()
	Stop()

	// Parameters lists the engine's exported parameters. The adapter
	// reads it once, when the host initializes the plugin.
	Parameters() []param.Definition
	ParameterValue(id int) int
	SetParameterValue(id int, value int)

	ProcessAudioBuffers(stream AudioStream)
}

// Factory creates an engine for one plugin instance.
type Factory func() (Engine, error)
