// Package process provides the per-cycle view of host audio an engine
// processes through.
package process

import (
	"github.com/mobius-looper/mobius-sub008/pkg/framework/bus"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/port"
	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
	"github.com/mobius-looper/mobius-sub008/pkg/midi"
)

// Stream serves one render cycle to the engine: port buffers through the
// router, the sync snapshot, and the outgoing MIDI queue. Begin and End
// bracket the cycle; the stream keeps no host memory outside of it.
type Stream struct {
	router  *port.Router
	queue   *midi.Queue
	inputs  int
	outputs int

	in         [][]float32
	frames     int
	sampleRate int
	time       *hostsync.AudioTime
	requests   int
}

// NewStream creates a stream over router for the given port layout.
func NewStream(router *port.Router, layout *bus.Configuration, queue *midi.Queue) *Stream {
	return &Stream{
		router:  router,
		queue:   queue,
		inputs:  layout.PortCount(bus.DirectionInput),
		outputs: layout.PortCount(bus.DirectionOutput),
	}
}

// Begin attaches the host input channels and snapshot for a cycle.
func (s *Stream) Begin(in [][]float32, frames, sampleRate int, t *hostsync.AudioTime) {
	s.in = in
	s.frames = frames
	s.sampleRate = sampleRate
	s.time = t
	s.requests = 0
}

// End detaches host memory.
func (s *Stream) End() {
	s.in = nil
	s.frames = 0
}

// Requests returns how many times the engine asked for buffers this cycle.
func (s *Stream) Requests() int {
	return s.requests
}

func (s *Stream) InterruptFrames() int {
	return s.frames
}

func (s *Stream) Time() *hostsync.AudioTime {
	return s.time
}

func (s *Stream) SampleRate() int {
	return s.sampleRate
}

// InterruptBuffers returns the interleaved input of inPort and the output
// scratch of outPort. Ports outside the layout yield nil.
func (s *Stream) InterruptBuffers(inPort, outPort int) (in, out []float32) {
	s.requests++
	if inPort >= 0 && inPort < s.inputs {
		in = s.router.Deinterleave(inPort, s.in, s.frames)
	}
	if outPort >= 0 && outPort < s.outputs {
		out = s.router.OutputScratch(outPort, s.frames)
	}
	return in, out
}

// SendMIDI queues e for the host at the end of the cycle.
func (s *Stream) SendMIDI(e midi.Event) bool {
	if e.Offset < 0 || (s.frames > 0 && int(e.Offset) >= s.frames) {
		e.Offset = 0
	}
	return s.queue.Push(e)
}
