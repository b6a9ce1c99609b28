// Package port moves audio between a host's non-interleaved channel
// buffers and the engine's interleaved per-port scratch buffers.
package port

// Port is one engine port: a group of adjacent host channels with its own
// interleaved input and output scratch.
type Port struct {
	input  []float32
	output []float32

	inputPrepared  bool
	outputPrepared bool
}

// Router owns the scratch for every port. All memory is allocated by
// NewRouter; nothing on the render path allocates.
type Router struct {
	ports     []Port
	channels  int
	maxFrames int
	fills     int
}

// NewRouter allocates scratch for the given number of ports.
func NewRouter(ports, channelsPerPort, maxFrames int) *Router {
	if ports < 0 {
		ports = 0
	}
	if channelsPerPort < 1 {
		channelsPerPort = 1
	}
	if maxFrames < 0 {
		maxFrames = 0
	}

	r := &Router{
		ports:     make([]Port, ports),
		channels:  channelsPerPort,
		maxFrames: maxFrames,
	}
	size := maxFrames * channelsPerPort
	for i := range r.ports {
		r.ports[i].input = make([]float32, size)
		r.ports[i].output = make([]float32, size)
	}
	return r
}

// Ports returns the number of ports.
func (r *Router) Ports() int { return len(r.ports) }

// ChannelsPerPort returns the interleave width of every port.
func (r *Router) ChannelsPerPort() int { return r.channels }

// MaxFrames returns the largest buffer the scratch can hold.
func (r *Router) MaxFrames() int { return r.maxFrames }

// Fills returns how many times an input scratch was actually filled from
// host buffers.
func (r *Router) Fills() int { return r.fills }

// ResetCycle marks every port unprepared. Call once at the start of each
// render cycle.
func (r *Router) ResetCycle() {
	for i := range r.ports {
		r.ports[i].inputPrepared = false
		r.ports[i].outputPrepared = false
	}
}

func (r *Router) valid(port, frames int) bool {
	return port >= 0 && port < len(r.ports) && frames >= 0 && frames <= r.maxFrames
}

// Deinterleave returns the interleaved input for port. The first call in a
// cycle copies the port's host channels; later calls return the same
// buffer. Missing, nil or short host channels read as silence.
func (r *Router) Deinterleave(port int, hostIn [][]float32, frames int) []float32 {
	if !r.valid(port, frames) {
		return nil
	}
	p := &r.ports[port]
	n := frames * r.channels
	if p.inputPrepared {
		return p.input[:n]
	}

	base := port * r.channels
	buf := p.input
	for c := 0; c < r.channels; c++ {
		var src []float32
		if base+c < len(hostIn) {
			src = hostIn[base+c]
		}
		for i := 0; i < frames; i++ {
			if i < len(src) {
				buf[i*r.channels+c] = src[i]
			} else {
				buf[i*r.channels+c] = 0
			}
		}
	}

	p.inputPrepared = true
	r.fills++
	return buf[:n]
}

// OutputScratch returns the interleaved output for port, zeroed on the
// first call in a cycle.
func (r *Router) OutputScratch(port, frames int) []float32 {
	if !r.valid(port, frames) {
		return nil
	}
	p := &r.ports[port]
	n := frames * r.channels
	if !p.outputPrepared {
		clear(p.output[:n])
		p.outputPrepared = true
	}
	return p.output[:n]
}

// OutputTouched reports whether the engine asked for the port's output
// in this cycle.
func (r *Router) OutputTouched(port int) bool {
	return port >= 0 && port < len(r.ports) && r.ports[port].outputPrepared
}

// FlushOutput writes the port's output scratch into the host channels.
// With replace the host buffers are overwritten, otherwise the scratch is
// added to them. A port the engine never touched is silence: replace
// zeroes the host channels and mix leaves them alone.
func (r *Router) FlushOutput(port int, hostOut [][]float32, frames int, replace bool) {
	if !r.valid(port, frames) {
		return
	}
	p := &r.ports[port]
	base := port * r.channels

	for c := 0; c < r.channels; c++ {
		if base+c >= len(hostOut) {
			break
		}
		dst := hostOut[base+c]
		if dst == nil {
			continue
		}
		n := min(frames, len(dst))

		if !p.outputPrepared {
			if replace {
				clear(dst[:n])
			}
			continue
		}

		if replace {
			for i := 0; i < n; i++ {
				dst[i] = p.output[i*r.channels+c]
			}
		} else {
			for i := 0; i < n; i++ {
				dst[i] += p.output[i*r.channels+c]
			}
		}
	}
}

// Passthrough copies the port's host input channels straight to its host
// output channels, used while bypassed or suspended.
func (r *Router) Passthrough(port int, hostIn, hostOut [][]float32, frames int, replace bool) {
	if !r.valid(port, frames) {
		return
	}
	base := port * r.channels

	for c := 0; c < r.channels; c++ {
		if base+c >= len(hostOut) {
			break
		}
		dst := hostOut[base+c]
		if dst == nil {
			continue
		}
		n := min(frames, len(dst))

		var src []float32
		if base+c < len(hostIn) {
			src = hostIn[base+c]
		}
		for i := 0; i < n; i++ {
			var v float32
			if i < len(src) {
				v = src[i]
			}
			if replace {
				dst[i] = v
			} else {
				dst[i] += v
			}
		}
	}
}
