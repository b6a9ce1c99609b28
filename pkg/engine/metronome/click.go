package metronome

import "math"

// click is a decaying sine burst started on a beat boundary.
type click struct {
	phase     float64
	phaseInc  float64
	amplitude float64
	decay     float64
	remaining int
	start     int
}

// clickSeconds is the length of one click.
const clickSeconds = 0.03

func (c *click) trigger(sampleRate int, freq, amplitude float64, offset int) {
	if sampleRate <= 0 {
		return
	}
	length := int(clickSeconds * float64(sampleRate))
	c.phase = 0
	c.phaseInc = freq / float64(sampleRate)
	c.amplitude = amplitude
	// -60 dB over the click length
	c.decay = math.Pow(0.001, 1/float64(length))
	c.remaining = length
	c.start = offset
}

func (c *click) active() bool {
	return c.remaining > 0
}

// render mixes the click into an interleaved buffer.
func (c *click) render(out []float32, channels, frames int) {
	if c.remaining <= 0 || channels <= 0 {
		return
	}
	for i := c.start; i < frames && c.remaining > 0; i++ {
		v := float32(c.amplitude * math.Sin(2*math.Pi*c.phase))
		base := i * channels
		if base+channels > len(out) {
			break
		}
		for ch := 0; ch < channels; ch++ {
			out[base+ch] += v
		}
		c.phase += c.phaseInc
		if c.phase >= 1 {
			c.phase -= math.Floor(c.phase)
		}
		c.amplitude *= c.decay
		c.remaining--
	}
	c.start = 0
}
