package param

import "math"

// Scaler converts between engine values and one host's parameter value
// space.
type Scaler interface {
	ToHost(d *Definition, v int) float32
	FromHost(d *Definition, h float32) int
}

// Normalized maps [Min, Max] linearly onto [0, 1], the VST convention.
type Normalized struct{}

// ToHost returns the normalized value
func (Normalized) ToHost(d *Definition, v int) float32 {
	v = d.Clamp(v)
	switch d.Type {
	case Boolean, Button:
		if v != 0 {
			return 1
		}
		return 0
	}
	span := d.Max - d.Min
	if span <= 0 {
		return 0
	}
	return float32(float64(v-d.Min) / float64(span))
}

// FromHost rounds a normalized value to the nearest engine value
func (Normalized) FromHost(d *Definition, h float32) int {
	if math.IsNaN(float64(h)) {
		return d.Default
	}
	if h < 0 {
		h = 0
	} else if h > 1 {
		h = 1
	}
	switch d.Type {
	case Boolean, Button:
		if h >= 0.5 {
			return 1
		}
		return 0
	}
	span := d.Max - d.Min
	return d.Clamp(d.Min + int(math.Round(float64(h)*float64(span))))
}

// Native exposes the engine's integer range directly, the Audio Unit
// convention.
type Native struct{}

// ToHost returns the value unchanged
func (Native) ToHost(d *Definition, v int) float32 {
	return float32(d.Clamp(v))
}

// FromHost rounds to the nearest integer step
func (Native) FromHost(d *Definition, h float32) int {
	if math.IsNaN(float64(h)) {
		return d.Default
	}
	return d.Clamp(int(math.Round(float64(h))))
}
