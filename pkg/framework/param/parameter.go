// Package param describes engine parameters and maps them onto the value
// ranges different plugin hosts expect.
package param

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// Type selects how a parameter's integer value is interpreted
type Type int

const (
	// Continuous is an integer range presented as a knob or slider.
	Continuous Type = iota
	// Enumeration is a range with one label per value.
	Enumeration
	// Boolean is a two state switch.
	Boolean
	// Button is a momentary trigger, 1 while pressed.
	Button
)

// String returns the type name
func (t Type) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Enumeration:
		return "enumeration"
	case Boolean:
		return "boolean"
	case Button:
		return "button"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Flags for parameters
const (
	CanAutomate uint32 = 1 << 0
	IsReadOnly  uint32 = 1 << 1
	IsHidden    uint32 = 1 << 4
	IsBypass    uint32 = 1 << 16
)

// Definition is the engine's description of one parameter. Values are
// integers in [Min, Max].
type Definition struct {
	ID        int
	Name      string
	ShortName string
	Unit      string
	Type      Type
	Min       int
	Max       int
	Default   int
	Labels    []string
	Flags     uint32
}

// Validate checks the definition is self consistent
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("parameter %d has no name", d.ID)
	}
	if d.Max < d.Min {
		return fmt.Errorf("parameter %s: max %d below min %d", d.Name, d.Max, d.Min)
	}
	if d.Default < d.Min || d.Default > d.Max {
		return fmt.Errorf("parameter %s: default %d outside [%d, %d]", d.Name, d.Default, d.Min, d.Max)
	}
	switch d.Type {
	case Boolean, Button:
		if d.Min != 0 || d.Max != 1 {
			return fmt.Errorf("parameter %s: %s range must be [0, 1]", d.Name, d.Type)
		}
	case Enumeration:
		if len(d.Labels) != d.Max-d.Min+1 {
			return fmt.Errorf("parameter %s: %d labels for %d values", d.Name, len(d.Labels), d.Max-d.Min+1)
		}
	}
	return nil
}

// Clamp limits v to the parameter range
func (d *Definition) Clamp(v int) int {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

// StepCount returns the number of steps between Min and Max
func (d *Definition) StepCount() int {
	return d.Max - d.Min
}

// Format returns the display string for a value, without the unit
func (d *Definition) Format(v int) string {
	v = d.Clamp(v)
	switch d.Type {
	case Enumeration:
		return d.Labels[v-d.Min]
	case Boolean:
		if v != 0 {
			return "On"
		}
		return "Off"
	case Button:
		if v != 0 {
			return "Pressed"
		}
		return ""
	}
	return strconv.Itoa(v)
}

// Parse converts a display string back to a value
func (d *Definition) Parse(s string) (int, error) {
	s = strings.TrimSpace(s)
	switch d.Type {
	case Enumeration:
		for i, label := range d.Labels {
			if strings.EqualFold(label, s) {
				return d.Min + i, nil
			}
		}
	case Boolean, Button:
		switch strings.ToLower(s) {
		case "on", "true", "pressed":
			return 1, nil
		case "off", "false", "":
			return 0, nil
		}
	}

	s = strings.TrimSpace(strings.TrimSuffix(s, d.Unit))
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: invalid value %q", d.Name, s)
	}
	return d.Clamp(v), nil
}

// Parameter is a definition placed at a dense host index, with the value
// last exchanged with the host and a slot for a host set that has not
// reached the engine yet. The engine value it last saw is kept apart from
// the host value, so a host set never looks like an engine change.
type Parameter struct {
	Definition
	Index int

	value   atomic.Int64
	engine  atomic.Int64
	pending atomic.Int64
	staged  atomic.Bool
}

// Value returns the value last exchanged with the host
func (p *Parameter) Value() int {
	return int(p.value.Load())
}

// SetValue records a value as exchanged with the host
func (p *Parameter) SetValue(v int) {
	p.value.Store(int64(p.Clamp(v)))
}

// EngineValue returns the engine value last seen by the adapter.
func (p *Parameter) EngineValue() int {
	return int(p.engine.Load())
}

// SetEngineValue records a value read from or written to the engine. It
// is stored unclamped so it compares equal to the next read.
func (p *Parameter) SetEngineValue(v int) {
	p.engine.Store(int64(v))
}

// Stage records a host set for the render thread to apply. A later set
// before the render thread runs replaces the earlier one.
func (p *Parameter) Stage(v int) {
	v = p.Clamp(v)
	p.pending.Store(int64(v))
	p.value.Store(int64(v))
	p.staged.Store(true)
}

// TakeStaged returns the staged host value, if any, and clears it.
func (p *Parameter) TakeStaged() (int, bool) {
	if !p.staged.Swap(false) {
		return 0, false
	}
	return int(p.pending.Load()), true
}

// Staged reports whether a host set is waiting.
func (p *Parameter) Staged() bool {
	return p.staged.Load()
}
