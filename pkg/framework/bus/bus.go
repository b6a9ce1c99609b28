// Package bus describes the audio ports a plugin presents to its host.
package bus

// Direction represents the port direction
type Direction int32

const (
	// DirectionInput represents an input port
	DirectionInput Direction = 0
	// DirectionOutput represents an output port
	DirectionOutput Direction = 1
)

// String returns the direction name
func (d Direction) String() string {
	if d == DirectionOutput {
		return "output"
	}
	return "input"
}

// Info describes one port: a group of adjacent host channels
type Info struct {
	Direction    Direction
	ChannelCount int
	Name         string
	// Main is false for the extra ports after the first in each direction.
	Main bool
}

// Configuration is the host visible port layout. Every port carries the
// same number of channels, so host channel c belongs to port
// c / ChannelsPerPort.
type Configuration struct {
	inputs          []Info
	outputs         []Info
	channelsPerPort int
}

func (c *Configuration) list(direction Direction) []Info {
	if direction == DirectionOutput {
		return c.outputs
	}
	return c.inputs
}

// PortCount returns the number of ports in a direction
func (c *Configuration) PortCount(direction Direction) int {
	return len(c.list(direction))
}

// PortInfo returns information about a specific port, or nil
func (c *Configuration) PortInfo(direction Direction, index int) *Info {
	ports := c.list(direction)
	if index < 0 || index >= len(ports) {
		return nil
	}
	return &ports[index]
}

// ChannelCount returns the total host channel count in a direction
func (c *Configuration) ChannelCount(direction Direction) int {
	total := 0
	for _, p := range c.list(direction) {
		total += p.ChannelCount
	}
	return total
}

// ChannelsPerPort returns the interleave width shared by every port
func (c *Configuration) ChannelsPerPort() int {
	return c.channelsPerPort
}

// Ports returns the number of router ports needed to serve both
// directions.
func (c *Configuration) Ports() int {
	return max(len(c.inputs), len(c.outputs))
}

// PortOf returns the port a host channel belongs to and its channel
// within that port.
func (c *Configuration) PortOf(channel int) (port, portChannel int) {
	if c.channelsPerPort <= 0 || channel < 0 {
		return -1, -1
	}
	return channel / c.channelsPerPort, channel % c.channelsPerPort
}
