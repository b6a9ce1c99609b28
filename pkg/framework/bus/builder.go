package bus

import (
	"errors"
	"fmt"
)

// MaxChannelsPerPort bounds the interleave width of a port
const MaxChannelsPerPort = 32

// MaxPorts bounds the number of ports in each direction
const MaxPorts = 16

// Builder provides a fluent API for building port layouts
type Builder struct {
	config *Configuration
	errors []error
}

// NewBuilder creates a new port layout builder
func NewBuilder() *Builder {
	return &Builder{
		config: &Configuration{},
	}
}

// WithInput adds an input port
func (b *Builder) WithInput(name string, channels int) *Builder {
	b.config.inputs = append(b.config.inputs, Info{
		Direction:    DirectionInput,
		ChannelCount: channels,
		Name:         name,
		Main:         len(b.config.inputs) == 0,
	})
	return b
}

// WithOutput adds an output port
func (b *Builder) WithOutput(name string, channels int) *Builder {
	b.config.outputs = append(b.config.outputs, Info{
		Direction:    DirectionOutput,
		ChannelCount: channels,
		Name:         name,
		Main:         len(b.config.outputs) == 0,
	})
	return b
}

// WithStereoInput is a convenience method for adding a stereo input
func (b *Builder) WithStereoInput(name string) *Builder {
	return b.WithInput(name, 2)
}

// WithStereoOutput is a convenience method for adding a stereo output
func (b *Builder) WithStereoOutput(name string) *Builder {
	return b.WithOutput(name, 2)
}

// WithStereoPairs adds count stereo input and output ports named
// "<prefix> N In" and "<prefix> N Out".
func (b *Builder) WithStereoPairs(prefix string, count int) *Builder {
	if count < 1 {
		b.errors = append(b.errors, fmt.Errorf("invalid stereo pair count %d", count))
		return b
	}
	for i := 1; i <= count; i++ {
		b.WithStereoInput(fmt.Sprintf("%s %d In", prefix, i))
		b.WithStereoOutput(fmt.Sprintf("%s %d Out", prefix, i))
	}
	return b
}

// Validate checks if the layout is usable by the port router
func (b *Builder) Validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("builder errors: %w", errors.Join(b.errors...))
	}

	if len(b.config.outputs) == 0 {
		return fmt.Errorf("layout must have at least one output port")
	}
	if len(b.config.inputs) > MaxPorts || len(b.config.outputs) > MaxPorts {
		return fmt.Errorf("layout exceeds maximum of %d ports per direction", MaxPorts)
	}

	width := 0
	for _, list := range [][]Info{b.config.inputs, b.config.outputs} {
		for _, p := range list {
			if p.ChannelCount <= 0 {
				return fmt.Errorf("invalid channel count %d for port %s", p.ChannelCount, p.Name)
			}
			if p.ChannelCount > MaxChannelsPerPort {
				return fmt.Errorf("channel count %d exceeds maximum of %d for port %s", p.ChannelCount, MaxChannelsPerPort, p.Name)
			}
			if width == 0 {
				width = p.ChannelCount
			} else if p.ChannelCount != width {
				return fmt.Errorf("port %s has %d channels, every port must have %d", p.Name, p.ChannelCount, width)
			}
		}
	}

	return nil
}

// Build returns the built layout or an error
func (b *Builder) Build() (*Configuration, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if len(b.config.outputs) > 0 {
		b.config.channelsPerPort = b.config.outputs[0].ChannelCount
	}
	return b.config, nil
}

// MustBuild returns the built layout or panics on error
func (b *Builder) MustBuild() *Configuration {
	config, err := b.Build()
	if err != nil {
		panic(err)
	}
	return config
}
