package bus

// Common port layouts

// NewStereo creates a single stereo port in each direction
func NewStereo() *Configuration {
	return NewBuilder().
		WithStereoInput("Stereo In").
		WithStereoOutput("Stereo Out").
		MustBuild()
}

// NewMultiPort creates count stereo ports in each direction, the layout
// used for hosts that expose every track of the looper separately.
func NewMultiPort(count int) *Configuration {
	return NewBuilder().
		WithStereoPairs("Port", count).
		MustBuild()
}

// NewInstrument creates a stereo output with no audio input
func NewInstrument() *Configuration {
	return NewBuilder().
		WithStereoOutput("Stereo Out").
		MustBuild()
}
