package param

// Builder provides a fluent API for creating parameter definitions
type Builder struct {
	def Definition
}

// New creates a new parameter builder for a continuous 0..127 parameter
func New(id int, name string) *Builder {
	return &Builder{
		def: Definition{
			ID:        id,
			Name:      name,
			ShortName: name,
			Type:      Continuous,
			Min:       0,
			Max:       127,
			Flags:     CanAutomate,
		},
	}
}

// ShortName sets the short name
func (b *Builder) ShortName(name string) *Builder {
	b.def.ShortName = name
	return b
}

// Range sets the min and max values
func (b *Builder) Range(min, max int) *Builder {
	b.def.Min = min
	b.def.Max = max
	return b
}

// Default sets the default value
func (b *Builder) Default(value int) *Builder {
	b.def.Default = value
	return b
}

// Unit sets the unit string
func (b *Builder) Unit(unit string) *Builder {
	b.def.Unit = unit
	return b
}

// Enumeration makes the parameter a list with one value per label
func (b *Builder) Enumeration(labels ...string) *Builder {
	b.def.Type = Enumeration
	b.def.Labels = labels
	b.def.Min = 0
	b.def.Max = len(labels) - 1
	return b
}

// Toggle creates a boolean parameter
func (b *Builder) Toggle() *Builder {
	b.def.Type = Boolean
	b.def.Min = 0
	b.def.Max = 1
	return b
}

// Button creates a momentary parameter
func (b *Builder) Button() *Builder {
	b.def.Type = Button
	b.def.Min = 0
	b.def.Max = 1
	b.def.Default = 0
	return b
}

// ReadOnly marks the parameter as read-only
func (b *Builder) ReadOnly() *Builder {
	b.def.Flags |= IsReadOnly
	b.def.Flags &^= CanAutomate
	return b
}

// Hidden marks the parameter as hidden
func (b *Builder) Hidden() *Builder {
	b.def.Flags |= IsHidden
	return b
}

// Bypass marks this as the bypass parameter
func (b *Builder) Bypass() *Builder {
	b.def.Flags |= IsBypass
	return b.Toggle()
}

// Build returns the configured definition
func (b *Builder) Build() Definition {
	b.def.Default = b.def.Clamp(b.def.Default)
	return b.def
}
