package param

import (
	"fmt"
)

// Table holds the parameters the host sees, indexed 0..n-1 in the order
// the engine listed them. It is built once and then read without locks.
type Table struct {
	params []*Parameter
	byID   map[int]*Parameter
}

// NewTable builds a dense table from engine definitions. Every parameter
// starts at its default value.
func NewTable(defs []Definition) (*Table, error) {
	t := &Table{
		params: make([]*Parameter, 0, len(defs)),
		byID:   make(map[int]*Parameter, len(defs)),
	}

	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, exists := t.byID[d.ID]; exists {
			return nil, fmt.Errorf("duplicate parameter id %d (%s)", d.ID, d.Name)
		}
		p := &Parameter{Definition: d, Index: len(t.params)}
		if p.ShortName == "" {
			p.ShortName = p.Name
		}
		p.value.Store(int64(d.Default))
		t.params = append(t.params, p)
		t.byID[d.ID] = p
	}

	return t, nil
}

// Get retrieves a parameter by engine ID
func (t *Table) Get(id int) *Parameter {
	if t == nil {
		return nil
	}
	return t.byID[id]
}

// At retrieves a parameter by host index
func (t *Table) At(index int) *Parameter {
	if t == nil || index < 0 || index >= len(t.params) {
		return nil
	}
	return t.params[index]
}

// Count returns the number of parameters
func (t *Table) Count() int {
	if t == nil {
		return 0
	}
	return len(t.params)
}

// All returns all parameters in host order. The slice is shared and must
// not be modified.
func (t *Table) All() []*Parameter {
	if t == nil {
		return nil
	}
	return t.params
}
