package adapter

import (
	"io"

	"github.com/mobius-looper/mobius-sub008/pkg/framework/param"
	"github.com/mobius-looper/mobius-sub008/pkg/framework/state"
)

// ParameterCount returns the number of exported parameters, 0 before
// Initialize.
func (a *Adapter) ParameterCount() int {
	return a.table.Load().Count()
}

// Parameter returns the parameter at a host index, or nil.
func (a *Adapter) Parameter(index int) *param.Parameter {
	return a.table.Load().At(index)
}

// GetParameter returns the host value of a parameter.
func (a *Adapter) GetParameter(index int) float32 {
	p := a.Parameter(index)
	if p == nil {
		return 0
	}
	return a.scaler.ToHost(&p.Definition, p.Value())
}

// SetParameter takes a host value. While resumed the value is staged and
// reaches the engine at the next render cycle; otherwise it is applied
// directly.
func (a *Adapter) SetParameter(index int, value float32) error {
	p := a.Parameter(index)
	if p == nil {
		return ErrParameterRange
	}
	if p.Flags&param.IsReadOnly != 0 {
		return nil
	}
	v := a.scaler.FromHost(&p.Definition, value)

	switch a.Lifecycle() {
	case Resumed:
		p.Stage(v)
	case Closed:
		return ErrClosed
	default:
		a.mu.Lock()
		a.engine.SetParameterValue(p.ID, v)
		p.SetValue(v)
		p.SetEngineValue(v)
		a.mu.Unlock()
	}
	return nil
}

// ParameterName returns the name of a parameter, or "".
func (a *Adapter) ParameterName(index int) string {
	if p := a.Parameter(index); p != nil {
		return p.Name
	}
	return ""
}

// ParameterLabel returns the unit of a parameter, or "".
func (a *Adapter) ParameterLabel(index int) string {
	if p := a.Parameter(index); p != nil {
		return p.Unit
	}
	return ""
}

// ParameterDisplay formats the current value of a parameter.
func (a *Adapter) ParameterDisplay(index int) string {
	if p := a.Parameter(index); p != nil {
		return p.Format(p.Value())
	}
	return ""
}

// applyStaged hands staged values to the engine outside a render cycle.
// Callers hold mu.
func (a *Adapter) applyStaged() {
	for _, p := range a.table.Load().All() {
		if v, ok := p.TakeStaged(); ok {
			a.engine.SetParameterValue(p.ID, v)
			p.SetValue(v)
			p.SetEngineValue(v)
		}
	}
}

// refresh pulls engine values into the table outside a render cycle.
// Callers hold mu.
func (a *Adapter) refresh() {
	for _, p := range a.table.Load().All() {
		if !p.Staged() {
			v := a.engine.ParameterValue(p.ID)
			p.SetValue(v)
			p.SetEngineValue(v)
		}
	}
}

// SetCustomState lets the host application save state beyond parameter
// values along with them.
func (a *Adapter) SetCustomState(save state.CustomStateFunc, load state.CustomLoadFunc) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.states == nil {
		return ErrNotInitialized
	}
	a.states.SetCustomState(save, load)
	return nil
}

// SaveState writes the parameter values as a state chunk.
func (a *Adapter) SaveState(w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.Lifecycle() == Closed:
		return ErrClosed
	case a.states == nil:
		return ErrNotInitialized
	}
	if a.Lifecycle() != Resumed {
		a.refresh()
	}
	return a.states.Save(w)
}

// LoadState reads a chunk written by SaveState. Values are staged like
// host edits.
func (a *Adapter) LoadState(r io.Reader) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.Lifecycle() == Closed:
		return ErrClosed
	case a.states == nil:
		return ErrNotInitialized
	}
	if err := a.states.Load(r); err != nil {
		return err
	}
	if a.Lifecycle() != Resumed {
		a.applyStaged()
	}
	return nil
}
