package adapter

import (
	"sync/atomic"
	"weak"

	"github.com/kelindar/event"

	"github.com/mobius-looper/mobius-sub008/pkg/framework/plugin"
	"github.com/mobius-looper/mobius-sub008/pkg/hostsync"
)

// Editor is a plugin window. Detach is called once, when the adapter
// closes; the editor must stop using its handle by then.
type Editor interface {
	Detach()
}

// EditorHandle is an editor's view of its adapter. It does not keep the
// adapter alive, and after Close every method returns a zero value.
type EditorHandle struct {
	ref      weak.Pointer[Adapter]
	detached atomic.Bool
}

func (h *EditorHandle) adapter() *Adapter {
	if h == nil || h.detached.Load() {
		return nil
	}
	return h.ref.Value()
}

// Attached reports whether the adapter is still open.
func (h *EditorHandle) Attached() bool {
	return h.adapter() != nil
}

// Info returns the plugin identity.
func (h *EditorHandle) Info() plugin.Info {
	if a := h.adapter(); a != nil {
		return a.Info()
	}
	return plugin.Info{}
}

// Time returns the last sync snapshot.
func (h *EditorHandle) Time() hostsync.AudioTime {
	if a := h.adapter(); a != nil {
		return a.Time()
	}
	return hostsync.AudioTime{}
}

// ParameterCount returns the number of parameters.
func (h *EditorHandle) ParameterCount() int {
	if a := h.adapter(); a != nil {
		return a.ParameterCount()
	}
	return 0
}

// Parameter returns the host value of a parameter.
func (h *EditorHandle) Parameter(index int) float32 {
	if a := h.adapter(); a != nil {
		return a.GetParameter(index)
	}
	return 0
}

// ParameterDisplay formats the current value of a parameter.
func (h *EditorHandle) ParameterDisplay(index int) string {
	if a := h.adapter(); a != nil {
		return a.ParameterDisplay(index)
	}
	return ""
}

// SetParameter changes a parameter as the host would.
func (h *EditorHandle) SetParameter(index int, value float32) error {
	if a := h.adapter(); a != nil {
		return a.SetParameter(index, value)
	}
	return ErrClosed
}

// AttachEditor connects an editor. A previously attached editor is detached
// first. After Close the returned handle is already detached.
func (a *Adapter) AttachEditor(e Editor) *EditorHandle {
	h := &EditorHandle{ref: weak.Make(a)}

	a.mu.Lock()
	if a.Lifecycle() == Closed {
		a.mu.Unlock()
		h.detached.Store(true)
		return h
	}
	prevEditor, prevHandle := a.editor, a.handle
	a.editor, a.handle = e, h
	a.mu.Unlock()

	if prevHandle != nil {
		prevHandle.detached.Store(true)
	}
	if prevEditor != nil {
		prevEditor.Detach()
	}
	return h
}

// detachEditor releases the editor once during Close.
func (a *Adapter) detachEditor() {
	a.detachOnce.Do(func() {
		a.mu.Lock()
		e, h := a.editor, a.handle
		a.editor, a.handle = nil, nil
		a.mu.Unlock()

		if h == nil {
			return
		}
		h.detached.Store(true)
		if e != nil {
			e.Detach()
		}
		a.logger.Debug("editor detached")
		event.Publish(a.events, DetachedEvent{Instance: a.opts.Instance})
	})
}
