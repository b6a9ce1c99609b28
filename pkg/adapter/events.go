package adapter

import "github.com/kelindar/event"

// Event types published on the adapter dispatcher
const (
	TypeStateChanged uint32 = iota + 0x4d00
	TypeDetached
)

// StateChangedEvent is published after every lifecycle transition.
type StateChangedEvent struct {
	Instance string
	From     Lifecycle
	To       Lifecycle
}

func (e StateChangedEvent) Type() uint32 { return TypeStateChanged }

// DetachedEvent is published once when Close releases the editor.
type DetachedEvent struct {
	Instance string
}

func (e DetachedEvent) Type() uint32 { return TypeDetached }

// OnStateChanged subscribes fn to lifecycle transitions. Handlers run on
// the dispatcher's goroutines, never on a host thread.
func (a *Adapter) OnStateChanged(fn func(StateChangedEvent)) (unsubscribe func()) {
	return event.Subscribe(a.events, fn)
}

// OnDetached subscribes fn to editor release.
func (a *Adapter) OnDetached(fn func(DetachedEvent)) (unsubscribe func()) {
	return event.Subscribe(a.events, fn)
}
