package adapter

// Lifecycle is the adapter state as driven by the host.
//
//	Constructed -> Initialized -> Resumed <-> Suspended -> Closed
//
// Close is accepted from every state.
type Lifecycle int32

const (
	Constructed Lifecycle = iota
	Initialized
	Resumed
	Suspended
	Closed
)

func (l Lifecycle) String() string {
	switch l {
	case Constructed:
		return "constructed"
	case Initialized:
		return "initialized"
	case Resumed:
		return "resumed"
	case Suspended:
		return "suspended"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Rendering reports whether render cycles reach the engine in this state.
func (l Lifecycle) Rendering() bool {
	return l == Resumed
}
