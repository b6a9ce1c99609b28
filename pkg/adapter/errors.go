package adapter

// Error codes
type Error int

const (
	// ErrZeroFrames rejects a render cycle with no frames.
	ErrZeroFrames Error = iota + 1
	// ErrBufferTooLarge rejects a render cycle longer than the scratch.
	ErrBufferTooLarge
	// ErrPortRange rejects host channel arrays wider than the port layout.
	ErrPortRange
	// ErrNotInitialized is returned by operations that need Initialize.
	ErrNotInitialized
	// ErrClosed is returned by every operation after Close.
	ErrClosed
	// ErrNilEngine is returned when the engine factory produced nothing.
	ErrNilEngine
	// ErrParameterRange is returned for a parameter index the host does
	// not own.
	ErrParameterRange

	errorCount
)

func (e Error) Error() string {
	switch e {
	case ErrZeroFrames:
		return "render with zero frames"
	case ErrBufferTooLarge:
		return "buffer exceeds maximum frames"
	case ErrPortRange:
		return "channel count exceeds port layout"
	case ErrNotInitialized:
		return "adapter not initialized"
	case ErrClosed:
		return "adapter closed"
	case ErrNilEngine:
		return "engine factory returned no engine"
	case ErrParameterRange:
		return "parameter index out of range"
	default:
		return "unknown error"
	}
}

// reason is the metric label of a rejected render cycle.
func (e Error) reason() string {
	switch e {
	case ErrZeroFrames:
		return "zero_frames"
	case ErrBufferTooLarge:
		return "buffer_too_large"
	case ErrPortRange:
		return "port_range"
	}
	return "other"
}
