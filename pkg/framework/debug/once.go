package debug

import "sync/atomic"

// Once remembers which diagnostics have already been written so a
// condition that repeats every render cycle is reported a single time.
// Keys are small integers chosen by the caller; the key space is fixed at
// construction so Once never allocates after that.
type Once struct {
	logger *Logger
	seen   []atomic.Bool
}

// NewOnce creates a limiter for keys in [0, size).
func NewOnce(logger *Logger, size int) *Once {
	if size < 1 {
		size = 1
	}
	return &Once{logger: logger, seen: make([]atomic.Bool, size)}
}

// Warn logs the message the first time key is reported and returns
// whether it was written.
func (o *Once) Warn(key int, format string, args ...interface{}) bool {
	if !o.first(key) {
		return false
	}
	o.logger.Warn(format, args...)
	return true
}

// Error is Warn at error level.
func (o *Once) Error(key int, format string, args ...interface{}) bool {
	if !o.first(key) {
		return false
	}
	o.logger.Error(format, args...)
	return true
}

// Seen reports whether key has been logged.
func (o *Once) Seen(key int) bool {
	if key < 0 || key >= len(o.seen) {
		return false
	}
	return o.seen[key].Load()
}

// Reset forgets every key, e.g. after the host reconfigures the plugin.
func (o *Once) Reset() {
	for i := range o.seen {
		o.seen[i].Store(false)
	}
}

func (o *Once) first(key int) bool {
	if key < 0 || key >= len(o.seen) {
		return false
	}
	return o.seen[key].CompareAndSwap(false, true)
}
