package adapter

import "github.com/mobius-looper/mobius-sub008/pkg/framework/debug"

// Recover stops a panic from reaching the host. Flavor entry points defer
// it directly.
func Recover(logger *debug.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error("panic in %s: %v", operation, r)
	}
}
