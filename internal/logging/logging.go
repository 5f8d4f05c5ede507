// Package logging holds the zap logger shared by the library packages.
// It is a no-op logger until Set is called.
package logging

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	nop    = zap.NewNop()
	logger atomic.Pointer[zap.Logger]
)

// Logger returns the configured logger or a no-op logger.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nop
}

// Set installs l. A nil l restores the no-op logger.
func Set(l *zap.Logger) {
	logger.Store(l)
}

// Named returns a child logger for one package.
func Named(name string) *zap.Logger {
	return Logger().Named(name)
}
