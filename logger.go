package alligator

import (
	"sync"

	"go.uber.org/zap"
)

var (
	pkgLogger *zap.Logger
	loggerMu  sync.Mutex
)

// Logger returns the package-level logger. It is a no-op logger by default.
func Logger() *zap.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if pkgLogger == nil {
		pkgLogger = zap.NewNop()
	}
	return pkgLogger
}

// SetLogger configures the package-level logger used by every Allocator
// that was not given its own via WithLogger.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	pkgLogger = l
}

// logger returns this Allocator's logger, falling back to the package
// default.
func (a *Allocator) logger() *zap.Logger {
	if a.log != nil {
		return a.log
	}
	return Logger()
}
