package automation

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// loggerPtr holds the active logger. By default the package logs nothing.
var loggerPtr atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	loggerPtr.Store(&nop)
}

// SetLogger installs the logger used for structural mutations and rejected
// operations. Evaluation paths never log. Pass nil to silence the package
// again. Safe for concurrent use.
//
//	automation.SetLogger(&log.Logger)
func SetLogger(l *zerolog.Logger) {
	if l == nil {
		nop := zerolog.Nop()
		l = &nop
	}
	loggerPtr.Store(l)
}

// Logger returns the logger installed with SetLogger.
func Logger() *zerolog.Logger {
	return loggerPtr.Load()
}
