// Package dlog provides structured logging for the engine's control
// path. It must never be called from the processing task body or a
// device callback — both are real-time contexts where unbounded I/O
// is forbidden.
package dlog

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	level   = log.InfoLevel
	loggers = map[string]*log.Logger{}
)

// SetLevel adjusts the level of all loggers created via Named, including
// ones already handed out.
func SetLevel(l log.Level) {
	mu.Lock()
	defer mu.Unlock()

	level = l
	for _, lg := range loggers {
		lg.SetLevel(level)
	}
}

// Named returns the logger for a subsystem, creating it on first use.
func Named(subsystem string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if lg, ok := loggers[subsystem]; ok {
		return lg
	}

	lg := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: subsystem,
		Level:  level,
	})
	loggers[subsystem] = lg

	return lg
}
