// Package logging provides named component loggers for the arb CLI.
//
// User-facing results go through internal/output; these loggers carry
// diagnostic detail that is hidden unless --verbose is set.
package logging

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu    sync.Mutex
	level = log.WarnLevel
	cache = map[string]*log.Logger{}
)

// SetVerbosity adjusts the level of all loggers, existing and future.
// verbose wins over quiet when both are set.
func SetVerbosity(verbose, quiet bool) {
	mu.Lock()
	defer mu.Unlock()

	switch {
	case verbose:
		level = log.DebugLevel
	case quiet:
		level = log.ErrorLevel
	default:
		level = log.WarnLevel
	}
	for _, l := range cache {
		l.SetLevel(level)
	}
}

// L returns the logger for the given component, creating it on first use.
func L(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := cache[component]; ok {
		return l
	}
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: component,
	})
	l.SetLevel(level)
	cache[component] = l
	return l
}
