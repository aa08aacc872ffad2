package pkg

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Component identifies a subsystem for log filtering.
type Component string

// Control-plane component identifiers.
const (
	ComponentStream    Component = "stream"
	ComponentNegotiate Component = "negotiate"
	ComponentQueue     Component = "queue"
	ComponentControl   Component = "control"
	ComponentHAL       Component = "hal"
)

// LogConfig captures options for configuring the package logger.
//
// Tracing of raw control pass-through is gated solely by the configured
// level; there is no separate debug toggle.
type LogConfig struct {
	Level  string    // minimum level ("debug", "info", ...); empty keeps the current level
	Output io.Writer // destination writer; nil disables output
}

var (
	logMutex      sync.RWMutex
	defaultLogger = zerolog.Nop()
)

// Configure replaces the package logger according to cfg. Passing a nil
// Output restores the no-op logger.
func Configure(cfg LogConfig) {
	logMutex.Lock()
	defer logMutex.Unlock()

	if cfg.Output == nil {
		defaultLogger = zerolog.Nop()
		return
	}

	level := zerolog.WarnLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}

	defaultLogger = zerolog.New(cfg.Output).Level(level).With().Timestamp().Logger()
}

// SetLogger replaces the package logger with a caller-supplied logger.
func SetLogger(logger zerolog.Logger) {
	logMutex.Lock()
	defer logMutex.Unlock()
	defaultLogger = logger
}

// Logger returns the current package logger.
func Logger() zerolog.Logger {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return defaultLogger
}

// ComponentLogger returns the package logger tagged with the given
// component.
func ComponentLogger(component Component) zerolog.Logger {
	return Logger().With().Str("component", string(component)).Logger()
}
