// Package logging provides component-scoped zerolog loggers.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
//
// The returned logger is derived from the global logger at call time, so
// components should call it after main has installed the configured logger.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
