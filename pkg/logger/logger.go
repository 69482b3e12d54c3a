// Package logger constructs the zap.SugaredLogger instances handed to each
// subsystem (registry, object store, chronology writer/replayer, purge
// worker). Every subsystem logger is named so log lines can be filtered by
// component without grepping message text.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the base encoding and level of every logger this package
// produces.
type Config struct {
	// Development enables human-readable console output and debug level.
	// Production uses JSON encoding at info level.
	Development bool

	// Level overrides the default level (info for production, debug for
	// development) when non-empty. Accepts zapcore.Level names.
	Level string
}

// New builds the root *zap.Logger for the database from config.
func New(config Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if config.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	if config.Level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(config.Level)); err != nil {
			return nil, err
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	return zcfg.Build()
}

// Named returns a sugared child logger tagged with "component", the way
// each mffchron subsystem identifies itself in shared log output.
func Named(base *zap.Logger, component string) *zap.SugaredLogger {
	return base.Named(component).Sugar()
}

// Nop returns a sugared logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
