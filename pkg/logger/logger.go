package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//nolint:gochecknoglobals // Process-wide logger, swapped in tests via Set
var globalLogger *zap.SugaredLogger

// Init initializes the global logger. env "production" selects JSON output.
func Init(level string, env string) (err error) {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	}

	var zapLevel zapcore.Level
	if zapLevel.UnmarshalText([]byte(level)) != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	var logger *zap.Logger
	logger, err = config.Build()
	if err != nil {
		return err
	}

	globalLogger = logger.Sugar()
	return err
}

// Get returns the global logger, building a development logger on first use.
func Get() (logger *zap.SugaredLogger) {
	if globalLogger == nil {
		base, _ := zap.NewDevelopment()
		globalLogger = base.Sugar()
	}
	logger = globalLogger
	return logger
}

// Set replaces the global logger.
func Set(logger *zap.SugaredLogger) {
	globalLogger = logger
}

// Sync flushes any buffered log entries.
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
