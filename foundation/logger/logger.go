// Package logger provides a thin, opinionated wrapper over zap, matching
// the call-site convention used throughout the engine's app layer:
// logger.New("SERVICE") returns a ready-to-use *zap.SugaredLogger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a JSON-encoding, info-level SugaredLogger tagged with
// service. Caller annotation skips one extra frame, so each line reports
// the function that called the code making the logging call, not the
// logging call itself.
func New(service string) (*zap.SugaredLogger, error) {
	return NewWithLevel(service, zapcore.InfoLevel)
}

// NewWithLevel is New with an explicit minimum level, for callers (tests,
// CLIs with a --debug flag) that need more or less verbosity than the
// default.
func NewWithLevel(service string, level zapcore.Level) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := config.Build(zap.WithCaller(true), zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return log.Sugar().With("service", service), nil
}
