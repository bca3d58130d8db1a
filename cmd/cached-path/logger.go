package main

import (
	"go.uber.org/zap"

	"gitlab.com/bella.network/cachedpath/pkg/cachedpath"
)

// zapLogger adapts a *zap.SugaredLogger to the library's narrow Logger
// capability, the same pattern the library itself uses to avoid forcing a
// logging framework on callers that don't want zap.
type zapLogger struct {
	s *zap.SugaredLogger
}

var _ cachedpath.Logger = zapLogger{}

func newZapLogger(debug bool) (zapLogger, func(), error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.TimeKey = "" // CLI output stays terse by default
	}

	logger, err := cfg.Build()
	if err != nil {
		return zapLogger{}, func() {}, err
	}

	return zapLogger{s: logger.Sugar()}, func() { _ = logger.Sync() }, nil
}

func (l zapLogger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l zapLogger) Infof(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l zapLogger) Warnf(format string, args ...interface{})  { l.s.Warnf(format, args...) }
func (l zapLogger) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }
