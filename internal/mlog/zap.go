package mlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap.SugaredLogger to the Logger interface.
//
// This deliberately skips the OpenTelemetry-bridged logger the teacher stack
// wires (otelzap.SugaredLogger): nothing in this module exports traces or
// metrics, so there is no span context to attach to log lines.
type ZapLogger struct {
	Logger *zap.SugaredLogger
}

// NewZapLogger builds a ZapLogger at the given level, logging to stderr in
// a human-readable console encoding during development and JSON otherwise.
func NewZapLogger(level Level, development bool) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogger{Logger: z.Sugar()}, nil
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel, PanicLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) Info(args ...any)              { l.Logger.Info(args...) }
func (l *ZapLogger) Infof(format string, a ...any) { l.Logger.Infof(format, a...) }
func (l *ZapLogger) Infoln(args ...any)            { l.Logger.Infoln(args...) }

func (l *ZapLogger) Error(args ...any)              { l.Logger.Error(args...) }
func (l *ZapLogger) Errorf(format string, a ...any) { l.Logger.Errorf(format, a...) }
func (l *ZapLogger) Errorln(args ...any)            { l.Logger.Errorln(args...) }

func (l *ZapLogger) Warn(args ...any)              { l.Logger.Warn(args...) }
func (l *ZapLogger) Warnf(format string, a ...any) { l.Logger.Warnf(format, a...) }
func (l *ZapLogger) Warnln(args ...any)            { l.Logger.Warnln(args...) }

func (l *ZapLogger) Debug(args ...any)              { l.Logger.Debug(args...) }
func (l *ZapLogger) Debugf(format string, a ...any) { l.Logger.Debugf(format, a...) }
func (l *ZapLogger) Debugln(args ...any)            { l.Logger.Debugln(args...) }

func (l *ZapLogger) Fatal(args ...any)              { l.Logger.Fatal(args...) }
func (l *ZapLogger) Fatalf(format string, a ...any) { l.Logger.Fatalf(format, a...) }
func (l *ZapLogger) Fatalln(args ...any)            { l.Logger.Fatalln(args...) }

// WithFields adds structured context to the logger. It returns a new logger
// and leaves the original unchanged.
//
//nolint:ireturn
func (l *ZapLogger) WithFields(fields ...any) Logger {
	return &ZapLogger{Logger: l.Logger.With(fields...)}
}

func (l *ZapLogger) Sync() error { return l.Logger.Sync() }
