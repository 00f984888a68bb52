// Package mlog defines the logging interface used across plastron-go and a
// couple of backing implementations (a bare log.Logger wrapper and a zap
// wrapper).
package mlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger is the common interface for log implementations.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)
	Infoln(args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)
	Errorln(args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)
	Warnln(args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)
	Debugln(args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Fatalln(args ...any)

	WithFields(fields ...any) Logger

	Sync() error
}

// Level represents the severity of a log entry.
type Level int8

// These are the log levels, ordered from least to most severe.
const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

// ParseLevel takes a string level and returns a Level constant.
func ParseLevel(lvl string) (Level, error) {
	switch strings.ToLower(lvl) {
	case "fatal":
		return FatalLevel, nil
	case "error":
		return ErrorLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	}

	var l Level

	return l, fmt.Errorf("not a valid log level: %q", lvl)
}

// GoLogger is the standard-library (log package) implementation of Logger.
// It backs the plain-file logging path selected by the REPOSITORY.LOGGING_CONFIG
// configuration key: a destination other than stderr/stdout needs no
// structured sink, so it is written with log.Logger rather than zap.
type GoLogger struct {
	std    *log.Logger
	fields []any
	Level  Level
}

// NewGoLogger builds a GoLogger writing to out at the given level.
func NewGoLogger(level Level, out io.Writer) *GoLogger {
	if out == nil {
		out = os.Stderr
	}

	return &GoLogger{std: log.New(out, "", log.LstdFlags), Level: level}
}

// IsLevelEnabled reports whether the given level would produce output.
func (l *GoLogger) IsLevelEnabled(level Level) bool {
	return l.Level >= level
}

func (l *GoLogger) print(level Level, args ...any) {
	if l.IsLevelEnabled(level) {
		l.std.Print(append(append([]any{}, l.fields...), args...)...)
	}
}

func (l *GoLogger) printf(level Level, format string, args ...any) {
	if l.IsLevelEnabled(level) {
		l.std.Printf(format, args...)
	}
}

func (l *GoLogger) println(level Level, args ...any) {
	if l.IsLevelEnabled(level) {
		l.std.Println(append(append([]any{}, l.fields...), args...)...)
	}
}

func (l *GoLogger) Info(args ...any) { l.print(InfoLevel, args...) }
func (l *GoLogger) Infof(format string, a ...any) { l.printf(InfoLevel, format, a...) }
func (l *GoLogger) Infoln(args ...any) { l.println(InfoLevel, args...) }

func (l *GoLogger) Error(args ...any) { l.print(ErrorLevel, args...) }
func (l *GoLogger) Errorf(format string, a ...any) { l.printf(ErrorLevel, format, a...) }
func (l *GoLogger) Errorln(args ...any) { l.println(ErrorLevel, args...) }

func (l *GoLogger) Warn(args ...any) { l.print(WarnLevel, args...) }
func (l *GoLogger) Warnf(format string, a ...any) { l.printf(WarnLevel, format, a...) }
func (l *GoLogger) Warnln(args ...any) { l.println(WarnLevel, args...) }

func (l *GoLogger) Debug(args ...any) { l.print(DebugLevel, args...) }
func (l *GoLogger) Debugf(format string, a ...any) { l.printf(DebugLevel, format, a...) }
func (l *GoLogger) Debugln(args ...any) { l.println(DebugLevel, args...) }

func (l *GoLogger) Fatal(args ...any) { l.print(FatalLevel, args...) }
func (l *GoLogger) Fatalf(format string, a ...any) { l.printf(FatalLevel, format, a...) }
func (l *GoLogger) Fatalln(args ...any) { l.println(FatalLevel, args...) }

// WithFields returns a GoLogger that carries the given fields, with the
// parent's destination and level. The plain and ln methods (Info, Infoln,
// ...) write the fields ahead of their arguments; the formatted methods
// (Infof, ...) do not render them.
//
//nolint:ireturn
func (l *GoLogger) WithFields(fields ...any) Logger {
	return &GoLogger{
		std:    l.std,
		Level:  l.Level,
		fields: fields,
	}
}

func (l *GoLogger) Sync() error { return nil }
