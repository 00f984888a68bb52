package mlog

// NoneLogger discards everything. It is the default logger attached to a
// context that never had one installed.
type NoneLogger struct{}

func (l *NoneLogger) Info(args ...any)   {}
func (l *NoneLogger) Infof(string, ...any) {}
func (l *NoneLogger) Infoln(args ...any) {}

func (l *NoneLogger) Error(args ...any)    {}
func (l *NoneLogger) Errorf(string, ...any) {}
func (l *NoneLogger) Errorln(args ...any)  {}

func (l *NoneLogger) Warn(args ...any)    {}
func (l *NoneLogger) Warnf(string, ...any) {}
func (l *NoneLogger) Warnln(args ...any)  {}

func (l *NoneLogger) Debug(args ...any)    {}
func (l *NoneLogger) Debugf(string, ...any) {}
func (l *NoneLogger) Debugln(args ...any)  {}

func (l *NoneLogger) Fatal(args ...any)    {}
func (l *NoneLogger) Fatalf(string, ...any) {}
func (l *NoneLogger) Fatalln(args ...any)  {}

//nolint:ireturn
func (l *NoneLogger) WithFields(fields ...any) Logger {
	return l
}

func (l *NoneLogger) Sync() error { return nil }
