package batch

import (
	"fmt"

	"github.com/umd-lib/plastron-go/internal/mlog"
)

// capturingLogger records Warnf calls for assertions; everything else is a
// no-op, inherited from NoneLogger.
type capturingLogger struct {
	*mlog.NoneLogger
	warnings *[]string
}

func (l *capturingLogger) Warnf(format string, args ...any) {
	*l.warnings = append(*l.warnings, fmt.Sprintf(format, args...))
}
