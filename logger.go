package passwordless

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger wraps a logrus logger. A nil logger uses the logrus standard
// logger.
//
// Messages with format verbs are formatted with args, otherwise args are
// read as key/value pairs and logged as fields.
func NewLogger(l *logrus.Logger, fields ...logrus.Fields) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	entry := logrus.NewEntry(l).WithField("module", "passwordless")
	for _, f := range fields {
		entry = entry.WithFields(f)
	}
	return &logrusLogger{entry: entry}
}

func (l *logrusLogger) Debug(format string, args ...any) {
	entry, msg := l.prepare(format, args)
	entry.Debug(msg)
}

func (l *logrusLogger) Info(format string, args ...any) {
	entry, msg := l.prepare(format, args)
	entry.Info(msg)
}

func (l *logrusLogger) Warn(format string, args ...any) {
	entry, msg := l.prepare(format, args)
	entry.Warn(msg)
}

func (l *logrusLogger) Error(format string, args ...any) {
	entry, msg := l.prepare(format, args)
	entry.Error(msg)
}

func (l *logrusLogger) prepare(format string, args []any) (*logrus.Entry, string) {
	if len(args) == 0 {
		return l.entry, format
	}

	if strings.Contains(format, "%") {
		return l.entry, fmt.Sprintf(format, args...)
	}

	fields := logrus.Fields{}
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 >= len(args) {
			fields["extra"] = args[i]
			break
		}
		fields[key] = args[i+1]
	}
	return l.entry.WithFields(fields), format
}

type nopLogger struct{}

func (nopLogger) Debug(format string, args ...any) {}
func (nopLogger) Info(format string, args ...any)  {}
func (nopLogger) Warn(format string, args ...any)  {}
func (nopLogger) Error(format string, args ...any) {}
