package definition

import (
	"os"

	"github.com/jabolina/go-terasort/internal/types"
	"github.com/sirupsen/logrus"
)

// LogrusLogger is the default types.Logger implementation. It generalizes
// the teacher's stdlib-backed DefaultLogger into a structured logger, the
// way a production continuation of that repository would: fields instead
// of string concatenation, same debug-gating behavior.
type LogrusLogger struct {
	entry *logrus.Entry
	base  *logrus.Logger
}

// NewDefaultLogger returns a Logger writing to stderr, debug disabled.
func NewDefaultLogger() *LogrusLogger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &LogrusLogger{
		base:  base,
		entry: logrus.NewEntry(base),
	}
}

func (l *LogrusLogger) Debug(v ...interface{})                 { l.entry.Debug(v...) }
func (l *LogrusLogger) Debugf(format string, v ...interface{}) { l.entry.Debugf(format, v...) }
func (l *LogrusLogger) Info(v ...interface{})                  { l.entry.Info(v...) }
func (l *LogrusLogger) Infof(format string, v ...interface{})  { l.entry.Infof(format, v...) }
func (l *LogrusLogger) Warn(v ...interface{})                  { l.entry.Warn(v...) }
func (l *LogrusLogger) Warnf(format string, v ...interface{})  { l.entry.Warnf(format, v...) }
func (l *LogrusLogger) Error(v ...interface{})                 { l.entry.Error(v...) }
func (l *LogrusLogger) Errorf(format string, v ...interface{}) { l.entry.Errorf(format, v...) }
func (l *LogrusLogger) Fatal(v ...interface{})                 { l.entry.Fatal(v...) }
func (l *LogrusLogger) Fatalf(format string, v ...interface{}) { l.entry.Fatalf(format, v...) }

func (l *LogrusLogger) ToggleDebug(value bool) bool {
	if value {
		l.base.SetLevel(logrus.DebugLevel)
	} else {
		l.base.SetLevel(logrus.InfoLevel)
	}
	return value
}

func (l *LogrusLogger) WithField(key string, value interface{}) types.Logger {
	return &LogrusLogger{
		base:  l.base,
		entry: l.entry.WithField(key, value),
	}
}
