package types

// Logger is the structured logging interface every component depends on.
// Mirrors the logging surface the teacher exposes through its own
// definition.Logger, so a caller can supply any backend that implements
// every method below.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})

	// ToggleDebug enables or disables Debug/Debugf output, returning the
	// value now in effect.
	ToggleDebug(value bool) bool

	// WithField returns a derived logger that tags every subsequent line
	// with the given key/value, e.g. peer id or phase name.
	WithField(key string, value interface{}) Logger
}
