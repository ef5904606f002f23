package log

// Logger is the logging interface used across the bridge.
// Components receive it by injection and never reach for a global logger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})

	// WithField returns a child logger that appends key=value to every line.
	WithField(key string, value interface{}) Logger

	// SetLevel changes the minimum level at runtime (config hot reload).
	SetLevel(level string) error
}
