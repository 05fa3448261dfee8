package logger

// nopLogger discards everything. Used in tests and as a safe default.
type nopLogger struct{}

// NewNop returns a Logger that discards all log entries.
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}
func (nopLogger) Sync() error            { return nil }

func (n nopLogger) With(...Field) Logger { return n }
