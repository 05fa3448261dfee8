package logger

// keyValuePairSize represents the number of elements in a key-value pair.
const keyValuePairSize = 2

// KV adapts a Field-based Logger to the variadic key-value interface
// the core packages (classifier, normalizer, analyzer) declare locally.
type KV struct {
	log Logger
}

// NewKV wraps log in a key-value adapter.
func NewKV(log Logger) *KV {
	return &KV{log: log}
}

// Debug logs a debug message with key-value pairs.
func (a *KV) Debug(msg string, keysAndValues ...any) {
	a.log.Debug(msg, toFields(keysAndValues)...)
}

// Info logs an info message with key-value pairs.
func (a *KV) Info(msg string, keysAndValues ...any) {
	a.log.Info(msg, toFields(keysAndValues)...)
}

// Warn logs a warning message with key-value pairs.
func (a *KV) Warn(msg string, keysAndValues ...any) {
	a.log.Warn(msg, toFields(keysAndValues)...)
}

// Error logs an error message with key-value pairs.
func (a *KV) Error(msg string, keysAndValues ...any) {
	a.log.Error(msg, toFields(keysAndValues)...)
}

// toFields converts key-value pairs to Field slice. Keys that are not
// strings, and trailing values without a key, are dropped.
func toFields(keysAndValues []any) []Field {
	fields := make([]Field, 0, len(keysAndValues)/keyValuePairSize)
	for i := 0; i < len(keysAndValues); i += keyValuePairSize {
		if i+1 >= len(keysAndValues) {
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, Any(key, keysAndValues[i+1]))
	}
	return fields
}
