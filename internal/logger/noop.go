package logger

// NoopLogger discards all log output. Used in tests.
type NoopLogger struct{}

// NewNoop creates a logger that discards everything.
func NewNoop() Interface {
	return &NoopLogger{}
}

func (n *NoopLogger) Debug(string, ...any) {}
func (n *NoopLogger) Info(string, ...any)  {}
func (n *NoopLogger) Warn(string, ...any)  {}
func (n *NoopLogger) Error(string, ...any) {}
func (n *NoopLogger) Fatal(string, ...any) {}

func (n *NoopLogger) With(...any) Interface          { return n }
func (n *NoopLogger) WithComponent(string) Interface { return n }
func (n *NoopLogger) WithError(error) Interface      { return n }
