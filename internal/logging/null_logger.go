package logging

import "github.com/geodati/catasto2gpkg/pkg/catasto"

// NullLogger discards every message. Tests use it where log output is not
// asserted on.
type NullLogger struct{}

var _ catasto.Logger = (*NullLogger)(nil)

// NewNullLogger creates a new NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (*NullLogger) Verbose(string, ...interface{}) {}

func (*NullLogger) Info(string, ...interface{}) {}

func (*NullLogger) Error(string, ...interface{}) {}
