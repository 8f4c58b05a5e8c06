// Package logging provides implementations of the catasto.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: writes prefixed lines to stderr (or any writer)
//   - NullLogger: discards all messages
//   - RecordingLogger: keeps messages in memory for assertions in tests
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
