package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Level identifies the method an entry was logged with.
type Level string

const (
	LevelVerbose Level = "verbose"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Entry is one recorded message, already formatted.
type Entry struct {
	Level   Level
	Message string
}

// RecordingLogger keeps every message in memory.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) Verbose(format string, args ...interface{}) {
	l.record(LevelVerbose, format, args)
}

func (l *RecordingLogger) Info(format string, args ...interface{}) {
	l.record(LevelInfo, format, args)
}

func (l *RecordingLogger) Error(format string, args ...interface{}) {
	l.record(LevelError, format, args)
}

func (l *RecordingLogger) record(level Level, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Message: msg})
}

// Entries returns a copy of the recorded messages in order.
func (l *RecordingLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Contains reports whether any message at level contains substr.
func (l *RecordingLogger) Contains(level Level, substr string) bool {
	for _, e := range l.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
