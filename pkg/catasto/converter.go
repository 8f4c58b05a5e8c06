package catasto

import (
	"context"
	"time"
)

// Converter is the interface for turning a root directory of archives into one package.
type Converter interface {
	// Convert runs the whole pipeline. The report is returned even when the
	// error is non-nil, describing whatever had been done before the failure.
	Convert(ctx context.Context, config ConversionConfig) (*Report, error)
}

// Publisher is the interface for copying package layers into PostGIS.
type Publisher interface {
	// Publish loads every feature layer of the package and returns the rows
	// written per layer.
	Publish(ctx context.Context, config PublishConfig) (map[string]int, error)
}

// ProgressObserver is notified as regions are processed.
// Implementations must not block.
type ProgressObserver interface {
	RegionStarted(code string, archives int)
	RegionFinished(result RegionResult)
}

// ErrorClassifier determines whether an error is transient (retryable) or fatal.
type ErrorClassifier interface {
	// IsTransient returns true if the error is temporary and the operation should be retried.
	IsTransient(err error) bool
}

// BackoffStrategy calculates the delay before the next retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the duration to wait before the next attempt.
	// attempt is zero-indexed (0 = first retry, 1 = second retry, etc.)
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the maximum number of retry attempts (0 = no retries, -1 = unlimited)
	MaxAttempts() int
}
