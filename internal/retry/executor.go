package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// Executor runs an operation, retrying transient failures with backoff.
// WithOnRetry and WithClock return modified copies, so a configured Executor
// is safe for concurrent use.
type Executor struct {
	classifier catasto.ErrorClassifier
	strategy   catasto.BackoffStrategy
	clock      clockwork.Clock
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a retry executor. Panics if classifier or strategy is nil.
func NewExecutor(classifier catasto.ErrorClassifier, strategy catasto.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
		clock:      clockwork.NewRealClock(),
	}
}

// WithOnRetry returns a copy that calls callback before each wait.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithClock returns a copy that waits on c.
func (e *Executor) WithClock(c clockwork.Clock) *Executor {
	clone := *e
	clone.clock = c
	return &clone
}

// Execute runs operation until it succeeds, fails with a non-transient
// error, or the strategy runs out of attempts. The last error is returned.
// Cancellation of ctx while waiting returns ctx.Err().
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	maxAttempts := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := e.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
		}

		err = operation(ctx)
	}
	return err
}
