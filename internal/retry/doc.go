// Package retry retries an operation with exponential backoff while its
// errors are classified as transient.
//
// It guards the PostGIS connect step of the publish command:
//
//	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.NewExponentialBackoff(3)).
//	    WithOnRetry(func(attempt int, err error, delay time.Duration) {
//	        logger.Verbose("connect attempt %d failed: %v (retrying in %s)", attempt+1, err, delay)
//	    })
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    pool, err = pgxpool.NewWithConfig(ctx, cfg)
//	    if err != nil {
//	        return err
//	    }
//	    return pool.Ping(ctx)
//	})
//
// Waiting goes through a clockwork.Clock so tests can advance time instead of sleeping.
package retry
