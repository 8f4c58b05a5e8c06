package postgis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geodati/catasto2gpkg/internal/retry"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

const (
	// DefaultMaxConns keeps the publish to one writer plus one spare connection.
	DefaultMaxConns = 2

	// DefaultMaxConnIdleTime keeps connections alive across long layer loads.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

// Connector opens a connection pool, retrying transient failures.
type Connector struct {
	executor *retry.Executor
	logger   catasto.Logger
}

// NewConnector creates a Connector with the default retry policy.
func NewConnector(logger catasto.Logger) *Connector {
	strategy := retry.NewExponentialBackoff(catasto.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(catasto.DefaultRetryInitialDelay),
		retry.WithMaxDelay(catasto.DefaultRetryMaxDelay),
	)
	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("Connection attempt %d failed: %v (retrying in %s)", attempt+1, err, delay.Round(time.Millisecond))
		})
	return &Connector{executor: executor, logger: logger}
}

// NewConnectorWithExecutor creates a Connector with a custom retry executor.
func NewConnectorWithExecutor(executor *retry.Executor, logger catasto.Logger) *Connector {
	return &Connector{executor: executor, logger: logger}
}

// Connect parses connString and returns a pinged pool. Errors wrap
// catasto.ErrConnectionFailed.
func (c *Connector) Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w: %w", err, catasto.ErrInvalidConfig)
	}
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime

	var pool *pgxpool.Pool
	err = c.executor.Execute(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, wrapConnectionError(err, poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port)
	}

	c.logger.Verbose("Connected to %s:%d/%s", poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port, poolConfig.ConnConfig.Database)
	return pool, nil
}

// wrapConnectionError adds guidance for the most common connection failures.
func wrapConnectionError(err error, host string, port uint16) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port

Original error: %w: %w`, addr, host, port, err, catasto.ErrConnectionFailed)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed at %s

Possible causes:
  - Wrong password (check $PGPASSWORD or ~/.pgpass)
  - Wrong username

Original error: %w: %w`, addr, err, catasto.ErrConnectionFailed)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`target database does not exist at %s

Create it first, then enable PostGIS:
  createdb <name> && psql -d <name> -c 'CREATE EXTENSION postgis'

Original error: %w: %w`, addr, err, catasto.ErrConnectionFailed)

	default:
		return fmt.Errorf("failed to connect to %s: %w: %w", addr, err, catasto.ErrConnectionFailed)
	}
}
