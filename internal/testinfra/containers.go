// Package testinfra starts the containers used by integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostGISImage     = "postgis/postgis:17-3.5"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "catasto"
)

// PostGISContainer is a running test database. Callers terminate it.
type PostGISContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartPostGIS starts a PostgreSQL server and enables the PostGIS extension
// in PostgresDB.
func StartPostGIS(ctx context.Context) (*PostGISContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostGISImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgis: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	if err := enablePostGIS(ctx, connStr); err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	return &PostGISContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}

// enablePostGIS installs the extension in the test database.
func enablePostGIS(ctx context.Context, connStr string) error {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return fmt.Errorf("connect to postgis: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS postgis"); err != nil {
		return fmt.Errorf("create extension postgis: %w", err)
	}
	return nil
}
