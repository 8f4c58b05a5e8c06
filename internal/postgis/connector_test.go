package postgis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geodati/catasto2gpkg/internal/logging"
	"github.com/geodati/catasto2gpkg/internal/retry"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"refused", errors.New("dial tcp: connection refused"), "pg_isready -h db -p 5432"},
		{"password", errors.New("FATAL: password authentication failed for user x"), "PGPASSWORD"},
		{"missing database", errors.New(`FATAL: database "gis" does not exist`), "CREATE EXTENSION postgis"},
		{"other", errors.New("boom"), "failed to connect to db:5432"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapConnectionError(tt.err, "db", 5432)
			assert.ErrorIs(t, err, catasto.ErrConnectionFailed)
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestConnect_InvalidConnectionString(t *testing.T) {
	c := NewConnector(logging.NewNullLogger())

	_, err := c.Connect(context.Background(), "postgres://user@host:notaport/db")
	assert.ErrorIs(t, err, catasto.ErrInvalidConfig)
}

func TestConnect_UnreachableServerFailsWithoutRetry(t *testing.T) {
	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.NewExponentialBackoff(0))
	c := NewConnectorWithExecutor(executor, logging.NewNullLogger())

	_, err := c.Connect(context.Background(), "postgres://postgres@127.0.0.1:1/gis?connect_timeout=2")
	assert.ErrorIs(t, err, catasto.ErrConnectionFailed)
	assert.Equal(t, catasto.ExitConnectionError, catasto.ExitCodeForError(err))
}
