package postgis

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodati/catasto2gpkg/internal/feature"
	"github.com/geodati/catasto2gpkg/internal/gpkg"
	"github.com/geodati/catasto2gpkg/internal/logging"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

func TestCreateTableSQL(t *testing.T) {
	got := createTableSQL(pgx.Identifier{"catasto", "ple_layer"}, []string{"gml_id", "comune"}, 6706)

	assert.Equal(t, `CREATE TABLE "catasto"."ple_layer" (
    "fid" bigint PRIMARY KEY,
    "geom" geometry(Geometry, 6706),
    "gml_id" text,
    "comune" text
)`, got)

	untyped := createTableSQL(pgx.Identifier{"public", "x"}, nil, 0)
	assert.Contains(t, untyped, `"geom" geometry`)
	assert.NotContains(t, untyped, "geometry(")
}

func TestInsertSQL(t *testing.T) {
	got := insertSQL(pgx.Identifier{"public", "map_layer"}, []string{"comune", `odd"name`})

	assert.Equal(t,
		`INSERT INTO "public"."map_layer" ("fid", "geom", "comune", "odd""name") VALUES ($1, ST_GeomFromWKB($2, $3), $4, $5)`,
		got)
}

func TestInsertArgs(t *testing.T) {
	f := feature.Feature{
		Geometry:   orb.Point{12.3, 45.4},
		Properties: map[string]string{"comune": "Venezia"},
	}

	args, err := insertArgs(7, f, []string{"comune", "provincia"}, 6706)
	require.NoError(t, err)

	require.Len(t, args, 5)
	assert.Equal(t, int64(7), args[0])
	assert.NotEmpty(t, args[1])
	assert.Equal(t, 6706, args[2])
	assert.Equal(t, "Venezia", args[3])
	assert.Nil(t, args[4])

	args, err = insertArgs(1, feature.Feature{}, nil, 6706)
	require.NoError(t, err)
	assert.Nil(t, args[1])
}

func TestPublish_ValidatesConfig(t *testing.T) {
	p := NewPublisher(failingConnect(nil), logging.NewNullLogger())

	_, err := p.Publish(context.Background(), catasto.PublishConfig{})
	assert.ErrorIs(t, err, catasto.ErrInvalidConfig)

	_, err = p.Publish(context.Background(), catasto.PublishConfig{
		PackagePath:      "x.gpkg",
		ConnectionString: "postgres://localhost/db",
		Schema:           "bad schema",
	})
	assert.ErrorIs(t, err, catasto.ErrInvalidConfig)
}

func TestPublish_MissingPackage(t *testing.T) {
	connected := false
	p := NewPublisher(func(context.Context, string) (*pgxpool.Pool, error) {
		connected = true
		return nil, errors.New("unreachable")
	}, logging.NewNullLogger())

	_, err := p.Publish(context.Background(), catasto.PublishConfig{
		PackagePath:      filepath.Join(t.TempDir(), "missing.gpkg"),
		ConnectionString: "postgres://localhost/db",
	})

	assert.Error(t, err)
	assert.False(t, connected, "the package is checked before connecting")
}

func TestPublish_ConnectionError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gpkg")
	pkg, err := gpkg.Create(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, pkg.Close())

	connErr := errors.New("refused")
	p := NewPublisher(failingConnect(connErr), logging.NewNullLogger())

	_, err = p.Publish(context.Background(), catasto.PublishConfig{
		PackagePath:      path,
		ConnectionString: "postgres://localhost/db",
	})
	assert.ErrorIs(t, err, connErr)
}

func TestNewPublisher_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewPublisher(nil, logging.NewNullLogger()) })
	assert.Panics(t, func() { NewPublisher(failingConnect(nil), nil) })
}

func failingConnect(err error) ConnectFunc {
	return func(context.Context, string) (*pgxpool.Pool, error) {
		if err == nil {
			err = errors.New("no database in unit tests")
		}
		return nil, err
	}
}
