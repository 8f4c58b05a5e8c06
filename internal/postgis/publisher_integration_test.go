//go:build integration

package postgis

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
	"github.com/geodati/catasto2gpkg/internal/geometry"
	"github.com/geodati/catasto2gpkg/internal/logging"
	"github.com/geodati/catasto2gpkg/internal/services"
	testhelpers "github.com/geodati/catasto2gpkg/internal/testing"
	"github.com/geodati/catasto2gpkg/internal/testing/fixtures"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

func TestPublish_Integration(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	ctx := context.Background()

	root := fixtures.StandardVeneto().WriteDir(t, filepath.Join(t.TempDir(), "veneto"))
	converter := services.NewConversionService(filesystem.NewOSFileSystem(), geometry.NewRepairer(), logging.NewNullLogger())
	report, err := converter.Convert(ctx, catasto.ConversionConfig{RootDir: root, ScratchDir: t.TempDir()})
	require.NoError(t, err)

	connector := NewConnector(logging.NewNullLogger())
	pool, err := connector.Connect(ctx, connString)
	require.NoError(t, err)
	defer pool.Close()
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS postgis")
	require.NoError(t, err)

	publisher := NewPublisher(connector.Connect, logging.NewNullLogger())
	config := catasto.PublishConfig{
		PackagePath:      report.Output,
		ConnectionString: connString,
		Schema:           "catasto_it",
		BatchSize:        2,
	}

	rows, err := publisher.Publish(ctx, config)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ple_layer": 3, "map_layer": 2}, rows)

	var (
		count int
		srid  int
		prov  string
	)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*), max(ST_SRID(geom)), max(provincia) FROM catasto_it.ple_layer`).Scan(&count, &srid, &prov))
	assert.Equal(t, 3, count)
	assert.Equal(t, 6706, srid)
	assert.Equal(t, "VE", prov)

	_, err = publisher.Publish(ctx, config)
	assert.ErrorIs(t, err, catasto.ErrPublishFailed, "existing tables need --overwrite")

	config.Overwrite = true
	_, err = publisher.Publish(ctx, config)
	require.NoError(t, err)
}
