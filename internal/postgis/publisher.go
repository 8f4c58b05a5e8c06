package postgis

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/geodati/catasto2gpkg/internal/feature"
	"github.com/geodati/catasto2gpkg/internal/gpkg"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// ConnectFunc opens a pool for a connection string.
type ConnectFunc func(ctx context.Context, connString string) (*pgxpool.Pool, error)

// Publisher implements catasto.Publisher.
type Publisher struct {
	connect ConnectFunc
	logger  catasto.Logger
}

// NewPublisher creates a Publisher. Panics on nil dependencies.
func NewPublisher(connect ConnectFunc, logger catasto.Logger) *Publisher {
	if connect == nil {
		panic("connect cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Publisher{connect: connect, logger: logger}
}

// Publish copies every feature layer of the package into config.Schema.
// Existing tables are an error unless config.Overwrite is set.
func (p *Publisher) Publish(ctx context.Context, config catasto.PublishConfig) (map[string]int, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	pkg, err := gpkg.Open(ctx, config.PackagePath)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	layers, err := pkg.Layers(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := p.connect(ctx, config.ConnectionString)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{config.Schema}.Sanitize()); err != nil {
		return nil, fmt.Errorf("creating schema %s: %w: %w", config.Schema, err, catasto.ErrPublishFailed)
	}

	rows := make(map[string]int, len(layers))
	for _, info := range layers {
		t, err := pkg.ReadLayer(ctx, info.Name)
		if err != nil {
			return rows, err
		}
		if err := p.publishLayer(ctx, pool, config, info.Name, t); err != nil {
			return rows, fmt.Errorf("publishing %s: %w: %w", info.Name, err, catasto.ErrPublishFailed)
		}
		rows[info.Name] = t.Len()
		p.logger.Info("Published %d rows to %s.%s", t.Len(), config.Schema, info.Name)
	}
	return rows, nil
}

func (p *Publisher) publishLayer(ctx context.Context, pool *pgxpool.Pool, config catasto.PublishConfig, name string, t *feature.Table) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	table := pgx.Identifier{config.Schema, name}
	if config.Overwrite {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+table.Sanitize()); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, createTableSQL(table, t.Columns, t.SRID)); err != nil {
		return err
	}

	insert := insertSQL(table, t.Columns)
	batch := &pgx.Batch{}
	for i, f := range t.Features {
		args, err := insertArgs(i+1, f, t.Columns, t.SRID)
		if err != nil {
			return err
		}
		batch.Queue(insert, args...)
		if batch.Len() >= config.BatchSize {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return err
			}
			p.logger.Verbose("%s: %d/%d rows", name, i+1, t.Len())
			batch = &pgx.Batch{}
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// createTableSQL returns the DDL for a layer table. SRID 0 leaves the
// geometry column unconstrained.
func createTableSQL(table pgx.Identifier, columns []string, srid int) string {
	geomType := "geometry(Geometry, " + fmt.Sprint(srid) + ")"
	if srid <= 0 {
		geomType = "geometry"
	}
	defs := []string{
		pgx.Identifier{gpkg.FIDColumn}.Sanitize() + " bigint PRIMARY KEY",
		pgx.Identifier{gpkg.GeometryColumn}.Sanitize() + " " + geomType,
	}
	for _, c := range columns {
		defs = append(defs, pgx.Identifier{c}.Sanitize()+" text")
	}
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", table.Sanitize(), strings.Join(defs, ",\n    "))
}

// insertSQL returns a parameterized insert: $1 fid, $2 WKB, $3 SRID, then one
// parameter per attribute column.
func insertSQL(table pgx.Identifier, columns []string) string {
	names := []string{pgx.Identifier{gpkg.FIDColumn}.Sanitize(), pgx.Identifier{gpkg.GeometryColumn}.Sanitize()}
	values := []string{"$1", "ST_GeomFromWKB($2, $3)"}
	for i, c := range columns {
		names = append(names, pgx.Identifier{c}.Sanitize())
		values = append(values, fmt.Sprintf("$%d", i+4))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table.Sanitize(), strings.Join(names, ", "), strings.Join(values, ", "))
}

func insertArgs(fid int, f feature.Feature, columns []string, srid int) ([]any, error) {
	var geom []byte
	if f.Geometry != nil {
		b, err := wkb.Marshal(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("encoding feature %d: %w", fid, err)
		}
		geom = b
	}
	args := make([]any, 0, len(columns)+3)
	args = append(args, int64(fid), geom, srid)
	for _, c := range columns {
		if v, ok := f.Properties[c]; ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	return args, nil
}
