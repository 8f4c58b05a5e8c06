package gpkg

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/geodati/catasto2gpkg/internal/feature"
)

const (
	// dirPermissions is the permission mode for created parent directories.
	dirPermissions = 0o755

	// connectionTimeout bounds the ping that verifies a freshly opened file.
	connectionTimeout = 5 * time.Second

	// ApplicationID is "GPKG" as a big-endian int32.
	ApplicationID = 0x47504B47

	// UserVersion identifies GeoPackage 1.2.
	UserVersion = 10200

	// FIDColumn and GeometryColumn are the fixed columns of every layer.
	FIDColumn      = "fid"
	GeometryColumn = "geom"

	// renamedSuffix is appended to attribute columns that collide with the fixed columns.
	renamedSuffix = "_src"
)

var (
	// ErrLayerNotFound is returned when a package has no feature layer of the requested name.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrLayerExists is returned when writing a layer that is already present.
	ErrLayerExists = errors.New("layer already exists")

	// ErrNotGeoPackage is returned when opening a SQLite file without the GeoPackage application id.
	ErrNotGeoPackage = errors.New("not a GeoPackage")
)

//go:embed schema.sql
var schemaSQL string

// Package is an open GeoPackage file.
// It is not safe for concurrent use.
type Package struct {
	db   *sql.DB
	path string
}

// LayerInfo summarizes a feature layer.
type LayerInfo struct {
	Name         string
	GeometryType string
	SRID         int
	Rows         int
	MinX, MinY   float64
	MaxX, MaxY   float64
}

// Create writes a new, empty GeoPackage at path. An existing file at path is replaced.
func Create(ctx context.Context, path string) (*Package, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating package directory: %w", err)
	}
	for _, p := range []string{path, path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("replacing %s: %w", p, err)
		}
	}

	p, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		p.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("creating GeoPackage schema: %w", err)
	}
	return p, nil
}

// Open opens an existing GeoPackage.
func Open(ctx context.Context, path string) (*Package, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening package: %w", err)
	}
	p, err := open(ctx, path)
	if err != nil {
		return nil, err
	}

	var appID int64
	if err := p.db.QueryRowContext(ctx, "PRAGMA application_id").Scan(&appID); err != nil {
		p.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("reading application id: %w", err)
	}
	if appID != ApplicationID {
		p.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("%w: %s", ErrNotGeoPackage, path)
	}
	return p, nil
}

func open(ctx context.Context, path string) (*Package, error) {
	connStr, err := connectionString(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening package: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("verifying package connection: %w", err)
	}
	return &Package{db: db, path: path}, nil
}

// connectionString builds the SQLite URI for path. Names are percent-encoded,
// so '#', '?' and '%' in directory names reach the file system unchanged.
// See: https://github.com/mattn/go-sqlite3#connection-string
func connectionString(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving package path: %w", err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		Path:     p,
		RawQuery: "_foreign_keys=on&_journal_mode=DELETE",
	}
	return u.String(), nil
}

// Path returns the file the package was opened from.
func (p *Package) Path() string {
	return p.path
}

// Close releases the underlying connection.
func (p *Package) Close() error {
	if p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("closing package: %w", err)
	}
	p.db = nil
	return nil
}

// WriteLayer creates a feature layer holding t. Attribute columns are TEXT
// and keep the table's column order; a missing property is stored as NULL.
// Features with a nil geometry are stored with a NULL geometry.
func (p *Package) WriteLayer(ctx context.Context, name string, t *feature.Table) error {
	exists, err := p.hasLayer(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrLayerExists, name)
	}

	columns := storageColumns(t.Columns)
	srid := t.SRID

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := ensureSRS(ctx, tx, srid); err != nil {
		return err
	}

	defs := []string{
		quoteIdent(FIDColumn) + " INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL",
		quoteIdent(GeometryColumn) + " " + geometryTypeName(t),
	}
	for _, c := range columns {
		defs = append(defs, quoteIdent(c)+" TEXT")
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating layer %s: %w", name, err)
	}

	var minX, minY, maxX, maxY any
	if b, ok := t.Bound(); ok {
		minX, minY, maxX, maxY = b.Min[0], b.Min[1], b.Max[0], b.Max[1]
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO gpkg_contents (table_name, data_type, identifier, min_x, min_y, max_x, max_y, srs_id)
		 VALUES (?, 'features', ?, ?, ?, ?, ?, ?)`,
		name, name, minX, minY, maxX, maxY, srid); err != nil {
		return fmt.Errorf("registering layer %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name, srs_id, z, m)
		 VALUES (?, ?, ?, ?, 0, 0)`,
		name, GeometryColumn, geometryTypeName(t), srid); err != nil {
		return fmt.Errorf("registering geometry column of %s: %w", name, err)
	}

	if err := insertFeatures(ctx, tx, name, t, columns); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing layer %s: %w", name, err)
	}
	return nil
}

func insertFeatures(ctx context.Context, tx *sql.Tx, name string, t *feature.Table, columns []string) error {
	quoted := []string{quoteIdent(GeometryColumn)}
	marks := []string{"?"}
	for _, c := range columns {
		quoted = append(quoted, quoteIdent(c))
		marks = append(marks, "?")
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("preparing insert into %s: %w", name, err)
	}
	defer stmt.Close()

	args := make([]any, len(columns)+1)
	for i, f := range t.Features {
		args[0] = nil
		if f.Geometry != nil {
			blob, err := EncodeGeometry(f.Geometry, t.SRID)
			if err != nil {
				return fmt.Errorf("feature %d of %s: %w", i, name, err)
			}
			args[0] = blob
		}
		for j, c := range t.Columns {
			if v, ok := f.Properties[c]; ok {
				args[j+1] = v
			} else {
				args[j+1] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting feature %d into %s: %w", i, name, err)
		}
	}
	return nil
}

// ReadLayer loads a feature layer into memory, in fid order.
func (p *Package) ReadLayer(ctx context.Context, name string) (*feature.Table, error) {
	var (
		geomCol string
		srid    int
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT g.column_name, g.srs_id
		   FROM gpkg_contents c
		   JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		  WHERE c.table_name = ? AND c.data_type = 'features'`, name).Scan(&geomCol, &srid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s in %s", ErrLayerNotFound, name, p.path)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up layer %s: %w", name, err)
	}

	columns, err := p.attributeColumns(ctx, name, geomCol)
	if err != nil {
		return nil, err
	}

	selected := []string{quoteIdent(geomCol)}
	for _, c := range columns {
		selected = append(selected, quoteIdent(c))
	}
	rows, err := p.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(selected, ", "), quoteIdent(name), quoteIdent(FIDColumn)))
	if err != nil {
		return nil, fmt.Errorf("reading layer %s: %w", name, err)
	}
	defer rows.Close()

	t := feature.NewTable(srid)
	for _, c := range columns {
		t.AddColumn(c)
	}

	var blob []byte
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns)+1)
	dest[0] = &blob
	for i := range values {
		dest[i+1] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning layer %s: %w", name, err)
		}
		f := feature.Feature{Properties: make(map[string]string, len(columns))}
		if blob != nil {
			g, _, err := DecodeGeometry(blob)
			if err != nil {
				return nil, fmt.Errorf("layer %s: %w", name, err)
			}
			f.Geometry = g
		}
		for i, v := range values {
			if v.Valid {
				f.Properties[columns[i]] = v.String
			}
		}
		t.Append(f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading layer %s: %w", name, err)
	}
	return t, nil
}

// Layers lists the feature layers of the package in name order.
func (p *Package) Layers(ctx context.Context) ([]LayerInfo, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT c.table_name, g.geometry_type_name, g.srs_id,
		        COALESCE(c.min_x, 0), COALESCE(c.min_y, 0), COALESCE(c.max_x, 0), COALESCE(c.max_y, 0)
		   FROM gpkg_contents c
		   JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		  WHERE c.data_type = 'features'
		  ORDER BY c.table_name`)
	if err != nil {
		return nil, fmt.Errorf("listing layers: %w", err)
	}

	var layers []LayerInfo
	for rows.Next() {
		var l LayerInfo
		if err := rows.Scan(&l.Name, &l.GeometryType, &l.SRID, &l.MinX, &l.MinY, &l.MaxX, &l.MaxY); err != nil {
			rows.Close()
			return nil, fmt.Errorf("listing layers: %w", err)
		}
		layers = append(layers, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing layers: %w", err)
	}

	for i := range layers {
		q := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(layers[i].Name))
		if err := p.db.QueryRowContext(ctx, q).Scan(&layers[i].Rows); err != nil {
			return nil, fmt.Errorf("counting rows of %s: %w", layers[i].Name, err)
		}
	}
	return layers, nil
}

func (p *Package) hasLayer(ctx context.Context, name string) (bool, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking layer %s: %w", name, err)
	}
	return n > 0, nil
}

func (p *Package) attributeColumns(ctx context.Context, name, geomCol string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", name, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			col     string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("reading columns of %s: %w", name, err)
		}
		if pk > 0 || col == geomCol {
			continue
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func ensureSRS(ctx context.Context, tx *sql.Tx, srid int) error {
	if srid <= 0 {
		return nil
	}
	srsName, definition := srsRow(srid)
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO gpkg_spatial_ref_sys
		     (srs_name, srs_id, organization, organization_coordsys_id, definition)
		 VALUES (?, ?, 'EPSG', ?, ?)`,
		srsName, srid, srid, definition)
	if err != nil {
		return fmt.Errorf("registering EPSG:%d: %w", srid, err)
	}
	return nil
}

// storageColumns maps table columns to SQL column names, renaming those that
// collide with the fixed fid and geom columns.
func storageColumns(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		if strings.EqualFold(c, FIDColumn) || strings.EqualFold(c, GeometryColumn) {
			c += renamedSuffix
		}
		out[i] = c
	}
	return out
}

// geometryTypeName returns the GeoPackage type of the layer: the common type
// of all features, or GEOMETRY when they differ or there are none.
func geometryTypeName(t *feature.Table) string {
	name := ""
	for _, f := range t.Features {
		if f.Geometry == nil {
			continue
		}
		n := strings.ToUpper(f.Geometry.GeoJSONType())
		if name == "" {
			name = n
			continue
		}
		if n != name {
			return "GEOMETRY"
		}
	}
	if name == "" {
		return "GEOMETRY"
	}
	return name
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// CountBy returns the number of rows of a layer per distinct value of column.
// NULL values are counted under the empty string.
func (p *Package) CountBy(ctx context.Context, layer, column string) (map[string]int, error) {
	exists, err := p.hasLayer(ctx, layer)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s in %s", ErrLayerNotFound, layer, p.path)
	}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf("SELECT COALESCE(%s, ''), COUNT(*) FROM %s GROUP BY 1",
		quoteIdent(column), quoteIdent(layer)))
	if err != nil {
		return nil, fmt.Errorf("counting %s by %s: %w", layer, column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			value string
			n     int
		)
		if err := rows.Scan(&value, &n); err != nil {
			return nil, fmt.Errorf("counting %s by %s: %w", layer, column, err)
		}
		counts[value] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("counting %s by %s: %w", layer, column, err)
	}
	return counts, nil
}
