// Package feature holds the in-memory geometry table shared by the decoder,
// the merger and the package writer.
package feature

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// ErrSRIDMismatch is returned when tables in different reference systems are concatenated.
var ErrSRIDMismatch = errors.New("spatial reference systems differ")

// Feature is one row: a geometry plus its attribute values keyed by column name.
type Feature struct {
	Geometry   orb.Geometry
	Properties map[string]string
}

// Table is an ordered collection of features sharing a column set and an SRID.
// SRID 0 means undefined.
type Table struct {
	Columns  []string
	Features []Feature
	SRID     int

	index map[string]struct{}
}

// NewTable creates an empty table in the given reference system.
func NewTable(srid int) *Table {
	return &Table{SRID: srid}
}

// Len returns the number of features. A nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Features)
}

// HasColumn reports whether the column has been declared.
func (t *Table) HasColumn(name string) bool {
	t.ensureIndex()
	_, ok := t.index[name]
	return ok
}

// AddColumn declares a column, keeping first-seen order. Duplicates are ignored.
func (t *Table) AddColumn(name string) {
	t.ensureIndex()
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = struct{}{}
	t.Columns = append(t.Columns, name)
}

// Append adds a feature and declares any of its properties not yet known.
// Properties are declared in sorted order when the table has not seen them,
// so callers that care about column order should call AddColumn first.
func (t *Table) Append(f Feature) {
	for _, name := range sortedKeys(f.Properties) {
		t.AddColumn(name)
	}
	t.Features = append(t.Features, f)
}

// SetAll sets column to value on every feature, declaring the column if needed.
func (t *Table) SetAll(column, value string) {
	t.AddColumn(column)
	for i := range t.Features {
		if t.Features[i].Properties == nil {
			t.Features[i].Properties = make(map[string]string)
		}
		t.Features[i].Properties[column] = value
	}
}

// Filter keeps only the features for which keep returns true.
// Returns the number of removed features.
func (t *Table) Filter(keep func(Feature) bool) int {
	kept := t.Features[:0]
	for _, f := range t.Features {
		if keep(f) {
			kept = append(kept, f)
		}
	}
	removed := len(t.Features) - len(kept)
	for i := len(kept); i < len(t.Features); i++ {
		t.Features[i] = Feature{}
	}
	t.Features = kept
	return removed
}

// Bound returns the envelope of all non-empty geometries and false when there is none.
func (t *Table) Bound() (orb.Bound, bool) {
	var (
		bound orb.Bound
		found bool
	)
	for _, f := range t.Features {
		if f.Geometry == nil || IsEmpty(f.Geometry) {
			continue
		}
		b := f.Geometry.Bound()
		if !found {
			bound = b
			found = true
			continue
		}
		bound = bound.Union(b)
	}
	return bound, found
}

// Concat joins tables in order. Columns are the union of all inputs in
// first-seen order, and features missing a column simply lack that key.
// Nil and empty tables are skipped. Returns nil when no input has rows.
// Tables whose SRID is non-zero must agree.
func Concat(tables ...*Table) (*Table, error) {
	var out *Table
	for _, t := range tables {
		if t.Len() == 0 {
			continue
		}
		if out == nil {
			out = NewTable(t.SRID)
		}
		if t.SRID != 0 && out.SRID != 0 && t.SRID != out.SRID {
			return nil, fmt.Errorf("concat SRID %d with %d: %w", t.SRID, out.SRID, ErrSRIDMismatch)
		}
		if out.SRID == 0 {
			out.SRID = t.SRID
		}
		for _, c := range t.Columns {
			out.AddColumn(c)
		}
		out.Features = append(out.Features, t.Features...)
	}
	return out, nil
}

func (t *Table) ensureIndex() {
	if t.index != nil {
		return
	}
	t.index = make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		t.index[c] = struct{}{}
	}
}

// IsEmpty reports whether g has no coordinates, such as POLYGON EMPTY.
// A point is never empty.
func IsEmpty(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.MultiPoint:
		return len(v) == 0
	case orb.LineString:
		return len(v) == 0
	case orb.Ring:
		return len(v) == 0
	case orb.Polygon:
		return len(v) == 0
	case orb.MultiLineString:
		return len(v) == 0
	case orb.MultiPolygon:
		return len(v) == 0
	case orb.Collection:
		return len(v) == 0
	}
	return false
}
