package feature

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y}}}
}

func tableWith(srid int, columns []string, n int) *Table {
	t := NewTable(srid)
	for _, c := range columns {
		t.AddColumn(c)
	}
	for i := 0; i < n; i++ {
		props := make(map[string]string)
		for _, c := range columns {
			props[c] = c
		}
		t.Append(Feature{Geometry: square(float64(i), 0), Properties: props})
	}
	return t
}

func TestTable_AddColumnKeepsOrder(t *testing.T) {
	tbl := NewTable(0)
	tbl.AddColumn("b")
	tbl.AddColumn("a")
	tbl.AddColumn("b")

	assert.Equal(t, []string{"b", "a"}, tbl.Columns)
	assert.True(t, tbl.HasColumn("a"))
	assert.False(t, tbl.HasColumn("c"))
}

func TestTable_SetAll(t *testing.T) {
	tbl := tableWith(6706, []string{"label"}, 3)
	tbl.Features[1].Properties = nil

	tbl.SetAll("provincia", "VE")

	assert.Equal(t, []string{"label", "provincia"}, tbl.Columns)
	for _, f := range tbl.Features {
		assert.Equal(t, "VE", f.Properties["provincia"])
	}
}

func TestTable_Filter(t *testing.T) {
	tbl := tableWith(0, nil, 4)
	tbl.Features[2].Geometry = nil

	removed := tbl.Filter(func(f Feature) bool { return f.Geometry != nil })

	assert.Equal(t, 1, removed)
	assert.Equal(t, 3, tbl.Len())
}

func TestTable_Bound(t *testing.T) {
	tbl := tableWith(0, nil, 3)
	tbl.Append(Feature{})

	b, ok := tbl.Bound()
	require.True(t, ok)
	assert.Equal(t, orb.Point{0, 0}, b.Min)
	assert.Equal(t, orb.Point{3, 1}, b.Max)

	_, ok = NewTable(0).Bound()
	assert.False(t, ok)
}

func TestTable_BoundSkipsEmptyGeometries(t *testing.T) {
	tbl := NewTable(6706)
	tbl.Append(Feature{Geometry: orb.Polygon{}})
	tbl.Append(Feature{Geometry: square(5, 5)})
	tbl.Append(Feature{Geometry: orb.MultiPolygon{}})

	b, ok := tbl.Bound()
	require.True(t, ok)
	assert.Equal(t, square(5, 5).Bound(), b)

	only := NewTable(6706)
	only.Append(Feature{Geometry: orb.Polygon{}})
	_, ok = only.Bound()
	assert.False(t, ok)
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		g    orb.Geometry
		want bool
	}{
		{orb.Point{}, false},
		{orb.Polygon{}, true},
		{orb.MultiPolygon{}, true},
		{orb.LineString{}, true},
		{orb.Collection{}, true},
		{square(0, 0), false},
		{orb.MultiPolygon{square(0, 0)}, false},
	}
	for _, tt := range tests {
		if got := IsEmpty(tt.g); got != tt.want {
			t.Errorf("IsEmpty(%T %v) = %v, want %v", tt.g, tt.g, got, tt.want)
		}
	}
}

func TestConcat_RowCountIsSum(t *testing.T) {
	a := tableWith(6706, []string{"label"}, 3)
	b := tableWith(6706, []string{"label", "area"}, 2)
	c := tableWith(6706, []string{"zone"}, 4)

	out, err := Concat(a, nil, NewTable(6706), b, c)
	require.NoError(t, err)

	assert.Equal(t, a.Len()+b.Len()+c.Len(), out.Len())
	assert.Equal(t, []string{"label", "area", "zone"}, out.Columns)
	assert.Equal(t, 6706, out.SRID)
}

func TestConcat_AllEmptyIsNil(t *testing.T) {
	out, err := Concat(nil, NewTable(4326))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestConcat_SRIDMismatch(t *testing.T) {
	_, err := Concat(tableWith(6706, nil, 1), tableWith(4326, nil, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSRIDMismatch))
}

func TestConcat_UndefinedSRIDAdoptsDefined(t *testing.T) {
	out, err := Concat(tableWith(0, nil, 1), tableWith(6706, nil, 1))
	require.NoError(t, err)
	assert.Equal(t, 6706, out.SRID)
}
