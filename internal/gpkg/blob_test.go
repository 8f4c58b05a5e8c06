package gpkg

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeGeometry_Header(t *testing.T) {
	poly := orb.Polygon{{{1, 2}, {3, 2}, {3, 5}, {1, 5}, {1, 2}}}

	b, err := EncodeGeometry(poly, 6706)
	require.NoError(t, err)

	assert.Equal(t, []byte("GP"), b[:2])
	assert.Equal(t, byte(0), b[2], "version")
	assert.Equal(t, byte(0x03), b[3], "little endian with xy envelope")
	assert.Equal(t, uint32(6706), binary.LittleEndian.Uint32(b[4:8]))

	env := make([]float64, 4)
	for i := range env {
		env[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8+i*8:]))
	}
	assert.Equal(t, []float64{1, 3, 2, 5}, env, "minx, maxx, miny, maxy")
	assert.Equal(t, byte(1), b[40], "WKB byte order marker")
}

func TestEncodeGeometry_Empty(t *testing.T) {
	b, err := EncodeGeometry(orb.MultiPolygon{}, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(flagLittleEndian|flagEmpty), b[3])

	g, srid, err := DecodeGeometry(b)
	require.NoError(t, err)
	assert.Equal(t, 0, srid)
	assert.IsType(t, orb.MultiPolygon{}, g)
	assert.Empty(t, g)
}

func TestEncodeGeometry_EmptyPolygon(t *testing.T) {
	b, err := EncodeGeometry(orb.Polygon{}, 6706)
	require.NoError(t, err)
	assert.Equal(t, byte(flagLittleEndian|flagEmpty), b[3], "no envelope for an empty geometry")

	g, srid, err := DecodeGeometry(b)
	require.NoError(t, err)
	assert.Equal(t, 6706, srid)
	assert.IsType(t, orb.Polygon{}, g)
	assert.Empty(t, g)
}

func TestEncodeGeometry_Nil(t *testing.T) {
	_, err := EncodeGeometry(nil, 4326)
	assert.ErrorIs(t, err, ErrInvalidBlob)
}

func TestGeometryRoundTrip(t *testing.T) {
	geoms := []orb.Geometry{
		orb.Point{12.3, 45.4},
		orb.LineString{{0, 0}, {1, 1}, {2, 0}},
		orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		orb.MultiPolygon{
			{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
		},
	}
	for _, g := range geoms {
		t.Run(g.GeoJSONType(), func(t *testing.T) {
			b, err := EncodeGeometry(g, -1)
			require.NoError(t, err)

			got, srid, err := DecodeGeometry(b)
			require.NoError(t, err)
			assert.Equal(t, -1, srid)
			assert.True(t, orb.Equal(g, got), "got %v", got)
		})
	}
}

func TestDecodeGeometry_BigEndianNoEnvelope(t *testing.T) {
	// Header written by another producer: big endian, no envelope, followed by WKB POINT(7 8).
	b := []byte{'G', 'P', 0, 0x00, 0, 0, 0x10, 0xE6}
	b = append(b, 0x01, 0x01, 0, 0, 0)
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(7))
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(8))

	g, srid, err := DecodeGeometry(b)
	require.NoError(t, err)
	assert.Equal(t, 4326, srid)
	assert.Equal(t, orb.Point{7, 8}, g)
}

func TestDecodeGeometry_EnvelopeCodes(t *testing.T) {
	// Envelope sizes for xy, xyz, xym and xyzm are 4, 6, 6 and 8 doubles.
	tests := []struct {
		code    byte
		doubles int
	}{
		{0, 0},
		{1, 4},
		{2, 6},
		{3, 6},
		{4, 8},
	}
	body, err := wkb.Marshal(orb.Point{12.33, 45.44}, binary.LittleEndian)
	require.NoError(t, err)

	for _, tt := range tests {
		b := []byte{'G', 'P', 0, flagLittleEndian | tt.code<<envelopeShift}
		b = binary.LittleEndian.AppendUint32(b, 6706)
		for i := 0; i < tt.doubles; i++ {
			b = binary.LittleEndian.AppendUint64(b, math.Float64bits(float64(i)))
		}
		b = append(b, body...)

		g, srid, err := DecodeGeometry(b)
		if err != nil {
			t.Errorf("envelope code %d: %v", tt.code, err)
			continue
		}
		if srid != 6706 || !orb.Equal(g, orb.Point{12.33, 45.44}) {
			t.Errorf("envelope code %d: got %v srid %d", tt.code, g, srid)
		}
	}
}

func TestDecodeGeometry_Invalid(t *testing.T) {
	tests := map[string][]byte{
		"short":         {'G', 'P'},
		"magic":         {'X', 'P', 0, 1, 0, 0, 0, 0, 1},
		"version":       {'G', 'P', 1, 1, 0, 0, 0, 0, 1},
		"envelope code": {'G', 'P', 0, 0x0B, 0, 0, 0, 0, 1},
		"truncated":     {'G', 'P', 0, 0x03, 0, 0, 0, 0, 1, 2, 3},
		"wkb":           {'G', 'P', 0, 0x01, 0, 0, 0, 0, 9, 9, 9},
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeGeometry(b)
			assert.ErrorIs(t, err, ErrInvalidBlob)
		})
	}
}
