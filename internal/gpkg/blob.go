package gpkg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/geodati/catasto2gpkg/internal/feature"
)

// ErrInvalidBlob is returned for bytes that are not a GeoPackage geometry.
var ErrInvalidBlob = errors.New("invalid GeoPackage geometry blob")

const (
	headerSize = 8

	flagLittleEndian = 0x01
	flagEmpty        = 0x10
	envelopeShift    = 1
	envelopeMask     = 0x07
	envelopeXY       = 1
)

// envelopeSizes maps the envelope contents indicator to its size in bytes.
var envelopeSizes = [...]int{0, 32, 48, 48, 64}

// EncodeGeometry serializes g as a GeoPackage binary geometry: the "GP"
// header with an xy envelope followed by little-endian WKB.
func EncodeGeometry(g orb.Geometry, srid int) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil geometry", ErrInvalidBlob)
	}
	body, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("failed to encode WKB: %w", err)
	}

	flags := byte(flagLittleEndian)
	var envelope []float64
	if feature.IsEmpty(g) {
		flags |= flagEmpty
	} else {
		flags |= envelopeXY << envelopeShift
		b := g.Bound()
		envelope = []float64{b.Min[0], b.Max[0], b.Min[1], b.Max[1]}
	}

	buf := make([]byte, headerSize, headerSize+len(envelope)*8+len(body))
	buf[0], buf[1], buf[2], buf[3] = 'G', 'P', 0, flags
	binary.LittleEndian.PutUint32(buf[4:], uint32(int32(srid)))
	for _, v := range envelope {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return append(buf, body...), nil
}

// DecodeGeometry parses a GeoPackage binary geometry and returns the
// geometry and its srs_id.
func DecodeGeometry(b []byte) (orb.Geometry, int, error) {
	if len(b) < headerSize || b[0] != 'G' || b[1] != 'P' {
		return nil, 0, fmt.Errorf("%w: bad magic", ErrInvalidBlob)
	}
	if b[2] != 0 {
		return nil, 0, fmt.Errorf("%w: version %d", ErrInvalidBlob, b[2])
	}

	flags := b[3]
	var order binary.ByteOrder = binary.BigEndian
	if flags&flagLittleEndian != 0 {
		order = binary.LittleEndian
	}
	srid := int(int32(order.Uint32(b[4:8])))

	code := int(flags>>envelopeShift) & envelopeMask
	if code >= len(envelopeSizes) {
		return nil, 0, fmt.Errorf("%w: envelope indicator %d", ErrInvalidBlob, code)
	}
	offset := headerSize + envelopeSizes[code]
	if len(b) <= offset {
		return nil, 0, fmt.Errorf("%w: truncated", ErrInvalidBlob)
	}

	g, err := wkb.Unmarshal(b[offset:])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	return g, srid, nil
}
