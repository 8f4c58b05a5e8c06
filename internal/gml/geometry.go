package gml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

var (
	// ErrUnsupportedGeometry is returned for GML geometry elements the decoder does not know.
	ErrUnsupportedGeometry = errors.New("unsupported GML geometry")

	// ErrBadCoordinates is returned when a coordinate list cannot be parsed.
	ErrBadCoordinates = errors.New("malformed GML coordinates")
)

var geometryElements = map[string]bool{
	"Point":            true,
	"MultiPoint":       true,
	"LineString":       true,
	"Curve":            true,
	"MultiCurve":       true,
	"MultiLineString":  true,
	"LinearRing":       true,
	"Polygon":          true,
	"PolygonPatch":     true,
	"Surface":          true,
	"MultiSurface":     true,
	"MultiPolygon":     true,
	"CompositeSurface": true,
}

// isGeometry reports whether n is a GML geometry element.
func isGeometry(n *node) bool {
	return geometryElements[n.XMLName.Local]
}

// geometryChild returns the first geometry element directly under a property.
func geometryChild(prop *node) *node {
	for i := range prop.Children {
		if isGeometry(&prop.Children[i]) {
			return &prop.Children[i]
		}
	}
	return nil
}

// geometryReader converts one geometry element tree. srsName and srsDimension
// found on the top element apply to everything below it unless overridden.
type geometryReader struct {
	swap bool
	dim  int
}

// readGeometry decodes a geometry element. fallback is the srsName inherited
// from the enclosing collection. The returned SRS is the one that applied.
func readGeometry(n *node, fallback SRS) (orb.Geometry, SRS, error) {
	srs := fallback
	if name, ok := attr(n, "srsName"); ok {
		srs = ParseSRS(name)
	}
	r := geometryReader{swap: srs.LatLon, dim: 2}
	if d, ok := attr(n, "srsDimension"); ok {
		if v, err := strconv.Atoi(d); err == nil && v > 0 {
			r.dim = v
		}
	}
	g, err := r.geometry(n)
	if err != nil {
		return nil, srs, fmt.Errorf("%s: %w", n.XMLName.Local, err)
	}
	return g, srs, nil
}

func (r geometryReader) geometry(n *node) (orb.Geometry, error) {
	switch n.XMLName.Local {
	case "Point":
		pts, err := r.points(n)
		if err != nil {
			return nil, err
		}
		if len(pts) != 1 {
			return nil, fmt.Errorf("%w: point with %d positions", ErrBadCoordinates, len(pts))
		}
		return pts[0], nil

	case "MultiPoint":
		var mp orb.MultiPoint
		for _, m := range members(n, "pointMember", "pointMembers") {
			g, err := r.geometry(m)
			if err != nil {
				return nil, err
			}
			p, ok := g.(orb.Point)
			if !ok {
				return nil, fmt.Errorf("%w: %s in MultiPoint", ErrUnsupportedGeometry, m.XMLName.Local)
			}
			mp = append(mp, p)
		}
		return mp, nil

	case "LineString", "Curve":
		return r.line(n)

	case "MultiCurve", "MultiLineString":
		var ml orb.MultiLineString
		for _, m := range members(n, "curveMember", "curveMembers", "lineStringMember") {
			g, err := r.geometry(m)
			if err != nil {
				return nil, err
			}
			switch v := g.(type) {
			case orb.LineString:
				ml = append(ml, v)
			case orb.MultiLineString:
				ml = append(ml, v...)
			default:
				return nil, fmt.Errorf("%w: %s in %s", ErrUnsupportedGeometry, m.XMLName.Local, n.XMLName.Local)
			}
		}
		return ml, nil

	case "LinearRing":
		pts, err := r.points(n)
		if err != nil {
			return nil, err
		}
		return orb.Ring(pts), nil

	case "Polygon", "PolygonPatch":
		return r.polygon(n)

	case "Surface", "MultiSurface", "MultiPolygon", "CompositeSurface":
		var mp orb.MultiPolygon
		for _, m := range r.surfaceParts(n) {
			g, err := r.geometry(m)
			if err != nil {
				return nil, err
			}
			switch v := g.(type) {
			case orb.Polygon:
				mp = append(mp, v)
			case orb.MultiPolygon:
				mp = append(mp, v...)
			default:
				return nil, fmt.Errorf("%w: %s in %s", ErrUnsupportedGeometry, m.XMLName.Local, n.XMLName.Local)
			}
		}
		if n.XMLName.Local == "Surface" && len(mp) == 1 {
			return mp[0], nil
		}
		return mp, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, n.XMLName.Local)
}

// surfaceParts lists the polygon-like children of a surface aggregate.
func (r geometryReader) surfaceParts(n *node) []*node {
	if n.XMLName.Local == "Surface" {
		var parts []*node
		for _, patches := range children(n, "patches", "polygonPatches") {
			parts = append(parts, children(patches, "PolygonPatch", "Polygon")...)
		}
		return parts
	}
	return members(n, "surfaceMember", "surfaceMembers", "polygonMember")
}

func (r geometryReader) polygon(n *node) (orb.Polygon, error) {
	var poly orb.Polygon
	for _, b := range children(n, "exterior", "outerBoundaryIs", "interior", "innerBoundaryIs") {
		ring, err := r.ring(b)
		if err != nil {
			return nil, err
		}
		outer := b.XMLName.Local == "exterior" || b.XMLName.Local == "outerBoundaryIs"
		if outer {
			poly = append(orb.Polygon{ring}, poly...)
		} else {
			poly = append(poly, ring)
		}
	}
	if len(poly) == 0 {
		return nil, fmt.Errorf("%w: polygon without exterior", ErrBadCoordinates)
	}
	return poly, nil
}

// ring reads a boundary holding either a LinearRing or a Ring of curve members.
func (r geometryReader) ring(boundary *node) (orb.Ring, error) {
	for i := range boundary.Children {
		c := &boundary.Children[i]
		switch c.XMLName.Local {
		case "LinearRing":
			pts, err := r.points(c)
			if err != nil {
				return nil, err
			}
			return orb.Ring(pts), nil
		case "Ring":
			var ring orb.Ring
			for _, m := range members(c, "curveMember") {
				g, err := r.geometry(m)
				if err != nil {
					return nil, err
				}
				ls, ok := g.(orb.LineString)
				if !ok {
					return nil, fmt.Errorf("%w: %s in Ring", ErrUnsupportedGeometry, m.XMLName.Local)
				}
				if len(ring) > 0 && len(ls) > 0 && ring[len(ring)-1].Equal(ls[0]) {
					ls = ls[1:]
				}
				ring = append(ring, ls...)
			}
			return ring, nil
		}
	}
	return nil, fmt.Errorf("%w: empty boundary", ErrBadCoordinates)
}

// line reads a LineString, or a Curve whose segments are joined end to end.
func (r geometryReader) line(n *node) (orb.LineString, error) {
	if n.XMLName.Local == "LineString" {
		pts, err := r.points(n)
		if err != nil {
			return nil, err
		}
		return orb.LineString(pts), nil
	}

	var ls orb.LineString
	for _, segs := range children(n, "segments") {
		for i := range segs.Children {
			pts, err := r.points(&segs.Children[i])
			if err != nil {
				return nil, err
			}
			if len(ls) > 0 && len(pts) > 0 && ls[len(ls)-1].Equal(pts[0]) {
				pts = pts[1:]
			}
			ls = append(ls, pts...)
		}
	}
	if len(ls) == 0 {
		return nil, fmt.Errorf("%w: curve without segments", ErrBadCoordinates)
	}
	return ls, nil
}

// points collects the positions written directly under n, in document order.
func (r geometryReader) points(n *node) ([]orb.Point, error) {
	var pts []orb.Point
	for i := range n.Children {
		c := &n.Children[i]
		switch c.XMLName.Local {
		case "posList":
			dim := r.dim
			if d, ok := attr(c, "srsDimension"); ok {
				if v, err := strconv.Atoi(d); err == nil && v > 0 {
					dim = v
				}
			}
			vals, err := parseFloats(strings.Fields(c.Text))
			if err != nil {
				return nil, err
			}
			if dim < 2 || len(vals)%dim != 0 {
				return nil, fmt.Errorf("%w: %d values for dimension %d", ErrBadCoordinates, len(vals), dim)
			}
			for j := 0; j < len(vals); j += dim {
				pts = append(pts, r.point(vals[j], vals[j+1]))
			}
		case "pos":
			vals, err := parseFloats(strings.Fields(c.Text))
			if err != nil {
				return nil, err
			}
			if len(vals) < 2 {
				return nil, fmt.Errorf("%w: position with %d values", ErrBadCoordinates, len(vals))
			}
			pts = append(pts, r.point(vals[0], vals[1]))
		case "coordinates":
			cp, err := r.coordinates(c)
			if err != nil {
				return nil, err
			}
			pts = append(pts, cp...)
		}
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: no positions", ErrBadCoordinates)
	}
	return pts, nil
}

// coordinates parses the GML 2 form: tuples separated by ts, values by cs.
func (r geometryReader) coordinates(n *node) ([]orb.Point, error) {
	cs, ts := ",", " "
	if v, ok := attr(n, "cs"); ok && v != "" {
		cs = v
	}
	if v, ok := attr(n, "ts"); ok && v != "" {
		ts = v
	}

	var tuples []string
	if strings.TrimSpace(ts) == "" {
		tuples = strings.Fields(n.Text)
	} else {
		tuples = strings.Split(strings.TrimSpace(n.Text), ts)
	}

	pts := make([]orb.Point, 0, len(tuples))
	for _, t := range tuples {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		vals, err := parseFloats(strings.Split(t, cs))
		if err != nil {
			return nil, err
		}
		if len(vals) < 2 {
			return nil, fmt.Errorf("%w: tuple %q", ErrBadCoordinates, t)
		}
		pts = append(pts, r.point(vals[0], vals[1]))
	}
	return pts, nil
}

func (r geometryReader) point(a, b float64) orb.Point {
	if r.swap {
		return orb.Point{b, a}
	}
	return orb.Point{a, b}
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadCoordinates, f)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// members returns the geometries held by member properties of an aggregate.
// Singular members hold one geometry, plural ones ("pointMembers") hold many.
func members(n *node, names ...string) []*node {
	var out []*node
	for _, m := range children(n, names...) {
		for i := range m.Children {
			if isGeometry(&m.Children[i]) {
				out = append(out, &m.Children[i])
			}
		}
	}
	return out
}

func children(n *node, names ...string) []*node {
	var out []*node
	for i := range n.Children {
		c := &n.Children[i]
		for _, name := range names {
			if c.XMLName.Local == name {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
