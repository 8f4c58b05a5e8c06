package fixtures

import (
	"fmt"
	"strings"
)

// Ring is a closed list of x/y pairs, written to posList in the given order.
type Ring [][2]float64

// Square returns a closed axis-aligned square with its lower-left corner at (x, y).
func Square(x, y, size float64) Ring {
	return Ring{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}
}

// Bowtie returns a self-intersecting ring spanning (x, y) to (x+size, y+size).
// It is invalid as a polygon shell and repairs to a two-part multipolygon.
func Bowtie(x, y, size float64) Ring {
	return Ring{{x, y}, {x + size, y + size}, {x + size, y}, {x, y + size}, {x, y}}
}

// Degenerate returns a three-point ring, too short for GEOS to build.
func Degenerate(x, y float64) Ring {
	return Ring{{x, y}, {x + 1, y + 1}, {x, y}}
}

// Collapsed returns a closed ring whose points lie on one line. It is
// invalid and buffer(0) of it is empty.
func Collapsed(x, y float64) Ring {
	return Ring{{x, y}, {x + 1, y + 1}, {x + 2, y + 2}, {x, y}}
}

type gmlFeature struct {
	id    string
	props [][2]string
	ring  Ring
	raw   string
}

// GMLBuilder produces INSPIRE-like cadastral GML 3.2 documents.
//
// Example usage:
//
//	doc := NewGMLBuilder("CadastralParcel", "urn:ogc:def:crs:EPSG::6706").
//	    AddFeature("IT.AGE.PLA.F229_000100", Square(45.4, 12.3, 0.001), "label", "100").
//	    AddFeature("IT.AGE.PLA.F229_000101", Bowtie(45.4, 12.3, 0.001), "label", "101").
//	    Bytes()
type GMLBuilder struct {
	featureType string
	srsName     string
	features    []gmlFeature
}

// NewGMLBuilder creates a builder for features of the given element name.
func NewGMLBuilder(featureType, srsName string) *GMLBuilder {
	return &GMLBuilder{featureType: featureType, srsName: srsName}
}

// Parcels is a builder for *_ple.gml content.
func Parcels() *GMLBuilder {
	return NewGMLBuilder("CadastralParcel", "urn:ogc:def:crs:EPSG::6706")
}

// MapSheets is a builder for *_map.gml content.
func MapSheets() *GMLBuilder {
	return NewGMLBuilder("CadastralZoning", "urn:ogc:def:crs:EPSG::6706")
}

// AddFeature adds a feature with a polygon geometry and simple properties
// given as alternating name/value pairs.
func (b *GMLBuilder) AddFeature(id string, ring Ring, kv ...string) *GMLBuilder {
	f := gmlFeature{id: id, ring: ring}
	for i := 0; i+1 < len(kv); i += 2 {
		f.props = append(f.props, [2]string{kv[i], kv[i+1]})
	}
	b.features = append(b.features, f)
	return b
}

// AddRawFeature adds the XML of a feature element as-is.
func (b *GMLBuilder) AddRawFeature(xml string) *GMLBuilder {
	b.features = append(b.features, gmlFeature{raw: xml})
	return b
}

// Len returns the number of features added so far.
func (b *GMLBuilder) Len() int {
	return len(b.features)
}

// Bytes renders the document.
func (b *GMLBuilder) Bytes() []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<gml:FeatureCollection xmlns:gml="http://www.opengis.net/gml/3.2"` +
		` xmlns:CP="http://inspire.ec.europa.eu/schemas/cp/4.0"` +
		` xmlns:base="http://inspire.ec.europa.eu/schemas/base/3.3"` +
		` xmlns:xlink="http://www.w3.org/1999/xlink">` + "\n")

	for _, f := range b.features {
		sb.WriteString("  <gml:featureMember>\n")
		if f.raw != "" {
			sb.WriteString(f.raw)
			sb.WriteString("\n  </gml:featureMember>\n")
			continue
		}
		fmt.Fprintf(&sb, "    <CP:%s gml:id=%q>\n", b.featureType, f.id)
		fmt.Fprintf(&sb, "      <CP:geometry><gml:MultiSurface srsName=%q><gml:surfaceMember><gml:Polygon>", b.srsName)
		sb.WriteString("<gml:exterior><gml:LinearRing><gml:posList>")
		sb.WriteString(posList(f.ring))
		sb.WriteString("</gml:posList></gml:LinearRing></gml:exterior>")
		sb.WriteString("</gml:Polygon></gml:surfaceMember></gml:MultiSurface></CP:geometry>\n")
		fmt.Fprintf(&sb, "      <CP:inspireId><base:Identifier><base:localId>%s</base:localId>"+
			"<base:namespace>IT.AGE</base:namespace></base:Identifier></CP:inspireId>\n", f.id)
		for _, p := range f.props {
			fmt.Fprintf(&sb, "      <CP:%s>%s</CP:%s>\n", p[0], p[1], p[0])
		}
		fmt.Fprintf(&sb, "    </CP:%s>\n", b.featureType)
		sb.WriteString("  </gml:featureMember>\n")
	}

	sb.WriteString("</gml:FeatureCollection>\n")
	return []byte(sb.String())
}

func posList(r Ring) string {
	parts := make([]string, 0, len(r)*2)
	for _, p := range r {
		parts = append(parts, fmt.Sprintf("%g", p[0]), fmt.Sprintf("%g", p[1]))
	}
	return strings.Join(parts, " ")
}
