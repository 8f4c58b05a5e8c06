package gml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/paulmach/orb"
	"golang.org/x/net/html/charset"

	"github.com/geodati/catasto2gpkg/internal/feature"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// ErrNoFeatureCollection is returned when the document has no root element.
var ErrNoFeatureCollection = errors.New("document has no feature collection")

// node is a generic XML element tree, used for one feature at a time.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func attr(n *node, local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// DecodeFile opens path and decodes it.
func DecodeFile(path string) (*feature.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GML file: %w", err)
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Decode reads a feature collection. Features whose geometry cannot be
// decoded are kept with a nil geometry. The table SRID is the EPSG code of
// the first geometry with a known reference system, or 0.
func Decode(r io.Reader) (*feature.Table, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	d := &decoder{columns: []string{catasto.ColumnFeatureID}}
	var (
		depth        int
		membersDepth int
		sawRoot      bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read GML: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			sawRoot = true

			if membersDepth > 0 && depth == membersDepth+1 {
				var n node
				if err := dec.DecodeElement(&n, &el); err != nil {
					return nil, fmt.Errorf("failed to decode feature: %w", err)
				}
				depth--
				d.add(&n)
				continue
			}

			switch el.Name.Local {
			case "featureMember", "member":
				var n node
				if err := dec.DecodeElement(&n, &el); err != nil {
					return nil, fmt.Errorf("failed to decode feature: %w", err)
				}
				depth--
				for i := range n.Children {
					d.add(&n.Children[i])
				}
			case "featureMembers":
				membersDepth = depth
			case "boundedBy":
				if depth != 2 {
					continue
				}
				var n node
				if err := dec.DecodeElement(&n, &el); err != nil {
					return nil, fmt.Errorf("failed to decode collection envelope: %w", err)
				}
				depth--
				d.collectionSRS = envelopeSRS(&n)
			}

		case xml.EndElement:
			if depth == membersDepth {
				membersDepth = 0
			}
			depth--
		}
	}

	if !sawRoot {
		return nil, ErrNoFeatureCollection
	}
	return d.table(), nil
}

type decoder struct {
	collectionSRS SRS
	srid          int
	columns       []string
	seen          map[string]bool
	features      []feature.Feature
}

func envelopeSRS(boundedBy *node) SRS {
	for i := range boundedBy.Children {
		if name, ok := attr(&boundedBy.Children[i], "srsName"); ok {
			return ParseSRS(name)
		}
	}
	return SRS{}
}

// add converts one feature element into a row.
func (d *decoder) add(n *node) {
	props := make(map[string]string)
	if id, ok := attr(n, "id"); ok {
		props[catasto.ColumnFeatureID] = id
	}

	var (
		geom     orb.Geometry
		geomProp string
		tried    bool
	)
	for i := range n.Children {
		p := &n.Children[i]
		name := p.XMLName.Local
		if name == "boundedBy" {
			continue
		}
		if g := geometryChild(p); g != nil {
			// The first geometry property wins unless a later one is called "geometry".
			if tried && (geomProp == "geometry" || name != "geometry") {
				continue
			}
			tried = true
			geomProp = name
			decoded, srs, err := readGeometry(g, d.collectionSRS)
			if err != nil {
				geom = nil
				continue
			}
			geom = decoded
			if d.srid == 0 && srs.Code != 0 {
				d.srid = srs.Code
			}
			continue
		}
		d.flatten(p, name, props)
	}

	d.features = append(d.features, feature.Feature{Geometry: geom, Properties: props})
}

// flatten stores leaf values of a property under "<prop>_<leaf>" names.
// Repeated leaves are joined with a comma.
func (d *decoder) flatten(n *node, name string, props map[string]string) {
	if len(n.Children) == 0 {
		d.declare(name)
		value := strings.TrimSpace(n.Text)
		if value == "" {
			value, _ = attr(n, "href")
		}
		if value == "" {
			return
		}
		if prev, ok := props[name]; ok && prev != "" {
			value = prev + "," + value
		}
		props[name] = value
		return
	}
	for i := range n.Children {
		c := &n.Children[i]
		childName := name
		if !isTypeElement(c) {
			childName = name + "_" + c.XMLName.Local
		}
		d.flatten(c, childName, props)
	}
}

// isTypeElement reports whether c is an object wrapper such as base:Identifier,
// which does not contribute to flattened column names.
func isTypeElement(c *node) bool {
	if len(c.Children) == 0 {
		return false
	}
	for _, r := range c.XMLName.Local {
		return unicode.IsUpper(r)
	}
	return false
}

func (d *decoder) declare(name string) {
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[name] {
		return
	}
	d.seen[name] = true
	d.columns = append(d.columns, name)
}

func (d *decoder) table() *feature.Table {
	srid := d.srid
	if srid == 0 {
		srid = d.collectionSRS.Code
	}
	t := feature.NewTable(srid)
	for _, c := range d.columns {
		t.AddColumn(c)
	}
	for _, f := range d.features {
		t.Append(f)
	}
	return t
}
