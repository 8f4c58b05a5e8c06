package gml

import (
	"strconv"
	"strings"
)

// geographicCodes are EPSG geographic 2D CRSs whose authority axis order is lat/lon.
var geographicCodes = map[int]bool{
	4258: true, // ETRS89
	4265: true, // Monte Mario
	4326: true, // WGS 84
	4806: true, // Monte Mario (Rome)
	6706: true, // RDN2008
}

// SRS is a parsed srsName.
type SRS struct {
	// Code is the EPSG code, 0 when unknown.
	Code int

	// LatLon is true when coordinates are written latitude first.
	LatLon bool
}

// ParseSRS interprets an srsName attribute.
//
//	"EPSG:4326"                                  → {4326, false}
//	"urn:ogc:def:crs:EPSG::6706"                 → {6706, true}
//	"http://www.opengis.net/def/crs/EPSG/0/6706" → {6706, true}
//	"http://www.opengis.net/gml/srs/epsg.xml#4326" → {4326, false}
//	"urn:ogc:def:crs:EPSG::3004"                 → {3004, false}
func ParseSRS(name string) SRS {
	name = strings.TrimSpace(name)
	if name == "" {
		return SRS{}
	}
	lower := strings.ToLower(name)

	switch {
	case strings.HasPrefix(lower, "urn:"):
		code := lastNumber(name, ":")
		return SRS{Code: code, LatLon: geographicCodes[code]}
	case strings.Contains(lower, "/def/crs/"):
		code := lastNumber(name, "/")
		return SRS{Code: code, LatLon: geographicCodes[code]}
	case strings.Contains(lower, "epsg.xml#"):
		return SRS{Code: lastNumber(name, "#")}
	case strings.HasPrefix(lower, "epsg:"):
		return SRS{Code: lastNumber(name, ":")}
	}
	return SRS{}
}

func lastNumber(s, sep string) int {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[i+len(sep):]))
	if err != nil {
		return 0
	}
	return n
}
