// Package geometry checks and repairs feature geometries through GEOS.
//
// Geometries travel as orb values and cross into GEOS as WKB. A valid
// geometry is returned untouched; an invalid one is replaced by its
// zero-distance buffer, which may be an empty Polygon or MultiPolygon when
// the input collapses. Any GEOS failure, whether reported as an error or
// raised as a panic by the binding, surfaces as ErrEngine so callers can
// drop the row and continue.
//
// A Repairer owns a GEOS context and is not safe for concurrent use.
package geometry
