// Package postgis publishes GeoPackage layers into a PostGIS database.
//
// Each feature layer becomes one table:
//
//	CREATE TABLE "<schema>"."<layer>" (
//	    fid  bigint PRIMARY KEY,
//	    geom geometry(Geometry, <srid>),
//	    "<attribute>" text, ...
//	)
//
// Rows are sent in pgx batches inside one transaction per layer, with the
// geometry passed as WKB to ST_GeomFromWKB. The connect step is retried on
// transient errors using internal/retry.
package postgis
