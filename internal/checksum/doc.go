// Package checksum computes SHA-256 digests of archives for provenance.
//
// Digests are recorded in the run report next to each top-level archive so a
// converted GeoPackage can be traced back to the exact download it came from.
//
// # Example Usage
//
//	calculator := checksum.New()
//	sum, err := calculator.CalculateReader(archiveFile)
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
