package catasto

import (
	"path/filepath"
	"strings"
)

// RegionCode derives the province code from a top-level archive filename:
// the first two characters of the stem, upper-cased.
//
//	"VE_F229.zip" → "VE"
//	"ve.zip"      → "VE"
//	"x.zip"       → "X"
func RegionCode(archiveName string) string {
	base := filepath.Base(archiveName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	runes := []rune(stem)
	if len(runes) > RegionCodeLength {
		runes = runes[:RegionCodeLength]
	}
	return strings.ToUpper(string(runes))
}

// LocalityFromFilename derives the municipality name from an extracted file name
// using the "<prefix>_<locality>_..." convention. Names without an underscore
// are returned whole; names that deviate from the convention yield whatever
// sits in the second segment.
//
//	"x_Venezia_ple.gml" → "Venezia"
//	"Venezia.gml"       → "Venezia.gml"
func LocalityFromFilename(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return name
	}
	return parts[1]
}

// IsArchiveName reports whether name carries the archive extension (case-insensitive).
func IsArchiveName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ArchiveExtension)
}

// IsPackageName reports whether name carries the package extension (case-insensitive).
func IsPackageName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), PackageExtension)
}

// IntermediatePackagePath returns <root>/<REGION>.gpkg.
func IntermediatePackagePath(rootDir, region string) string {
	return filepath.Join(rootDir, region+PackageExtension)
}

// FinalPackagePath returns <root>/<basename(root)>.gpkg.
func FinalPackagePath(rootDir string) string {
	clean := filepath.Clean(rootDir)
	return filepath.Join(clean, filepath.Base(clean)+PackageExtension)
}
