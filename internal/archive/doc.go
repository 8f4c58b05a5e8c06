// Package archive finds top-level cadastral archives and extracts the GML
// files buried in their nested archives.
//
// A download from the cadastre is a ZIP per province and municipality
// ("VE_F229.zip") that holds one ZIP per map sheet, each of which holds the
// parcel (*_ple.gml) and map (*_map.gml) files:
//
//	VE_F229.zip
//	└── F229_000100.zip
//	    ├── F229_Venezia_000100_ple.gml
//	    └── F229_Venezia_000100_map.gml
//
// Walker groups the top-level archives by province code. Extractor unpacks
// one top-level archive into a scratch directory, holding each nested archive
// in memory only while its members are written out.
package archive
