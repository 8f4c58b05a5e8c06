// Package pipeline turns a root directory of cadastral archives into one
// GeoPackage.
//
// The Orchestrator drives four stages per region, then two global ones:
//
//	Discover → Extract → Merge(ple) → Merge(map) → WriteRegion
//	                                  ... for every region ...
//	Consolidate → Cleanup → Commit
//
// Failures are contained at the smallest unit that can fail (a feature, a
// file, a nested archive, a region) and recorded in the catasto.Report; only
// an invalid root directory or cancellation ends a run early.
package pipeline
