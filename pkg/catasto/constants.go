package catasto

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Conversion completed (possibly with skipped regions)
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or root directory
	ExitConnectionError = 11 // Failed to connect to PostGIS
	ExitNothingWritten  = 12 // No layer had data, no final package written
	ExitPublishFailed   = 13 // PostGIS publish failed
)

const (
	// ArchiveExtension is the extension of both top-level and nested archives.
	ArchiveExtension = ".zip"

	// PackageExtension is the extension of intermediate and final packages.
	PackageExtension = ".gpkg"

	// RegionCodeLength is the number of leading filename characters that form a region code.
	RegionCodeLength = 2

	// ColumnLocality holds the municipality name derived from the GML filename.
	ColumnLocality = "comune"

	// ColumnRegion holds the upper-case province code derived from the archive filename.
	ColumnRegion = "provincia"

	// ColumnFeatureID holds the gml:id of the source feature.
	ColumnFeatureID = "gml_id"

	// ConfigFileName is looked up in the root directory.
	ConfigFileName = "catasto2gpkg.yaml"

	// EnvPrefix prefixes every environment variable read by the CLI.
	EnvPrefix = "CATASTO_"
)

// Retry defaults for the PostGIS connect step.
const (
	// DefaultRetryInitialDelay is the delay before the first retry attempt.
	DefaultRetryInitialDelay = 250 * time.Millisecond

	// DefaultRetryMaxDelay caps the delay between retry attempts.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultRetryMaxAttempts is the number of retries after the first attempt.
	DefaultRetryMaxAttempts = 3
)
