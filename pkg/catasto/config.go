package catasto

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// DefaultSchema is the PostGIS schema layers are published to when none is given.
const DefaultSchema = "public"

// DefaultBatchSize is the number of rows inserted per round trip when publishing.
const DefaultBatchSize = 500

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ConversionConfig contains all parameters needed for a conversion run.
type ConversionConfig struct {
	// RootDir is the directory scanned for top-level archives
	RootDir string

	// Output is the final package path (default: <root>/<basename(root)>.gpkg)
	Output string

	// ScratchDir is where per-region scratch directories are created (default: system temp)
	ScratchDir string

	// KeepIntermediate leaves the per-region packages in place after consolidation
	KeepIntermediate bool

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the ConversionConfig has all required fields.
func (c *ConversionConfig) Validate() error {
	var errs []error

	if c.RootDir == "" {
		errs = append(errs, fmt.Errorf("RootDir is required: %w", ErrInvalidConfig))
	}
	if c.Output != "" && !IsPackageName(c.Output) {
		errs = append(errs, fmt.Errorf("output %q must end in %s: %w", c.Output, PackageExtension, ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// OutputPath returns Output, or the default final package path for RootDir.
func (c *ConversionConfig) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return FinalPackagePath(c.RootDir)
}

// PublishConfig contains all parameters needed to copy a package into PostGIS.
type PublishConfig struct {
	// PackagePath is the GeoPackage to publish
	PackagePath string

	// ConnectionString is the PostgreSQL connection string
	ConnectionString string

	// Schema receives one table per layer
	Schema string

	// Overwrite drops existing tables of the same name first
	Overwrite bool

	// BatchSize is the number of rows per insert batch
	BatchSize int

	// Timeout is the global timeout for the publish
	Timeout time.Duration
}

// Validate checks if the PublishConfig has all required fields and valid values.
// Schema and BatchSize are defaulted when empty.
func (c *PublishConfig) Validate() error {
	var errs []error

	if c.PackagePath == "" {
		errs = append(errs, fmt.Errorf("PackagePath is required: %w", ErrInvalidConfig))
	}
	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.Schema == "" {
		c.Schema = DefaultSchema
	} else if !identifierPattern.MatchString(c.Schema) {
		errs = append(errs, fmt.Errorf("schema %q is not a plain identifier: %w", c.Schema, ErrInvalidConfig))
	}

	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	} else if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch size cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
