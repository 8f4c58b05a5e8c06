package catasto

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	report, err := converter.Convert(ctx, config)
//	if errors.Is(err, catasto.ErrInvalidRoot) {
//	    // Ask for another directory
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidRoot indicates the root directory is missing or not a directory.
	ErrInvalidRoot = errors.New("invalid root directory")

	// ErrNoRootSelected indicates neither the prompt nor the picker produced a directory.
	ErrNoRootSelected = errors.New("no root directory selected")

	// ErrNothingToWrite indicates no region produced any layer data.
	ErrNothingToWrite = errors.New("no layer data to write")

	// ErrConnectionFailed indicates the PostGIS connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrPublishFailed indicates loading layers into PostGIS failed.
	ErrPublishFailed = errors.New("publish failed")
)

// usageErrorPatterns are cobra/pflag messages that indicate command misuse.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrInvalidRoot),
		errors.Is(err, ErrNoRootSelected):
		return ExitConfigError
	case errors.Is(err, ErrNothingToWrite):
		return ExitNothingWritten
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrPublishFailed):
		return ExitPublishFailed
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
