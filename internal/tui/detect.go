package tui

import (
	"os"

	"golang.org/x/term"

	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// Mode represents the interaction mode of the CLI.
type Mode int

const (
	// ModeNonInteractive is used for scheduled jobs, scripts, and piped input.
	// The root directory then comes from the argument or the folder picker.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when a human is at the terminal.
	ModeInteractive
)

// NonInteractiveEnv forces non-interactive mode when set to "1".
const NonInteractiveEnv = catasto.EnvPrefix + "NON_INTERACTIVE"

// DetectMode determines whether the CLI may prompt on the terminal.
//
// Returns ModeNonInteractive if:
//   - CATASTO_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (accessibility/automation indicator)
//   - stdin or stdout is not a terminal
//
// Returns ModeInteractive otherwise.
func DetectMode() Mode {
	return detectMode(os.Getenv, stdioIsTerminal)
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}

func detectMode(getenv func(string) string, isTerminal func() bool) Mode {
	if getenv(NonInteractiveEnv) == "1" {
		return ModeNonInteractive
	}
	if getenv("CI") != "" {
		return ModeNonInteractive
	}
	if getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}
	if !isTerminal() {
		return ModeNonInteractive
	}
	return ModeInteractive
}

// stdioIsTerminal reports whether both stdin and stdout are terminals.
// The prompt reads keys from one and renders on the other.
func stdioIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
