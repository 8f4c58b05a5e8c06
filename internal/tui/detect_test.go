package tui

import (
	"testing"
)

func env(values map[string]string) func(string) string {
	return func(name string) string { return values[name] }
}

func terminal(ok bool) func() bool {
	return func() bool { return ok }
}

func TestDetectMode_Interactive(t *testing.T) {
	if got := detectMode(env(nil), terminal(true)); got != ModeInteractive {
		t.Errorf("detectMode() = %d, want ModeInteractive", got)
	}
}

func TestDetectMode_Overrides(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"CATASTO_NON_INTERACTIVE", map[string]string{NonInteractiveEnv: "1"}},
		{"CI", map[string]string{"CI": "true"}},
		{"NO_COLOR", map[string]string{"NO_COLOR": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMode(env(tt.env), terminal(true)); got != ModeNonInteractive {
				t.Errorf("detectMode() = %d, want ModeNonInteractive", got)
			}
		})
	}
}

func TestDetectMode_NonInteractiveWrongValue(t *testing.T) {
	// Only "1" triggers non-interactive, not "true" or "yes"
	got := detectMode(env(map[string]string{NonInteractiveEnv: "true"}), terminal(true))
	if got != ModeInteractive {
		t.Errorf("detectMode() = %d, want ModeInteractive", got)
	}
}

func TestDetectMode_NoTerminal(t *testing.T) {
	if got := detectMode(env(nil), terminal(false)); got != ModeNonInteractive {
		t.Errorf("detectMode() = %d, want ModeNonInteractive", got)
	}
}

func TestIsInteractive_ReturnsFalseInTests(t *testing.T) {
	// In test context, stdin/stdout are not terminals
	t.Setenv(NonInteractiveEnv, "")
	t.Setenv("CI", "")
	t.Setenv("NO_COLOR", "")

	if IsInteractive() {
		t.Error("IsInteractive() = true in test environment, want false")
	}
}
