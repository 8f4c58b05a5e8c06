package wizards

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/geodati/catasto2gpkg/internal/tui"
	"github.com/geodati/catasto2gpkg/internal/tui/components"
)

var (
	errNotFound     = errors.New("no such directory")
	errNotDirectory = errors.New("not a directory")
)

// RootDirResult is the outcome of the root directory prompt.
type RootDirResult struct {
	// Path is the absolute path of an existing directory, empty when cancelled.
	Path      string
	Cancelled bool
}

// RootDirWizard asks for the directory holding the top-level archives.
// Tab completes directory names; Enter accepts the value only when it names
// an existing directory and otherwise shows why and keeps asking.
type RootDirWizard struct {
	field     components.TextField
	completer *components.PathCompleter
	keys      tui.KeyMap
	result    RootDirResult
}

// NewRootDirWizard creates the prompt, pre-filled with initial.
func NewRootDirWizard(initial string) RootDirWizard {
	field := components.NewTextField("Directory with the cadastral ZIP archives", "~/catasto/veneto").
		WithRequired(true).
		WithValidator(func(v string) error {
			_, err := ResolveRootDir(v)
			return err
		}).
		WithValue(initial)
	field.Focus()

	return RootDirWizard{
		field:     field,
		completer: components.NewPathCompleter(true),
		keys:      tui.DefaultKeyMap(),
	}
}

// Init implements tea.Model.
func (w RootDirWizard) Init() tea.Cmd {
	return w.field.Init()
}

// Update implements tea.Model.
func (w RootDirWizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		w.field, cmd = w.field.Update(msg)
		return w, cmd
	}

	switch {
	case key.Matches(keyMsg, w.keys.Cancel):
		w.result = RootDirResult{Cancelled: true}
		return w, tea.Quit

	case key.Matches(keyMsg, w.keys.Complete):
		w.field.SetValue(w.completer.Next(w.field.Value()))
		return w, nil

	case key.Matches(keyMsg, w.keys.Submit):
		w.completer.Reset()
		if err := w.field.Validate(); err != nil {
			return w, nil
		}
		path, _ := ResolveRootDir(w.field.Value())
		w.result = RootDirResult{Path: path}
		return w, tea.Quit
	}

	w.completer.Reset()
	var cmd tea.Cmd
	w.field, cmd = w.field.Update(msg)
	return w, cmd
}

// View implements tea.Model.
func (w RootDirWizard) View() string {
	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("catasto2gpkg"))
	b.WriteString("\n")
	b.WriteString(w.field.View())
	b.WriteString("\n")
	b.WriteString(tui.HelpStyle.Render(w.keys.HelpText()))
	b.WriteString("\n")
	return b.String()
}

// Result returns the wizard result.
func (w RootDirWizard) Result() RootDirResult {
	return w.result
}

// RunRootDirWizard runs the prompt on the terminal and returns the result.
func RunRootDirWizard(initial string) (RootDirResult, error) {
	p := tea.NewProgram(NewRootDirWizard(initial))

	model, err := p.Run()
	if err != nil {
		return RootDirResult{Cancelled: true}, fmt.Errorf("root directory prompt: %w", err)
	}

	return model.(RootDirWizard).Result(), nil
}

// ResolveRootDir turns user input into the absolute path of an existing
// directory. Surrounding quotes left by drag and drop are removed and a
// leading "~" is expanded.
func ResolveRootDir(input string) (string, error) {
	v := strings.TrimSpace(input)
	v = strings.Trim(v, `"'`)
	if v == "" {
		return "", components.ErrFieldRequired
	}

	abs, err := filepath.Abs(components.ExpandHome(v))
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", abs, errNotFound)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, errNotDirectory)
	}
	return abs, nil
}
