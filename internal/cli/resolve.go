package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/geodati/catasto2gpkg/internal/picker"
	"github.com/geodati/catasto2gpkg/internal/tui"
	"github.com/geodati/catasto2gpkg/internal/tui/wizards"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// rootSelector is the folder dialog used when there is no terminal.
type rootSelector interface {
	SelectRoot(start string) (string, error)
}

// rootResolver finds the root directory: the argument first, then the
// terminal prompt, then the folder dialog.
type rootResolver struct {
	interactive func() bool
	prompt      func(initial string) (wizards.RootDirResult, error)
	picker      rootSelector
	logger      catasto.Logger
}

func newRootResolver(logger catasto.Logger, pickerEnabled bool) rootResolver {
	return rootResolver{
		interactive: tui.IsInteractive,
		prompt:      wizards.RunRootDirWizard,
		picker:      picker.New(pickerEnabled),
		logger:      logger,
	}
}

// Resolve returns the absolute path of an existing directory. An argument that
// is not a directory is offered again in the prompt when there is a terminal.
func (r rootResolver) Resolve(args []string) (string, error) {
	initial := ""
	if len(args) > 0 {
		path, err := checkRootDir(args[0])
		if err == nil {
			return path, nil
		}
		if !r.interactive() {
			return "", err
		}
		r.logger.Error("%v", err)
		initial = args[0]
	}

	if r.interactive() {
		res, err := r.prompt(initial)
		if err != nil {
			return "", err
		}
		if res.Cancelled {
			return "", fmt.Errorf("prompt cancelled: %w", catasto.ErrNoRootSelected)
		}
		return res.Path, nil
	}

	start, _ := os.Getwd()
	r.logger.Verbose("No terminal, opening the folder dialog")
	return r.picker.SelectRoot(start)
}

func checkRootDir(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", arg, err, catasto.ErrInvalidRoot)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", abs, err, catasto.ErrInvalidRoot)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory: %w", abs, catasto.ErrInvalidRoot)
	}
	return abs, nil
}
