// Package picker opens the desktop folder dialog used when no root directory
// was given and there is no terminal to prompt on.
package picker

import (
	"errors"
	"fmt"
	"os"

	"github.com/ncruces/zenity"

	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

const dialogTitle = "Select the directory with the cadastral ZIP archives"

// DialogFunc shows a folder dialog starting at start and returns the chosen path.
// It returns zenity.ErrCanceled when the user closes the dialog.
type DialogFunc func(title, start string) (string, error)

// Picker selects the root directory with a graphical dialog.
type Picker struct {
	dialog  DialogFunc
	enabled bool
}

// New returns a picker backed by zenity. A disabled picker never opens a
// dialog and always reports catasto.ErrNoRootSelected.
func New(enabled bool) *Picker {
	return &Picker{dialog: zenityDialog, enabled: enabled}
}

// NewWithDialog returns an enabled picker using dialog.
func NewWithDialog(dialog DialogFunc) *Picker {
	if dialog == nil {
		panic("dialog cannot be nil")
	}
	return &Picker{dialog: dialog, enabled: true}
}

// Enabled reports whether SelectRoot may open a dialog.
func (p *Picker) Enabled() bool {
	return p.enabled
}

// SelectRoot asks for the root directory. The result is an existing directory
// or an error wrapping catasto.ErrNoRootSelected or catasto.ErrInvalidRoot.
func (p *Picker) SelectRoot(start string) (string, error) {
	if !p.enabled {
		return "", fmt.Errorf("folder picker disabled: %w", catasto.ErrNoRootSelected)
	}

	path, err := p.dialog(dialogTitle, start)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", fmt.Errorf("folder picker cancelled: %w", catasto.ErrNoRootSelected)
	}
	if err != nil {
		return "", fmt.Errorf("folder picker unavailable: %w: %w", err, catasto.ErrNoRootSelected)
	}
	if path == "" {
		return "", fmt.Errorf("folder picker returned nothing: %w", catasto.ErrNoRootSelected)
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%s: %w", path, catasto.ErrInvalidRoot)
	}
	return path, nil
}

func zenityDialog(title, start string) (string, error) {
	opts := []zenity.Option{zenity.Title(title), zenity.Directory()}
	if start != "" {
		opts = append(opts, zenity.Filename(start))
	}
	return zenity.SelectFile(opts...)
}
