package wizards

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/geodati/catasto2gpkg/internal/tui/components"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func isQuitCmd(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	msg := cmd()
	_, ok := msg.(tea.QuitMsg)
	return ok
}

func asWizard(t *testing.T, m tea.Model) RootDirWizard {
	t.Helper()
	w, ok := m.(RootDirWizard)
	if !ok {
		t.Fatalf("expected RootDirWizard, got %T", m)
	}
	return w
}

func TestRootDirWizard_AcceptsExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	w := NewRootDirWizard(dir)

	m, cmd := w.Update(keyMsg("enter"))
	w = asWizard(t, m)

	if !isQuitCmd(cmd) {
		t.Error("expected quit after a valid directory")
	}
	if got := w.Result(); got.Cancelled || got.Path != dir {
		t.Errorf("Result() = %+v, want Path %s", got, dir)
	}
}

func TestRootDirWizard_RepromptsUntilValid(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")
	w := NewRootDirWizard(missing)

	m, cmd := w.Update(keyMsg("enter"))
	w = asWizard(t, m)
	if isQuitCmd(cmd) {
		t.Fatal("wizard quit on a missing directory")
	}
	if !strings.Contains(w.View(), "no such directory") {
		t.Errorf("expected the error in the view, got:\n%s", w.View())
	}

	os.Mkdir(missing, 0755)
	m, cmd = w.Update(keyMsg("enter"))
	w = asWizard(t, m)
	if !isQuitCmd(cmd) {
		t.Fatal("expected quit once the directory exists")
	}
	if w.Result().Path != missing {
		t.Errorf("Path = %q, want %q", w.Result().Path, missing)
	}
}

func TestRootDirWizard_RejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "VE_F229.zip")
	os.WriteFile(file, []byte("zip"), 0644)
	w := NewRootDirWizard(file)

	m, cmd := w.Update(keyMsg("enter"))
	w = asWizard(t, m)

	if isQuitCmd(cmd) {
		t.Error("wizard quit on a regular file")
	}
	if !strings.Contains(w.View(), "not a directory") {
		t.Errorf("expected 'not a directory' in the view, got:\n%s", w.View())
	}
}

func TestRootDirWizard_EmptyInput(t *testing.T) {
	w := NewRootDirWizard("")

	m, cmd := w.Update(keyMsg("enter"))
	w = asWizard(t, m)

	if isQuitCmd(cmd) {
		t.Error("wizard quit on empty input")
	}
	if !strings.Contains(w.View(), components.ErrFieldRequired.Error()) {
		t.Errorf("expected required error in the view, got:\n%s", w.View())
	}
}

func TestRootDirWizard_TypingClearsError(t *testing.T) {
	w := NewRootDirWizard(filepath.Join(t.TempDir(), "missing"))

	m, _ := w.Update(keyMsg("enter"))
	m, _ = m.Update(keyMsg("x"))
	w = asWizard(t, m)

	if strings.Contains(w.View(), "no such directory") {
		t.Error("error still shown after editing the value")
	}
}

func TestRootDirWizard_TabCompletes(t *testing.T) {
	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, "veneto"), 0755)
	w := NewRootDirWizard(filepath.Join(dir, "ven"))

	m, _ := w.Update(keyMsg("tab"))
	w = asWizard(t, m)

	want := filepath.Join(dir, "veneto") + string(filepath.Separator)
	if got := w.field.Value(); got != want {
		t.Errorf("value after tab = %q, want %q", got, want)
	}

	m, cmd := w.Update(keyMsg("enter"))
	if !isQuitCmd(cmd) {
		t.Fatal("expected quit after completing an existing directory")
	}
	if got := asWizard(t, m).Result().Path; got != filepath.Join(dir, "veneto") {
		t.Errorf("Path = %q", got)
	}
}

func TestRootDirWizard_EscCancels(t *testing.T) {
	w := NewRootDirWizard(t.TempDir())

	m, cmd := w.Update(keyMsg("esc"))
	w = asWizard(t, m)

	if !isQuitCmd(cmd) {
		t.Error("expected quit on esc")
	}
	if !w.Result().Cancelled {
		t.Error("expected Cancelled after esc")
	}
	if w.Result().Path != "" {
		t.Errorf("Path = %q after cancel, want empty", w.Result().Path)
	}
}

func TestResolveRootDir(t *testing.T) {
	dir := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ResolveRootDir(`  "` + dir + `"  `)
	if err != nil || got != dir {
		t.Errorf("ResolveRootDir(quoted) = %q, %v", got, err)
	}

	got, err = ResolveRootDir("~")
	if err != nil || got != home {
		t.Errorf("ResolveRootDir(~) = %q, %v", got, err)
	}

	_, err = ResolveRootDir(filepath.Join(dir, "missing"))
	if !errors.Is(err, errNotFound) {
		t.Errorf("expected errNotFound, got %v", err)
	}
}
