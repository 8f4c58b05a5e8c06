package components

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// PathCompleter completes filesystem paths on Tab. The first Tab extends the
// input to the longest prefix shared by all matches; further Tabs on the same
// directory cycle through the matches. Call Reset on any other key.
//
// A leading "~" is expanded to the home directory. Hidden entries are offered
// only when the typed name starts with a dot.
type PathCompleter struct {
	dirsOnly bool
	readDir  func(string) ([]os.DirEntry, error)

	parent  string
	matches []string
	next    int
}

// NewPathCompleter creates a completer. If dirsOnly is true, files are never offered.
func NewPathCompleter(dirsOnly bool) *PathCompleter {
	return &PathCompleter{dirsOnly: dirsOnly, readDir: os.ReadDir}
}

// Next returns the completion of input, or input itself when nothing matches.
func (c *PathCompleter) Next(input string) string {
	input = ExpandHome(input)
	parent, prefix := splitPath(input)

	if c.matches != nil && parent == c.parent {
		c.next = (c.next + 1) % len(c.matches)
		return c.join(parent, c.matches[c.next])
	}

	c.parent = parent
	c.next = 0
	c.matches = c.find(parent, prefix)
	if len(c.matches) == 0 {
		c.matches = nil
		return input
	}

	if len(c.matches) > 1 {
		if common := filepath.Join(parent, commonPrefix(c.matches)); len(common) > len(input) {
			// Extending to the shared prefix changes the typed name, so the
			// next Tab starts cycling from a fresh lookup.
			c.matches = nil
			return common
		}
	}
	return c.join(parent, c.matches[0])
}

// Reset forgets the matches being cycled.
func (c *PathCompleter) Reset() {
	c.parent = ""
	c.matches = nil
	c.next = 0
}

func (c *PathCompleter) find(parent, prefix string) []string {
	entries, err := c.readDir(parent)
	if err != nil {
		return nil
	}

	lower := strings.ToLower(prefix)
	showHidden := strings.HasPrefix(prefix, ".")

	var matches []string
	for _, e := range entries {
		name := e.Name()
		if c.dirsOnly && !isDir(parent, e) {
			continue
		}
		if !showHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(name), lower) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches
}

// join builds the completed path; directories get a trailing separator so the
// next Tab descends into them.
func (c *PathCompleter) join(parent, name string) string {
	p := filepath.Join(parent, name)
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		p += string(filepath.Separator)
	}
	return p
}

// isDir follows symlinks, so a link to a directory counts as one.
func isDir(parent string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}

// ExpandHome replaces a leading "~" with the user's home directory.
// Input that does not start with "~" is returned unchanged.
func ExpandHome(input string) string {
	if input != "~" && !strings.HasPrefix(input, "~/") && !strings.HasPrefix(input, `~\`) {
		return input
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return input
	}
	return filepath.Join(home, input[1:])
}

// splitPath splits an input into the directory to list and the name prefix.
//
//	"./src/com" → ("src", "com")
//	"./src/"    → ("./src", "")
//	"my"        → (".", "my")
//	""          → (".", "")
func splitPath(input string) (parent, prefix string) {
	if input == "" || input == "." {
		return ".", ""
	}
	if strings.HasSuffix(input, "/") || strings.HasSuffix(input, string(filepath.Separator)) {
		trimmed := strings.TrimRight(input, `/\`)
		if trimmed == "" {
			return string(filepath.Separator), ""
		}
		return trimmed, ""
	}
	return filepath.Dir(input), filepath.Base(input)
}

// commonPrefix returns the longest case-insensitive prefix of names, spelled
// as in the first name.
func commonPrefix(names []string) string {
	prefix := []rune(names[0])
	for _, s := range names[1:] {
		r := []rune(s)
		i := 0
		for i < len(prefix) && i < len(r) && unicode.ToLower(prefix[i]) == unicode.ToLower(r[i]) {
			i++
		}
		prefix = prefix[:i]
	}
	return string(prefix)
}
