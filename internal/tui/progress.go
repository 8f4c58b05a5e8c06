package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// ProgressDisplay prints one line when a region starts and one when it
// finishes. It implements catasto.ProgressObserver.
type ProgressDisplay struct {
	out    io.Writer
	styled bool
}

// NewProgressDisplay creates a display writing to out. Symbols and colors are
// used only when styled is true.
func NewProgressDisplay(out io.Writer, styled bool) *ProgressDisplay {
	return &ProgressDisplay{out: out, styled: styled}
}

var _ catasto.ProgressObserver = (*ProgressDisplay)(nil)

// RegionStarted implements catasto.ProgressObserver.
func (p *ProgressDisplay) RegionStarted(code string, archives int) {
	msg := fmt.Sprintf("%s: %d archive(s)", code, archives)
	if !p.styled {
		fmt.Fprintln(p.out, msg)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", SubtitleStyle.Render(SymbolSpinner), msg)
}

// RegionFinished implements catasto.ProgressObserver.
func (p *ProgressDisplay) RegionFinished(res catasto.RegionResult) {
	msg := regionLine(res)
	if !p.styled {
		fmt.Fprintf(p.out, "%s: %s\n", res.Code, msg)
		return
	}
	style := StatusStyle(res.Status)
	fmt.Fprintf(p.out, "%s %s: %s\n", style.Render(StatusSymbol(res.Status)), res.Code, msg)
}

// regionLine describes a finished region: its status, the reason when there
// is one, rows per layer and elapsed time.
func regionLine(res catasto.RegionResult) string {
	var b strings.Builder
	b.WriteString(string(res.Status))
	if res.Reason != "" {
		b.WriteString(" (" + res.Reason + ")")
	}
	for _, l := range res.Layers {
		if l.Status == catasto.StatusSucceeded {
			fmt.Fprintf(&b, ", %s %d", l.Layer, l.Rows)
		}
	}
	if res.Duration > 0 {
		fmt.Fprintf(&b, " in %s", res.Duration.Round(time.Millisecond))
	}
	return b.String()
}
