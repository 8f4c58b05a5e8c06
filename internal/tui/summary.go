package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// RenderSummary formats the outcome of a conversion run for the terminal.
func RenderSummary(r *catasto.Report) string {
	var lines []string
	lines = append(lines, TitleStyle.Render("catasto2gpkg "+SymbolArrowRight+" "+r.Summary()))

	lines = append(lines, field("run", r.RunID))
	lines = append(lines, field("root", r.RootDir))
	if r.Output != "" {
		lines = append(lines, field("output", SuccessStyle.Render(r.Output)))
	} else {
		lines = append(lines, field("output", WarningStyle.Render("not written")))
	}
	if !r.FinishedAt.IsZero() {
		lines = append(lines, field("elapsed", r.FinishedAt.Sub(r.StartedAt).String()))
	}

	if len(r.Regions) > 0 {
		lines = append(lines, "", HeaderStyle.Render("Regions"))
		for _, res := range r.Regions {
			lines = append(lines, statusLine(res.Status, res.Code+"  "+regionLine(res)))
			for _, f := range res.Files {
				if f.Status == catasto.StatusFailed {
					lines = append(lines, MutedStyle.Render(fmt.Sprintf("    %s %s: %s", SymbolBullet, f.Name, f.Reason)))
				}
			}
		}
	}

	if len(r.Final) > 0 {
		lines = append(lines, "", HeaderStyle.Render("Layers"))
		for _, l := range r.Final {
			text := fmt.Sprintf("%s  %d rows", l.Layer, l.Rows)
			if l.Reason != "" {
				text = fmt.Sprintf("%s  %s", l.Layer, l.Reason)
			}
			lines = append(lines, statusLine(l.Status, text))
		}
	}

	var failed []catasto.CleanupResult
	for _, c := range r.Cleanup {
		if c.Status == catasto.StatusFailed {
			failed = append(failed, c)
		}
	}
	if len(failed) > 0 {
		lines = append(lines, "", HeaderStyle.Render("Not deleted"))
		for _, c := range failed {
			lines = append(lines, statusLine(c.Status, c.Path+"  "+c.Reason))
		}
	}

	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// RenderLayers formats the layers of a package with per-region row counts.
func RenderLayers(path string, layers []LayerSummary) string {
	var lines []string
	lines = append(lines, TitleStyle.Render(path))
	if len(layers) == 0 {
		lines = append(lines, WarningStyle.Render("no feature layers"))
	}
	for i, l := range layers {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, HeaderStyle.Render(l.Name))
		lines = append(lines, field("type", l.GeometryType))
		lines = append(lines, field("srs", fmt.Sprintf("EPSG:%d", l.SRID)))
		lines = append(lines, field("bounds", fmt.Sprintf("%.3f %.3f, %.3f %.3f", l.MinX, l.MinY, l.MaxX, l.MaxY)))
		lines = append(lines, field("rows", fmt.Sprintf("%d", l.Rows)))
		for _, rc := range l.Regions {
			code := rc.Code
			if code == "" {
				code = "(none)"
			}
			lines = append(lines, MutedStyle.Render(fmt.Sprintf("  %s %-6s %d", SymbolBullet, code, rc.Rows)))
		}
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// LayerSummary is the display form of one package layer.
type LayerSummary struct {
	Name         string
	GeometryType string
	SRID         int
	Rows         int
	MinX, MinY   float64
	MaxX, MaxY   float64
	Regions      []RegionCount
}

// RegionCount is the number of rows tagged with one provincia.
type RegionCount struct {
	Code string
	Rows int
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), value)
}

func statusLine(s catasto.Status, text string) string {
	return StatusStyle(s).Render(StatusSymbol(s)) + " " + text
}
