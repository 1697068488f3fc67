// Package report renders a one-shot terminal summary of a session:
// graph stats, hub files, cache behavior and recent warnings. Styling
// is adapted from render/context.go's lipgloss palette.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"xfilecontext/internal/cache"
	"xfilecontext/internal/graph"
	"xfilecontext/internal/model"
)

// terminalWidth returns the current stdout width, falling back to 80
// columns when stdout isn't a terminal (e.g. piped into a file).
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

var (
	pink     = lipgloss.Color("212")
	purple   = lipgloss.Color("99")
	cyan     = lipgloss.Color("86")
	green    = lipgloss.Color("78")
	yellow   = lipgloss.Color("220")
	orange   = lipgloss.Color("208")
	red      = lipgloss.Color("196")
	gray     = lipgloss.Color("245")
	darkGray = lipgloss.Color("238")
	white    = lipgloss.Color("255")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(pink).MarginBottom(1)

	headerBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(0, 2).
			MarginBottom(1)

	sectionTitle = lipgloss.NewStyle().Bold(true).Foreground(cyan).MarginTop(1)

	statLabel = lipgloss.NewStyle().Foreground(gray)
	statValue = lipgloss.NewStyle().Bold(true).Foreground(white)

	hubStyle     = lipgloss.NewStyle().Foreground(purple)
	hubCountHigh = lipgloss.NewStyle().Foreground(orange).Bold(true)
	hubCountMed  = lipgloss.NewStyle().Foreground(yellow)
	hubCountLow  = lipgloss.NewStyle().Foreground(gray)

	warnWarn = lipgloss.NewStyle().Foreground(yellow)
	warnInfo = lipgloss.NewStyle().Foreground(gray)

	dimStyle = lipgloss.NewStyle().Foreground(gray)
)

// Summary is the minimal data report.Print needs; session.Session
// assembles it so this package stays free of an import-cycle back to
// internal/session.
type Summary struct {
	Root       string
	Graph      graph.Document
	Hubs       []string
	CacheStats cache.Stats
	Warnings   []model.Warning
}

// Print writes the one-shot session summary to stdout.
func Print(s Summary) {
	var b strings.Builder

	header := titleStyle.Render(s.Root)
	fmt.Fprintln(&b, headerBox.Render(header))

	statsLine := statLabel.Render("files ") + statValue.Render(fmt.Sprintf("%d", s.Graph.Summary.FileCount)) +
		statLabel.Render("  ·  relationships ") + statValue.Render(fmt.Sprintf("%d", s.Graph.Summary.RelationshipCount)) +
		statLabel.Render("  ·  hubs ") + statValue.Render(fmt.Sprintf("%d", s.Graph.Summary.HubFileCount))
	fmt.Fprintln(&b, statsLine)

	width := terminalWidth()
	pathWidth := width - 20
	if pathWidth < 20 {
		pathWidth = 20
	}

	if len(s.Hubs) > 0 {
		fmt.Fprintln(&b, sectionTitle.Render("◆ Hub Files"))
		maxShow := 6
		for i, h := range s.Hubs {
			if i >= maxShow {
				fmt.Fprintln(&b, dimStyle.Render(fmt.Sprintf("  ... +%d more", len(s.Hubs)-maxShow)))
				break
			}
			deps := dependentCount(s.Graph, h)
			style := hubStyleFor(deps)
			bar := strings.Repeat("█", min(deps, 12))
			fmt.Fprintf(&b, "  %s %s %s\n", hubStyle.Render(truncatePath(h, pathWidth)), style.Render(bar), style.Render(fmt.Sprintf("%d", deps)))
		}
	}

	fmt.Fprintln(&b, sectionTitle.Render("◆ Cache"))
	fmt.Fprintf(&b, "  hits %s  ·  staleness refreshes %s  ·  evictions %s  ·  peak %s\n",
		statValue.Render(fmt.Sprintf("%d", s.CacheStats.Hits)),
		statValue.Render(fmt.Sprintf("%d", s.CacheStats.StalenessRefreshes)),
		statValue.Render(fmt.Sprintf("%d", s.CacheStats.Evictions)),
		statValue.Render(fmt.Sprintf("%dKB", s.CacheStats.PeakBytes/1024)))

	if len(s.Warnings) > 0 {
		fmt.Fprintln(&b, sectionTitle.Render("◆ Recent Warnings"))
		maxWarn := 8
		for i, w := range s.Warnings {
			if i >= maxWarn {
				fmt.Fprintln(&b, dimStyle.Render(fmt.Sprintf("  ... +%d more", len(s.Warnings)-maxWarn)))
				break
			}
			fmt.Fprintf(&b, "  %s %s %s\n", severityIcon(w.Severity), warnStyleFor(w.Severity).Render(w.WarningType), dimStyle.Render(truncatePath(w.FilePath, pathWidth)))
		}
	}

	fmt.Print(b.String())
}

func dependentCount(doc graph.Document, file string) int {
	n := 0
	for _, r := range doc.Relationships {
		if r.TargetFile == file {
			n++
		}
	}
	return n
}

func hubStyleFor(count int) lipgloss.Style {
	switch {
	case count >= 10:
		return hubCountHigh
	case count >= 5:
		return hubCountMed
	default:
		return hubCountLow
	}
}

func warnStyleFor(sev model.Severity) lipgloss.Style {
	if sev == model.SeverityWarning {
		return warnWarn
	}
	return warnInfo
}

func severityIcon(sev model.Severity) string {
	if sev == model.SeverityWarning {
		return warnWarn.Render("~")
	}
	return warnInfo.Render("·")
}

// truncatePath shortens a long path to fit width, keeping the filename
// intact and eliding leading directory components.
func truncatePath(path string, width int) string {
	if len(path) <= width || width <= 3 {
		return path
	}
	return "…" + path[len(path)-(width-1):]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
