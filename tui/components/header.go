package components

import (
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/netflo/tui/styles"
)

// RenderHeader renders the top header bar with app name, data source,
// live/offline status and topology counts.
func RenderHeader(theme styles.Theme, source string, isLive bool, devices, links, width int, ver string) string {
	seg := lipgloss.NewStyle().Background(theme.Base01)

	left := seg.Foreground(theme.Base0D).Bold(true).Render("netflo")

	status := "OFFLINE"
	statusColor := theme.Base08
	if isLive {
		status = "LIVE"
		statusColor = theme.Base0B
	}
	right := seg.Foreground(statusColor).Render(status)

	countText := fmt.Sprintf("%d devices  %d links", devices, links)
	counts := seg.Foreground(theme.Base04).Render(countText)

	verText := "v" + ver
	versionSeg := seg.Foreground(theme.Base04).Render(verText)

	if source == "" {
		source = "(local)"
	}
	// The header is a single row; long sources (database paths) lose their
	// leading characters first.
	fixed := headerChrome + len("netflo") + len(status) +
		utf8.RuneCountInString(countText) + utf8.RuneCountInString(verText)
	source = truncateLeft(source, width-fixed)
	center := seg.Foreground(theme.Base05).Render(source)

	content := fmt.Sprintf(" %s  |  %s  |  %s  |  %s  |  %s ", left, center, right, counts, versionSeg)

	return lipgloss.NewStyle().
		Background(theme.Base01).
		Width(width).
		MaxHeight(1).
		Render(content)
}

// headerChrome is the padding and separators around the header segments.
const headerChrome = 2 + 4*len("  |  ")

// truncateLeft keeps the last n runes of s behind an ellipsis.
func truncateLeft(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return "…" + string(r[len(r)-n+1:])
}
