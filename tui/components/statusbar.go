package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/netflo/tui/styles"
)

// Notice is a transient message shown in the status bar.
type Notice struct {
	Text  string
	Error bool
}

// StatusInfo is what the status bar reports about polling.
type StatusInfo struct {
	Interval time.Duration
	LastPoll time.Time
	Polling  bool
	Notice   Notice
}

// RenderStatusBar renders the two-line footer: poll state and the current
// notice on top, key bindings below.
func RenderStatusBar(theme styles.Theme, info StatusInfo, width int) string {
	bg := theme.Base01
	bgStyle := lipgloss.NewStyle().Background(bg)
	sep := lipgloss.NewStyle().Foreground(theme.Base03).Background(bg).Render(" | ")

	pollSeg := lipgloss.NewStyle().Foreground(theme.Base05).Background(bg).Render(fmt.Sprintf("poll: %s", info.Interval))
	lastStr := "never"
	if info.Polling {
		lastStr = "polling..."
	} else if !info.LastPoll.IsZero() {
		lastStr = info.LastPoll.Format("15:04:05")
	}
	lastSeg := lipgloss.NewStyle().Foreground(theme.Base05).Background(bg).Render(fmt.Sprintf("last: %s", lastStr))

	topContent := bgStyle.Render(" ") + pollSeg + sep + lastSeg
	if info.Notice.Text != "" {
		color := theme.Base0B
		if info.Notice.Error {
			color = theme.Base08
		}
		topContent += sep + lipgloss.NewStyle().Foreground(color).Background(bg).Bold(true).Render(info.Notice.Text)
	}
	topWidth := lipgloss.Width(topContent)
	if topWidth < width {
		topContent += bgStyle.Render(strings.Repeat(" ", width-topWidth))
	}

	keyStyle := lipgloss.NewStyle().Foreground(theme.Base0D).Background(bg).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.Base04).Background(bg)
	spacer := bgStyle.Render("  ")

	keys := bgStyle.Render(" ") +
		keyStyle.Render("a") + descStyle.Render(":add") + spacer +
		keyStyle.Render("x") + descStyle.Render(":remove") + spacer +
		keyStyle.Render("t") + descStyle.Render(":test snmp") + spacer +
		keyStyle.Render("r") + descStyle.Render(":reload") + spacer +
		keyStyle.Render("enter") + descStyle.Render(":detail") + spacer +
		keyStyle.Render("?") + descStyle.Render(":help") + spacer +
		keyStyle.Render("q") + descStyle.Render(":quit")

	keysWidth := lipgloss.Width(keys)
	if keysWidth < width {
		keys += bgStyle.Render(strings.Repeat(" ", width-keysWidth))
	}

	return lipgloss.JoinVertical(lipgloss.Left, topContent, keys)
}
