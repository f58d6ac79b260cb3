package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/netflo/tui/keys"
	"github.com/tonhe/netflo/tui/styles"
)

// HelpView renders a modal overlay showing all keyboard shortcuts.
type HelpView struct {
	theme   styles.Theme
	sty     *styles.Styles
	width   int
	height  int
	visible bool
}

type helpSection struct {
	title    string
	bindings []key.Binding
}

func helpSections() []helpSection {
	km := keys.DefaultKeyMap
	click := key.NewBinding(key.WithHelp("click", "select device under cursor"))
	return []helpSection{
		{"Topology", []key.Binding{km.Up, km.Down, click, km.Enter, km.Add, km.Remove, km.Test, km.Refresh}},
		{"Add Device", []key.Binding{km.Tab, km.BackTab, km.Enter, km.Escape}},
		{"Anywhere", []key.Binding{km.Escape, km.Help, km.Quit}},
	}
}

// NewHelpView creates a new HelpView with the given theme.
func NewHelpView(theme styles.Theme) HelpView {
	return HelpView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// Toggle flips the help overlay visibility.
func (v *HelpView) Toggle() {
	v.visible = !v.visible
}

// IsVisible returns whether the help overlay is currently shown.
func (v HelpView) IsVisible() bool {
	return v.visible
}

// SetSize updates the available dimensions for the overlay.
func (v *HelpView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// View renders the help overlay as a centered modal box.
func (v HelpView) View() string {
	sectionStyle := lipgloss.NewStyle().Foreground(v.theme.Base0E).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(v.theme.Base0D).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(v.theme.Base05)
	dimStyle := lipgloss.NewStyle().Foreground(v.theme.Base04)

	var b strings.Builder
	b.WriteString(v.sty.ModalTitle.Render("Keyboard Shortcuts") + "\n\n")
	for _, sec := range helpSections() {
		b.WriteString(sectionStyle.Render(sec.title) + "\n")
		for _, kb := range sec.bindings {
			h := kb.Help()
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				keyStyle.Render(padRight(h.Key, 12)),
				descStyle.Render(h.Desc)))
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("[?] or [esc] close"))

	modal := v.sty.ModalBorder.Render(b.String())
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, modal)
}
