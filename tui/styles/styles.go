package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tonhe/netflo/internal/topology"
)

// Styles holds the themed lipgloss styles shared by the views. Components
// that color by state take the Theme directly.
type Styles struct {
	// Device status
	StatusUp   lipgloss.Style
	StatusDown lipgloss.Style
	StatusWarn lipgloss.Style

	// Side panel
	SectionHeader  lipgloss.Style
	PanelLabel     lipgloss.Style
	DeviceName     lipgloss.Style
	DeviceSelected lipgloss.Style
	SparklineStyle lipgloss.Style

	// Modal / overlay
	ModalBorder lipgloss.Style
	ModalTitle  lipgloss.Style

	// Form
	FormLabel lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(theme Theme) *Styles {
	return &Styles{
		StatusUp: lipgloss.NewStyle().
			Foreground(StatusColor(theme, topology.StatusUp)),
		StatusDown: lipgloss.NewStyle().
			Foreground(StatusColor(theme, topology.StatusDown)),
		StatusWarn: lipgloss.NewStyle().
			Foreground(StatusColor(theme, topology.StatusWarning)),

		SectionHeader: lipgloss.NewStyle().
			Foreground(theme.Base0E).
			Background(theme.Base01).
			Bold(true),
		PanelLabel: lipgloss.NewStyle().
			Foreground(theme.Base04),
		DeviceName: lipgloss.NewStyle().
			Foreground(theme.Base05),
		DeviceSelected: lipgloss.NewStyle().
			Foreground(theme.Base0D).
			Bold(true),
		SparklineStyle: lipgloss.NewStyle().
			Foreground(theme.Base0C),

		ModalBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Base0D).
			BorderBackground(theme.Base00).
			Background(theme.Base00).
			Padding(1, 2),
		ModalTitle: lipgloss.NewStyle().
			Foreground(theme.Base0D).
			Bold(true),

		FormLabel: lipgloss.NewStyle().
			Foreground(theme.Base04),
	}
}

// StatusColor returns the color a device with the given status is drawn in.
func StatusColor(theme Theme, s topology.Status) lipgloss.Color {
	switch s {
	case topology.StatusUp:
		return theme.Base0B
	case topology.StatusWarning:
		return theme.Base0A
	default:
		return theme.Base08
	}
}

// HealthColor returns the color a link in the given tier is drawn in.
func HealthColor(theme Theme, h topology.LinkHealth) lipgloss.Color {
	switch h {
	case topology.HealthCritical:
		return theme.Base08
	case topology.HealthWarning:
		return theme.Base0A
	default:
		return theme.Base0B
	}
}
