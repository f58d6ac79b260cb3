package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/netflo/internal/topology"
	"github.com/tonhe/netflo/tui/components"
	"github.com/tonhe/netflo/tui/keys"
	"github.com/tonhe/netflo/tui/styles"
)

// DetailView is a split-screen view showing device information at the top
// and CPU/memory history charts at the bottom.
type DetailView struct {
	theme   styles.Theme
	sty     *styles.Styles
	device  *topology.DeviceView
	links   []topology.Link
	names   map[string]string
	history []topology.StatSample
	width   int
	height  int
}

// NewDetailView creates a new DetailView with the given theme.
func NewDetailView(theme styles.Theme) DetailView {
	return DetailView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}
}

// SetDevice updates the view with a device, its recent samples and the
// links that touch it. names maps device IDs to display names.
func (v *DetailView) SetDevice(d topology.DeviceView, history []topology.StatSample, links []topology.Link, names map[string]string) {
	v.device = &d
	v.history = history
	v.names = names
	v.links = nil
	for _, l := range links {
		if l.Touches(d.ID) {
			v.links = append(v.links, l)
		}
	}
}

// DeviceID returns the ID of the device shown, or "".
func (v DetailView) DeviceID() string {
	if v.device == nil {
		return ""
	}
	return v.device.ID
}

// SetSize updates the available dimensions for the view.
func (v *DetailView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Update handles key messages for the detail view. The third return value
// indicates whether the user wants to go back (Esc pressed).
func (v DetailView) Update(msg tea.Msg) (DetailView, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Escape):
			return v, nil, true
		}
	}
	return v, nil, false
}

// View renders the detail view with an info panel and history charts.
func (v DetailView) View() string {
	if v.device == nil {
		return v.renderEmpty()
	}
	return v.renderDetail()
}

// renderEmpty shows a placeholder when no device is selected.
func (v DetailView) renderEmpty() string {
	msg := lipgloss.NewStyle().
		Foreground(v.theme.Base04).
		Align(lipgloss.Center).
		Render("No device selected")
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, msg)
}

func (v DetailView) renderDetail() string {
	infoPanel := v.renderInfoPanel()
	infoHeight := lipgloss.Height(infoPanel)

	chartHeight := v.height - infoHeight - 2
	if chartHeight < 6 {
		chartHeight = 6
	}
	chartWidth := (v.width - 3) / 2
	if chartWidth < 15 {
		chartWidth = 15
	}

	cpu := make([]float64, len(v.history))
	mem := make([]float64, len(v.history))
	for i, s := range v.history {
		cpu[i] = float64(s.CPU)
		mem[i] = float64(s.Memory)
	}

	cpuChart := lipgloss.NewStyle().
		Foreground(v.theme.Base0B).
		Render(components.RenderChart(cpu, chartWidth, chartHeight, "CPU %"))
	memChart := lipgloss.NewStyle().
		Foreground(v.theme.Base0C).
		Render(components.RenderChart(mem, chartWidth, chartHeight, "Memory %"))

	sep := lipgloss.NewStyle().
		Foreground(v.theme.Base03).
		Render(strings.TrimSuffix(strings.Repeat(" | \n", chartHeight), "\n"))
	charts := lipgloss.JoinHorizontal(lipgloss.Top, cpuChart, sep, memChart)

	return lipgloss.JoinVertical(lipgloss.Left, infoPanel, "", charts, v.renderHelp())
}

func (v DetailView) renderInfoPanel() string {
	d := v.device
	labelStyle := lipgloss.NewStyle().
		Foreground(v.theme.Base04).
		Width(16)
	valueStyle := lipgloss.NewStyle().
		Foreground(v.theme.Base05)
	highlightStyle := lipgloss.NewStyle().
		Foreground(v.theme.Base0D).
		Bold(true)
	statusStyle := lipgloss.NewStyle().
		Foreground(styles.StatusColor(v.theme, d.DisplayStatus()))

	line := func(label string, value string) string {
		return fmt.Sprintf("  %s%s", labelStyle.Render(label), value)
	}

	uptime, cpu, mem, polled := "-", "-", "-", "never"
	if s := d.Latest; s != nil {
		uptime = s.Uptime
		cpu = fmt.Sprintf("%d%%", s.CPU)
		mem = fmt.Sprintf("%d%%", s.Memory)
		polled = s.Timestamp.Local().Format("15:04:05")
	}

	rows := []string{
		"",
		line("Device:", highlightStyle.Render(d.Name)),
		line("Address:", valueStyle.Render(d.IP)),
		line("Type:", valueStyle.Render(string(d.Type))),
		line("Community:", valueStyle.Render(d.SNMPCommunity)),
		line("Status:", statusStyle.Render(string(d.DisplayStatus()))),
		line("Uptime:", valueStyle.Render(uptime)),
		line("CPU:", valueStyle.Render(cpu)),
		line("Memory:", valueStyle.Render(mem)),
		line("Last poll:", valueStyle.Render(polled)),
	}

	for _, l := range v.links {
		peer := l.TargetDeviceID
		if peer == d.ID {
			peer = l.SourceDeviceID
		}
		if name, ok := v.names[peer]; ok {
			peer = name
		}
		healthStyle := lipgloss.NewStyle().Foreground(styles.HealthColor(v.theme, l.Status))
		rows = append(rows, line("Link:", valueStyle.Render(padRight(truncate(peer, 18), 20))+
			healthStyle.Render(components.FormatBandwidth(l.Bandwidth, l.MaxBandwidth))))
	}

	return strings.Join(rows, "\n")
}

// renderHelp renders a help line at the bottom of the detail view.
func (v DetailView) renderHelp() string {
	helpStyle := lipgloss.NewStyle().Foreground(v.theme.Base04)
	keyStyle := lipgloss.NewStyle().Foreground(v.theme.Base0D).Bold(true)
	return helpStyle.Render(fmt.Sprintf("  %s to go back", keyStyle.Render("[esc]")))
}
