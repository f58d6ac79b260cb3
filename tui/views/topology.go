package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/netflo/internal/engine"
	"github.com/tonhe/netflo/internal/topology"
	"github.com/tonhe/netflo/tui/components"
	"github.com/tonhe/netflo/tui/keys"
	"github.com/tonhe/netflo/tui/styles"
)

// PanelWidth is the width of the side panel to the right of the canvas.
const PanelWidth = 34

const defaultHistory = 60

// TopologyView is the main screen: the topology canvas with a side panel
// holding the device list, the selected device and network totals.
type TopologyView struct {
	theme      styles.Theme
	sty        *styles.Styles
	devices    []topology.DeviceView
	links      []topology.Link
	history    map[string]*engine.RingBuffer[topology.StatSample]
	maxHistory int
	selectedID string
	frame      int
	width      int
	height     int
}

// NewTopologyView creates an empty view keeping up to maxHistory samples
// per device.
func NewTopologyView(theme styles.Theme, maxHistory int) TopologyView {
	if maxHistory < 1 {
		maxHistory = defaultHistory
	}
	return TopologyView{
		theme:      theme,
		sty:        styles.NewStyles(theme),
		history:    make(map[string]*engine.RingBuffer[topology.StatSample]),
		maxHistory: maxHistory,
	}
}

// SetSize updates the available dimensions for the view.
func (v *TopologyView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Viewport returns the cell grid the canvas is drawn on.
func (v TopologyView) Viewport() components.Viewport {
	w := v.width - PanelWidth
	if w < 1 {
		w = 1
	}
	h := v.height
	if h < 1 {
		h = 1
	}
	return components.Viewport{Width: w, Height: h}
}

// SetData replaces the devices and links. History for devices that no longer
// exist is dropped and each device's latest sample is recorded.
func (v *TopologyView) SetData(devices []topology.DeviceView, links []topology.Link) {
	v.devices = devices
	v.links = links

	present := make(map[string]bool, len(devices))
	for _, d := range devices {
		present[d.ID] = true
		if d.Latest != nil {
			v.record(*d.Latest)
		}
	}
	for id := range v.history {
		if !present[id] {
			delete(v.history, id)
		}
	}
	if v.selectedID != "" && !present[v.selectedID] {
		v.selectedID = ""
	}
}

// MergeStat applies a new sample to its device. It reports false when the
// device is unknown.
func (v *TopologyView) MergeStat(s topology.StatSample) bool {
	for i := range v.devices {
		if v.devices[i].ID != s.DeviceID {
			continue
		}
		if v.devices[i].Latest == nil || s.ID >= v.devices[i].Latest.ID {
			sample := s
			v.devices[i].Latest = &sample
		}
		v.record(s)
		return true
	}
	return false
}

// SetHistory replaces a device's history with samples ordered oldest first.
func (v *TopologyView) SetHistory(deviceID string, samples []topology.StatSample) {
	buf := engine.NewRingBuffer[topology.StatSample](v.maxHistory)
	for _, s := range samples {
		buf.Add(s)
	}
	v.history[deviceID] = buf
}

// History returns a device's recorded samples, oldest first.
func (v TopologyView) History(deviceID string) []topology.StatSample {
	buf, ok := v.history[deviceID]
	if !ok {
		return nil
	}
	return buf.All()
}

// record appends s unless it is not newer than the last recorded sample.
func (v *TopologyView) record(s topology.StatSample) {
	buf, ok := v.history[s.DeviceID]
	if !ok {
		buf = engine.NewRingBuffer[topology.StatSample](v.maxHistory)
		v.history[s.DeviceID] = buf
	}
	if last, ok := buf.Last(); ok && last.ID >= s.ID {
		return
	}
	buf.Add(s)
}

// Devices returns the current device views.
func (v TopologyView) Devices() []topology.DeviceView {
	return v.devices
}

// Links returns the current links.
func (v TopologyView) Links() []topology.Link {
	return v.links
}

// Selected returns the selected device.
func (v TopologyView) Selected() (topology.DeviceView, bool) {
	for _, d := range v.devices {
		if d.ID == v.selectedID {
			return d, true
		}
	}
	return topology.DeviceView{}, false
}

// SelectWorld selects the first device within DeviceRadius of world point
// (x, y), or clears the selection when none is.
func (v *TopologyView) SelectWorld(x, y float64) bool {
	devices := make([]topology.Device, len(v.devices))
	for i, d := range v.devices {
		devices[i] = d.Device
	}
	hit, ok := topology.HitTest(devices, x, y, topology.DeviceRadius)
	if !ok {
		v.selectedID = ""
		return false
	}
	v.selectedID = hit.ID
	return true
}

// SelectAt handles a click on a cell relative to the top-left of the view.
// Clicks on the side panel are ignored.
func (v *TopologyView) SelectAt(col, row int) bool {
	vp := v.Viewport()
	if col < 0 || row < 0 || col >= vp.Width || row >= vp.Height {
		return false
	}
	x, y := vp.ToWorld(col, row)
	return v.SelectWorld(x, y)
}

// Tick advances the flow animation by one frame.
func (v *TopologyView) Tick() {
	v.frame++
}

// Frame returns the current animation frame.
func (v TopologyView) Frame() int {
	return v.frame
}

// Update moves the selection through the device list.
func (v TopologyView) Update(msg tea.Msg) (TopologyView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Up):
			v.moveSelection(-1)
		case key.Matches(msg, keys.DefaultKeyMap.Down):
			v.moveSelection(1)
		}
	}
	return v, nil
}

func (v *TopologyView) moveSelection(delta int) {
	if len(v.devices) == 0 {
		return
	}
	idx := -1
	for i, d := range v.devices {
		if d.ID == v.selectedID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(v.devices) - 1
	default:
		idx = (idx + delta + len(v.devices)) % len(v.devices)
	}
	v.selectedID = v.devices[idx].ID
}

// View renders the canvas and side panel.
func (v TopologyView) View() string {
	if len(v.devices) == 0 {
		return v.renderEmpty()
	}
	vp := v.Viewport()
	canvas := components.RenderCanvas(v.theme, components.CanvasInput{
		Devices:    v.devices,
		Links:      v.links,
		SelectedID: v.selectedID,
		Frame:      v.frame,
	}, vp.Width, vp.Height)

	panel := lipgloss.NewStyle().
		Width(PanelWidth).
		Height(vp.Height).
		Background(v.theme.Base00).
		Foreground(v.theme.Base05).
		Render(v.renderPanel())

	return lipgloss.JoinHorizontal(lipgloss.Top, canvas, panel)
}

func (v TopologyView) renderPanel() string {
	inner := PanelWidth - 2
	var lines []string

	section := func(title string) {
		lines = append(lines, v.sty.SectionHeader.Render(padRight(" "+title, inner)))
	}
	row := func(label, value string, valueStyle lipgloss.Style) {
		lines = append(lines, " "+v.sty.PanelLabel.Render(padRight(label, 10))+valueStyle.Render(value))
	}
	plain := lipgloss.NewStyle().Foreground(v.theme.Base05)

	section("Devices")
	for _, d := range v.devices {
		status := d.DisplayStatus()
		dot := lipgloss.NewStyle().Foreground(styles.StatusColor(v.theme, status)).Render("●")
		nameStyle := v.sty.DeviceName
		marker := "  "
		if d.ID == v.selectedID {
			nameStyle = v.sty.DeviceSelected
			marker = "> "
		}
		lines = append(lines, " "+marker+dot+" "+nameStyle.Render(truncate(d.Name, inner-6)))
	}
	lines = append(lines, "")

	section("Selected")
	if d, ok := v.Selected(); ok {
		statusStyle := lipgloss.NewStyle().Foreground(styles.StatusColor(v.theme, d.DisplayStatus())).Bold(true)
		row("Name", truncate(d.Name, inner-11), plain)
		row("IP", d.IP, plain)
		row("Type", string(d.Type), plain)
		row("Status", string(d.DisplayStatus()), statusStyle)
		if s := d.Latest; s != nil {
			row("Uptime", s.Uptime, plain)
			row("CPU", fmt.Sprintf("%d%%", s.CPU), plain)
			row("Memory", fmt.Sprintf("%d%%", s.Memory), plain)
		} else {
			row("Uptime", "-", plain)
			row("CPU", "-", plain)
			row("Memory", "-", plain)
		}
		cpu := v.cpuHistory(d.ID)
		lines = append(lines, " "+v.sty.PanelLabel.Render(padRight("CPU trend", 10))+
			v.sty.SparklineStyle.Render(components.Sparkline(cpu, inner-11)))
	} else {
		lines = append(lines, " "+v.sty.PanelLabel.Render("click a device or use up/down"))
	}
	lines = append(lines, "")

	sum := topology.Summarize(v.devices, v.links)
	section("Network")
	row("Devices", fmt.Sprintf("%d", sum.TotalDevices), plain)
	row("Up", fmt.Sprintf("%d", sum.Up), v.sty.StatusUp)
	row("Warning", fmt.Sprintf("%d", sum.Warning), v.sty.StatusWarn)
	row("Down", fmt.Sprintf("%d", sum.Down), v.sty.StatusDown)
	row("Traffic", components.FormatMbps(sum.TotalBandwidth), plain)
	row("Avg util", fmt.Sprintf("%.1f%%", sum.AvgUtilization), plain)

	return strings.Join(lines, "\n")
}

func (v TopologyView) cpuHistory(deviceID string) []float64 {
	buf, ok := v.history[deviceID]
	if !ok {
		return nil
	}
	return engine.Project(buf, func(s topology.StatSample) float64 { return float64(s.CPU) })
}

// renderEmpty renders a centered message when there are no devices.
func (v TopologyView) renderEmpty() string {
	msgStyle := lipgloss.NewStyle().
		Foreground(v.theme.Base04).
		Align(lipgloss.Center)

	keyStyle := lipgloss.NewStyle().
		Foreground(v.theme.Base0D).
		Bold(true)

	msg := lipgloss.JoinVertical(lipgloss.Center,
		"",
		msgStyle.Render("No devices"),
		"",
		msgStyle.Render(fmt.Sprintf(
			"Press %s to add a device",
			keyStyle.Render("[a]"),
		)),
		msgStyle.Render(fmt.Sprintf(
			"or run %s to load the demo network",
			keyStyle.Render("netflo seed"),
		)),
		"",
	)

	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, msg)
}

// padRight pads s with spaces on the right to the given width.
func padRight(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

// truncate shortens s to maxLen runes, adding an ellipsis if needed.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
