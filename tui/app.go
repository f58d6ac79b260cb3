package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/tonhe/netflo/internal/config"
	"github.com/tonhe/netflo/internal/monitor"
	"github.com/tonhe/netflo/internal/store"
	"github.com/tonhe/netflo/internal/topology"
	"github.com/tonhe/netflo/tui/components"
	"github.com/tonhe/netflo/tui/keys"
	"github.com/tonhe/netflo/tui/styles"
	"github.com/tonhe/netflo/tui/views"
)

// AppState represents the current screen/view of the application.
type AppState int

const (
	StateTopology AppState = iota
	StateDetail
	StateAddForm
)

const (
	frameInterval = 100 * time.Millisecond
	noticeTTL     = 4 * time.Second
	headerHeight  = 1
	footerHeight  = 2
)

type pollReason int

const (
	pollTimer pollReason = iota
	pollAdd
	pollTest
)

func (r pollReason) String() string {
	switch r {
	case pollAdd:
		return "add"
	case pollTest:
		return "test"
	default:
		return "timer"
	}
}

type (
	dataMsg struct {
		devices []topology.DeviceView
		links   []topology.Link
		err     error
	}
	subscribedMsg struct {
		feed <-chan store.Change
		err  error
	}
	changeMsg     struct{ change store.Change }
	feedClosedMsg struct{}
	pollTickMsg   struct{}
	frameMsg      time.Time
	pollDoneMsg   struct {
		reason pollReason
		result monitor.PollResult
		err    error
	}
	addedMsg struct {
		device topology.Device
		err    error
	}
	removedMsg struct {
		name string
		err  error
	}
	historyMsg struct {
		deviceID string
		samples  []topology.StatSample
		err      error
	}
)

// AppModel is the root Bubble Tea model that manages all views and state.
type AppModel struct {
	state   AppState
	theme   styles.Theme
	config  *config.Config
	backend monitor.Backend
	log     *logrus.Entry
	source  string
	version string

	topo   views.TopologyView
	detail views.DetailView
	form   views.AddFormView
	help   views.HelpView

	width  int
	height int

	ctx    context.Context
	cancel context.CancelFunc
	feed   <-chan store.Change

	live       bool
	loaded     bool
	fetching   bool
	stale      bool
	polling    bool
	submitting bool
	lastPoll   time.Time

	notice      components.Notice
	noticeUntil time.Time
	now         func() time.Time
}

// NewAppModel creates the dashboard over backend. source names the data
// source shown in the header.
func NewAppModel(cfg *config.Config, backend monitor.Backend, log *logrus.Entry, source, version string) AppModel {
	theme := styles.Resolve(cfg.Theme)
	ctx, cancel := context.WithCancel(context.Background())
	return AppModel{
		state:    StateTopology,
		theme:    theme,
		config:   cfg,
		backend:  backend,
		log:      log,
		source:   source,
		version:  version,
		topo:     views.NewTopologyView(theme, cfg.MaxHistory),
		detail:   views.NewDetailView(theme),
		form:     views.NewAddFormView(theme),
		help:     views.NewHelpView(theme),
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
		fetching: true, // Init issues the first load
	}
}

// Init loads the topology, subscribes to changes and starts the poll timer
// and the animation loop.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.subscribeCmd(), m.pollTickCmd(), frameCmd())
}

func (m AppModel) fetchCmd() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		devices, err := backend.Devices(ctx)
		if err != nil {
			return dataMsg{err: fmt.Errorf("list devices: %w", err)}
		}
		links, err := backend.Links(ctx)
		if err != nil {
			return dataMsg{err: fmt.Errorf("list links: %w", err)}
		}
		return dataMsg{devices: devices, links: links}
	}
}

// requestFetch starts a reload unless one is in flight, in which case the
// in-flight result is marked stale and reloaded once it lands.
func (m *AppModel) requestFetch() tea.Cmd {
	if m.fetching {
		m.stale = true
		return nil
	}
	m.fetching = true
	m.stale = false
	return m.fetchCmd()
}

func (m AppModel) subscribeCmd() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		feed, err := backend.Subscribe(ctx)
		return subscribedMsg{feed: feed, err: err}
	}
}

func waitForChange(feed <-chan store.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-feed
		if !ok {
			return feedClosedMsg{}
		}
		return changeMsg{change: c}
	}
}

func (m AppModel) pollTickCmd() tea.Cmd {
	interval := m.config.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m AppModel) pollCmd(reason pollReason) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		res, err := backend.Poll(ctx)
		return pollDoneMsg{reason: reason, result: res, err: err}
	}
}

func (m AppModel) addCmd(in topology.NewDevice) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		d, err := backend.AddDevice(ctx, in)
		return addedMsg{device: d, err: err}
	}
}

func (m AppModel) removeCmd(d topology.DeviceView) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		return removedMsg{name: d.Name, err: backend.RemoveDevice(ctx, d.ID)}
	}
}

func (m AppModel) historyCmd(deviceID string) tea.Cmd {
	backend, ctx, limit := m.backend, m.ctx, m.config.MaxHistory
	return func() tea.Msg {
		samples, err := backend.History(ctx, deviceID, limit)
		return historyMsg{deviceID: deviceID, samples: samples, err: err}
	}
}

func (m *AppModel) setNotice(text string, isErr bool) {
	m.notice = components.Notice{Text: text, Error: isErr}
	m.noticeUntil = m.now().Add(noticeTTL)
}

func (m *AppModel) resize() {
	body := m.height - headerHeight - footerHeight
	if body < 1 {
		body = 1
	}
	m.topo.SetSize(m.width, body)
	m.detail.SetSize(m.width, body)
	m.form.SetSize(m.width, body)
	m.help.SetSize(m.width, body)
}

func (m *AppModel) refreshDetail() {
	id := m.detail.DeviceID()
	if id == "" {
		return
	}
	for _, d := range m.topo.Devices() {
		if d.ID == id {
			m.detail.SetDevice(d, m.topo.History(id), m.topo.Links(), m.deviceNames())
			return
		}
	}
	// Device is gone.
	m.detail = views.NewDetailView(m.theme)
	m.detail.SetSize(m.width, m.height-headerHeight-footerHeight)
	if m.state == StateDetail {
		m.state = StateTopology
	}
}

func (m AppModel) deviceNames() map[string]string {
	names := make(map[string]string)
	for _, d := range m.topo.Devices() {
		names[d.ID] = d.Name
	}
	return names
}

// Update handles messages and dispatches to the active view.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case dataMsg:
		m.fetching = false
		var cmds []tea.Cmd
		if m.stale {
			cmds = append(cmds, m.requestFetch())
		}
		if msg.err != nil {
			m.log.WithError(msg.err).Error("reload topology")
			return m, tea.Batch(cmds...)
		}
		m.topo.SetData(msg.devices, msg.links)
		if !m.loaded {
			m.loaded = true
			for _, d := range msg.devices {
				cmds = append(cmds, m.historyCmd(d.ID))
			}
		}
		m.refreshDetail()
		return m, tea.Batch(cmds...)

	case subscribedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Error("subscribe to changes")
			return m, nil
		}
		m.live = true
		m.feed = msg.feed
		m.log.Debug("change feed subscribed")
		return m, waitForChange(m.feed)

	case changeMsg:
		return m, tea.Batch(m.applyChange(msg.change), waitForChange(m.feed))

	case feedClosedMsg:
		m.live = false
		m.log.Warn("change feed closed")
		return m, nil

	case pollTickMsg:
		m.polling = true
		return m, tea.Batch(m.pollCmd(pollTimer), m.pollTickCmd())

	case frameMsg:
		m.topo.Tick()
		if m.notice.Text != "" && !m.now().Before(m.noticeUntil) {
			m.notice = components.Notice{}
		}
		return m, frameCmd()

	case pollDoneMsg:
		m.polling = false
		entry := m.log.WithField("reason", msg.reason.String())
		if msg.err != nil {
			entry.WithError(msg.err).Error("poll cycle failed")
			switch msg.reason {
			case pollTest:
				m.setNotice("SNMP test failed: "+msg.err.Error(), true)
			case pollAdd:
				m.setNotice("Poll after add failed: "+msg.err.Error(), true)
			}
			return m, nil
		}
		m.lastPoll = m.now()
		entry.WithField("polled", msg.result.Polled).Debug("poll cycle complete")
		if msg.reason == pollTest {
			m.setNotice(fmt.Sprintf("SNMP test complete: %d devices polled", msg.result.Polled), false)
		}
		return m, nil

	case addedMsg:
		m.submitting = false
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("add device")
			m.form.SetError(msg.err.Error())
			return m, nil
		}
		m.state = StateTopology
		m.setNotice(fmt.Sprintf("Added %s", msg.device.Name), false)
		m.polling = true
		return m, tea.Batch(m.requestFetch(), m.pollCmd(pollAdd))

	case removedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("remove device")
			m.setNotice(fmt.Sprintf("Remove %s failed: %v", msg.name, msg.err), true)
			return m, nil
		}
		m.setNotice(fmt.Sprintf("Removed %s", msg.name), false)
		return m, m.requestFetch()

	case historyMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("device", msg.deviceID).Warn("load history")
			return m, nil
		}
		m.topo.SetHistory(msg.deviceID, msg.samples)
		m.refreshDetail()
		return m, nil

	case tea.MouseMsg:
		if m.state == StateTopology && !m.help.IsVisible() &&
			msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.topo.SelectAt(msg.X, msg.Y-headerHeight)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state == StateAddForm {
		var cmd tea.Cmd
		m.form, cmd, _ = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *AppModel) applyChange(c store.Change) tea.Cmd {
	switch c.Table {
	case store.TableStats:
		s, ok := c.StatRow()
		if ok && c.Op == store.OpInsert && m.topo.MergeStat(s) {
			m.refreshDetail()
			return nil
		}
		return m.requestFetch()
	case store.TableDevices, store.TableLinks:
		return m.requestFetch()
	}
	return nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.cancel()
		return m, tea.Quit
	}

	if m.state == StateAddForm {
		// One insert per submit; input waits for the result.
		if m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		var action views.FormAction
		m.form, cmd, action = m.form.Update(msg)
		switch action {
		case views.FormActionCancel:
			m.state = StateTopology
		case views.FormActionSubmit:
			m.submitting = true
			return m, m.addCmd(m.form.Device())
		}
		return m, cmd
	}

	if m.help.IsVisible() {
		if key.Matches(msg, keys.DefaultKeyMap.Help) || key.Matches(msg, keys.DefaultKeyMap.Escape) {
			m.help.Toggle()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.DefaultKeyMap.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, keys.DefaultKeyMap.Help):
		m.help.Toggle()
		return m, nil
	}

	if m.state == StateDetail {
		var back bool
		m.detail, _, back = m.detail.Update(msg)
		if back {
			m.state = StateTopology
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.DefaultKeyMap.Add):
		m.form = views.NewAddFormView(m.theme)
		m.resize()
		m.state = StateAddForm
		return m, nil

	case key.Matches(msg, keys.DefaultKeyMap.Remove):
		d, ok := m.topo.Selected()
		if !ok {
			m.setNotice("Select a device to remove", true)
			return m, nil
		}
		return m, m.removeCmd(d)

	case key.Matches(msg, keys.DefaultKeyMap.Test):
		m.setNotice("Testing SNMP on all devices...", false)
		m.polling = true
		return m, m.pollCmd(pollTest)

	case key.Matches(msg, keys.DefaultKeyMap.Refresh):
		return m, m.requestFetch()

	case key.Matches(msg, keys.DefaultKeyMap.Enter):
		d, ok := m.topo.Selected()
		if !ok {
			return m, nil
		}
		m.detail.SetDevice(d, m.topo.History(d.ID), m.topo.Links(), m.deviceNames())
		m.state = StateDetail
		return m, m.historyCmd(d.ID)
	}

	var cmd tea.Cmd
	m.topo, cmd = m.topo.Update(msg)
	return m, cmd
}

// View renders the full application UI by composing header, body, and status.
func (m AppModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := components.RenderHeader(
		m.theme,
		m.source,
		m.live,
		len(m.topo.Devices()),
		len(m.topo.Links()),
		m.width,
		m.version,
	)

	var body string
	switch {
	case m.help.IsVisible():
		body = m.help.View()
	case m.state == StateAddForm:
		body = m.form.View()
	case m.state == StateDetail:
		body = m.detail.View()
	default:
		body = m.topo.View()
	}

	statusBar := components.RenderStatusBar(m.theme, components.StatusInfo{
		Interval: m.config.PollInterval,
		LastPoll: m.lastPoll,
		Polling:  m.polling,
		Notice:   m.notice,
	}, m.width)

	bodyHeight := m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	bodyStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Background(m.theme.Base00).
		Foreground(m.theme.Base05)

	return lipgloss.JoinVertical(lipgloss.Left, header, bodyStyle.Render(body), statusBar)
}
