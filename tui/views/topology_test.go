package views

import (
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonhe/netflo/internal/topology"
	"github.com/tonhe/netflo/tui/styles"
)

func testDevices() []topology.DeviceView {
	return []topology.DeviceView{
		{Device: topology.Device{ID: "r1", Name: "Core-R1", IP: "10.0.0.1", Type: topology.TypeRouter, X: 300, Y: 300}},
		{Device: topology.Device{ID: "s1", Name: "Dist-SW1", IP: "10.0.0.2", Type: topology.TypeSwitch, X: 320, Y: 300}},
		{Device: topology.Device{ID: "h1", Name: "Web-01", IP: "10.0.0.3", Type: topology.TypeServer, X: 900, Y: 500}},
	}
}

func TestSelectWorldRadius(t *testing.T) {
	v := NewTopologyView(styles.DefaultTheme, 10)
	v.SetData(testDevices()[2:], nil)

	if !v.SelectWorld(930, 500) {
		t.Fatal("expected a hit exactly 30 from the center")
	}
	if d, _ := v.Selected(); d.ID != "h1" {
		t.Errorf("selected %q, want h1", d.ID)
	}
	if v.SelectWorld(931, 500) {
		t.Error("expected no hit 31 from the center")
	}
	if _, ok := v.Selected(); ok {
		t.Error("a miss should clear the selection")
	}
}

func TestSelectWorldFirstMatchWins(t *testing.T) {
	v := NewTopologyView(styles.DefaultTheme, 10)
	v.SetData(testDevices(), nil)
	// (310, 300) is within range of both r1 and s1.
	v.SelectWorld(310, 300)
	if d, _ := v.Selected(); d.ID != "r1" {
		t.Errorf("selected %q, want r1", d.ID)
	}
}

func TestSelectAtIgnoresPanel(t *testing.T) {
	v := NewTopologyView(styles.DefaultTheme, 10)
	v.SetSize(121+PanelWidth, 71)
	v.SetData(testDevices(), nil)
	if v.SelectAt(121+2, 30) {
		t.Error("clicks on the side panel should not select")
	}
	if !v.SelectAt(90, 50) {
		t.Error("expected cell (90,50) to hit Web-01")
	}
}

func TestMergeStat(t *testing.T) {
	v := NewTopologyView(styles.DefaultTheme, 3)
	v.SetData(testDevices(), nil)

	for i := int64(1); i <= 5; i++ {
		if !v.MergeStat(topology.StatSample{ID: i, DeviceID: "r1", Status: topology.StatusUp, CPU: int(i * 10)}) {
			t.Fatal("merge into a known device failed")
		}
	}
	if v.MergeStat(topology.StatSample{ID: 9, DeviceID: "missing"}) {
		t.Error("merge into an unknown device should report false")
	}

	d := v.Devices()[0]
	if d.Latest == nil || d.Latest.ID != 5 {
		t.Fatalf("latest = %+v, want sample 5", d.Latest)
	}
	h := v.History("r1")
	if len(h) != 3 || h[0].ID != 3 || h[2].ID != 5 {
		t.Errorf("history = %+v, want samples 3..5", h)
	}

	// An older sample does not replace the latest one.
	v.MergeStat(topology.StatSample{ID: 2, DeviceID: "r1", Status: topology.StatusDown})
	if v.Devices()[0].Latest.ID != 5 {
		t.Error("older sample replaced the latest")
	}
	if len(v.History("r1")) != 3 {
		t.Error("older sample should not be recorded")
	}
}

func TestSetDataPrunesRemovedDevices(t *testing.T) {
	v := NewTopologyView(styles.DefaultTheme, 10)
	v.SetData(testDevices(), nil)
	v.MergeStat(topology.StatSample{ID: 1, DeviceID: "s1"})
	v.SelectWorld(900, 500)

	v.SetData(testDevices()[:2], nil)
	if _, ok := v.Selected(); ok {
		t.Error("selection of a removed device should be cleared")
	}
	if len(v.History("s1")) != 1 {
		t.Error("history of a remaining device should be kept")
	}

	v.SetData(testDevices()[:1], nil)
	if v.History("s1") != nil {
		t.Error("history of a removed device should be dropped")
	}
}

func TestKeyboardSelectionWraps(t *testing.T) {
	v := NewTopologyView(styles.DefaultTheme, 10)
	v.SetData(testDevices(), nil)

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyUp})
	if d, _ := v.Selected(); d.ID != "h1" {
		t.Errorf("up with no selection chose %q, want h1", d.ID)
	}
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	if d, _ := v.Selected(); d.ID != "r1" {
		t.Errorf("down from the last device chose %q, want r1", d.ID)
	}
}

func TestTopologyViewPanel(t *testing.T) {
	v := NewTopologyView(styles.DefaultTheme, 10)
	v.SetSize(120, 30)
	devices := testDevices()
	devices[0].Latest = &topology.StatSample{ID: 1, DeviceID: "r1", Status: topology.StatusUp, Uptime: "12d 3h", CPU: 42, Memory: 61}
	links := []topology.Link{
		{ID: "l1", SourceDeviceID: "r1", TargetDeviceID: "s1", Bandwidth: 250, MaxBandwidth: 1000, Status: topology.HealthHealthy},
		{ID: "l2", SourceDeviceID: "s1", TargetDeviceID: "h1", Bandwidth: 750, MaxBandwidth: 1000, Status: topology.HealthHealthy},
	}
	v.SetData(devices, links)
	v.SelectWorld(300, 300)

	out := v.View()
	for _, want := range []string{"Devices", "Core-R1", "12d 3h", "42%", "1.0 Gbps", "50.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTopologyViewEmpty(t *testing.T) {
	v := NewTopologyView(styles.DefaultTheme, 10)
	v.SetSize(80, 20)
	if !strings.Contains(v.View(), "No devices") {
		t.Error("expected empty-state message")
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Core-R1", 10, "Core-R1"},
		{"Zürich-Edge-Router", 10, "Zürich-..."},
		{"Ядро-маршрутизатор", 8, "Ядро-..."},
		{"東京", 1, "東"},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}

func TestPadRightCountsRunes(t *testing.T) {
	if got := padRight("Zürich", 8); got != "Zürich  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("Ядро-маршрутизатор", 4); got != "Ядро" {
		t.Errorf("padRight = %q", got)
	}
}
