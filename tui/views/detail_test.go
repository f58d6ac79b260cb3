package views

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonhe/netflo/internal/topology"
	"github.com/tonhe/netflo/tui/styles"
)

func TestDetailViewShowsDeviceAndLinks(t *testing.T) {
	v := NewDetailView(styles.DefaultTheme)
	v.SetSize(100, 40)
	devices := testDevices()
	d := devices[0]
	d.Latest = &topology.StatSample{ID: 2, DeviceID: "r1", Status: topology.StatusUp, Uptime: "5d 1h", CPU: 33, Memory: 44}
	links := []topology.Link{
		{ID: "l1", SourceDeviceID: "r1", TargetDeviceID: "s1", Bandwidth: 450, MaxBandwidth: 1000, Status: topology.HealthHealthy},
		{ID: "l2", SourceDeviceID: "s1", TargetDeviceID: "h1", Bandwidth: 10, MaxBandwidth: 1000},
	}
	names := map[string]string{"r1": "Core-R1", "s1": "Dist-SW1", "h1": "Web-01"}
	history := []topology.StatSample{{ID: 1, CPU: 20, Memory: 40}, *d.Latest}

	v.SetDevice(d, history, links, names)
	if v.DeviceID() != "r1" {
		t.Fatalf("DeviceID = %q", v.DeviceID())
	}

	out := v.View()
	for _, want := range []string{"Core-R1", "10.0.0.1", "5d 1h", "33%", "Dist-SW1", "450/1000 Mbps", "CPU %", "Memory %"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail view missing %q", want)
		}
	}
	if strings.Contains(out, "Web-01") {
		t.Error("links not touching the device should be hidden")
	}
}

func TestDetailViewEscape(t *testing.T) {
	v := NewDetailView(styles.DefaultTheme)
	if _, _, back := v.Update(tea.KeyMsg{Type: tea.KeyEsc}); !back {
		t.Error("expected esc to go back")
	}
}

func TestHelpViewListsActions(t *testing.T) {
	v := NewHelpView(styles.DefaultTheme)
	v.SetSize(100, 50)
	v.Toggle()
	if !v.IsVisible() {
		t.Fatal("expected help visible after toggle")
	}
	out := v.View()
	for _, want := range []string{"add device", "remove device", "test snmp", "select device under cursor"} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q", want)
		}
	}
}
