package engine

import (
	"testing"

	"github.com/gosnmp/gosnmp"

	"github.com/tonhe/netflo/internal/topology"
)

func TestSeed(t *testing.T) {
	tests := []struct {
		ip   string
		want int
	}{
		{"10.0.0.9", 9},
		{"192.168.1.254", 254},
		{".9", 9},
		{"localhost", 1},
		{"10.0.0.x", 1},
		{"10.0.0.", 1},
		{"", 1},
	}
	for _, tt := range tests {
		if got := Seed(tt.ip); got != tt.want {
			t.Errorf("Seed(%q) = %d, want %d", tt.ip, got, tt.want)
		}
	}
}

func TestBaseLoadDeterministic(t *testing.T) {
	first := BaseLoad(Seed(".9"))
	if first != 3 {
		t.Fatalf("expected baseline 3 for seed 9, got %d", first)
	}
	for i := 0; i < 10; i++ {
		if got := BaseLoad(Seed(".9")); got != first {
			t.Fatalf("baseline changed between calls: %d != %d", got, first)
		}
	}
	if got := BaseLoad(10); got != 10 {
		t.Errorf("BaseLoad(10) = %d, want 10", got)
	}
}

func TestFormatUptime(t *testing.T) {
	ticks := uint64((3*86400 + 7*3600 + 125) * 100)
	if got := formatUptime(ticks); got != "3d 7h" {
		t.Errorf("formatUptime() = %q, want %q", got, "3d 7h")
	}
}

func TestNewSNMPClient(t *testing.T) {
	c := NewSNMPClient(topology.Device{IP: "10.0.0.9"})
	if c.Version != gosnmp.Version2c {
		t.Errorf("expected v2c, got %v", c.Version)
	}
	if c.Community != topology.DefaultCommunity {
		t.Errorf("expected default community, got %q", c.Community)
	}
	if c.Target != "10.0.0.9" || c.Port != 161 {
		t.Errorf("unexpected target %s:%d", c.Target, c.Port)
	}
}
