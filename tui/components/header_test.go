package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/tonhe/netflo/tui/styles"
)

func TestRenderHeaderStaysOnOneRow(t *testing.T) {
	source := "/home/operator/.local/share/netflo/netflo.db"
	for _, width := range []int{120, 80, 60, 30} {
		out := RenderHeader(styles.DefaultTheme, source, true, 12, 14, width, "0.1.0")
		if h := lipgloss.Height(out); h != 1 {
			t.Errorf("width %d: header height = %d, want 1", width, h)
		}
		if w := lipgloss.Width(out); w > width {
			t.Errorf("width %d: header is %d cells wide", width, w)
		}
	}

	out := RenderHeader(styles.DefaultTheme, source, true, 12, 14, 80, "0.1.0")
	if !strings.Contains(out, "netflo.db") || strings.Contains(out, "/home/operator") {
		t.Errorf("expected the path tail to be kept, got %q", out)
	}
}

func TestTruncateLeft(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"netflo.db", 20, "netflo.db"},
		{"/var/lib/netflo.db", 10, "…netflo.db"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateLeft(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateLeft(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
