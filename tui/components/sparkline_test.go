package components

import "testing"

func TestSparkline(t *testing.T) {
	data := []float64{0, 25, 50, 75, 100, 50, 25, 0}
	result := Sparkline(data, 8)
	if len([]rune(result)) != 8 {
		t.Errorf("expected 8 chars, got %d", len([]rune(result)))
	}
}

func TestSparklineEmpty(t *testing.T) {
	result := Sparkline(nil, 8)
	if result != "        " {
		t.Errorf("expected 8 spaces for empty data, got %q", result)
	}
}

func TestSparklineSingleValue(t *testing.T) {
	result := Sparkline([]float64{50}, 4)
	if len([]rune(result)) != 4 {
		t.Errorf("expected 4 chars, got %d", len([]rune(result)))
	}
}

func TestFormatBandwidth(t *testing.T) {
	if got := FormatBandwidth(450, 1000); got != "450/1000 Mbps" {
		t.Errorf("FormatBandwidth = %q", got)
	}
	if got := FormatBandwidth(0, 1000); got != "0/1000 Mbps" {
		t.Errorf("FormatBandwidth zero = %q", got)
	}
}

func TestFormatMbps(t *testing.T) {
	tests := []struct {
		mbps     float64
		expected string
	}{
		{0, "0 Mbps"},
		{500, "500 Mbps"},
		{1500, "1.5 Gbps"},
		{2_500_000, "2.5 Tbps"},
	}
	for _, tt := range tests {
		got := FormatMbps(tt.mbps)
		if got != tt.expected {
			t.Errorf("FormatMbps(%f) = %q, want %q", tt.mbps, got, tt.expected)
		}
	}
}
