package components

import (
	"fmt"
	"strings"
)

// chartBlocks are the eighth-height fills from empty to full.
var chartBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const chartAxisWidth = 5 // "100% "

// RenderChart draws a percentage history as a column chart on a fixed
// 0..100 axis. The newest value is rightmost; values outside 0..100 are
// clamped. The first line is the centered title.
func RenderChart(data []float64, width, height int, title string) string {
	width = max(width, 10)
	height = max(height, 4)
	cols := max(width-chartAxisWidth, 2)
	rows := max(height-1, 2)

	if len(data) > cols {
		data = data[len(data)-cols:]
	}

	// Fill of every column in eighths of a row, right aligned.
	fills := make([]int, cols)
	offset := cols - len(data)
	for i, v := range data {
		v = min(max(v, 0), 100)
		fills[offset+i] = int(v/100*float64(rows*8) + 0.5)
	}

	lines := make([]string, 0, height)
	lines = append(lines, centerText(title, width))
	for r := rows - 1; r >= 0; r-- {
		var sb strings.Builder
		switch r {
		case rows - 1:
			sb.WriteString(fmt.Sprintf("%3d%% ", 100))
		case 0:
			sb.WriteString(fmt.Sprintf("%3d%% ", 0))
		default:
			sb.WriteString(strings.Repeat(" ", chartAxisWidth))
		}
		base := r * 8
		for _, f := range fills {
			switch {
			case f <= base:
				sb.WriteRune(' ')
			case f >= base+8:
				sb.WriteRune(chartBlocks[8])
			default:
				sb.WriteRune(chartBlocks[f-base])
			}
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

// centerText centers s within the given width, padding with spaces.
func centerText(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(s)-pad)
}
