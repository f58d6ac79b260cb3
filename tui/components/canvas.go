package components

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tonhe/netflo/internal/topology"
	"github.com/tonhe/netflo/tui/styles"
)

// FlowDots is the number of indicators travelling along each link.
const FlowDots = 3

// Viewport maps the topology world onto a grid of terminal cells.
type Viewport struct {
	Width  int
	Height int
}

// ToCell returns the cell nearest to world coordinates (x, y).
func (v Viewport) ToCell(x, y float64) (col, row int) {
	col = scale(x, topology.WorldWidth, v.Width)
	row = scale(y, topology.WorldHeight, v.Height)
	return col, row
}

// ToWorld returns the world coordinates at the center of a cell.
func (v Viewport) ToWorld(col, row int) (x, y float64) {
	return unscale(col, topology.WorldWidth, v.Width), unscale(row, topology.WorldHeight, v.Height)
}

func scale(v, world float64, cells int) int {
	if cells <= 1 {
		return 0
	}
	c := int(math.Round(v * float64(cells-1) / world))
	return clampInt(c, 0, cells-1)
}

func unscale(c int, world float64, cells int) float64 {
	if cells <= 1 {
		return 0
	}
	return float64(c) * world / float64(cells-1)
}

// FlowPositions returns the fractional positions (0..1) of the flow dots on
// every link for an animation frame. The pattern repeats every ten frames.
func FlowPositions(frame int) []float64 {
	offset := float64(((frame%10)+10)%10) / 10
	pos := make([]float64, FlowDots)
	for i := range pos {
		pos[i] = math.Mod(float64(i)/FlowDots+offset, 1)
	}
	return pos
}

// DeviceGlyph is the marker drawn for a device type.
func DeviceGlyph(t topology.DeviceType) rune {
	switch t {
	case topology.TypeSwitch:
		return '■'
	case topology.TypeServer:
		return '▤'
	default:
		return '◆'
	}
}

type cell struct {
	r     rune
	style lipgloss.Style
	set   bool
}

type grid struct {
	w, h  int
	cells [][]cell
	base  lipgloss.Style
}

func newGrid(w, h int, base lipgloss.Style) *grid {
	g := &grid{w: w, h: h, base: base}
	g.cells = make([][]cell, h)
	for i := range g.cells {
		g.cells[i] = make([]cell, w)
	}
	return g
}

func (g *grid) put(col, row int, r rune, style lipgloss.Style) {
	if col < 0 || row < 0 || col >= g.w || row >= g.h {
		return
	}
	g.cells[row][col] = cell{r: r, style: style, set: true}
}

func (g *grid) text(col, row int, s string, style lipgloss.Style) {
	for i, r := range []rune(s) {
		g.put(col+i, row, r, style)
	}
}

// line draws a segment with Bresenham's algorithm, leaving endpoints free
// for device markers.
func (g *grid) line(c0, r0, c1, r1 int, r rune, style lipgloss.Style) {
	dc := absInt(c1 - c0)
	dr := -absInt(r1 - r0)
	sc, sr := 1, 1
	if c0 > c1 {
		sc = -1
	}
	if r0 > r1 {
		sr = -1
	}
	err := dc + dr
	c, rr := c0, r0
	for {
		if (c != c0 || rr != r0) && (c != c1 || rr != r1) {
			g.put(c, rr, r, style)
		}
		if c == c1 && rr == r1 {
			return
		}
		e2 := 2 * err
		if e2 >= dr {
			err += dr
			c += sc
		}
		if e2 <= dc {
			err += dc
			rr += sr
		}
	}
}

func (g *grid) render() string {
	var sb strings.Builder
	for row := 0; row < g.h; row++ {
		var run strings.Builder
		var runStyle lipgloss.Style
		runSet := false
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runSet {
				sb.WriteString(runStyle.Render(run.String()))
			} else {
				sb.WriteString(g.base.Render(run.String()))
			}
			run.Reset()
		}
		for col := 0; col < g.w; col++ {
			c := g.cells[row][col]
			if c.set != runSet || (c.set && !sameStyle(c.style, runStyle)) {
				flush()
				runSet = c.set
				runStyle = c.style
			}
			if c.set {
				run.WriteRune(c.r)
			} else {
				run.WriteRune(' ')
			}
		}
		flush()
		if row < g.h-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func sameStyle(a, b lipgloss.Style) bool {
	return a.GetForeground() == b.GetForeground() && a.GetBold() == b.GetBold()
}

// CanvasInput is what the topology canvas draws.
type CanvasInput struct {
	Devices    []topology.DeviceView
	Links      []topology.Link
	SelectedID string
	Frame      int
}

// RenderCanvas draws links, their flow indicators and bandwidth labels,
// then the devices on top, into a width x height block.
func RenderCanvas(theme styles.Theme, in CanvasInput, width, height int) string {
	if width < 1 || height < 1 {
		return ""
	}
	base := lipgloss.NewStyle().Background(theme.Base00)
	g := newGrid(width, height, base)
	vp := Viewport{Width: width, Height: height}

	byID := make(map[string]topology.DeviceView, len(in.Devices))
	for _, d := range in.Devices {
		byID[d.ID] = d
	}

	flow := FlowPositions(in.Frame)
	for _, l := range in.Links {
		src, ok1 := byID[l.SourceDeviceID]
		dst, ok2 := byID[l.TargetDeviceID]
		if !ok1 || !ok2 {
			continue
		}
		color := styles.HealthColor(theme, l.Status)
		lineStyle := base.Foreground(color)
		c0, r0 := vp.ToCell(src.X, src.Y)
		c1, r1 := vp.ToCell(dst.X, dst.Y)
		g.line(c0, r0, c1, r1, '·', lineStyle)

		dotStyle := lineStyle.Bold(true)
		for _, t := range flow {
			x := src.X + (dst.X-src.X)*t
			y := src.Y + (dst.Y-src.Y)*t
			c, r := vp.ToCell(x, y)
			if (c == c0 && r == r0) || (c == c1 && r == r1) {
				continue
			}
			g.put(c, r, '●', dotStyle)
		}

		label := FormatBandwidth(l.Bandwidth, l.MaxBandwidth)
		mc, mr := vp.ToCell((src.X+dst.X)/2, (src.Y+dst.Y)/2)
		g.text(mc-len(label)/2, mr-1, label, base.Foreground(theme.Base04))
	}

	for _, d := range in.Devices {
		c, r := vp.ToCell(d.X, d.Y)
		markerStyle := base.Foreground(styles.StatusColor(theme, d.DisplayStatus())).Bold(true)
		lb, rb := '[', ']'
		bracketStyle := base.Foreground(theme.Base03)
		if d.ID == in.SelectedID {
			lb, rb = '<', '>'
			bracketStyle = base.Foreground(theme.Base0D).Bold(true)
		}
		g.put(c-1, r, lb, bracketStyle)
		g.put(c, r, DeviceGlyph(d.Type), markerStyle)
		g.put(c+1, r, rb, bracketStyle)

		name := truncate(d.Name, 16)
		nameStyle := base.Foreground(theme.Base05)
		if d.ID == in.SelectedID {
			nameStyle = base.Foreground(theme.Base0D).Bold(true)
		}
		g.text(c-len([]rune(name))/2, r+1, name, nameStyle)
	}

	return g.render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
