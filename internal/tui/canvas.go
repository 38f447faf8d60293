package tui

import (
	"sort"
	"strings"

	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/ipc"
)

// frame is the set of runes used to draw one window border.
type frame struct {
	h, v           rune
	tl, tr, bl, br rune
}

var (
	plainFrame   = frame{h: '─', v: '│', tl: '┌', tr: '┐', bl: '└', br: '┘'}
	focusedFrame = frame{h: '━', v: '┃', tl: '┏', tr: '┓', bl: '┗', br: '┛'}
)

// canvas is a fixed-size rune grid that silently drops out-of-bounds writes.
type canvas struct {
	cells  [][]rune
	width  int
	height int
}

func newCanvas(width, height int, fill rune) *canvas {
	c := &canvas{width: width, height: height}
	c.cells = make([][]rune, height)
	for y := range c.cells {
		row := make([]rune, width)
		for x := range row {
			row[x] = fill
		}
		c.cells[y] = row
	}
	return c
}

func (c *canvas) set(x, y int, r rune) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.cells[y][x] = r
}

// text writes s starting at (x, y), stopping before column limit.
func (c *canvas) text(x, y, limit int, s string) {
	for _, r := range s {
		if x >= limit {
			return
		}
		c.set(x, y, r)
		x++
	}
}

func (c *canvas) lines() []string {
	out := make([]string, c.height)
	for i, row := range c.cells {
		out[i] = string(row)
	}
	return out
}

// scaleRect maps a desktop-area rectangle onto canvas cells. The returned
// corners are inclusive and may lie outside the canvas.
func scaleRect(r geometry.Rect, area geometry.Size, cw, ch int) (x1, y1, x2, y2 int) {
	x1 = floorDiv(r.X*cw, area.Width)
	y1 = floorDiv(r.Y*ch, area.Height)
	x2 = floorDiv((r.X+r.Width)*cw, area.Width) - 1
	y2 = floorDiv((r.Y+r.Height)*ch, area.Height) - 1
	return x1, y1, x2, y2
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// renderDesktop draws every rendered window onto a width x height grid in
// ascending z-order, so later windows occlude earlier ones.
func renderDesktop(windows []ipc.WindowInfo, area geometry.Size, focused string, width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	if area.IsZero() {
		return emptyCanvas(width, height)
	}

	c := newCanvas(width, height, ' ')
	for _, w := range stackOrder(windows) {
		drawWindow(c, w, area, w.ID == focused)
	}
	return c.lines()
}

// stackOrder returns the rendered windows sorted bottom to top.
func stackOrder(windows []ipc.WindowInfo) []ipc.WindowInfo {
	out := make([]ipc.WindowInfo, 0, len(windows))
	for _, w := range windows {
		if w.Rendered() {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// frameOf is the rectangle a window occupies on screen. Maximized and
// mobile-layout windows fill the desktop area; the record keeps its own
// geometry for restore.
func frameOf(w ipc.WindowInfo, area geometry.Size) geometry.Rect {
	if w.Maximized || w.Mobile {
		return geometry.Rect{Width: area.Width, Height: area.Height}
	}
	return w.Rect()
}

func drawWindow(c *canvas, w ipc.WindowInfo, area geometry.Size, focused bool) {
	x1, y1, x2, y2 := scaleRect(frameOf(w, area), area, c.width, c.height)
	if x2-x1 < 1 || y2-y1 < 1 {
		return
	}

	f := plainFrame
	if focused {
		f = focusedFrame
	}

	for y := y1 + 1; y < y2; y++ {
		for x := x1 + 1; x < x2; x++ {
			c.set(x, y, ' ')
		}
	}
	for x := x1 + 1; x < x2; x++ {
		c.set(x, y1, f.h)
		c.set(x, y2, f.h)
	}
	for y := y1 + 1; y < y2; y++ {
		c.set(x1, y, f.v)
		c.set(x2, y, f.v)
	}
	c.set(x1, y1, f.tl)
	c.set(x2, y1, f.tr)
	c.set(x1, y2, f.bl)
	c.set(x2, y2, f.br)

	title := w.Title
	if title == "" {
		title = w.ID
	}
	if w.Maximized {
		title += " [max]"
	}
	buttons := titleButtons(w)
	c.text(x1+2, y1, x2-1-len([]rune(buttons)), " "+title+" ")
	if x2-x1 > 2*len([]rune(buttons)) {
		c.text(x2-1-len([]rune(buttons)), y1, x2, buttons)
	}

	if w.Content == "" {
		return
	}
	row := y1 + 1
	for _, line := range strings.Split(w.Content, "\n") {
		if row >= y2 {
			break
		}
		c.text(x1+2, row, x2-1, line)
		row++
	}
}

// titleButtons renders the enabled chrome buttons as they appear at the
// right end of the title bar.
func titleButtons(w ipc.WindowInfo) string {
	var b strings.Builder
	if w.MinimizeButton() {
		b.WriteRune('_')
	}
	if w.MaximizeButton() {
		b.WriteRune('□')
	}
	if w.CloseButton() {
		b.WriteRune('x')
	}
	return b.String()
}

func emptyCanvas(width, height int) []string {
	lines := make([]string, height)
	empty := strings.Repeat(" ", width)
	for i := range lines {
		lines[i] = empty
	}
	return lines
}
