package geometry

// Edge is a desktop-area boundary a window can be tucked behind.
type Edge string

const (
	EdgeNone   Edge = ""
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// Valid reports whether e is empty or one of the four edges.
func (e Edge) Valid() bool {
	switch e {
	case EdgeNone, EdgeTop, EdgeBottom, EdgeLeft, EdgeRight:
		return true
	}
	return false
}

// Chrome is the space taken by the top bar and dock around the desktop area.
type Chrome struct {
	TopBarHeight int `yaml:"top_bar_height"`
	DockHeight   int `yaml:"dock_height"`
	EdgeMargin   int `yaml:"edge_margin"` // sliver left visible when edge-hidden
}

// DefaultChrome returns the stock top bar (28), dock (80) and margin (20).
func DefaultChrome() Chrome {
	return Chrome{TopBarHeight: 28, DockHeight: 80, EdgeMargin: 20}
}

// DesktopArea returns the window area of a viewport: full width, height
// minus the top bar and dock.
func (c Chrome) DesktopArea(vp Viewport) Size {
	vp = NormalizeViewport(vp)
	h := vp.Height - c.TopBarHeight - c.DockHeight
	if h <= 0 {
		h = vp.Height
	}
	return Size{Width: vp.Width, Height: h}
}

// NearestEdge compares the distance from the rect's center to each boundary
// of the area. Ties resolve in the order top, left, right, bottom.
func NearestEdge(r Rect, area Size) Edge {
	cx, cy := r.Center()
	top := cy
	bottom := float64(area.Height) - cy
	left := cx
	right := float64(area.Width) - cx

	switch {
	case top <= bottom && top <= left && top <= right:
		return EdgeTop
	case left <= top && left <= bottom && left <= right:
		return EdgeLeft
	case right <= top && right <= bottom && right <= left:
		return EdgeRight
	default:
		return EdgeBottom
	}
}

// EdgeHidePosition slides the rect mostly past its nearest edge, keeping
// margin pixels on screen. The cross-axis coordinate is preserved but
// clamped so the window stays within the area along that axis.
func EdgeHidePosition(r Rect, area Size, margin int) (Point, Edge) {
	edge := NearestEdge(r, area)
	pos := r.Origin()

	clampX := func() int { return max(0, min(r.X, area.Width-r.Width)) }
	clampY := func() int { return max(0, min(r.Y, area.Height-r.Height)) }

	switch edge {
	case EdgeTop:
		pos.Y = -r.Height + margin
		pos.X = clampX()
	case EdgeBottom:
		pos.Y = area.Height - margin
		pos.X = clampX()
	case EdgeLeft:
		pos.X = -r.Width + margin
		pos.Y = clampY()
	case EdgeRight:
		pos.X = area.Width - margin
		pos.Y = clampY()
	}
	return pos, edge
}
