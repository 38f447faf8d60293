package geometry

import "math"

// Fallback dimensions used when the viewport or a window size is not known
// yet (for example before the first display query).
const (
	FallbackViewportWidth  = 1280
	FallbackViewportHeight = 800

	DefaultWindowWidth  = 400
	DefaultWindowHeight = 300
)

// Point is a top-left coordinate in desktop-area space.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// IsZero reports whether either dimension is unusable.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Area returns width*height.
func (s Size) Area() int {
	if s.IsZero() {
		return 0
	}
	return s.Width * s.Height
}

// Viewport is the visible desktop surface.
type Viewport = Size

// Rect represents a window position and size
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RectOf builds a Rect from a position and size.
func RectOf(p Point, s Size) Rect {
	return Rect{X: p.X, Y: p.Y, Width: s.Width, Height: s.Height}
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the rect dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Center returns the center point using float math so odd sizes do not bias
// nearest-edge decisions.
func (r Rect) Center() (cx, cy float64) {
	return float64(r.X) + float64(r.Width)/2, float64(r.Y) + float64(r.Height)/2
}

// Intersection returns the overlapping rect and whether the rects overlap at all.
func (r Rect) Intersection(o Rect) (Rect, bool) {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.X+r.Width, o.X+o.Width)
	y1 := min(r.Y+r.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

// OverlapArea returns the area shared by two rects.
func OverlapArea(a, b Rect) int {
	in, ok := a.Intersection(b)
	if !ok {
		return 0
	}
	return in.Width * in.Height
}

// NormalizeViewport replaces an unusable viewport with the fallback size.
func NormalizeViewport(vp Viewport) Viewport {
	if vp.IsZero() {
		return Viewport{Width: FallbackViewportWidth, Height: FallbackViewportHeight}
	}
	return vp
}

// NormalizeSize replaces an unusable window size with the default size.
func NormalizeSize(s Size) Size {
	if s.IsZero() {
		return Size{Width: DefaultWindowWidth, Height: DefaultWindowHeight}
	}
	return s
}

// ClampPosition keeps a window of the given size inside the viewport. When the
// window is larger than the viewport the top-left corner wins.
func ClampPosition(p Point, s Size, vp Viewport) Point {
	p.X = min(p.X, vp.Width-s.Width)
	p.Y = min(p.Y, vp.Height-s.Height)
	p.X = max(p.X, 0)
	p.Y = max(p.Y, 0)
	return p
}

// StaggerParams controls first-open placement.
type StaggerParams struct {
	Offset int `yaml:"stagger_offset"`
	Cycle  int `yaml:"stagger_cycle"`
}

// DefaultStaggerParams returns the stock diagonal stagger (32px, 6 steps).
func DefaultStaggerParams() StaggerParams {
	return StaggerParams{Offset: 32, Cycle: 6}
}

// DefaultPosition centers the first window and staggers later ones
// diagonally by Offset*(count mod Cycle), clamped to the viewport.
func DefaultPosition(count int, size Size, vp Viewport, params StaggerParams) Point {
	vp = NormalizeViewport(vp)
	size = NormalizeSize(size)
	if params.Cycle <= 0 {
		params.Cycle = 1
	}
	if count < 0 {
		count = 0
	}

	centerX := max(vp.Width/2-size.Width/2, 0)
	centerY := max(vp.Height/2-size.Height/2, 0)
	step := params.Offset * (count % params.Cycle)

	return ClampPosition(Point{X: centerX + step, Y: centerY + step}, size, vp)
}

// SizingParams drives responsive window sizing.
type SizingParams struct {
	Reference      Size    `yaml:"reference"`
	ReservedHeight int     `yaml:"reserved_height"` // top bar + dock
	MaxFraction    float64 `yaml:"max_fraction"`
	Minimum        Size    `yaml:"minimum"`
}

// DefaultSizingParams mirrors a 2560x1440 design reference.
func DefaultSizingParams() SizingParams {
	return SizingParams{
		Reference:      Size{Width: 2560, Height: 1440},
		ReservedHeight: 28 + 60,
		MaxFraction:    0.9,
		Minimum:        Size{Width: 320, Height: 400},
	}
}

// AdaptiveSize scales a design-time size to the viewport. The result is
// clamped to MaxFraction of the available space first and to the minimum
// floor second, so the floor wins on very small screens.
func AdaptiveSize(base Size, vp Viewport, params SizingParams) Size {
	if vp.IsZero() || params.Reference.IsZero() {
		return base
	}

	scale := math.Min(
		float64(vp.Width)/float64(params.Reference.Width),
		float64(vp.Height)/float64(params.Reference.Height),
	)
	available := vp.Height - params.ReservedHeight

	width := int(math.Round(float64(base.Width) * scale))
	height := int(math.Round(float64(base.Height) * scale))

	maxWidth := int(math.Floor(float64(vp.Width) * params.MaxFraction))
	maxHeight := int(math.Floor(float64(available) * params.MaxFraction))

	width = min(width, maxWidth)
	height = min(height, maxHeight)

	width = max(width, params.Minimum.Width)
	height = max(height, params.Minimum.Height)

	return Size{Width: width, Height: height}
}

// Preset names a design-time window size class.
type Preset string

const (
	PresetPhone  Preset = "phone"
	PresetSmall  Preset = "small"
	PresetMedium Preset = "medium"
	PresetLarge  Preset = "large"
)

var presetSizes = map[Preset]Size{
	PresetPhone:  {Width: 480, Height: 800},
	PresetSmall:  {Width: 800, Height: 600},
	PresetMedium: {Width: 1000, Height: 700},
	PresetLarge:  {Width: 1600, Height: 900},
}

// Valid reports whether p is a known preset.
func (p Preset) Valid() bool {
	_, ok := presetSizes[p]
	return ok
}

// BaseSize returns the design-time size of a preset (medium for unknown).
func (p Preset) BaseSize() Size {
	if s, ok := presetSizes[p]; ok {
		return s
	}
	return presetSizes[PresetMedium]
}

// DefaultPreset picks a preset from the viewport width relative to the
// reference width.
func DefaultPreset(vp Viewport, params SizingParams) Preset {
	if vp.IsZero() || params.Reference.Width <= 0 {
		return PresetMedium
	}
	scale := float64(vp.Width) / float64(params.Reference.Width)
	switch {
	case scale < 0.3:
		return PresetPhone
	case scale < 0.4:
		return PresetSmall
	case scale < 0.56:
		return PresetMedium
	default:
		return PresetLarge
	}
}

// PresetSize is AdaptiveSize applied to a preset's base size.
func PresetSize(p Preset, vp Viewport, params SizingParams) Size {
	return AdaptiveSize(p.BaseSize(), vp, params)
}
