package geometry

import (
	"math"
	"math/rand"
	"time"
)

// goldenAngle is the spiral step in radians (137.5 degrees).
const goldenAngle = 137.5 * math.Pi / 180

// PlacementParams tunes collision-aware placement of ad-hoc windows.
//
// OverlapThreshold and MaxAttempts are empirical; they are configuration so
// they can be validated against real usage.
type PlacementParams struct {
	OverlapThreshold float64 `yaml:"overlap_threshold"` // fraction of the candidate's area
	MaxAttempts      int     `yaml:"max_attempts"`      // fallbacks after the first candidate
	SpiralBase       float64 `yaml:"spiral_base"`       // radius multiplier for sqrt(index)
	Jitter           int     `yaml:"jitter"`            // max random offset per axis
	EdgeGuard        int     `yaml:"edge_guard"`        // anchor closer than this to an edge falls back to center
}

// DefaultPlacementParams returns the stock thresholds (60% overlap, 12 fallbacks).
func DefaultPlacementParams() PlacementParams {
	return PlacementParams{
		OverlapThreshold: 0.6,
		MaxAttempts:      12,
		SpiralBase:       48,
		Jitter:           60,
		EdgeGuard:        80,
	}
}

// Frame is a visible window as seen by the placer.
type Frame struct {
	ID     string
	Rect   Rect
	ZIndex int
}

// Placement is the result of a staggered placement.
type Placement struct {
	Position Point
	// Evaluations counts candidates tested against the overlap threshold
	// (1 + fallbacks used).
	Evaluations int
	Accepted    bool
}

// Placer computes collision-aware positions. The random source is
// injectable so callers (and tests) can make placement reproducible.
type Placer struct {
	Params PlacementParams
	Rand   *rand.Rand
}

// NewPlacer returns a placer seeded from the clock.
func NewPlacer(params PlacementParams) *Placer {
	return &Placer{
		Params: params,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSeededPlacer returns a placer with a deterministic random source.
func NewSeededPlacer(params PlacementParams, seed int64) *Placer {
	return &Placer{Params: params, Rand: rand.New(rand.NewSource(seed))}
}

func (p *Placer) float() float64 {
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p.Rand.Float64()
}

// jitter returns a value in [-n, n].
func (p *Placer) jitter(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Round((p.float()*2 - 1) * float64(n)))
}

// Staggered places a window of the given size among the visible frames.
//
// Candidates follow a golden-angle spiral around the most recently focused
// frame (highest z-index). A candidate is rejected when it overlaps any frame
// by more than OverlapThreshold of its own area; then up to MaxAttempts
// fallbacks rotate through jitter, an alternate spiral index and a
// quadrant anchor. The last attempt is returned when none clears the
// threshold, so the loop always terminates.
func (p *Placer) Staggered(visible []Frame, size Size, vp Viewport) Placement {
	vp = NormalizeViewport(vp)
	size = NormalizeSize(size)
	params := p.Params
	if params.MaxAttempts < 0 {
		params.MaxAttempts = 0
	}

	anchor := p.anchor(visible, size, vp)
	index := len(visible) + 1
	scale := 0.8 + p.float()*0.4

	spiral := func(i int) Point {
		angle := float64(i) * goldenAngle
		radius := params.SpiralBase * math.Sqrt(float64(i)) * scale
		return Point{
			X: anchor.X + int(math.Round(radius*math.Cos(angle))),
			Y: anchor.Y + int(math.Round(radius*math.Sin(angle))),
		}
	}

	candidate := ClampPosition(spiral(index), size, vp)
	result := Placement{Position: candidate, Evaluations: 1}
	if !p.overlapsTooMuch(candidate, size, visible) {
		result.Accepted = true
		return result
	}

	for attempt := 0; attempt < params.MaxAttempts; attempt++ {
		var next Point
		switch attempt % 3 {
		case 0:
			spread := params.Jitter * (1 + attempt/3)
			next = Point{X: candidate.X + p.jitter(spread), Y: candidate.Y + p.jitter(spread)}
		case 1:
			next = spiral(index + attempt + 1 + int(p.float()*float64(len(visible)+1)))
		default:
			next = p.quadrant(attempt/3, size, vp)
		}
		next = ClampPosition(next, size, vp)

		result.Position = next
		result.Evaluations++
		if !p.overlapsTooMuch(next, size, visible) {
			result.Accepted = true
			return result
		}
	}
	return result
}

// anchor returns the top-left the spiral turns around: the focused frame's
// position, or the centered position when that frame hugs an edge.
func (p *Placer) anchor(visible []Frame, size Size, vp Viewport) Point {
	center := Point{X: max((vp.Width-size.Width)/2, 0), Y: max((vp.Height-size.Height)/2, 0)}

	var top *Frame
	for i := range visible {
		if top == nil || visible[i].ZIndex > top.ZIndex {
			top = &visible[i]
		}
	}
	if top == nil {
		return center
	}

	r := top.Rect
	guard := p.Params.EdgeGuard
	nearEdge := r.X < guard || r.Y < guard ||
		r.X+r.Width > vp.Width-guard ||
		r.Y+r.Height > vp.Height-guard
	if nearEdge {
		return center
	}
	return r.Origin()
}

// quadrant anchors a candidate at the center of one of the four viewport
// quadrants (rotating with n), plus jitter.
func (p *Placer) quadrant(n int, size Size, vp Viewport) Point {
	q := n % 4
	cx := vp.Width / 4
	cy := vp.Height / 4
	if q == 1 || q == 3 {
		cx = vp.Width * 3 / 4
	}
	if q >= 2 {
		cy = vp.Height * 3 / 4
	}
	return Point{
		X: cx - size.Width/2 + p.jitter(p.Params.Jitter),
		Y: cy - size.Height/2 + p.jitter(p.Params.Jitter),
	}
}

func (p *Placer) overlapsTooMuch(pos Point, size Size, visible []Frame) bool {
	candidate := RectOf(pos, size)
	limit := p.Params.OverlapThreshold * float64(size.Area())
	for _, f := range visible {
		if float64(OverlapArea(candidate, f.Rect)) > limit {
			return true
		}
	}
	return false
}
