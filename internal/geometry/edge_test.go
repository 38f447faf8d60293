package geometry

import "testing"

func TestEdgeHidePosition(t *testing.T) {
	area := Size{Width: 1000, Height: 800}
	const margin = 20

	tests := []struct {
		name     string
		rect     Rect
		wantEdge Edge
		wantPos  Point
	}{
		{"near top", Rect{X: 300, Y: 20, Width: 400, Height: 300}, EdgeTop, Point{X: 300, Y: -280}},
		{"near left", Rect{X: 10, Y: 300, Width: 200, Height: 200}, EdgeLeft, Point{X: -180, Y: 300}},
		{"near right", Rect{X: 850, Y: 300, Width: 100, Height: 100}, EdgeRight, Point{X: 980, Y: 300}},
		{"near bottom", Rect{X: 300, Y: 650, Width: 300, Height: 100}, EdgeBottom, Point{X: 300, Y: 780}},
		{"top clamps cross axis", Rect{X: 750, Y: 0, Width: 300, Height: 100}, EdgeTop, Point{X: 700, Y: -80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, edge := EdgeHidePosition(tt.rect, area, margin)
			if edge != tt.wantEdge {
				t.Fatalf("expected edge %q, got %q", tt.wantEdge, edge)
			}
			if pos != tt.wantPos {
				t.Fatalf("expected position %+v, got %+v", tt.wantPos, pos)
			}
		})
	}
}

func TestNearestEdge_TiesPreferTop(t *testing.T) {
	area := Size{Width: 1000, Height: 1000}
	r := Rect{X: 400, Y: 400, Width: 200, Height: 200}
	if got := NearestEdge(r, area); got != EdgeTop {
		t.Fatalf("expected top on a tie, got %q", got)
	}
}

func TestChrome_DesktopArea(t *testing.T) {
	c := DefaultChrome()
	got := c.DesktopArea(Viewport{Width: 1920, Height: 1080})
	if got != (Size{Width: 1920, Height: 1080 - 28 - 80}) {
		t.Fatalf("unexpected desktop area %+v", got)
	}
	if got := c.DesktopArea(Viewport{Width: 100, Height: 50}); got.Height != 50 {
		t.Fatalf("expected full height when chrome does not fit, got %+v", got)
	}
}
