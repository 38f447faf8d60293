package geometry

import "testing"

func TestDefaultPosition_CentersFirstWindowAndStaggers(t *testing.T) {
	vp := Viewport{Width: 1000, Height: 800}
	size := Size{Width: 400, Height: 300}
	params := DefaultStaggerParams()

	first := DefaultPosition(0, size, vp, params)
	if first != (Point{X: 300, Y: 250}) {
		t.Fatalf("expected centered (300,250), got %+v", first)
	}

	second := DefaultPosition(1, size, vp, params)
	if second != (Point{X: 332, Y: 282}) {
		t.Fatalf("expected (332,282), got %+v", second)
	}

	// The stagger cycles every 6 windows instead of walking off-screen.
	if got := DefaultPosition(6, size, vp, params); got != first {
		t.Fatalf("expected count 6 to wrap to %+v, got %+v", first, got)
	}
}

func TestDefaultPosition_StaysInsideViewport(t *testing.T) {
	params := DefaultStaggerParams()
	viewports := []Viewport{
		{Width: 400, Height: 300},
		{Width: 640, Height: 480},
		{Width: 1000, Height: 800},
		{Width: 1920, Height: 1080},
		{Width: 2560, Height: 1440},
	}
	sizes := []Size{
		{Width: 400, Height: 300},
		{Width: 120, Height: 90},
		{Width: 399, Height: 299},
	}
	for _, vp := range viewports {
		for _, size := range sizes {
			for n := 0; n < 20; n++ {
				p := DefaultPosition(n, size, vp, params)
				if p.X < 0 || p.X > vp.Width-size.Width || p.Y < 0 || p.Y > vp.Height-size.Height {
					t.Fatalf("n=%d vp=%+v size=%+v: position %+v out of bounds", n, vp, size, p)
				}
			}
		}
	}
}

func TestDefaultPosition_ZeroViewportFallsBack(t *testing.T) {
	p := DefaultPosition(0, Size{}, Viewport{}, DefaultStaggerParams())
	want := Point{
		X: FallbackViewportWidth/2 - DefaultWindowWidth/2,
		Y: FallbackViewportHeight/2 - DefaultWindowHeight/2,
	}
	if p != want {
		t.Fatalf("expected fallback center %+v, got %+v", want, p)
	}
}

func TestAdaptiveSize(t *testing.T) {
	params := DefaultSizingParams()
	tests := []struct {
		name string
		base Size
		vp   Viewport
		want Size
	}{
		{"reference viewport keeps size", Size{1000, 700}, Viewport{2560, 1440}, Size{1000, 700}},
		{"small screen hits minimum floor", Size{480, 800}, Viewport{800, 600}, Size{320, 400}},
		{"large base clamps to 90 percent", Size{2560, 1600}, Viewport{2560, 1440}, Size{2304, 1216}},
		{"zero viewport returns base", Size{640, 480}, Viewport{}, Size{640, 480}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdaptiveSize(tt.base, tt.vp, params)
			if got != tt.want {
				t.Errorf("AdaptiveSize(%+v, %+v) = %+v, want %+v", tt.base, tt.vp, got, tt.want)
			}
		})
	}
}

func TestDefaultPreset(t *testing.T) {
	params := DefaultSizingParams()
	tests := []struct {
		width int
		want  Preset
	}{
		{700, PresetPhone},
		{1000, PresetSmall},
		{1280, PresetMedium},
		{1920, PresetLarge},
	}
	for _, tt := range tests {
		got := DefaultPreset(Viewport{Width: tt.width, Height: 900}, params)
		if got != tt.want {
			t.Errorf("DefaultPreset(width=%d) = %q, want %q", tt.width, got, tt.want)
		}
	}
	if got := DefaultPreset(Viewport{}, params); got != PresetMedium {
		t.Errorf("expected medium for unknown viewport, got %q", got)
	}
}

func TestOverlapArea(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	b := Rect{X: 50, Y: 50, Width: 100, Height: 100}
	if got := OverlapArea(a, b); got != 2500 {
		t.Fatalf("expected 2500, got %d", got)
	}
	c := Rect{X: 100, Y: 0, Width: 10, Height: 10}
	if got := OverlapArea(a, c); got != 0 {
		t.Fatalf("touching rects should not overlap, got %d", got)
	}
}
