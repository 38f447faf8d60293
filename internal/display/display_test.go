package display

import (
	"errors"
	"testing"

	"github.com/1broseidon/deskwm/internal/geometry"
)

func TestDetect(t *testing.T) {
	mon := Monitor{Name: "DP-1", Width: 2560, Height: 1412}

	tests := []struct {
		name     string
		override geometry.Size
		probe    ProbeFunc
		want     geometry.Viewport
		source   Source
	}{
		{
			name:     "override wins",
			override: geometry.Size{Width: 1920, Height: 1080},
			probe: func(string) (Monitor, error) {
				t.Fatalf("probe should not run with an override")
				return Monitor{}, nil
			},
			want:   geometry.Viewport{Width: 1920, Height: 1080},
			source: SourceConfig,
		},
		{
			name:   "x11 monitor",
			probe:  func(string) (Monitor, error) { return mon, nil },
			want:   geometry.Viewport{Width: 2560, Height: 1412},
			source: SourceX11,
		},
		{
			name:   "probe error falls back",
			probe:  func(string) (Monitor, error) { return Monitor{}, errors.New("no display") },
			want:   geometry.Viewport{Width: geometry.FallbackViewportWidth, Height: geometry.FallbackViewportHeight},
			source: SourceFallback,
		},
		{
			name:   "empty monitor falls back",
			probe:  func(string) (Monitor, error) { return Monitor{Name: "ghost"}, nil },
			want:   geometry.Viewport{Width: geometry.FallbackViewportWidth, Height: geometry.FallbackViewportHeight},
			source: SourceFallback,
		},
		{
			name:     "partial override is ignored",
			override: geometry.Size{Width: 1920},
			probe:    func(string) (Monitor, error) { return mon, nil },
			want:     geometry.Viewport{Width: 2560, Height: 1412},
			source:   SourceX11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detector{Override: tt.override, Probe: tt.probe}.Detect()
			if got.Viewport != tt.want || got.Source != tt.source {
				t.Fatalf("Detect() = %+v/%s, want %+v/%s", got.Viewport, got.Source, tt.want, tt.source)
			}
		})
	}
}

func TestDetect_PassesDisplayName(t *testing.T) {
	var seen string
	d := Detector{
		Display: ":1",
		Probe: func(display string) (Monitor, error) {
			seen = display
			return Monitor{Width: 800, Height: 600}, nil
		},
	}
	d.Detect()
	if seen != ":1" {
		t.Fatalf("probe display = %q, want :1", seen)
	}
}

func TestClipToWorkArea(t *testing.T) {
	mon := Monitor{Name: "DP-1", X: 0, Y: 0, Width: 1920, Height: 1080}

	tests := []struct {
		name       string
		x, y, w, h int
		want       Monitor
	}{
		{"top panel", 0, 28, 1920, 1052, Monitor{Name: "DP-1", X: 0, Y: 28, Width: 1920, Height: 1052}},
		{"spans two monitors", 0, 0, 3840, 1040, Monitor{Name: "DP-1", X: 0, Y: 0, Width: 1920, Height: 1040}},
		{"disjoint leaves monitor", 1920, 0, 1920, 1080, mon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clipToWorkArea(mon, tt.x, tt.y, tt.w, tt.h)
			if got != tt.want {
				t.Fatalf("clipToWorkArea() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMonitorAt(t *testing.T) {
	monitors := []Monitor{
		{ID: 0, X: 0, Y: 0, Width: 1920, Height: 1080},
		{ID: 1, X: 1920, Y: 0, Width: 2560, Height: 1440},
	}
	if mon, ok := monitorAt(monitors, 2000, 100); !ok || mon.ID != 1 {
		t.Fatalf("monitorAt(2000,100) = %+v,%v, want monitor 1", mon, ok)
	}
	if _, ok := monitorAt(monitors, 100, 1200); ok {
		t.Fatalf("monitorAt below first monitor should miss")
	}
}
