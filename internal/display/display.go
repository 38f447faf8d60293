// Package display resolves the desktop viewport: a configured override, the
// active X11 monitor's work area, or the fixed fallback.
package display

import (
	"io"
	"log/slog"

	"github.com/1broseidon/deskwm/internal/geometry"
)

type Source string

const (
	SourceConfig   Source = "config"
	SourceX11      Source = "x11"
	SourceFallback Source = "fallback"
)

// Result is a resolved viewport and where it came from.
type Result struct {
	Viewport geometry.Viewport `json:"viewport"`
	Source   Source            `json:"source"`
	Monitor  *Monitor          `json:"monitor,omitempty"`
}

// ProbeFunc reads the active monitor of a display.
type ProbeFunc func(display string) (Monitor, error)

// Detector resolves the viewport. The zero value probes $DISPLAY.
type Detector struct {
	// Override wins over detection when both dimensions are positive.
	Override geometry.Size
	Display  string
	Probe    ProbeFunc
	Logger   *slog.Logger
}

func (d Detector) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Logger
}

// Detect never fails: probe errors fall back to the fixed viewport.
func (d Detector) Detect() Result {
	if d.Override.Width > 0 && d.Override.Height > 0 {
		return Result{Viewport: d.Override, Source: SourceConfig}
	}

	probe := d.Probe
	if probe == nil {
		probe = ProbeX11
	}
	mon, err := probe(d.Display)
	if err != nil {
		d.logger().Debug("viewport detection failed, using fallback", "display", d.Display, "error", err)
		return Result{Viewport: geometry.NormalizeViewport(geometry.Viewport{}), Source: SourceFallback}
	}
	if mon.Width <= 0 || mon.Height <= 0 {
		d.logger().Warn("monitor reported empty geometry, using fallback", "monitor", mon.Name)
		return Result{Viewport: geometry.NormalizeViewport(geometry.Viewport{}), Source: SourceFallback}
	}
	return Result{
		Viewport: geometry.Viewport{Width: mon.Width, Height: mon.Height},
		Source:   SourceX11,
		Monitor:  &mon,
	}
}
