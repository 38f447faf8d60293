package daemon

import (
	"testing"

	"github.com/1broseidon/deskwm/internal/display"
	"github.com/1broseidon/deskwm/internal/geometry"
)

func TestReconciler_AppliesOnlyChanges(t *testing.T) {
	results := []display.Result{
		{Viewport: geometry.Viewport{Width: 1000, Height: 800}, Source: display.SourceX11},
		{Viewport: geometry.Viewport{Width: 1600, Height: 900}, Source: display.SourceX11},
		{Viewport: geometry.Viewport{Width: 1600, Height: 900}, Source: display.SourceX11},
	}
	i := 0
	var applied []geometry.Viewport

	r := NewReconciler(ReconcilerConfig{Logger: discardLogger()},
		geometry.Viewport{Width: 1000, Height: 800},
		func() display.Result {
			res := results[i]
			i++
			return res
		},
		func(res display.Result) { applied = append(applied, res.Viewport) },
	)
	for range results {
		r.ReconcileNow()
	}

	if len(applied) != 1 || applied[0] != (geometry.Viewport{Width: 1600, Height: 900}) {
		t.Fatalf("applied = %+v, want one 1600x900 change", applied)
	}
}

func TestReconciler_RecoversFromPanic(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{Logger: discardLogger()}, geometry.Viewport{},
		func() display.Result { panic("probe exploded") },
		func(display.Result) {},
	)
	r.ReconcileNow()
}
