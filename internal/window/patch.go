package window

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/1broseidon/deskwm/internal/geometry"
)

// Patch is a typed partial update. Nil fields are left untouched. It has no
// z-index field: stacking order only changes through Open and BringToFront.
type Patch struct {
	Title     *string         `json:"title,omitempty"`
	Visible   *bool           `json:"visible,omitempty"`
	Minimized *bool           `json:"minimized,omitempty"`
	Maximized *bool           `json:"maximized,omitempty"`
	Position  *geometry.Point `json:"position,omitempty"`
	Size      *geometry.Size  `json:"size,omitempty"`

	EdgeHidden      *bool           `json:"isEdgeHidden,omitempty"`
	PreHidePosition *geometry.Point `json:"originalPositionBeforeEdgeHide,omitempty"`
	// ClearPreHidePosition drops the remembered pre-hide position.
	ClearPreHidePosition bool           `json:"clearOriginalPosition,omitempty"`
	HiddenEdge           *geometry.Edge `json:"hiddenEdge,omitempty"`

	ColorScheme  *ColorScheme   `json:"colorScheme,omitempty"`
	ShowClose    *bool          `json:"showClose,omitempty"`
	ShowMinimize *bool          `json:"showMinimize,omitempty"`
	ShowMaximize *bool          `json:"showMaximize,omitempty"`
	AppProps     map[string]any `json:"appProps,omitempty"`

	OnClose func()        `json:"-"`
	Content func() string `json:"-"`
}

// Bool returns a pointer to b, for building patches inline.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s.
func String(s string) *string { return &s }

// At returns a pointer to a position.
func At(x, y int) *geometry.Point { return &geometry.Point{X: x, Y: y} }

// Sized returns a pointer to a size.
func Sized(w, h int) *geometry.Size { return &geometry.Size{Width: w, Height: h} }

// ParsePatch decodes a JSON patch, rejecting fields a Record does not have.
func ParsePatch(data []byte) (Patch, error) {
	var p Patch
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Patch{}, fmt.Errorf("invalid window patch: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Patch{}, err
	}
	return p, nil
}

// Validate checks field values that the type system cannot.
func (p Patch) Validate() error {
	if p.Size != nil && (p.Size.Width <= 0 || p.Size.Height <= 0) {
		return fmt.Errorf("invalid window patch: size must be positive, got %dx%d", p.Size.Width, p.Size.Height)
	}
	if p.HiddenEdge != nil && !p.HiddenEdge.Valid() {
		return fmt.Errorf("invalid window patch: unknown edge %q", *p.HiddenEdge)
	}
	return nil
}

// IsEmpty reports whether applying the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Visible == nil && p.Minimized == nil && p.Maximized == nil &&
		p.Position == nil && p.Size == nil && p.EdgeHidden == nil && p.PreHidePosition == nil &&
		!p.ClearPreHidePosition && p.HiddenEdge == nil && p.ColorScheme == nil &&
		p.ShowClose == nil && p.ShowMinimize == nil && p.ShowMaximize == nil &&
		p.AppProps == nil && p.OnClose == nil && p.Content == nil
}

// Merge returns p with every field set in o overriding p's.
func (p Patch) Merge(o Patch) Patch {
	if o.Title != nil {
		p.Title = o.Title
	}
	if o.Visible != nil {
		p.Visible = o.Visible
	}
	if o.Minimized != nil {
		p.Minimized = o.Minimized
	}
	if o.Maximized != nil {
		p.Maximized = o.Maximized
	}
	if o.Position != nil {
		p.Position = o.Position
	}
	if o.Size != nil {
		p.Size = o.Size
	}
	if o.EdgeHidden != nil {
		p.EdgeHidden = o.EdgeHidden
	}
	if o.PreHidePosition != nil {
		p.PreHidePosition = o.PreHidePosition
		p.ClearPreHidePosition = false
	}
	if o.ClearPreHidePosition {
		p.ClearPreHidePosition = true
		p.PreHidePosition = nil
	}
	if o.HiddenEdge != nil {
		p.HiddenEdge = o.HiddenEdge
	}
	if o.ColorScheme != nil {
		p.ColorScheme = o.ColorScheme
	}
	if o.ShowClose != nil {
		p.ShowClose = o.ShowClose
	}
	if o.ShowMinimize != nil {
		p.ShowMinimize = o.ShowMinimize
	}
	if o.ShowMaximize != nil {
		p.ShowMaximize = o.ShowMaximize
	}
	if o.AppProps != nil {
		p.AppProps = o.AppProps
	}
	if o.OnClose != nil {
		p.OnClose = o.OnClose
	}
	if o.Content != nil {
		p.Content = o.Content
	}
	return p
}

// apply shallow-merges the patch into r. Values are copied so the record
// never aliases caller memory.
func (p Patch) apply(r *Record) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Visible != nil {
		r.Visible = *p.Visible
	}
	if p.Minimized != nil {
		r.Minimized = *p.Minimized
	}
	if p.Maximized != nil {
		r.Maximized = *p.Maximized
	}
	if p.Position != nil {
		r.Position = *p.Position
	}
	if p.Size != nil {
		r.Size = *p.Size
	}
	if p.EdgeHidden != nil {
		r.EdgeHidden = *p.EdgeHidden
	}
	if p.PreHidePosition != nil {
		pos := *p.PreHidePosition
		r.PreHidePosition = &pos
	}
	if p.ClearPreHidePosition {
		r.PreHidePosition = nil
	}
	if p.HiddenEdge != nil {
		r.HiddenEdge = *p.HiddenEdge
	}
	if p.ColorScheme != nil {
		cs := *p.ColorScheme
		r.ColorScheme = &cs
	}
	if p.ShowClose != nil {
		r.ShowClose = cloneBool(p.ShowClose)
	}
	if p.ShowMinimize != nil {
		r.ShowMinimize = cloneBool(p.ShowMinimize)
	}
	if p.ShowMaximize != nil {
		r.ShowMaximize = cloneBool(p.ShowMaximize)
	}
	if p.AppProps != nil {
		r.AppProps = maps.Clone(p.AppProps)
	}
	if p.OnClose != nil {
		r.OnClose = p.OnClose
	}
	if p.Content != nil {
		r.Content = p.Content
	}
}
