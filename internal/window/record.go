package window

import (
	"maps"

	"github.com/1broseidon/deskwm/internal/geometry"
)

// ColorScheme carries opaque presentation hints for a window's chrome.
type ColorScheme struct {
	Background      string `json:"bg,omitempty" yaml:"bg,omitempty"`
	BackgroundDark  string `json:"bgDark,omitempty" yaml:"bg_dark,omitempty"`
	Border          string `json:"border,omitempty" yaml:"border,omitempty"`
	BorderDark      string `json:"borderDark,omitempty" yaml:"border_dark,omitempty"`
	Title           string `json:"title,omitempty" yaml:"title,omitempty"`
	TitleDark       string `json:"titleDark,omitempty" yaml:"title_dark,omitempty"`
	TitleBar        string `json:"titleBarBg,omitempty" yaml:"title_bar,omitempty"`
	TitleBarDark    string `json:"titleBarBgDark,omitempty" yaml:"title_bar_dark,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty" yaml:"background_image,omitempty"`
	BackdropBlur    bool   `json:"backdropBlur,omitempty" yaml:"backdrop_blur,omitempty"`
}

// Record is the canonical state of one window.
type Record struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Visible   bool           `json:"visible"`
	Minimized bool           `json:"minimized"`
	Maximized bool           `json:"maximized"`
	ZIndex    int            `json:"zIndex"`
	Position  geometry.Point `json:"position"`
	Size      geometry.Size  `json:"size"`

	EdgeHidden      bool            `json:"isEdgeHidden,omitempty"`
	PreHidePosition *geometry.Point `json:"originalPositionBeforeEdgeHide,omitempty"`
	HiddenEdge      geometry.Edge   `json:"hiddenEdge,omitempty"`

	ColorScheme  *ColorScheme   `json:"colorScheme,omitempty"`
	ShowClose    *bool          `json:"showClose,omitempty"`
	ShowMinimize *bool          `json:"showMinimize,omitempty"`
	ShowMaximize *bool          `json:"showMaximize,omitempty"`
	AppProps     map[string]any `json:"appProps,omitempty"`

	// OnClose runs before the record is hidden by Close.
	OnClose func() `json:"-"`
	// Content, when set, replaces the application looked up by ID.
	Content func() string `json:"-"`
}

// Rect returns the window's frame.
func (r Record) Rect() geometry.Rect {
	return geometry.RectOf(r.Position, r.Size)
}

// Rendered reports whether the renderer should draw the window.
func (r Record) Rendered() bool {
	return r.Visible && !r.Minimized
}

func (r Record) CloseButton() bool    { return r.ShowClose == nil || *r.ShowClose }
func (r Record) MinimizeButton() bool { return r.ShowMinimize == nil || *r.ShowMinimize }
func (r Record) MaximizeButton() bool { return r.ShowMaximize == nil || *r.ShowMaximize }

// HasContent reports whether the record carries a custom render thunk.
func (r Record) HasContent() bool {
	return r.Content != nil
}

// Status summarizes the record for listings.
func (r Record) Status() []string {
	var out []string
	if r.Minimized {
		out = append(out, "minimized")
	}
	if r.Maximized {
		out = append(out, "maximized")
	}
	if r.EdgeHidden {
		out = append(out, "edge-hidden")
	}
	if !r.Visible {
		out = append(out, "hidden")
	}
	if len(out) == 0 {
		out = append(out, "normal")
	}
	return out
}

// clone copies pointer and map fields so callers cannot mutate store state.
func (r Record) clone() Record {
	if r.PreHidePosition != nil {
		p := *r.PreHidePosition
		r.PreHidePosition = &p
	}
	if r.ColorScheme != nil {
		cs := *r.ColorScheme
		r.ColorScheme = &cs
	}
	r.ShowClose = cloneBool(r.ShowClose)
	r.ShowMinimize = cloneBool(r.ShowMinimize)
	r.ShowMaximize = cloneBool(r.ShowMaximize)
	if r.AppProps != nil {
		r.AppProps = maps.Clone(r.AppProps)
	}
	return r
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
