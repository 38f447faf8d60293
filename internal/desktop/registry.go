package desktop

import (
	"fmt"
	"strings"

	"github.com/1broseidon/deskwm/internal/geometry"
)

// App is a static application registry entry.
type App struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Icon  string `yaml:"icon,omitempty" json:"icon,omitempty"`
	// Preset selects a stock design size. Size overrides it; when both are
	// empty the viewport's default preset is used.
	Preset     geometry.Preset `yaml:"preset,omitempty" json:"preset,omitempty"`
	Size       *geometry.Size  `yaml:"size,omitempty" json:"size,omitempty"`
	ShowInDock bool            `yaml:"show_in_dock" json:"showInDock"`
	// Body is the static content the renderer draws inside the window.
	Body string `yaml:"body,omitempty" json:"body,omitempty"`
}

// DefaultApps mirrors the stock dock.
func DefaultApps() []App {
	return []App{
		{ID: "profile", Title: "Profile", Icon: "👤", Preset: geometry.PresetPhone, ShowInDock: true},
		{ID: "projects", Title: "Projects", Icon: "📁", Preset: geometry.PresetMedium, ShowInDock: true},
		{ID: "skills", Title: "Skills", Icon: "🛠", Preset: geometry.PresetSmall, ShowInDock: true},
		{ID: "contact", Title: "Contact", Icon: "✉", Preset: geometry.PresetSmall, ShowInDock: true},
		{ID: "schedule", Title: "Schedule", Icon: "📅", Preset: geometry.PresetMedium, ShowInDock: true},
		{ID: "friends", Title: "Friends", Icon: "🤝", Preset: geometry.PresetMedium, ShowInDock: true},
		{ID: "music", Title: "Music", Icon: "🎵", Preset: geometry.PresetSmall, ShowInDock: true},
		{ID: "terminal", Title: "Terminal", Icon: "⌨", Preset: geometry.PresetMedium, ShowInDock: true},
		{ID: "about", Title: "About", Icon: "ℹ", Preset: geometry.PresetSmall},
	}
}

// Registry resolves application ids.
type Registry struct {
	apps []App
	byID map[string]int
}

// NewRegistry validates apps: ids must be non-empty and unique, presets
// known and sizes positive.
func NewRegistry(apps []App) (*Registry, error) {
	r := &Registry{byID: make(map[string]int, len(apps))}
	for i, app := range apps {
		if err := ValidateApp(app); err != nil {
			return nil, fmt.Errorf("apps[%d]: %w", i, err)
		}
		if _, dup := r.byID[app.ID]; dup {
			return nil, fmt.Errorf("apps[%d]: duplicate id %q", i, app.ID)
		}
		r.byID[app.ID] = len(r.apps)
		r.apps = append(r.apps, app)
	}
	return r, nil
}

// ValidateApp checks a single registry entry.
func ValidateApp(app App) error {
	if strings.TrimSpace(app.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.ContainsAny(app.ID, " \t#/") {
		return fmt.Errorf("id %q must not contain whitespace, '#' or '/'", app.ID)
	}
	if app.Preset != "" && !app.Preset.Valid() {
		return fmt.Errorf("app %q: unknown preset %q", app.ID, app.Preset)
	}
	if app.Size != nil && app.Size.IsZero() {
		return fmt.Errorf("app %q: size must be positive", app.ID)
	}
	return nil
}

// Lookup returns the app with the given id.
func (r *Registry) Lookup(id string) (App, bool) {
	i, ok := r.byID[id]
	if !ok {
		return App{}, false
	}
	return r.apps[i], true
}

// Apps returns the registry in declaration order.
func (r *Registry) Apps() []App {
	return append([]App(nil), r.apps...)
}

// BaseSize is the design-time size before adaptive scaling.
func (a App) BaseSize(vp geometry.Viewport, params geometry.SizingParams) geometry.Size {
	if a.Size != nil {
		return *a.Size
	}
	preset := a.Preset
	if preset == "" {
		preset = geometry.DefaultPreset(vp, params)
	}
	return preset.BaseSize()
}
