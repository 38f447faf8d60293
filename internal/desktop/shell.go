package desktop

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/manager"
	"github.com/1broseidon/deskwm/internal/window"
)

// Shell binds the application registry to the window manager: dock
// clicks, launches and deep links all go through it.
type Shell struct {
	mgr    *manager.Manager
	logger *slog.Logger

	mu     sync.RWMutex
	reg    *Registry
	sizing geometry.SizingParams
}

// NewShell returns a shell over mgr. A nil logger discards output.
func NewShell(mgr *manager.Manager, reg *Registry, sizing geometry.SizingParams, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if reg == nil {
		reg, _ = NewRegistry(nil)
	}
	return &Shell{mgr: mgr, reg: reg, sizing: sizing, logger: logger}
}

func (s *Shell) Manager() *manager.Manager { return s.mgr }

func (s *Shell) Registry() *Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg
}

// SetRegistry swaps the registry, used on config reload.
func (s *Shell) SetRegistry(reg *Registry, sizing geometry.SizingParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg = reg
	s.sizing = sizing
}

// WindowState is the initial state an application opens with: its title
// and adaptive size for the current viewport.
func (s *Shell) WindowState(app App) window.Patch {
	vp := s.mgr.Viewport()
	s.mu.RLock()
	sizing := s.sizing
	s.mu.RUnlock()
	size := geometry.AdaptiveSize(app.BaseSize(vp, sizing), vp, sizing)
	title := app.Title
	if title == "" {
		title = app.ID
	}
	return window.Patch{Title: window.String(title), Size: &size}
}

// Open shows id without raising it. Registered apps open with their window
// state; any other id opens with the default preset for the viewport. An
// existing record keeps its size, and keeps its title unless registered.
func (s *Shell) Open(id string) window.Record {
	app, ok := s.Registry().Lookup(id)
	if !ok {
		app = App{ID: id}
	}
	initial := s.WindowState(app)
	if _, exists := s.mgr.GetWindowByID(id); exists {
		initial.Size = nil
		if !ok {
			initial.Title = nil
		}
	}
	r := s.mgr.OpenWindow(id, initial)
	s.logger.Info("app opened", "id", id, "registered", ok)
	return r
}

// Launch opens id and raises it.
func (s *Shell) Launch(id string) window.Record {
	s.Open(id)
	s.mgr.BringToFront(id)
	r, _ := s.mgr.GetWindowByID(id)
	return r
}

// DockItem is the dock's view of one application.
type DockItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Icon      string `json:"icon,omitempty"`
	Visible   bool   `json:"visible"`
	Minimized bool   `json:"minimized"`
}

// Active reports whether the dock shows the running indicator.
func (d DockItem) Active() bool { return d.Visible && !d.Minimized }

// Dock returns the dock entries in registry order.
func (s *Shell) Dock() []DockItem {
	var items []DockItem
	for _, app := range s.Registry().Apps() {
		if !app.ShowInDock {
			continue
		}
		item := DockItem{ID: app.ID, Title: app.Title, Icon: app.Icon}
		if r, ok := s.mgr.GetWindowByID(app.ID); ok {
			item.Visible = r.Visible
			item.Minimized = r.Minimized
		}
		items = append(items, item)
	}
	return items
}

// DockAction is the outcome of a dock click.
type DockAction string

const (
	DockFocused  DockAction = "focused"
	DockRestored DockAction = "restored"
	DockLaunched DockAction = "launched"
)

// ActivateDockItem handles a dock click: a minimized window is restored,
// a shown window is focused, anything else is launched.
func (s *Shell) ActivateDockItem(id string) DockAction {
	r, ok := s.mgr.GetWindowByID(id)
	switch {
	case ok && r.Minimized:
		s.mgr.Restore(id)
		return DockRestored
	case ok && r.Visible:
		s.mgr.BringToFront(id)
		return DockFocused
	default:
		s.Launch(id)
		return DockLaunched
	}
}

// HandleFragment follows a deep link: a non-empty fragment opens or
// focuses that window.
func (s *Shell) HandleFragment(hash string) {
	id := strings.TrimPrefix(strings.TrimSpace(hash), "#")
	if id == "" {
		return
	}
	s.Launch(id)
}

// Content returns what the renderer draws inside a window: the record's
// own content when set, otherwise the registered app's body.
func (s *Shell) Content(r window.Record) string {
	if r.HasContent() {
		return r.Content()
	}
	if app, ok := s.Registry().Lookup(r.ID); ok {
		return app.Body
	}
	return ""
}
