package manager

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/window"
)

// DefaultMobileAspectRatio is the height/width ratio at which a window
// switches to its single-column layout.
const DefaultMobileAspectRatio = 1.6

// Options configures a Manager.
type Options struct {
	Chrome            geometry.Chrome
	MobileAspectRatio float64
	// Placer positions ad-hoc windows. A clock-seeded placer with default
	// params is used when nil.
	Placer   *geometry.Placer
	Fragment Fragment
	Logger   *slog.Logger
	Now      func() time.Time
}

// Manager is the public facade over a window.Store. It adds ad-hoc
// windows, the deep-link fragment, the desktop-click edge hide and the
// per-window mobile layout heuristic.
type Manager struct {
	store    *window.Store
	fragment Fragment
	chrome   geometry.Chrome
	mobile   float64
	logger   *slog.Logger
	now      func() time.Time

	placeMu sync.Mutex
	placer  *geometry.Placer

	tempMu    sync.Mutex
	temps     map[string]*TempWindow
	tempOrder []string
}

// New wraps store.
func New(store *window.Store, opts Options) *Manager {
	if opts.Chrome == (geometry.Chrome{}) {
		opts.Chrome = geometry.DefaultChrome()
	}
	if opts.MobileAspectRatio <= 0 {
		opts.MobileAspectRatio = DefaultMobileAspectRatio
	}
	if opts.Placer == nil {
		opts.Placer = geometry.NewPlacer(geometry.DefaultPlacementParams())
	}
	if opts.Fragment == nil {
		opts.Fragment = NewMemoryFragment()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Manager{
		store:    store,
		fragment: opts.Fragment,
		chrome:   opts.Chrome,
		mobile:   opts.MobileAspectRatio,
		logger:   opts.Logger,
		now:      opts.Now,
		placer:   opts.Placer,
		temps:    make(map[string]*TempWindow),
	}
	m.hydrateTemps()
	return m
}

// Store exposes the underlying store for subscribers.
func (m *Manager) Store() *window.Store { return m.store }

// Fragment returns the current deep-link value.
func (m *Manager) Fragment() string { return m.fragment.Get() }

// Chrome returns the top bar and dock dimensions.
func (m *Manager) Chrome() geometry.Chrome { return m.chrome }

// SetViewport updates the viewport used by all placement.
func (m *Manager) SetViewport(vp geometry.Viewport) {
	m.store.SetViewport(vp)
	m.logger.Debug("viewport changed", "width", vp.Width, "height", vp.Height)
}

// Viewport returns the viewport, falling back to fixed dimensions when it is
// not known yet.
func (m *Manager) Viewport() geometry.Viewport {
	return geometry.NormalizeViewport(m.store.Viewport())
}

// DesktopArea is the viewport minus the top bar and dock.
func (m *Manager) DesktopArea() geometry.Size {
	return m.chrome.DesktopArea(m.store.Viewport())
}

func (m *Manager) OpenWindow(id string, initial window.Patch) window.Record {
	return m.store.Open(id, initial)
}

// CloseWindow hides the window and clears the fragment once nothing is
// visible.
func (m *Manager) CloseWindow(id string) {
	if !m.store.Close(id) {
		m.fragment.Set("")
	}
}

func (m *Manager) UpdateWindow(id string, patch window.Patch) bool {
	return m.store.Update(id, patch)
}

// BringToFront raises the window and records it in the fragment.
func (m *Manager) BringToFront(id string) (int, bool) {
	z, ok := m.store.BringToFront(id)
	if ok {
		m.fragment.Set(id)
	}
	return z, ok
}

func (m *Manager) GetWindowByID(id string) (window.Record, bool) {
	return m.store.Get(id)
}

// Windows returns every record in insertion order.
func (m *Manager) Windows() []window.Record {
	return m.store.Records()
}

// Minimize collapses the window without closing it.
func (m *Manager) Minimize(id string) bool {
	return m.store.Update(id, window.Patch{Minimized: window.Bool(true)})
}

// Restore is the dock restore action: un-minimize, show and raise.
func (m *Manager) Restore(id string) bool {
	if !m.store.Update(id, window.Patch{Minimized: window.Bool(false), Visible: window.Bool(true)}) {
		return false
	}
	m.BringToFront(id)
	return true
}

// ToggleMaximize flips maximized and always un-minimizes. It returns the
// new maximized state.
func (m *Manager) ToggleMaximize(id string) (maximized, ok bool) {
	r, ok := m.store.Get(id)
	if !ok {
		return false, false
	}
	maximized = !r.Maximized
	m.store.Update(id, window.Patch{Maximized: window.Bool(maximized), Minimized: window.Bool(false)})
	return maximized, true
}

// ToggleMinimize flips minimized and always un-maximizes. It returns the
// new minimized state.
func (m *Manager) ToggleMinimize(id string) (minimized, ok bool) {
	r, ok := m.store.Get(id)
	if !ok {
		return false, false
	}
	minimized = !r.Minimized
	m.store.Update(id, window.Patch{Minimized: window.Bool(minimized), Maximized: window.Bool(false)})
	return minimized, true
}

// IsMobileLayout reports whether the window is tall enough (height/width at
// or above the configured ratio) to use a single-column layout. Unknown ids
// and zero widths report false.
func (m *Manager) IsMobileLayout(id string) bool {
	r, ok := m.store.Get(id)
	if !ok || r.Size.Width <= 0 {
		return false
	}
	return float64(r.Size.Height)/float64(r.Size.Width) >= m.mobile
}

// ResetLocalWindows clears persisted state, every record, every ad-hoc
// definition and the fragment.
func (m *Manager) ResetLocalWindows() error {
	m.tempMu.Lock()
	m.temps = make(map[string]*TempWindow)
	m.tempOrder = nil
	tempErr := m.store.KV().Delete(TempStorageKey)
	m.tempMu.Unlock()

	err := m.store.Reset()
	m.fragment.Set("")
	if err == nil && tempErr != nil {
		err = fmt.Errorf("failed to clear temp window definitions: %w", tempErr)
	}
	return err
}

// visibleFrames returns the windows that take part in collision checks.
func (m *Manager) visibleFrames() []geometry.Frame {
	var frames []geometry.Frame
	for _, r := range m.store.Records() {
		if !r.Rendered() {
			continue
		}
		frames = append(frames, geometry.Frame{ID: r.ID, Rect: r.Rect(), ZIndex: r.ZIndex})
	}
	return frames
}
