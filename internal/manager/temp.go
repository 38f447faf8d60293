package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/storage"
	"github.com/1broseidon/deskwm/internal/window"
)

const (
	// TempStorageKey is the namespace ad-hoc window definitions are
	// persisted under, next to the window records.
	TempStorageKey = "temps"

	tempIDPrefix = "temp-"
)

// TempWindow defines an ad-hoc window: one that is not backed by an
// application in the registry and supplies its own content.
type TempWindow struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Size         *geometry.Size      `json:"size,omitempty"`
	Position     *geometry.Point     `json:"position,omitempty"`
	ColorScheme  *window.ColorScheme `json:"colorScheme,omitempty"`
	ShowClose    *bool               `json:"showClose,omitempty"`
	ShowMinimize *bool               `json:"showMinimize,omitempty"`
	ShowMaximize *bool               `json:"showMaximize,omitempty"`
	// Body is static content, used when Content is nil.
	Body    string        `json:"body,omitempty"`
	Content func() string `json:"-"`
	OnClose func()        `json:"-"`
}

// Render produces the window content.
func (t TempWindow) Render() string {
	if t.Content != nil {
		return t.Content()
	}
	return t.Body
}

// TempPatch updates a TempWindow. Only title, geometry, color scheme,
// button visibility and content reach the window record.
type TempPatch struct {
	Title        *string             `json:"title,omitempty"`
	Size         *geometry.Size      `json:"size,omitempty"`
	Position     *geometry.Point     `json:"position,omitempty"`
	ColorScheme  *window.ColorScheme `json:"colorScheme,omitempty"`
	ShowClose    *bool               `json:"showClose,omitempty"`
	ShowMinimize *bool               `json:"showMinimize,omitempty"`
	ShowMaximize *bool               `json:"showMaximize,omitempty"`
	Body         *string             `json:"body,omitempty"`
	Content      func() string       `json:"-"`
}

// NewTempID returns a timestamp-prefixed id unique across restarts.
func (m *Manager) NewTempID() string {
	return fmt.Sprintf("%s%d-%s", tempIDPrefix, m.now().UnixMilli(), uuid.NewString()[:8])
}

// CreateTempWindow registers def, places it among the visible windows,
// opens it and raises it. It returns the window id, generated when def.ID
// is empty.
func (m *Manager) CreateTempWindow(def TempWindow) string {
	if def.ID == "" {
		def.ID = m.NewTempID()
	}
	id := def.ID

	size := geometry.Size{Width: geometry.DefaultWindowWidth, Height: geometry.DefaultWindowHeight}
	if def.Size != nil && !def.Size.IsZero() {
		size = *def.Size
	}

	var pos geometry.Point
	if def.Position != nil {
		pos = *def.Position
	} else {
		m.placeMu.Lock()
		placement := m.placer.Staggered(m.visibleFrames(), size, m.store.Viewport())
		m.placeMu.Unlock()
		pos = placement.Position
		m.logger.Debug("temp window placed",
			"id", id,
			"x", pos.X,
			"y", pos.Y,
			"evaluations", placement.Evaluations,
			"accepted", placement.Accepted,
		)
	}

	m.tempMu.Lock()
	if _, exists := m.temps[id]; !exists {
		m.tempOrder = append(m.tempOrder, id)
	}
	stored := def
	m.temps[id] = &stored
	m.persistTempsLocked()
	m.tempMu.Unlock()

	m.store.Open(id, window.Patch{
		Title:        window.String(def.Title),
		Position:     &pos,
		Size:         &size,
		ColorScheme:  def.ColorScheme,
		ShowClose:    def.ShowClose,
		ShowMinimize: def.ShowMinimize,
		ShowMaximize: def.ShowMaximize,
		Content:      func() string { return m.renderTemp(id) },
		OnClose:      def.OnClose,
	})
	m.BringToFront(id)

	m.logger.Info("temp window created", "id", id, "title", def.Title)
	return id
}

// UpdateTempWindow patches the definition and forwards the record-level
// fields. Unknown ids report false.
func (m *Manager) UpdateTempWindow(id string, p TempPatch) bool {
	m.tempMu.Lock()
	def, ok := m.temps[id]
	if !ok {
		m.tempMu.Unlock()
		return false
	}
	if p.Title != nil {
		def.Title = *p.Title
	}
	if p.Size != nil {
		s := *p.Size
		def.Size = &s
	}
	if p.Position != nil {
		pos := *p.Position
		def.Position = &pos
	}
	if p.ColorScheme != nil {
		def.ColorScheme = p.ColorScheme
	}
	if p.ShowClose != nil {
		def.ShowClose = p.ShowClose
	}
	if p.ShowMinimize != nil {
		def.ShowMinimize = p.ShowMinimize
	}
	if p.ShowMaximize != nil {
		def.ShowMaximize = p.ShowMaximize
	}
	if p.Body != nil {
		def.Body = *p.Body
	}
	if p.Content != nil {
		def.Content = p.Content
	}
	m.persistTempsLocked()
	m.tempMu.Unlock()

	patch := window.Patch{
		Title:        p.Title,
		Size:         p.Size,
		Position:     p.Position,
		ColorScheme:  p.ColorScheme,
		ShowClose:    p.ShowClose,
		ShowMinimize: p.ShowMinimize,
		ShowMaximize: p.ShowMaximize,
	}
	if p.Content != nil || p.Body != nil {
		patch.Content = func() string { return m.renderTemp(id) }
	}
	if !patch.IsEmpty() {
		m.store.Update(id, patch)
	}
	return true
}

// DestroyTempWindow removes both the definition and the record.
func (m *Manager) DestroyTempWindow(id string) bool {
	m.tempMu.Lock()
	_, ok := m.temps[id]
	if ok {
		delete(m.temps, id)
		m.tempOrder = slices.DeleteFunc(m.tempOrder, func(s string) bool { return s == id })
		m.persistTempsLocked()
	}
	m.tempMu.Unlock()
	if !ok {
		return false
	}

	m.store.Remove(id)
	if m.fragment.Get() == id || !anyVisible(m.store.Records()) {
		m.fragment.Set("")
	}
	m.logger.Info("temp window destroyed", "id", id)
	return true
}

// TempWindow returns a copy of the definition.
func (m *Manager) TempWindow(id string) (TempWindow, bool) {
	m.tempMu.Lock()
	defer m.tempMu.Unlock()
	def, ok := m.temps[id]
	if !ok {
		return TempWindow{}, false
	}
	return *def, true
}

// TempWindows returns the definitions in creation order.
func (m *Manager) TempWindows() []TempWindow {
	m.tempMu.Lock()
	defer m.tempMu.Unlock()
	out := make([]TempWindow, 0, len(m.tempOrder))
	for _, id := range m.tempOrder {
		out = append(out, *m.temps[id])
	}
	return out
}

// IsTemp reports whether id names an ad-hoc window.
func (m *Manager) IsTemp(id string) bool {
	m.tempMu.Lock()
	defer m.tempMu.Unlock()
	_, ok := m.temps[id]
	return ok
}

func (m *Manager) renderTemp(id string) string {
	m.tempMu.Lock()
	def, ok := m.temps[id]
	var t TempWindow
	if ok {
		t = *def
	}
	m.tempMu.Unlock()
	if !ok {
		return ""
	}
	return t.Render()
}

func anyVisible(records []window.Record) bool {
	for _, r := range records {
		if r.Visible {
			return true
		}
	}
	return false
}

// persistTempsLocked writes the definitions in creation order. Content and
// OnClose thunks are not persisted; a restored window renders its Body.
func (m *Manager) persistTempsLocked() {
	defs := make([]TempWindow, 0, len(m.tempOrder))
	for _, id := range m.tempOrder {
		defs = append(defs, *m.temps[id])
	}
	data, err := json.Marshal(defs)
	if err == nil {
		err = m.store.KV().Put(TempStorageKey, data)
	}
	if err != nil {
		m.logger.Warn("failed to persist temp windows", "key", TempStorageKey, "error", err)
	}
}

// hydrateTemps restores persisted definitions and reattaches their content
// to the surviving records. Definitions whose record is gone are dropped,
// as are generated-id records left without a definition.
func (m *Manager) hydrateTemps() {
	var defs []TempWindow
	data, err := m.store.KV().Get(TempStorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		m.logger.Warn("discarding persisted temp windows", "key", TempStorageKey, "error", err)
	default:
		if err := json.Unmarshal(data, &defs); err != nil {
			m.logger.Warn("discarding persisted temp windows", "key", TempStorageKey, "error", err)
			defs = nil
		}
	}

	m.tempMu.Lock()
	dropped := 0
	for _, def := range defs {
		if def.ID == "" {
			dropped++
			continue
		}
		if _, ok := m.store.Get(def.ID); !ok {
			dropped++
			continue
		}
		if _, dup := m.temps[def.ID]; dup {
			continue
		}
		stored := def
		m.temps[def.ID] = &stored
		m.tempOrder = append(m.tempOrder, def.ID)
	}
	if dropped > 0 {
		m.persistTempsLocked()
	}
	ids := slices.Clone(m.tempOrder)
	m.tempMu.Unlock()

	for _, id := range ids {
		m.store.Update(id, window.Patch{Content: func() string { return m.renderTemp(id) }})
	}

	for _, r := range m.store.Records() {
		if strings.HasPrefix(r.ID, tempIDPrefix) && !m.IsTemp(r.ID) {
			m.store.Remove(r.ID)
			m.logger.Info("orphaned temp window removed", "id", r.ID)
		}
	}
	if len(ids) > 0 {
		m.logger.Debug("temp windows hydrated", "count", len(ids))
	}
}
