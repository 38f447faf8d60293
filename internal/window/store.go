package window

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/storage"
)

const (
	// DefaultStorageKey is the namespace the collection is persisted under.
	DefaultStorageKey = "windows"
	// BaselineZIndex is the floor new z-indices are computed from, so the
	// first window opened gets 101.
	BaselineZIndex = 100
)

// Options configures a Store.
type Options struct {
	Key         string
	Viewport    geometry.Viewport
	Stagger     geometry.StaggerParams
	DefaultSize geometry.Size
	Logger      *slog.Logger
}

// Store is the single owner of window records. All mutation goes through
// its methods; every mutation is mirrored to the KV and announced to
// subscribers after the lock is released.
type Store struct {
	mu       sync.Mutex
	kv       storage.KV
	key      string
	records  []Record
	viewport geometry.Viewport
	stagger  geometry.StaggerParams
	defSize  geometry.Size
	logger   *slog.Logger
	// highZ is the largest z-index ever handed out; removals never lower it.
	highZ int

	subsMu  sync.Mutex
	subs    map[int]func([]Record)
	nextSub int
}

// NewStore hydrates from kv. Missing or malformed persisted data yields an
// empty collection; it is logged, never returned.
func NewStore(kv storage.KV, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultStorageKey
	}
	if opts.Stagger.Cycle <= 0 {
		opts.Stagger = geometry.DefaultStaggerParams()
	}
	if opts.DefaultSize.IsZero() {
		opts.DefaultSize = geometry.Size{Width: geometry.DefaultWindowWidth, Height: geometry.DefaultWindowHeight}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if kv == nil {
		kv = storage.NewMemoryKV()
	}

	s := &Store{
		kv:       kv,
		key:      opts.Key,
		viewport: opts.Viewport,
		stagger:  opts.Stagger,
		defSize:  opts.DefaultSize,
		logger:   opts.Logger,
		subs:     make(map[int]func([]Record)),
	}

	records, err := Load(kv, opts.Key)
	if err != nil {
		s.logger.Warn("discarding persisted window state", "key", opts.Key, "error", err)
		records = nil
	}
	s.records = records
	s.highZ = s.maxZLocked()
	s.logger.Debug("window store hydrated", "key", opts.Key, "windows", len(records))
	return s
}

// Load reads the persisted collection. A missing key is not an error.
func Load(kv storage.KV, key string) ([]Record, error) {
	data, err := kv.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Encode serializes records to the persisted JSON array format.
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode windows: %w", err)
	}
	return data, nil
}

// Decode parses the persisted JSON array format. Records without an id are
// dropped; duplicate ids keep the first occurrence.
func Decode(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse windows: %w", err)
	}
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// KV returns the backing key-value store so related state can be persisted
// alongside the collection.
func (s *Store) KV() storage.KV { return s.kv }

// SetViewport updates the viewport used for default placement.
func (s *Store) SetViewport(vp geometry.Viewport) {
	s.mu.Lock()
	s.viewport = vp
	s.mu.Unlock()
}

// Viewport returns the viewport used for default placement.
func (s *Store) Viewport() geometry.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// Open shows the window with the given id. An existing record is patched
// with visible=true, minimized=false and then initial; otherwise a new
// record is created with a staggered default position and the next z-index.
func (s *Store) Open(id string, initial Patch) Record {
	if initial.Size != nil && initial.Size.IsZero() {
		initial.Size = nil
	}

	s.mu.Lock()
	var out Record
	if i := s.indexLocked(id); i >= 0 {
		Patch{Visible: Bool(true), Minimized: Bool(false)}.Merge(initial).apply(&s.records[i])
		out = s.records[i].clone()
	} else {
		size := s.defSize
		if initial.Size != nil {
			size = *initial.Size
		}
		var pos geometry.Point
		if initial.Position != nil {
			pos = *initial.Position
		} else {
			pos = geometry.DefaultPosition(len(s.records), size, s.viewport, s.stagger)
		}
		rec := Record{
			ID:       id,
			Visible:  true,
			ZIndex:   s.nextZLocked(),
			Position: pos,
			Size:     size,
		}
		initial.apply(&rec)
		s.records = append(s.records, rec)
		out = rec.clone()
		s.logger.Debug("window created", "id", id, "z", rec.ZIndex, "x", pos.X, "y", pos.Y)
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return out
}

// Close hides the window. The OnClose hook runs first, outside the lock.
// It reports whether any window is still visible afterwards; unknown ids
// are a no-op.
func (s *Store) Close(id string) (anyVisible bool) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		anyVisible = s.anyVisibleLocked()
		s.mu.Unlock()
		return anyVisible
	}
	hook := s.records[i].OnClose
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	s.mu.Lock()
	if i = s.indexLocked(id); i >= 0 {
		s.records[i].Visible = false
	}
	anyVisible = s.anyVisibleLocked()
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return anyVisible
}

// Update shallow-merges patch into the record. Unknown ids are a no-op and
// report false.
func (s *Store) Update(id string, patch Patch) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	patch.apply(&s.records[i])
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// BringToFront assigns max(z)+1 to the record and returns the new z-index.
func (s *Store) BringToFront(id string) (int, bool) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return 0, false
	}
	z := s.nextZLocked()
	s.records[i].ZIndex = z
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return z, true
}

// Tx is the collection as seen from inside Batch.
type Tx struct {
	s       *Store
	changed bool
}

// Records returns a copy of the collection in insertion order.
func (tx *Tx) Records() []Record { return tx.s.snapshotLocked() }

// Update is Store.Update without the commit.
func (tx *Tx) Update(id string, patch Patch) bool {
	i := tx.s.indexLocked(id)
	if i < 0 {
		return false
	}
	patch.apply(&tx.s.records[i])
	tx.changed = true
	return true
}

// BringToFront is Store.BringToFront without the commit.
func (tx *Tx) BringToFront(id string) (int, bool) {
	i := tx.s.indexLocked(id)
	if i < 0 {
		return 0, false
	}
	z := tx.s.nextZLocked()
	tx.s.records[i].ZIndex = z
	tx.changed = true
	return z, true
}

// Batch runs fn under the store lock. Changes made through tx are persisted
// once and subscribers see a single snapshot. fn must not call back into
// the Store.
func (s *Store) Batch(fn func(tx *Tx)) {
	s.mu.Lock()
	tx := &Tx{s: s}
	fn(tx)
	if !tx.changed {
		s.mu.Unlock()
		return
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Remove deletes a record outright. Only ad-hoc windows are removed this
// way; application windows are hidden by Close so their geometry survives.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.records = slices.Delete(s.records, i, i+1)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Reset clears persisted state and empties the collection.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.records = nil
	s.highZ = BaselineZIndex
	err := s.kv.Delete(s.key)
	snap := []Record{}
	s.mu.Unlock()

	s.notify(snap)
	if err != nil {
		return fmt.Errorf("failed to clear window state: %w", err)
	}
	s.logger.Info("window state reset", "key", s.key)
	return nil
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Record{}, false
	}
	return s.records[i].clone(), true
}

// Records returns a copy of the collection in insertion order.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of records, visible or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Subscribe registers fn to receive a snapshot after every mutation. The
// returned function unregisters it.
func (s *Store) Subscribe(fn func([]Record)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify(snap []Record) {
	s.subsMu.Lock()
	fns := make([]func([]Record), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) maxZLocked() int {
	z := BaselineZIndex
	for _, r := range s.records {
		z = max(z, r.ZIndex)
	}
	return z
}

func (s *Store) nextZLocked() int {
	s.highZ = max(s.highZ, s.maxZLocked()) + 1
	return s.highZ
}

func (s *Store) anyVisibleLocked() bool {
	for _, r := range s.records {
		if r.Visible {
			return true
		}
	}
	return false
}

func (s *Store) snapshotLocked() []Record {
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.clone()
	}
	return out
}

// commitLocked persists the collection and returns a snapshot for
// subscribers. Write failures keep the in-memory state.
func (s *Store) commitLocked() []Record {
	data, err := Encode(s.records)
	if err == nil {
		err = s.kv.Put(s.key, data)
	}
	if err != nil {
		s.logger.Warn("failed to persist window state", "key", s.key, "error", err)
	}
	return s.snapshotLocked()
}

// TopMost returns the id of the visible record with the highest z-index.
func TopMost(records []Record) (string, bool) {
	best := -1
	for i, r := range records {
		if !r.Visible {
			continue
		}
		if best < 0 || r.ZIndex > records[best].ZIndex {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return records[best].ID, true
}

// ByZOrder returns records sorted bottom to top.
func ByZOrder(records []Record) []Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Record) int { return a.ZIndex - b.ZIndex })
	return out
}
