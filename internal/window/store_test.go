package window

import (
	"errors"
	"testing"

	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/storage"
)

func newTestStore(t *testing.T, kv storage.KV) *Store {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemoryKV()
	}
	return NewStore(kv, Options{Viewport: geometry.Viewport{Width: 1000, Height: 800}})
}

func TestStore_OpenAssignsIncreasingZ(t *testing.T) {
	s := newTestStore(t, nil)

	a := s.Open("A", Patch{})
	b := s.Open("B", Patch{})
	if a.ZIndex != 101 || b.ZIndex != 102 {
		t.Fatalf("expected z 101/102, got %d/%d", a.ZIndex, b.ZIndex)
	}
	if a.Position != (geometry.Point{X: 300, Y: 250}) {
		t.Fatalf("expected centered first window, got %+v", a.Position)
	}
	if b.Position != (geometry.Point{X: 332, Y: 282}) {
		t.Fatalf("expected staggered second window, got %+v", b.Position)
	}

	z, ok := s.BringToFront("A")
	if !ok || z != 103 {
		t.Fatalf("expected A raised to 103, got %d ok=%v", z, ok)
	}
	top, _ := TopMost(s.Records())
	if top != "A" {
		t.Fatalf("expected A on top, got %s", top)
	}
}

func TestStore_ZIndicesStayUnique(t *testing.T) {
	s := newTestStore(t, nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		s.Open(id, Patch{})
	}
	s.BringToFront("b")
	s.BringToFront("a")
	s.Close("c")
	s.Open("c", Patch{})
	s.BringToFront("d")

	seen := map[int]string{}
	for _, r := range s.Records() {
		if other, dup := seen[r.ZIndex]; dup {
			t.Fatalf("z-index %d shared by %s and %s", r.ZIndex, other, r.ID)
		}
		seen[r.ZIndex] = r.ID
	}
}

func TestStore_CloseIsIdempotentAndPreservesGeometry(t *testing.T) {
	s := newTestStore(t, nil)
	s.Open("A", Patch{Position: At(10, 20), Size: Sized(500, 400)})

	if s.Close("A") {
		t.Fatalf("expected no visible windows after closing the only one")
	}
	if s.Close("A") {
		t.Fatalf("expected second close to report no visible windows")
	}
	r, ok := s.Get("A")
	if !ok || r.Visible {
		t.Fatalf("expected hidden record to remain, got %+v ok=%v", r, ok)
	}

	reopened := s.Open("A", Patch{})
	if !reopened.Visible || reopened.Minimized {
		t.Fatalf("expected reopened window visible and restored, got %+v", reopened)
	}
	if reopened.Position != (geometry.Point{X: 10, Y: 20}) || reopened.Size != (geometry.Size{Width: 500, Height: 400}) {
		t.Fatalf("expected geometry preserved, got %+v %+v", reopened.Position, reopened.Size)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one record, got %d", s.Len())
	}
}

func TestStore_CloseRunsHookFirst(t *testing.T) {
	s := newTestStore(t, nil)
	var visibleDuringHook bool
	s.Open("A", Patch{OnClose: func() {
		r, _ := s.Get("A")
		visibleDuringHook = r.Visible
	}})
	s.Open("B", Patch{})

	if !s.Close("A") {
		t.Fatalf("expected B to remain visible")
	}
	if !visibleDuringHook {
		t.Fatalf("expected hook to run before the record was hidden")
	}
}

func TestStore_OpenReappliesInitialOverExisting(t *testing.T) {
	s := newTestStore(t, nil)
	s.Open("A", Patch{})
	s.Update("A", Patch{Minimized: Bool(true)})

	r := s.Open("A", Patch{Title: String("Profile")})
	if r.Minimized || !r.Visible || r.Title != "Profile" {
		t.Fatalf("unexpected record after reopen: %+v", r)
	}
	if r.ZIndex != 101 {
		t.Fatalf("reopen should not change z-index, got %d", r.ZIndex)
	}
}

func TestStore_UnknownIDsAreNoOps(t *testing.T) {
	s := newTestStore(t, nil)
	s.Open("A", Patch{})
	before := s.Records()

	if s.Update("missing", Patch{Title: String("x")}) {
		t.Fatalf("expected update of unknown id to report false")
	}
	if _, ok := s.BringToFront("missing"); ok {
		t.Fatalf("expected raise of unknown id to report false")
	}
	if s.Remove("missing") {
		t.Fatalf("expected remove of unknown id to report false")
	}
	if !s.Close("missing") {
		t.Fatalf("expected close of unknown id to leave A visible")
	}

	after := s.Records()
	if len(after) != len(before) || after[0].ZIndex != before[0].ZIndex || after[0].Title != before[0].Title {
		t.Fatalf("state changed: before=%+v after=%+v", before, after)
	}
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newTestStore(t, kv)
	s.Open("A", Patch{Title: String("Alpha"), ColorScheme: &ColorScheme{Background: "#fff"}})
	s.Open("B", Patch{AppProps: map[string]any{"path": "/tmp"}})
	s.Update("B", Patch{EdgeHidden: Bool(true), PreHidePosition: At(5, 6), HiddenEdge: edgePtr(geometry.EdgeLeft)})
	s.Close("A")

	restored := newTestStore(t, kv)
	want := s.Records()
	got := restored.Records()
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.ID != g.ID || w.Visible != g.Visible || w.ZIndex != g.ZIndex ||
			w.Position != g.Position || w.Size != g.Size || w.Title != g.Title ||
			w.EdgeHidden != g.EdgeHidden || w.HiddenEdge != g.HiddenEdge {
			t.Fatalf("record %d differs:\nwant %+v\ngot  %+v", i, w, g)
		}
	}
	b, _ := restored.Get("B")
	if b.PreHidePosition == nil || *b.PreHidePosition != (geometry.Point{X: 5, Y: 6}) {
		t.Fatalf("expected pre-hide position to survive, got %v", b.PreHidePosition)
	}
	if b.AppProps["path"] != "/tmp" {
		t.Fatalf("expected app props to survive, got %v", b.AppProps)
	}
	a, _ := restored.Get("A")
	if a.ColorScheme == nil || a.ColorScheme.Background != "#fff" {
		t.Fatalf("expected color scheme to survive, got %+v", a.ColorScheme)
	}
}

func TestStore_CorruptedStateFailsOpen(t *testing.T) {
	kv := storage.NewMemoryKV()
	if err := kv.Put(DefaultStorageKey, []byte("{not json")); err != nil {
		t.Fatalf("put: %v", err)
	}
	s := newTestStore(t, kv)
	if s.Len() != 0 {
		t.Fatalf("expected empty collection, got %d records", s.Len())
	}

	s.Open("A", Patch{})
	if _, err := Load(kv, DefaultStorageKey); err != nil {
		t.Fatalf("expected next mutation to overwrite corrupted data, got %v", err)
	}
}

func TestStore_ResetClearsEverything(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newTestStore(t, kv)
	s.Open("A", Patch{})
	s.Open("B", Patch{})

	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	if _, err := kv.Get(DefaultStorageKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected persisted key removed, got %v", err)
	}
	if r := s.Open("C", Patch{}); r.ZIndex != 101 {
		t.Fatalf("expected z-index to restart at 101, got %d", r.ZIndex)
	}
}

func TestStore_SubscribersSeeSnapshots(t *testing.T) {
	s := newTestStore(t, nil)
	var calls int
	var last []Record
	cancel := s.Subscribe(func(records []Record) {
		calls++
		last = records
	})

	s.Open("A", Patch{})
	s.Update("A", Patch{Title: String("T")})
	if calls != 2 || len(last) != 1 || last[0].Title != "T" {
		t.Fatalf("unexpected notifications: calls=%d last=%+v", calls, last)
	}

	last[0].Title = "mutated"
	if r, _ := s.Get("A"); r.Title != "T" {
		t.Fatalf("snapshot aliased store state")
	}

	cancel()
	s.Close("A")
	if calls != 2 {
		t.Fatalf("expected no notification after cancel, got %d calls", calls)
	}
}

func TestDecode_DropsInvalidRecords(t *testing.T) {
	records, err := Decode([]byte(`[{"id":"a","zIndex":101},{"id":""},{"id":"a","zIndex":150},{"id":"b"}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 2 || records[0].ID != "a" || records[0].ZIndex != 101 || records[1].ID != "b" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestParsePatch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "empty", input: ""},
		{name: "position", input: `{"position":{"x":1,"y":2}}`},
		{name: "unknown field", input: `{"zIndex":5}`, wantErr: true},
		{name: "zero size", input: `{"size":{"width":0,"height":10}}`, wantErr: true},
		{name: "bad edge", input: `{"hiddenEdge":"middle"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePatch([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePatch(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func edgePtr(e geometry.Edge) *geometry.Edge { return &e }

func TestStore_OpenFallsBackFromDegenerateSize(t *testing.T) {
	tests := []struct {
		name string
		size *geometry.Size
	}{
		{name: "zero", size: Sized(0, 0)},
		{name: "negative width", size: Sized(-10, 300)},
		{name: "zero height", size: Sized(400, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, nil)
			r := s.Open("x", Patch{Size: tt.size})
			if r.Size != (geometry.Size{Width: geometry.DefaultWindowWidth, Height: geometry.DefaultWindowHeight}) {
				t.Fatalf("expected default size on create, got %+v", r.Size)
			}
			s.Update("x", Patch{Size: Sized(500, 350)})
			r = s.Open("x", Patch{Size: tt.size})
			if r.Size != (geometry.Size{Width: 500, Height: 350}) {
				t.Fatalf("reopen should keep the existing size, got %+v", r.Size)
			}
		})
	}
}

func TestStore_ZIndicesNotReusedAfterRemove(t *testing.T) {
	s := newTestStore(t, nil)
	s.Open("a", Patch{})
	top := s.Open("b", Patch{})
	s.Remove("b")

	z, _ := s.BringToFront("a")
	if z <= top.ZIndex {
		t.Fatalf("expected z above removed window's %d, got %d", top.ZIndex, z)
	}
	if c := s.Open("c", Patch{}); c.ZIndex <= z {
		t.Fatalf("expected new window above %d, got %d", z, c.ZIndex)
	}
}

func TestStore_HighWaterMarkSurvivesRestart(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newTestStore(t, kv)
	s.Open("a", Patch{})
	s.Open("b", Patch{})
	s.BringToFront("a")

	reloaded := newTestStore(t, kv)
	if r := reloaded.Open("c", Patch{}); r.ZIndex != 104 {
		t.Fatalf("expected z 104 after restart, got %d", r.ZIndex)
	}
}

func TestStore_BatchCommitsOnce(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newTestStore(t, kv)
	s.Open("a", Patch{})
	s.Open("b", Patch{})

	var snaps [][]Record
	defer s.Subscribe(func(records []Record) { snaps = append(snaps, records) })()

	s.Batch(func(tx *Tx) {
		for _, r := range tx.Records() {
			tx.Update(r.ID, Patch{Minimized: Bool(true)})
		}
		tx.BringToFront("a")
		if tx.Update("missing", Patch{}) {
			t.Errorf("unknown id should report false")
		}
	})
	if len(snaps) != 1 {
		t.Fatalf("expected one notification, got %d", len(snaps))
	}
	for _, r := range snaps[0] {
		if !r.Minimized {
			t.Fatalf("snapshot missing batched change: %+v", r)
		}
	}

	persisted, err := Load(kv, DefaultStorageKey)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, r := range persisted {
		if !r.Minimized {
			t.Fatalf("batched change not persisted: %+v", r)
		}
	}

	s.Batch(func(tx *Tx) {})
	if len(snaps) != 1 {
		t.Fatalf("empty batch should not notify, got %d", len(snaps))
	}
}
