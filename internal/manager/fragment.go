package manager

import (
	"slices"
	"sync"
)

// Fragment is the deep-link register: the id of the focused window, or
// empty for the bare desktop.
type Fragment interface {
	Get() string
	Set(id string)
}

// MemoryFragment is a Fragment held in process memory. Watchers are called
// after every change with the new value.
type MemoryFragment struct {
	mu       sync.RWMutex
	value    string
	watchers []func(string)
}

func NewMemoryFragment() *MemoryFragment {
	return &MemoryFragment{}
}

func (f *MemoryFragment) Get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

func (f *MemoryFragment) Set(id string) {
	f.mu.Lock()
	if f.value == id {
		f.mu.Unlock()
		return
	}
	f.value = id
	watchers := slices.Clone(f.watchers)
	f.mu.Unlock()

	for _, w := range watchers {
		w(id)
	}
}

// Watch registers fn for fragment changes.
func (f *MemoryFragment) Watch(fn func(string)) {
	f.mu.Lock()
	f.watchers = append(f.watchers, fn)
	f.mu.Unlock()
}
