package daemon

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/manager"
	"github.com/1broseidon/deskwm/internal/storage"
)

// FragmentKey is the storage key the deep-link fragment is kept under.
const FragmentKey = "fragment"

// StateSynchronizer mirrors the deep-link fragment to storage so a restarted
// daemon reopens the window that was focused, as reloading a page keeps its
// URL hash.
type StateSynchronizer struct {
	kv     storage.KV
	logger *slog.Logger
}

// NewStateSynchronizer creates a new state synchronizer.
func NewStateSynchronizer(kv storage.KV, logger *slog.Logger) *StateSynchronizer {
	return &StateSynchronizer{kv: kv, logger: logger}
}

// Restore follows the stored fragment, if any. It must run before Attach so
// restoring does not write the value back.
func (s *StateSynchronizer) Restore(shell *desktop.Shell) string {
	data, err := s.kv.Get(FragmentKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to read stored fragment", "error", err)
		}
		return ""
	}
	hash := string(data)
	if hash == "" {
		return ""
	}
	s.logger.Info("restoring deep link", "fragment", hash)
	shell.HandleFragment(hash)
	return hash
}

// Attach persists every later fragment change.
func (s *StateSynchronizer) Attach(frag *manager.MemoryFragment) {
	frag.Watch(s.HandleFragmentChanged)
}

// HandleFragmentChanged writes id, deleting the key when it is cleared.
func (s *StateSynchronizer) HandleFragmentChanged(id string) {
	var err error
	if id == "" {
		err = s.kv.Delete(FragmentKey)
		if errors.Is(err, storage.ErrNotFound) {
			err = nil
		}
	} else {
		err = s.kv.Put(FragmentKey, []byte(id))
	}
	if err != nil {
		s.logger.Warn("failed to persist fragment",
			"fragment", id,
			"error", err)
	}
}
