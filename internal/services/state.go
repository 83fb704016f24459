package services

import (
	"sync"

	"anjo/internal/core"
)

// AppState is the per-session state that does not live in a store.
type AppState struct {
	// mu sequences the workflows of one owner, so a deposit that follows
	// a transaction create never interleaves with another mutation.
	mu           sync.Mutex
	Achievements *core.AchievementSet
}

func newAppState() *AppState {
	return &AppState{Achievements: core.NewAchievementSet()}
}

// states holds one AppState per owner for the life of the process. The
// empty owner is the guest, shared by every request without a token.
type states struct {
	mu    sync.Mutex
	items map[string]*AppState
}

func (s *states) get(owner string) *AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = make(map[string]*AppState)
	}
	st, ok := s.items[owner]
	if !ok {
		st = newAppState()
		s.items[owner] = st
	}
	return st
}
