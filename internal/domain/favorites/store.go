// Package favorites provides the persisted set of favorite track ids.
package favorites

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Persistence stores the favorite id set between runs. Implementations
// are best-effort: the in-memory set stays authoritative for the
// session even when writes fail.
type Persistence interface {
	LoadFavorites() ([]string, error)
	SaveFavorites(ids []string) error
}

// Store is the in-memory favorite set with write-through persistence.
// It is safe for concurrent access.
type Store struct {
	mu    sync.RWMutex
	ids   map[string]struct{}
	order []string
	db    Persistence
}

// NewStore creates a store backed by the given persistence. The saved
// set is loaded once at construction; a load failure yields an empty
// set rather than an error, favorites must never block playback.
func NewStore(db Persistence) *Store {
	s := &Store{
		ids: make(map[string]struct{}),
		db:  db,
	}

	saved, err := db.LoadFavorites()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load favorites, starting empty")
		return s
	}
	for _, id := range saved {
		if _, dup := s.ids[id]; dup {
			continue
		}
		s.ids[id] = struct{}{}
		s.order = append(s.order, id)
	}
	log.Info().Int("count", len(s.order)).Msg("Favorites loaded")
	return s
}

// IsFavorite reports whether id is in the set.
func (s *Store) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Toggle adds id if absent and removes it if present, then writes the
// whole set through to persistence. Toggling twice restores the
// original membership. Returns the new membership state.
func (s *Store) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.ids[id]
	if exists {
		delete(s.ids, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	} else {
		s.ids[id] = struct{}{}
		s.order = append(s.order, id)
	}

	snapshot := make([]string, len(s.order))
	copy(snapshot, s.order)
	if err := s.db.SaveFavorites(snapshot); err != nil {
		// In-memory set stays authoritative for the session.
		log.Warn().Err(err).Str("id", id).Msg("Failed to persist favorites")
	}

	return !exists
}

// All returns the favorite ids in insertion order.
func (s *Store) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Count returns the number of favorites.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
