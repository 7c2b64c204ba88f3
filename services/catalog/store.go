package catalog

import (
	"fmt"
	"sync"

	"cineview/models"
)

// Store is the in-memory id-keyed collection of all catalog entries. It is
// populated once at startup by the playlist parser and mutated in place only
// by the enrichment engine; entries are never deleted. All access goes
// through the lock, and reads hand out copies so callers never share the
// stored value.
type Store struct {
	mu      sync.RWMutex
	entries map[int]*models.Entry
	order   []int
}

func NewStore() *Store {
	return &Store{entries: make(map[int]*models.Entry)}
}

// Insert adds a parsed entry. Entries without a stream URL are not part of
// the catalog, and ids are assigned sequentially by the parser, so both
// conditions are defects worth rejecting loudly.
func (s *Store) Insert(e *models.Entry) error {
	if e == nil {
		return fmt.Errorf("nil entry")
	}
	if e.StreamURL == "" {
		return fmt.Errorf("entry %d (%q) has no stream url", e.ID, e.Title)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[e.ID]; exists {
		return fmt.Errorf("duplicate entry id %d", e.ID)
	}
	stored := e.Clone()
	s.entries[e.ID] = &stored
	s.order = append(s.order, e.ID)
	return nil
}

// Get returns a copy of the entry for id.
func (s *Store) Get(id int) (models.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return models.Entry{}, false
	}
	return e.Clone(), true
}

// Update applies fn to the stored entry under the write lock. Returns false
// when the id is unknown. This is the only mutation path after Insert.
func (s *Store) Update(id int, fn func(*models.Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	fn(e)
	return true
}

// Len reports the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IDs returns all entry ids in insertion order.
func (s *Store) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// Snapshot returns copies of all entries in insertion order.
func (s *Store) Snapshot() []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].Clone())
	}
	return out
}
