package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// ErrDuplicateID is returned by MemoryStore.Save for an id already in use,
// matching the primary key violation of the SQL store.
var ErrDuplicateID = errors.New("storage: duplicate entity id")

// MemoryStore implements Store using an in-memory slice.
// Intended for demos and testing, no database required.
type MemoryStore struct {
	mu       sync.RWMutex
	entities []Entity
	nextID   int64
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) LoadMultiple(_ context.Context, entityType string, ids []int64) ([]Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entity
	for _, e := range s.entities {
		if e.EntityType != entityType {
			continue
		}
		if ids != nil && !slices.Contains(ids, e.ID) {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

func (s *MemoryStore) LoadBundle(_ context.Context, entityType, bundle string) ([]Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entity
	for _, e := range s.entities {
		if e.EntityType == entityType && e.Bundle == bundle {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

func (s *MemoryStore) QueryBundle(_ context.Context, entityType, bundle string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for _, e := range s.entities {
		if e.EntityType == entityType && e.Bundle == bundle {
			ids = append(ids, e.ID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *MemoryStore) Save(_ context.Context, e Entity) (Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == 0 {
		e.ID = s.nextID
	}
	if slices.ContainsFunc(s.entities, func(other Entity) bool { return other.ID == e.ID }) {
		return Entity{}, fmt.Errorf("saving %s entity %d: %w", e.EntityType, e.ID, ErrDuplicateID)
	}
	if e.ID >= s.nextID {
		s.nextID = e.ID + 1
	}
	s.entities = append(s.entities, e)
	return e, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities), nil
}
