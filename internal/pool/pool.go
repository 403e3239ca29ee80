// Package pool tracks the generator's local view of the versioned resources
// under test. Versions recorded here lag the server's truth after an
// undetected conflict but never exceed it: a version is only bumped after a
// response the caller has already attributed as a successful write.
package pool

import (
	"fmt"
	"sync"
)

// Resource is one versioned entity in the pool.
type Resource struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
	Status  string `json:"status"`
}

// Store holds the local (version, status) view of a fixed pool of resources.
// Partitioning across workers is advisory; the store itself is safe for
// concurrent use.
type Store struct {
	mu        sync.RWMutex
	resources []Resource
}

// NewStore creates a Store of size resources with ids prefix-1 .. prefix-N,
// every version 1 and status pending.
func NewStore(size int, prefix string) *Store {
	if size < 0 {
		size = 0
	}
	s := &Store{resources: make([]Resource, size)}
	for i := range s.resources {
		s.resources[i] = Resource{
			ID:      fmt.Sprintf("%s-%d", prefix, i+1),
			Version: 1,
			Status:  StatusPending,
		}
	}
	return s
}

// Size returns the number of resources in the pool.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}

// slot maps a 1-based index onto the pool with wrap-around: ((i-1) mod N)+1.
// Any integer, including zero and negatives, lands on a valid slot.
func (s *Store) slot(index int) (int, error) {
	n := len(s.resources)
	if n == 0 {
		return 0, NewIndexError("resource pool is empty")
	}
	i := (index - 1) % n
	if i < 0 {
		i += n
	}
	return i, nil
}

// State returns the resource at the given 1-based index.
func (s *Store) State(index int) (Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, err := s.slot(index)
	if err != nil {
		return Resource{}, err
	}
	return s.resources[i], nil
}

// IncrementVersion bumps the local version unconditionally and returns the
// new value. Call only after a response already attributed as a successful
// write for this resource.
func (s *Store) IncrementVersion(index int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.slot(index)
	if err != nil {
		return 0, err
	}
	s.resources[i].Version++
	return s.resources[i].Version, nil
}

// SetVersionAndStatus resynchronizes local state with an authoritative value
// read back from the server after a conflict.
func (s *Store) SetVersionAndStatus(index int, version int64, status string) error {
	if version < 1 {
		return NewValidationError(fmt.Sprintf("version must be a positive integer, got %d", version))
	}
	if !ValidStatus(status) {
		return NewValidationError(fmt.Sprintf("unknown status %q", status))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.slot(index)
	if err != nil {
		return err
	}
	s.resources[i].Version = version
	s.resources[i].Status = status
	return nil
}

// ResetAll puts every resource back to version 1, status pending. Called once
// before a run starts; calling it again is a no-op in effect.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.resources {
		s.resources[i].Version = 1
		s.resources[i].Status = StatusPending
	}
}

// Snapshot returns a copy of the pool for diagnostics.
func (s *Store) Snapshot() []Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Resource, len(s.resources))
	copy(out, s.resources)
	return out
}
