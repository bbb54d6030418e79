// Package memory is the in-process sink used by tests and the default
// no-cloud development setup.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budgeter/internal/core"
	"budgeter/internal/sink"
)

// Store keeps pushed transactions keyed by id, so a re-push overwrites
// exactly like a real key-value sink. FailIDs simulates per-item sink
// rejections for partial-failure tests.
type Store struct {
	mu      sync.Mutex
	items   map[int64]core.Transaction
	pushes  int
	FailIDs map[int64]bool
}

var _ sink.Sink = (*Store)(nil)

func New() *Store {
	return &Store{
		items:   make(map[int64]core.Transaction),
		FailIDs: make(map[int64]bool),
	}
}

func (s *Store) Push(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes++
	if s.FailIDs[tx.ID] {
		return fmt.Errorf("sink rejected transaction %d", tx.ID)
	}
	s.items[tx.ID] = tx
	return nil
}

// Get returns the stored copy of a pushed transaction.
func (s *Store) Get(id int64) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[id]
	return tx, ok
}

// Len reports how many distinct transactions the sink holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Pushes reports the total number of push attempts, including failed ones.
func (s *Store) Pushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes
}
