// Package history keeps the append-only log of recovery attempts.
package history

import (
	"context"
	"sync"

	"github.com/daydemir/ci-recovery/internal/types"
)

// Store is an append-only attempt log. Attempts are returned in append order.
type Store interface {
	Append(ctx context.Context, attempt types.RecoveryAttempt) error
	List(ctx context.Context) ([]types.RecoveryAttempt, error)
	Close() error
}

// MemoryStore keeps attempts for the lifetime of the process
type MemoryStore struct {
	mu       sync.RWMutex
	attempts []types.RecoveryAttempt
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append records an attempt
func (s *MemoryStore) Append(_ context.Context, attempt types.RecoveryAttempt) error {
	if err := attempt.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, cloneAttempt(attempt))
	return nil
}

// List returns a copy of all recorded attempts
func (s *MemoryStore) List(_ context.Context) ([]types.RecoveryAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.RecoveryAttempt, len(s.attempts))
	for i, a := range s.attempts {
		out[i] = cloneAttempt(a)
	}
	return out, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// cloneAttempt detaches the slices so stored attempts can never be mutated
func cloneAttempt(a types.RecoveryAttempt) types.RecoveryAttempt {
	a.Errors = append([]types.BuildError(nil), a.Errors...)
	a.Actions = append([]string(nil), a.Actions...)
	return a
}
