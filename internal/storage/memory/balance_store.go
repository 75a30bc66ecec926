package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage"
)

// BalanceStore is an in-memory implementation of storage.BalanceStore.
type BalanceStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BalanceSnapshot // keyed by upstream id
}

// NewBalanceStore creates a new in-memory balance store.
func NewBalanceStore() *BalanceStore {
	return &BalanceStore{data: make(map[string]*domain.BalanceSnapshot)}
}

// InsertBulk adds multiple balance snapshots atomically.
// Returns ErrDuplicateKey when an id already exists.
func (s *BalanceStore) InsertBulk(_ context.Context, balances []*domain.BalanceSnapshot) error {
	if len(balances) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bal := range balances {
		if bal == nil || bal.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[bal.ID]; exists {
			return fmt.Errorf("balance id %s: %w", bal.ID, storage.ErrDuplicateKey)
		}
	}
	seen := make(map[string]bool, len(balances))
	for _, bal := range balances {
		if seen[bal.ID] {
			return fmt.Errorf("balance id %s: %w", bal.ID, storage.ErrDuplicateKey)
		}
		seen[bal.ID] = true
	}
	for _, bal := range balances {
		balCopy := *bal
		s.data[bal.ID] = &balCopy
	}
	return nil
}

// GetByKindAndTimeRange retrieves balance snapshots of one token kind with
// timestamp in (start, end), ordered by timestamp ASC.
func (s *BalanceStore) GetByKindAndTimeRange(_ context.Context, kind domain.TokenKind, start, end int64) ([]*domain.BalanceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BalanceSnapshot
	for _, bal := range s.data {
		if bal.Kind == kind && bal.Timestamp > start && bal.Timestamp < end {
			balCopy := *bal
			result = append(result, &balCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var _ storage.BalanceStore = (*BalanceStore)(nil)
