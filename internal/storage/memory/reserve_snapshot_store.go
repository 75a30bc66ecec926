package memory

import (
	"context"
	"sort"
	"sync"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage"
)

// ReserveSnapshotStore is an in-memory implementation of
// storage.ReserveSnapshotStore.
type ReserveSnapshotStore struct {
	mu     sync.RWMutex
	nextID int64
	data   []*domain.ReserveSnapshot
}

// NewReserveSnapshotStore creates a new in-memory reserve snapshot store.
func NewReserveSnapshotStore() *ReserveSnapshotStore {
	return &ReserveSnapshotStore{nextID: 1}
}

// InsertBulk adds multiple snapshots atomically.
func (s *ReserveSnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.ReserveSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		if snap == nil || snap.Asset == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, snap := range snapshots {
		snapCopy := *snap
		snapCopy.ID = s.nextID
		s.nextID++
		s.data = append(s.data, &snapCopy)
	}
	return nil
}

// GetByAsset retrieves all snapshots for an asset, ordered by timestamp ASC.
func (s *ReserveSnapshotStore) GetByAsset(_ context.Context, asset string) ([]*domain.ReserveSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ReserveSnapshot
	for _, snap := range s.data {
		if snap.Asset == asset {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}
	sortSnapshots(result)
	return result, nil
}

// GetByTimeRange retrieves snapshots with timestamp in (start, end).
func (s *ReserveSnapshotStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.ReserveSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ReserveSnapshot
	for _, snap := range s.data {
		if snap.Timestamp > start && snap.Timestamp < end {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}
	sortSnapshots(result)
	return result, nil
}

// Assets lists the distinct asset names present in the store.
func (s *ReserveSnapshotStore) Assets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var result []string
	for _, snap := range s.data {
		if !seen[snap.Asset] {
			seen[snap.Asset] = true
			result = append(result, snap.Asset)
		}
	}
	sort.Strings(result)
	return result, nil
}

// sortSnapshots orders by (timestamp, id) for deterministic output.
func sortSnapshots(snapshots []*domain.ReserveSnapshot) {
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Timestamp != snapshots[j].Timestamp {
			return snapshots[i].Timestamp < snapshots[j].Timestamp
		}
		return snapshots[i].ID < snapshots[j].ID
	})
}

var _ storage.ReserveSnapshotStore = (*ReserveSnapshotStore)(nil)
