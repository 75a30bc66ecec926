package memory

import (
	"context"
	"sort"
	"sync"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage"
)

// PanelStore is an in-memory implementation of storage.PanelStore.
type PanelStore struct {
	mu   sync.RWMutex
	data []*domain.RegularRow
}

// NewPanelStore creates a new in-memory panel store.
func NewPanelStore() *PanelStore {
	return &PanelStore{}
}

// InsertBulk adds multiple panel rows.
func (s *PanelStore) InsertBulk(_ context.Context, rows []*domain.RegularRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		if row == nil || row.Asset == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, row := range rows {
		rowCopy := *row
		s.data = append(s.data, &rowCopy)
	}
	return nil
}

// GetByAsset retrieves all panel rows for an asset, ordered by hour ASC.
func (s *PanelStore) GetByAsset(_ context.Context, asset string) ([]*domain.RegularRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RegularRow
	for _, row := range s.data {
		if row.Asset == asset {
			rowCopy := *row
			result = append(result, &rowCopy)
		}
	}
	sortRows(result)
	return result, nil
}

// GetByAssetRange retrieves panel rows for an asset with hour in
// [start, end] inclusive, ordered by hour ASC.
func (s *PanelStore) GetByAssetRange(_ context.Context, asset string, start, end int64) ([]*domain.RegularRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RegularRow
	for _, row := range s.data {
		if row.Asset == asset && row.Hour >= start && row.Hour <= end {
			rowCopy := *row
			result = append(result, &rowCopy)
		}
	}
	sortRows(result)
	return result, nil
}

func sortRows(rows []*domain.RegularRow) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Hour < rows[j].Hour
	})
}

var _ storage.PanelStore = (*PanelStore)(nil)
