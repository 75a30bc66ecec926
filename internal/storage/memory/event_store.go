package memory

import (
	"context"
	"sort"
	"sync"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu           sync.RWMutex
	nextID       int64
	interactions []*domain.InteractionEvent
	liquidations []*domain.LiquidationEvent
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{nextID: 1}
}

// InsertInteractions adds multiple interaction events atomically.
func (s *EventStore) InsertInteractions(_ context.Context, events []*domain.InteractionEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		if ev == nil || ev.TxHash == "" || ev.Asset == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, ev := range events {
		evCopy := *ev
		evCopy.ID = s.nextID
		s.nextID++
		s.interactions = append(s.interactions, &evCopy)
	}
	return nil
}

// InsertLiquidations adds multiple liquidation events atomically.
func (s *EventStore) InsertLiquidations(_ context.Context, events []*domain.LiquidationEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		if ev == nil || ev.TxHash == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, ev := range events {
		evCopy := *ev
		evCopy.ID = s.nextID
		s.nextID++
		s.liquidations = append(s.liquidations, &evCopy)
	}
	return nil
}

// GetInteractionsByTimeRange retrieves interaction events with timestamp in
// (start, end), ordered by timestamp ASC.
func (s *EventStore) GetInteractionsByTimeRange(_ context.Context, start, end int64) ([]*domain.InteractionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.InteractionEvent
	for _, ev := range s.interactions {
		if ev.Timestamp > start && ev.Timestamp < end {
			evCopy := *ev
			result = append(result, &evCopy)
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

// GetLiquidationsByTimeRange retrieves liquidation events with timestamp in
// (start, end), ordered by timestamp ASC.
func (s *EventStore) GetLiquidationsByTimeRange(_ context.Context, start, end int64) ([]*domain.LiquidationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LiquidationEvent
	for _, ev := range s.liquidations {
		if ev.Timestamp > start && ev.Timestamp < end {
			evCopy := *ev
			result = append(result, &evCopy)
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

var _ storage.EventStore = (*EventStore)(nil)
