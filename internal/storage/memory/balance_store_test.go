package memory

import (
	"context"
	"errors"
	"testing"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage"
)

func TestBalanceStore_InsertAndGet(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	balances := []*domain.BalanceSnapshot{
		{ID: "b1", TxHash: "0xaa", User: "0x1", Asset: "WETH", Timestamp: 1000, Kind: domain.TokenKindSupply},
		{ID: "b2", TxHash: "0xbb", User: "0x2", Asset: "WETH", Timestamp: 2000, Kind: domain.TokenKindDebt},
	}
	if err := store.InsertBulk(ctx, balances); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByKindAndTimeRange(ctx, domain.TokenKindSupply, 0, 5000)
	if err != nil {
		t.Fatalf("GetByKindAndTimeRange failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 supply-side snapshot, got %d", len(result))
	}
	if result[0].ID != "b1" {
		t.Errorf("Expected id b1, got %s", result[0].ID)
	}
}

func TestBalanceStore_DuplicateID(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	first := []*domain.BalanceSnapshot{{ID: "b1", Timestamp: 1000, Kind: domain.TokenKindSupply}}
	if err := store.InsertBulk(ctx, first); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.BalanceSnapshot{{ID: "b1", Timestamp: 2000, Kind: domain.TokenKindSupply}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestBalanceStore_IntraBatchDuplicate(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	balances := []*domain.BalanceSnapshot{
		{ID: "b1", Timestamp: 1000, Kind: domain.TokenKindSupply},
		{ID: "b1", Timestamp: 1000, Kind: domain.TokenKindSupply},
	}
	err := store.InsertBulk(ctx, balances)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	// Verify nothing was inserted
	result, _ := store.GetByKindAndTimeRange(ctx, domain.TokenKindSupply, 0, 5000)
	if len(result) != 0 {
		t.Errorf("Expected 0 snapshots (rollback), got %d", len(result))
	}
}

func TestBalanceStore_TimeRangeExclusive(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	balances := []*domain.BalanceSnapshot{
		{ID: "b1", Timestamp: 1000, Kind: domain.TokenKindDebt},
		{ID: "b2", Timestamp: 2000, Kind: domain.TokenKindDebt},
		{ID: "b3", Timestamp: 3000, Kind: domain.TokenKindDebt},
	}
	if err := store.InsertBulk(ctx, balances); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByKindAndTimeRange(ctx, domain.TokenKindDebt, 1000, 3000)
	if err != nil {
		t.Fatalf("GetByKindAndTimeRange failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 snapshot (endpoints excluded), got %d", len(result))
	}
	if result[0].Timestamp != 2000 {
		t.Errorf("Expected timestamp 2000, got %d", result[0].Timestamp)
	}
}

func TestBalanceStore_InvalidInput(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.BalanceSnapshot{nil})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}

	err = store.InsertBulk(ctx, []*domain.BalanceSnapshot{{ID: ""}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty id, got %v", err)
	}
}
