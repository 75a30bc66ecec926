package storage

import (
	"context"

	"aave-reserves-lab/internal/domain"
)

// ReserveSnapshotStore provides access to raw reserve snapshot storage.
type ReserveSnapshotStore interface {
	// InsertBulk adds multiple snapshots atomically.
	InsertBulk(ctx context.Context, snapshots []*domain.ReserveSnapshot) error

	// GetByAsset retrieves all snapshots for an asset, ordered by timestamp ASC.
	GetByAsset(ctx context.Context, asset string) ([]*domain.ReserveSnapshot, error)

	// GetByTimeRange retrieves snapshots with timestamp in (start, end),
	// exclusive on both ends to mirror the upstream filter, ordered by
	// timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.ReserveSnapshot, error)

	// Assets lists the distinct asset names present in the store.
	Assets(ctx context.Context) ([]string, error)
}

// EventStore provides access to raw interaction and liquidation events.
type EventStore interface {
	// InsertInteractions adds multiple interaction events atomically.
	InsertInteractions(ctx context.Context, events []*domain.InteractionEvent) error

	// InsertLiquidations adds multiple liquidation events atomically.
	InsertLiquidations(ctx context.Context, events []*domain.LiquidationEvent) error

	// GetInteractionsByTimeRange retrieves interaction events with
	// timestamp in (start, end), ordered by timestamp ASC.
	GetInteractionsByTimeRange(ctx context.Context, start, end int64) ([]*domain.InteractionEvent, error)

	// GetLiquidationsByTimeRange retrieves liquidation events with
	// timestamp in (start, end), ordered by timestamp ASC.
	GetLiquidationsByTimeRange(ctx context.Context, start, end int64) ([]*domain.LiquidationEvent, error)
}

// BalanceStore provides access to raw balance snapshot storage.
type BalanceStore interface {
	// InsertBulk adds multiple balance snapshots atomically.
	// Returns ErrDuplicateKey when an id already exists.
	InsertBulk(ctx context.Context, balances []*domain.BalanceSnapshot) error

	// GetByKindAndTimeRange retrieves balance snapshots of one token kind
	// with timestamp in (start, end), ordered by timestamp ASC.
	GetByKindAndTimeRange(ctx context.Context, kind domain.TokenKind, start, end int64) ([]*domain.BalanceSnapshot, error)
}

// PanelStore provides access to the completed hourly panel.
type PanelStore interface {
	// InsertBulk adds multiple panel rows.
	InsertBulk(ctx context.Context, rows []*domain.RegularRow) error

	// GetByAsset retrieves all panel rows for an asset, ordered by hour ASC.
	GetByAsset(ctx context.Context, asset string) ([]*domain.RegularRow, error)

	// GetByAssetRange retrieves panel rows for an asset with hour in
	// [start, end] (inclusive), ordered by hour ASC.
	GetByAssetRange(ctx context.Context, asset string, start, end int64) ([]*domain.RegularRow, error)
}
