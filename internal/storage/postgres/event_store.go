package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// InsertInteractions adds multiple interaction events atomically.
func (s *EventStore) InsertInteractions(ctx context.Context, events []*domain.InteractionEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO interaction_events (
			tx_hash, user_address, asset, pool, timestamp, action, amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, ev := range events {
		if ev == nil || ev.TxHash == "" || ev.Asset == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			ev.TxHash,
			ev.User,
			ev.Asset,
			ev.Pool,
			ev.Timestamp,
			ev.Action,
			ev.Amount,
		)
		if err != nil {
			return fmt.Errorf("insert interaction event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// InsertLiquidations adds multiple liquidation events atomically.
func (s *EventStore) InsertLiquidations(ctx context.Context, events []*domain.LiquidationEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO liquidation_events (
			tx_hash, liquidator, user_address, collateral_asset, principal_asset, pool, timestamp, collateral_amount, principal_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, ev := range events {
		if ev == nil || ev.TxHash == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			ev.TxHash,
			ev.Liquidator,
			ev.User,
			ev.CollateralAsset,
			ev.PrincipalAsset,
			ev.Pool,
			ev.Timestamp,
			ev.CollateralAmount,
			ev.PrincipalAmount,
		)
		if err != nil {
			return fmt.Errorf("insert liquidation event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetInteractionsByTimeRange retrieves interaction events with timestamp in
// (start, end), ordered by timestamp ASC.
func (s *EventStore) GetInteractionsByTimeRange(ctx context.Context, start, end int64) ([]*domain.InteractionEvent, error) {
	query := `
		SELECT id, tx_hash, user_address, asset, pool, timestamp, action, amount
		FROM interaction_events
		WHERE timestamp > $1 AND timestamp < $2
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get interaction events by time range: %w", err)
	}
	defer rows.Close()

	return scanInteractionEvents(rows)
}

// GetLiquidationsByTimeRange retrieves liquidation events with timestamp in
// (start, end), ordered by timestamp ASC.
func (s *EventStore) GetLiquidationsByTimeRange(ctx context.Context, start, end int64) ([]*domain.LiquidationEvent, error) {
	query := `
		SELECT id, tx_hash, liquidator, user_address, collateral_asset, principal_asset, pool, timestamp, collateral_amount, principal_amount
		FROM liquidation_events
		WHERE timestamp > $1 AND timestamp < $2
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get liquidation events by time range: %w", err)
	}
	defer rows.Close()

	return scanLiquidationEvents(rows)
}

// scanInteractionEvents scans multiple rows into a slice of InteractionEvent.
func scanInteractionEvents(rows pgx.Rows) ([]*domain.InteractionEvent, error) {
	var events []*domain.InteractionEvent

	for rows.Next() {
		var ev domain.InteractionEvent

		err := rows.Scan(
			&ev.ID,
			&ev.TxHash,
			&ev.User,
			&ev.Asset,
			&ev.Pool,
			&ev.Timestamp,
			&ev.Action,
			&ev.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan interaction event row: %w", err)
		}

		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interaction event rows: %w", err)
	}

	return events, nil
}

// scanLiquidationEvents scans multiple rows into a slice of LiquidationEvent.
func scanLiquidationEvents(rows pgx.Rows) ([]*domain.LiquidationEvent, error) {
	var events []*domain.LiquidationEvent

	for rows.Next() {
		var ev domain.LiquidationEvent

		err := rows.Scan(
			&ev.ID,
			&ev.TxHash,
			&ev.Liquidator,
			&ev.User,
			&ev.CollateralAsset,
			&ev.PrincipalAsset,
			&ev.Pool,
			&ev.Timestamp,
			&ev.CollateralAmount,
			&ev.PrincipalAmount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan liquidation event row: %w", err)
		}

		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liquidation event rows: %w", err)
	}

	return events, nil
}
