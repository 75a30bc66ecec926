package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage"
)

// BalanceStore implements storage.BalanceStore using PostgreSQL.
type BalanceStore struct {
	pool *Pool
}

// NewBalanceStore creates a new BalanceStore.
func NewBalanceStore(pool *Pool) *BalanceStore {
	return &BalanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BalanceStore = (*BalanceStore)(nil)

// InsertBulk adds multiple balance snapshots atomically.
// Fails the entire batch with ErrDuplicateKey if any id already exists.
func (s *BalanceStore) InsertBulk(ctx context.Context, balances []*domain.BalanceSnapshot) error {
	if len(balances) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO balance_snapshots (
			id, tx_hash, user_address, asset, pool, timestamp, kind, decimals,
			scaled_balance, current_balance, reserve_index, collateral_enabled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, bal := range balances {
		if bal == nil || bal.ID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			bal.ID,
			bal.TxHash,
			bal.User,
			bal.Asset,
			bal.Pool,
			bal.Timestamp,
			bal.Kind,
			bal.Decimals,
			bal.ScaledBalance,
			bal.CurrentBalance,
			bal.Index,
			bal.CollateralEnabled,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert balance snapshot in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByKindAndTimeRange retrieves balance snapshots of one token kind with
// timestamp in (start, end), ordered by timestamp ASC.
func (s *BalanceStore) GetByKindAndTimeRange(ctx context.Context, kind domain.TokenKind, start, end int64) ([]*domain.BalanceSnapshot, error) {
	query := `
		SELECT id, tx_hash, user_address, asset, pool, timestamp, kind, decimals,
			scaled_balance, current_balance, reserve_index, collateral_enabled
		FROM balance_snapshots
		WHERE kind = $1 AND timestamp > $2 AND timestamp < $3
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, kind, start, end)
	if err != nil {
		return nil, fmt.Errorf("get balance snapshots by kind and time range: %w", err)
	}
	defer rows.Close()

	return scanBalanceSnapshots(rows)
}

// scanBalanceSnapshots scans multiple rows into a slice of BalanceSnapshot.
func scanBalanceSnapshots(rows pgx.Rows) ([]*domain.BalanceSnapshot, error) {
	var balances []*domain.BalanceSnapshot

	for rows.Next() {
		var bal domain.BalanceSnapshot

		err := rows.Scan(
			&bal.ID,
			&bal.TxHash,
			&bal.User,
			&bal.Asset,
			&bal.Pool,
			&bal.Timestamp,
			&bal.Kind,
			&bal.Decimals,
			&bal.ScaledBalance,
			&bal.CurrentBalance,
			&bal.Index,
			&bal.CollateralEnabled,
		)
		if err != nil {
			return nil, fmt.Errorf("scan balance snapshot row: %w", err)
		}

		balances = append(balances, &bal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance snapshot rows: %w", err)
	}

	return balances, nil
}
