package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage"
)

// ReserveSnapshotStore implements storage.ReserveSnapshotStore using PostgreSQL.
type ReserveSnapshotStore struct {
	pool *Pool
}

// NewReserveSnapshotStore creates a new ReserveSnapshotStore.
func NewReserveSnapshotStore(pool *Pool) *ReserveSnapshotStore {
	return &ReserveSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReserveSnapshotStore = (*ReserveSnapshotStore)(nil)

const reserveSnapshotColumns = `
	asset, pool, timestamp, decimals,
	liquidity_index, variable_borrow_index,
	liquidity_rate, variable_borrow_rate, stable_borrow_rate, average_stable_borrow_rate, utilization_rate,
	total_liquidity, total_atoken_supply, available_liquidity,
	total_current_variable_debt, total_scaled_variable_debt, total_principal_stable_debt,
	accrued_to_treasury, price_in_eth, price_in_usd
`

// InsertBulk adds multiple snapshots atomically.
func (s *ReserveSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.ReserveSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO reserve_snapshots (` + reserveSnapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	for _, snap := range snapshots {
		if snap == nil || snap.Asset == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			snap.Asset,
			snap.Pool,
			snap.Timestamp,
			snap.Decimals,
			snap.LiquidityIndex,
			snap.VariableBorrowIndex,
			snap.LiquidityRate,
			snap.VariableBorrowRate,
			snap.StableBorrowRate,
			snap.AverageStableBorrowRate,
			snap.UtilizationRate,
			snap.TotalLiquidity,
			snap.TotalATokenSupply,
			snap.AvailableLiquidity,
			snap.TotalCurrentVariableDebt,
			snap.TotalScaledVariableDebt,
			snap.TotalPrincipalStableDebt,
			snap.AccruedToTreasury,
			snap.PriceInEth,
			snap.PriceInUsd,
		)
		if err != nil {
			return fmt.Errorf("insert reserve snapshot in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByAsset retrieves all snapshots for an asset, ordered by timestamp ASC.
func (s *ReserveSnapshotStore) GetByAsset(ctx context.Context, asset string) ([]*domain.ReserveSnapshot, error) {
	query := `
		SELECT id, ` + reserveSnapshotColumns + `
		FROM reserve_snapshots
		WHERE asset = $1
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, asset)
	if err != nil {
		return nil, fmt.Errorf("get reserve snapshots by asset: %w", err)
	}
	defer rows.Close()

	return scanReserveSnapshots(rows)
}

// GetByTimeRange retrieves snapshots with timestamp in (start, end), both
// ends exclusive.
func (s *ReserveSnapshotStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.ReserveSnapshot, error) {
	query := `
		SELECT id, ` + reserveSnapshotColumns + `
		FROM reserve_snapshots
		WHERE timestamp > $1 AND timestamp < $2
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get reserve snapshots by time range: %w", err)
	}
	defer rows.Close()

	return scanReserveSnapshots(rows)
}

// Assets lists the distinct asset names present in the store.
func (s *ReserveSnapshotStore) Assets(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT asset FROM reserve_snapshots ORDER BY asset ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reserve snapshot assets: %w", err)
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var asset string
		if err := rows.Scan(&asset); err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset rows: %w", err)
	}

	return assets, nil
}

// scanReserveSnapshots scans multiple rows into a slice of ReserveSnapshot.
func scanReserveSnapshots(rows pgx.Rows) ([]*domain.ReserveSnapshot, error) {
	var snapshots []*domain.ReserveSnapshot

	for rows.Next() {
		var snap domain.ReserveSnapshot

		err := rows.Scan(
			&snap.ID,
			&snap.Asset,
			&snap.Pool,
			&snap.Timestamp,
			&snap.Decimals,
			&snap.LiquidityIndex,
			&snap.VariableBorrowIndex,
			&snap.LiquidityRate,
			&snap.VariableBorrowRate,
			&snap.StableBorrowRate,
			&snap.AverageStableBorrowRate,
			&snap.UtilizationRate,
			&snap.TotalLiquidity,
			&snap.TotalATokenSupply,
			&snap.AvailableLiquidity,
			&snap.TotalCurrentVariableDebt,
			&snap.TotalScaledVariableDebt,
			&snap.TotalPrincipalStableDebt,
			&snap.AccruedToTreasury,
			&snap.PriceInEth,
			&snap.PriceInUsd,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reserve snapshot row: %w", err)
		}

		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reserve snapshot rows: %w", err)
	}

	return snapshots, nil
}
