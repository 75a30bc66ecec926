package clickhouse

import (
	"context"
	"fmt"

	"aave-reserves-lab/internal/domain"
	"aave-reserves-lab/internal/storage"
)

// PanelStore implements storage.PanelStore using ClickHouse.
type PanelStore struct {
	conn *Conn
}

// NewPanelStore creates a new PanelStore.
func NewPanelStore(conn *Conn) *PanelStore {
	return &PanelStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PanelStore = (*PanelStore)(nil)

const panelColumns = `
	asset, hour, decimals, pool,
	liquidity_index, variable_borrow_index,
	liquidity_rate, variable_borrow_rate, stable_borrow_rate, average_stable_borrow_rate, utilization_rate,
	total_liquidity, total_atoken_supply, available_liquidity,
	total_current_variable_debt, total_scaled_variable_debt, total_principal_stable_debt,
	accrued_to_treasury, price_in_eth, price_in_usd,
	fixed_liquidity_index, fixed_variable_borrow_index,
	fixed_liquidity_rate, fixed_variable_borrow_rate, fixed_utilization_rate,
	observed
`

// InsertBulk adds multiple panel rows in one batch.
func (s *PanelStore) InsertBulk(ctx context.Context, rows []*domain.RegularRow) error {
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows {
		if row == nil || row.Asset == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO reserve_panel (`+panelColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range rows {
		observed := uint8(0)
		if row.Observed {
			observed = 1
		}
		err = batch.Append(
			row.Asset, uint64(row.Hour), int32(row.Decimals), row.Pool,
			row.LiquidityIndex, row.VariableBorrowIndex,
			row.LiquidityRate, row.VariableBorrowRate, row.StableBorrowRate, row.AverageStableBorrowRate, row.UtilizationRate,
			row.TotalLiquidity, row.TotalATokenSupply, row.AvailableLiquidity,
			row.TotalCurrentVariableDebt, row.TotalScaledVariableDebt, row.TotalPrincipalStableDebt,
			row.AccruedToTreasury, row.PriceInEth, row.PriceInUsd,
			row.FixedLiquidityIndex, row.FixedVariableBorrowIndex,
			row.FixedLiquidityRate, row.FixedVariableBorrowRate, row.FixedUtilizationRate,
			observed,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAsset retrieves all panel rows for an asset, ordered by hour ASC.
func (s *PanelStore) GetByAsset(ctx context.Context, asset string) ([]*domain.RegularRow, error) {
	query := `
		SELECT ` + panelColumns + `
		FROM reserve_panel
		WHERE asset = ?
		ORDER BY hour ASC
	`

	rows, err := s.conn.Query(ctx, query, asset)
	if err != nil {
		return nil, fmt.Errorf("query panel by asset: %w", err)
	}
	defer rows.Close()

	return scanPanelRows(rows)
}

// GetByAssetRange retrieves panel rows for an asset within [start, end] (inclusive).
func (s *PanelStore) GetByAssetRange(ctx context.Context, asset string, start, end int64) ([]*domain.RegularRow, error) {
	query := `
		SELECT ` + panelColumns + `
		FROM reserve_panel
		WHERE asset = ? AND hour >= ? AND hour <= ?
		ORDER BY hour ASC
	`

	rows, err := s.conn.Query(ctx, query, asset, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query panel by asset range: %w", err)
	}
	defer rows.Close()

	return scanPanelRows(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPanelRows scans multiple rows into a slice of RegularRow.
func scanPanelRows(rows chRows) ([]*domain.RegularRow, error) {
	var result []*domain.RegularRow

	for rows.Next() {
		var row domain.RegularRow
		var hour uint64
		var decimals int32
		var observed uint8

		err := rows.Scan(
			&row.Asset, &hour, &decimals, &row.Pool,
			&row.LiquidityIndex, &row.VariableBorrowIndex,
			&row.LiquidityRate, &row.VariableBorrowRate, &row.StableBorrowRate, &row.AverageStableBorrowRate, &row.UtilizationRate,
			&row.TotalLiquidity, &row.TotalATokenSupply, &row.AvailableLiquidity,
			&row.TotalCurrentVariableDebt, &row.TotalScaledVariableDebt, &row.TotalPrincipalStableDebt,
			&row.AccruedToTreasury, &row.PriceInEth, &row.PriceInUsd,
			&row.FixedLiquidityIndex, &row.FixedVariableBorrowIndex,
			&row.FixedLiquidityRate, &row.FixedVariableBorrowRate, &row.FixedUtilizationRate,
			&observed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan panel row: %w", err)
		}

		row.Hour = int64(hour)
		row.Decimals = int(decimals)
		row.Observed = observed != 0
		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate panel rows: %w", err)
	}

	return result, nil
}
