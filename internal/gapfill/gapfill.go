// Package gapfill expands resampled snapshots onto a contiguous hourly grid,
// forward-filling missing hours per asset.
package gapfill

import (
	"fmt"
	"sort"

	"aave-reserves-lab/internal/domain"
)

// Fill aligns every asset onto the same global [min hour, max hour] grid and
// forward-fills each missing hour from the last observation at or before it.
// Input rows must already be hourly (one per asset and hour, see package
// resample);
// a duplicate (asset, hour) pair is a fatal precondition failure.
//
// Hours before an asset's first observation stay zero-valued with
// Observed=false: the boundary condition is accepted, not corrected.
func Fill(snapshots []*domain.ReserveSnapshot) ([]*domain.RegularRow, error) {
	if len(snapshots) == 0 {
		return nil, nil
	}

	start := domain.FloorHour(snapshots[0].Timestamp)
	end := start
	byAsset := make(map[string]map[int64]*domain.ReserveSnapshot)
	var assets []string
	for _, snap := range snapshots {
		hour := domain.FloorHour(snap.Timestamp)
		if hour < start {
			start = hour
		}
		if hour > end {
			end = hour
		}
		hours, ok := byAsset[snap.Asset]
		if !ok {
			hours = make(map[int64]*domain.ReserveSnapshot)
			byAsset[snap.Asset] = hours
			assets = append(assets, snap.Asset)
		}
		if _, dup := hours[hour]; dup {
			return nil, fmt.Errorf("gapfill: asset %s has multiple rows for hour %d", snap.Asset, hour)
		}
		hours[hour] = snap
	}
	sort.Strings(assets)

	var result []*domain.RegularRow
	for _, asset := range assets {
		hours := byAsset[asset]
		var last *domain.ReserveSnapshot
		for hour := start; hour <= end; hour += domain.HourSeconds {
			snap, observed := hours[hour]
			if observed {
				last = snap
			}
			row := &domain.RegularRow{Asset: asset, Hour: hour, Observed: observed}
			if last != nil {
				copyFields(row, last)
			}
			result = append(result, row)
		}
	}
	return result, nil
}

// copyFields carries every non-key snapshot field onto the panel row.
func copyFields(row *domain.RegularRow, snap *domain.ReserveSnapshot) {
	row.Decimals = snap.Decimals
	row.Pool = snap.Pool
	row.LiquidityIndex = snap.LiquidityIndex
	row.VariableBorrowIndex = snap.VariableBorrowIndex
	row.LiquidityRate = snap.LiquidityRate
	row.VariableBorrowRate = snap.VariableBorrowRate
	row.StableBorrowRate = snap.StableBorrowRate
	row.AverageStableBorrowRate = snap.AverageStableBorrowRate
	row.UtilizationRate = snap.UtilizationRate
	row.TotalLiquidity = snap.TotalLiquidity
	row.TotalATokenSupply = snap.TotalATokenSupply
	row.AvailableLiquidity = snap.AvailableLiquidity
	row.TotalCurrentVariableDebt = snap.TotalCurrentVariableDebt
	row.TotalScaledVariableDebt = snap.TotalScaledVariableDebt
	row.TotalPrincipalStableDebt = snap.TotalPrincipalStableDebt
	row.AccruedToTreasury = snap.AccruedToTreasury
	row.PriceInEth = snap.PriceInEth
	row.PriceInUsd = snap.PriceInUsd
}
