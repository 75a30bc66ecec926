package correction

import "aave-reserves-lab/internal/domain"

// FixAsset fills the Fixed* columns of one asset's panel rows in place.
// rows must be time-ordered and belong to a single asset. Indices run
// through the strategy; rates are clipped to [0, 1].
//
// Returns how many index values the strategy changed, as an observability
// figure for the run log.
func FixAsset(rows []*domain.RegularRow, strat Strategy) int {
	times := make([]int64, len(rows))
	liq := make([]float64, len(rows))
	bor := make([]float64, len(rows))
	for i, r := range rows {
		times[i] = r.Hour
		liq[i] = r.LiquidityIndex
		bor[i] = r.VariableBorrowIndex
	}

	// The panel contract requires non-decreasing fixed indices no matter
	// which strategy ran: a final running max seals any dip the strategy
	// accepted as in-fence.
	var seal Cummax
	fixedLiq := seal.Fix(times, strat.Fix(times, liq))
	fixedBor := seal.Fix(times, strat.Fix(times, bor))

	changed := 0
	for i, r := range rows {
		if fixedLiq[i] != r.LiquidityIndex {
			changed++
		}
		if fixedBor[i] != r.VariableBorrowIndex {
			changed++
		}
		r.FixedLiquidityIndex = fixedLiq[i]
		r.FixedVariableBorrowIndex = fixedBor[i]
		r.FixedLiquidityRate = clip01(r.LiquidityRate)
		r.FixedVariableBorrowRate = clip01(r.VariableBorrowRate)
		r.FixedUtilizationRate = clip01(r.UtilizationRate)
	}
	return changed
}

// clip01 caps a rate into [0, 1].
func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
