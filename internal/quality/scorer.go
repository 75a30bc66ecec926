package quality

import (
	"fmt"
	"math"

	"aave-reserves-lab/internal/domain"
)

// validMonthLengths are the admissible panel sizes: a full month of hours.
var validMonthLengths = map[int]bool{
	28 * 24: true,
	29 * 24: true,
	30 * 24: true,
	31 * 24: true,
}

// Score checks one asset's completed one-month panel.
//
// Fatal preconditions return a *Failure: the row count must equal one of the
// four valid month lengths and no (asset, hour) pair may repeat. Otherwise
// the composite score is the unweighted mean of the applicable sub-scores,
// each the fraction of rows satisfying its predicate:
//
//   - index: variableBorrowIndex equals its running max and is >= 1,
//     averaged with the same check on liquidityIndex
//   - rate: variableBorrowRate in [0, 1], averaged with liquidityRate
//   - balance (treasury-exposing versions only): the balance-sheet
//     equilibrium is within 5% of totalATokenSupply + accruedToTreasury
func Score(rows []*domain.RegularRow, version domain.Version) (*Report, error) {
	if len(rows) == 0 {
		return nil, &Failure{Reason: "empty panel"}
	}
	asset := rows[0].Asset

	if !validMonthLengths[len(rows)] {
		return nil, &Failure{Asset: asset, Reason: fmt.Sprintf("invalid panel length %d", len(rows))}
	}
	seen := make(map[int64]bool, len(rows))
	for _, r := range rows {
		if r.Asset != asset {
			return nil, &Failure{Asset: asset, Reason: fmt.Sprintf("panel mixes assets %s and %s", asset, r.Asset)}
		}
		if seen[r.Hour] {
			return nil, &Failure{Asset: asset, Reason: fmt.Sprintf("duplicate row for hour %d", r.Hour)}
		}
		seen[r.Hour] = true
	}

	report := &Report{Asset: asset, HasBalance: version.HasTreasury()}

	borrowOK, liquidityOK := 0, 0
	borrowMax, liquidityMax := math.Inf(-1), math.Inf(-1)
	for _, r := range rows {
		if r.VariableBorrowIndex > borrowMax {
			borrowMax = r.VariableBorrowIndex
		}
		if r.VariableBorrowIndex == borrowMax && r.VariableBorrowIndex >= 1 {
			borrowOK++
		}
		if r.LiquidityIndex > liquidityMax {
			liquidityMax = r.LiquidityIndex
		}
		if r.LiquidityIndex == liquidityMax && r.LiquidityIndex >= 1 {
			liquidityOK++
		}
	}
	report.IndexScore = (fraction(borrowOK, len(rows)) + fraction(liquidityOK, len(rows))) / 2

	borrowRateOK, liquidityRateOK := 0, 0
	for _, r := range rows {
		if r.VariableBorrowRate >= 0 && r.VariableBorrowRate <= 1 {
			borrowRateOK++
		}
		if r.LiquidityRate >= 0 && r.LiquidityRate <= 1 {
			liquidityRateOK++
		}
	}
	report.RateScore = (fraction(borrowRateOK, len(rows)) + fraction(liquidityRateOK, len(rows))) / 2

	if report.HasBalance {
		balanceOK := 0
		for _, r := range rows {
			supply := r.TotalATokenSupply + r.AccruedToTreasury
			equilibrium := supply - r.AvailableLiquidity - r.TotalCurrentVariableDebt
			if math.Abs(equilibrium) <= equilibriumBand*supply {
				balanceOK++
			}
		}
		report.BalanceScore = fraction(balanceOK, len(rows))
		report.Score = (report.IndexScore + report.RateScore + report.BalanceScore) / 3
	} else {
		report.Score = (report.IndexScore + report.RateScore) / 2
	}

	report.Passed = report.Score > PassThreshold
	return report, nil
}

func fraction(n, total int) float64 {
	return float64(n) / float64(total)
}
