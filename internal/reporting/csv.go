package reporting

import (
	"fmt"
	"strings"
	"time"

	"aave-reserves-lab/internal/domain"
)

// PanelHeader is the column order of the panel CSV.
const PanelHeader = "regular_datetime,reserve_name,reserve_decimals,liquidityIndex,variableBorrowIndex," +
	"liquidityRate,variableBorrowRate,stableBorrowRate,averageStableBorrowRate,utilizationRate," +
	"totalLiquidity,totalATokenSupply,availableLiquidity,totalCurrentVariableDebt," +
	"totalScaledVariableDebt,totalPrincipalStableDebt,accruedToTreasury,priceInEth,priceInUsd," +
	"fixed_liquidityIndex,fixed_variableBorrowIndex,fixed_liquidityRate,fixed_variableBorrowRate," +
	"fixed_utilizationRate,true_value"

// RenderPanelCSV renders gap-filled panel rows as a CSV string.
func RenderPanelCSV(rows []*domain.RegularRow) string {
	var sb strings.Builder

	sb.WriteString(PanelHeader)
	sb.WriteByte('\n')

	for _, r := range rows {
		observed := 0
		if r.Observed {
			observed = 1
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.12f,%.12f,%.12f,%.12f,%.12f,%.12f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.0f,%.6f,%.12f,%.12f,%.12f,%.12f,%.6f,%d\n",
			formatHour(r.Hour),
			r.Asset,
			r.Decimals,
			r.LiquidityIndex,
			r.VariableBorrowIndex,
			r.LiquidityRate,
			r.VariableBorrowRate,
			r.StableBorrowRate,
			r.AverageStableBorrowRate,
			r.UtilizationRate,
			r.TotalLiquidity,
			r.TotalATokenSupply,
			r.AvailableLiquidity,
			r.TotalCurrentVariableDebt,
			r.TotalScaledVariableDebt,
			r.TotalPrincipalStableDebt,
			r.AccruedToTreasury,
			r.PriceInEth,
			r.PriceInUsd,
			r.FixedLiquidityIndex,
			r.FixedVariableBorrowIndex,
			r.FixedLiquidityRate,
			r.FixedVariableBorrowRate,
			r.FixedUtilizationRate,
			observed,
		))
	}

	return sb.String()
}

// RenderMatchedBalancesCSV renders balance snapshots joined with their
// causal events as a CSV string.
func RenderMatchedBalancesCSV(rows []*domain.MatchedBalance) string {
	var sb strings.Builder

	sb.WriteString("id,txHash,user_address,reserve_name,pool,timestamp,token_kind," +
		"scaled_balance,current_balance,index,usage_as_collateral_enabled,action,a_amount,v_amount\n")

	for _, r := range rows {
		collateral := 0
		if r.CollateralEnabled {
			collateral = 1
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%d,%s,%.12f,%.12f,%.12f,%d,%s,%.12f,%.12f\n",
			r.ID,
			r.TxHash,
			r.User,
			r.Asset,
			r.Pool,
			r.Timestamp,
			r.Kind,
			r.ScaledBalance,
			r.CurrentBalance,
			r.Index,
			collateral,
			r.Action,
			r.AAmount,
			r.VAmount,
		))
	}

	return sb.String()
}

// formatHour renders an hour-aligned Unix timestamp as a UTC datetime.
func formatHour(hour int64) string {
	return time.Unix(hour, 0).UTC().Format("2006-01-02 15:04:05")
}
