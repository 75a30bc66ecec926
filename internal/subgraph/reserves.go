package subgraph

import (
	"context"
	"fmt"
	"strconv"

	"aave-reserves-lab/internal/domain"
)

// reserveHistoryItem is the wire shape of one reserveParamsHistoryItems row.
// Numeric fields arrive as base-10 integer strings in fixed-point encoding.
type reserveHistoryItem struct {
	Reserve struct {
		Name     string `json:"name"`
		Decimals int    `json:"decimals"`
		Pool     *struct {
			Pool string `json:"pool"`
		} `json:"pool"`
	} `json:"reserve"`
	Timestamp                int64  `json:"timestamp"`
	VariableBorrowRate       string `json:"variableBorrowRate"`
	VariableBorrowIndex      string `json:"variableBorrowIndex"`
	StableBorrowRate         string `json:"stableBorrowRate"`
	AverageStableBorrowRate  string `json:"averageStableBorrowRate"`
	LiquidityIndex           string `json:"liquidityIndex"`
	LiquidityRate            string `json:"liquidityRate"`
	TotalLiquidity           string `json:"totalLiquidity"`
	TotalATokenSupply        string `json:"totalATokenSupply"`
	AvailableLiquidity       string `json:"availableLiquidity"`
	TotalCurrentVariableDebt string `json:"totalCurrentVariableDebt"`
	TotalScaledVariableDebt  string `json:"totalScaledVariableDebt"`
	TotalPrincipalStableDebt string `json:"totalPrincipalStableDebt"`
	UtilizationRate          string `json:"utilizationRate"`
	AccruedToTreasury        string `json:"accruedToTreasury"`
	PriceInEth               string `json:"priceInEth"`
	PriceInUsd               string `json:"priceInUsd"`
}

// FetchReserveHistory pages through the reserve history of the window
// (timestampMin, timestampMax), converting every row to domain units.
func (c *Client) FetchReserveHistory(ctx context.Context, version domain.Version, timestampMin, timestampMax int64) ([]*domain.ReserveSnapshot, error) {
	var result []*domain.ReserveSnapshot

	err := c.fetchPages(ctx, "reserveParamsHistoryItems", func(offset int) (int, error) {
		query := reserveHistoryQuery(version, c.pageSize, offset, timestampMin, timestampMax)

		var page struct {
			Items []reserveHistoryItem `json:"reserveParamsHistoryItems"`
		}
		if err := c.runQuery(ctx, query, &page); err != nil {
			return 0, err
		}

		for _, item := range page.Items {
			snap, err := decodeReserveItem(&item, version)
			if err != nil {
				return 0, err
			}
			result = append(result, snap)
		}
		return len(page.Items), nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch reserve history: %w", err)
	}
	return result, nil
}

// decodeReserveItem converts a wire row into domain units: 10^decimals for
// token amounts, ray (10^27) for indices and rates.
func decodeReserveItem(item *reserveHistoryItem, version domain.Version) (*domain.ReserveSnapshot, error) {
	if item.Reserve.Name == "" {
		return nil, fmt.Errorf("reserve item at timestamp %d has no reserve name", item.Timestamp)
	}
	decimals := item.Reserve.Decimals

	snap := &domain.ReserveSnapshot{
		Asset:     item.Reserve.Name,
		Timestamp: item.Timestamp,
		Decimals:  decimals,
	}
	if item.Reserve.Pool != nil {
		snap.Pool = item.Reserve.Pool.Pool
	}

	utilization, err := strconv.ParseFloat(item.UtilizationRate, 64)
	if err != nil {
		return nil, fmt.Errorf("parse utilizationRate=%q: %w", item.UtilizationRate, err)
	}
	snap.UtilizationRate = utilization

	rays := []struct {
		field string
		src   string
		dst   *float64
	}{
		{"liquidityIndex", item.LiquidityIndex, &snap.LiquidityIndex},
		{"variableBorrowIndex", item.VariableBorrowIndex, &snap.VariableBorrowIndex},
		{"liquidityRate", item.LiquidityRate, &snap.LiquidityRate},
		{"variableBorrowRate", item.VariableBorrowRate, &snap.VariableBorrowRate},
		{"stableBorrowRate", item.StableBorrowRate, &snap.StableBorrowRate},
		{"averageStableBorrowRate", item.AverageStableBorrowRate, &snap.AverageStableBorrowRate},
	}
	for _, r := range rays {
		v, err := parseRay(r.field, r.src)
		if err != nil {
			return nil, err
		}
		*r.dst = v
	}

	amounts := []struct {
		field string
		src   string
		dst   *float64
	}{
		{"totalLiquidity", item.TotalLiquidity, &snap.TotalLiquidity},
		{"totalATokenSupply", item.TotalATokenSupply, &snap.TotalATokenSupply},
		{"availableLiquidity", item.AvailableLiquidity, &snap.AvailableLiquidity},
		{"totalCurrentVariableDebt", item.TotalCurrentVariableDebt, &snap.TotalCurrentVariableDebt},
		{"totalScaledVariableDebt", item.TotalScaledVariableDebt, &snap.TotalScaledVariableDebt},
		{"totalPrincipalStableDebt", item.TotalPrincipalStableDebt, &snap.TotalPrincipalStableDebt},
	}
	for _, a := range amounts {
		v, err := parseAmount(a.field, a.src, decimals)
		if err != nil {
			return nil, err
		}
		*a.dst = v
	}

	if version.HasTreasury() {
		v, err := parseAmount("accruedToTreasury", item.AccruedToTreasury, decimals)
		if err != nil {
			return nil, err
		}
		snap.AccruedToTreasury = v
	}

	if snap.PriceInEth, err = parseRaw("priceInEth", item.PriceInEth); err != nil {
		return nil, err
	}
	if snap.PriceInUsd, err = parseRaw("priceInUsd", item.PriceInUsd); err != nil {
		return nil, err
	}
	return snap, nil
}

// reserveHistoryQuery renders the reserve history query. The v2 deployment
// has neither pool addresses nor treasury accrual.
func reserveHistoryQuery(version domain.Version, size, offset int, timestampMin, timestampMax int64) string {
	poolField := ""
	treasuryField := ""
	if version.HasTreasury() {
		poolField = "pool { pool }\n"
		treasuryField = "accruedToTreasury\n"
	}
	return fmt.Sprintf(`{
		reserveParamsHistoryItems(
			first: %d,
			skip: %d,
			where: { timestamp_gt: %d, timestamp_lt: %d }
		) {
			reserve {
				name
				%sdecimals
			}
			timestamp
			variableBorrowRate
			variableBorrowIndex
			stableBorrowRate
			averageStableBorrowRate
			liquidityIndex
			liquidityRate
			totalLiquidity
			totalATokenSupply
			availableLiquidity
			totalCurrentVariableDebt
			totalScaledVariableDebt
			totalPrincipalStableDebt
			utilizationRate
			%spriceInEth
			priceInUsd
		}
	}`, size, offset, timestampMin, timestampMax, poolField, treasuryField)
}
