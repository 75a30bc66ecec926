package matching

import (
	"fmt"

	"aave-reserves-lab/internal/domain"
)

// Combine merges the clean interaction and liquidation event tables into one
// lookup keyed by (txHash, user, asset, timestamp, pool). When both an
// interaction and a liquidation share a key, the liquidation wins: the
// liquidation is the balance change's real cause.
func Combine(interactions, liquidations []*domain.CleanEvent) map[domain.EventKey]*domain.CleanEvent {
	combined := make(map[domain.EventKey]*domain.CleanEvent, len(interactions)+len(liquidations))
	for _, e := range liquidations {
		combined[e.Key()] = e
	}
	for _, e := range interactions {
		if _, taken := combined[e.Key()]; taken {
			continue
		}
		combined[e.Key()] = e
	}
	return combined
}

// Match left-joins balance snapshots with their causal events. The output
// always has exactly one row per balance snapshot: the combined event table
// holds at most one event per key, so a fan-out is impossible by
// construction, and the row-count post-condition is still asserted to guard
// against upstream cleaning bugs.
//
// A balance with no matching event keeps an empty Action; callers report
// the unmatched fraction (UnmatchedRatio) as a metric, not an error.
func Match(balances []*domain.BalanceSnapshot, events map[domain.EventKey]*domain.CleanEvent) ([]*domain.MatchedBalance, error) {
	result := make([]*domain.MatchedBalance, 0, len(balances))
	for _, b := range balances {
		row := &domain.MatchedBalance{BalanceSnapshot: *b}
		if e, ok := events[b.Key()]; ok {
			row.Action = e.Action
			row.AAmount = e.AAmount
			row.VAmount = e.VAmount
		}
		result = append(result, row)
	}
	if len(result) != len(balances) {
		return nil, fmt.Errorf("matching: join changed cardinality: %d balances, %d rows", len(balances), len(result))
	}
	return result, nil
}

// UnmatchedRatio is the fraction of matched rows with no causal event.
func UnmatchedRatio(rows []*domain.MatchedBalance) float64 {
	if len(rows) == 0 {
		return 0
	}
	unmatched := 0
	for _, r := range rows {
		if r.Action == "" {
			unmatched++
		}
	}
	return float64(unmatched) / float64(len(rows))
}

// CheckBalanceIDs verifies the one-balance-change-per-transaction invariant:
// no two balance snapshots may share an upstream id.
func CheckBalanceIDs(balances []*domain.BalanceSnapshot) error {
	seen := make(map[string]bool, len(balances))
	for _, b := range balances {
		if seen[b.ID] {
			return fmt.Errorf("matching: balance snapshot id %s appears in several rows", b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}
