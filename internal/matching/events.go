// Package matching attaches causal protocol events to balance snapshots.
package matching

import (
	"fmt"

	"aave-reserves-lab/internal/domain"
)

// CleanInteractions reduces raw interaction events to at most one logical
// event per (txHash, asset, user).
//
// Each event first receives its signed amounts: AAmount is +amount for
// Supply and -amount for RedeemUnderlying, VAmount is +amount for Borrow and
// -amount for Repay. Events sharing (txHash, asset, user, timestamp, pool)
// are then merged into a single Multiple event whose signed amounts are the
// sums. No transaction hash may be lost by the merge.
func CleanInteractions(events []*domain.InteractionEvent) ([]*domain.CleanEvent, error) {
	counts := make(map[domain.EventKey]int, len(events))
	for _, e := range events {
		counts[key(e)]++
	}

	merged := make(map[domain.EventKey]*domain.CleanEvent)
	var result []*domain.CleanEvent
	for _, e := range events {
		a, v, err := signedAmounts(e)
		if err != nil {
			return nil, err
		}
		k := key(e)
		if counts[k] == 1 {
			result = append(result, &domain.CleanEvent{
				TxHash:    e.TxHash,
				User:      e.User,
				Asset:     e.Asset,
				Pool:      e.Pool,
				Timestamp: e.Timestamp,
				Action:    e.Action,
				AAmount:   a,
				VAmount:   v,
			})
			continue
		}
		m, ok := merged[k]
		if !ok {
			m = &domain.CleanEvent{
				TxHash:    e.TxHash,
				User:      e.User,
				Asset:     e.Asset,
				Pool:      e.Pool,
				Timestamp: e.Timestamp,
				Action:    domain.ActionMultiple,
			}
			merged[k] = m
			result = append(result, m)
		}
		m.AAmount += a
		m.VAmount += v
	}

	if err := checkNoLoss(events, result); err != nil {
		return nil, err
	}
	return result, nil
}

// signedAmounts maps an action to its supply-side and debt-side signs.
// An unknown action is a programming error and raises immediately.
func signedAmounts(e *domain.InteractionEvent) (a, v float64, err error) {
	switch e.Action {
	case domain.ActionSupply:
		return e.Amount, 0, nil
	case domain.ActionRedeemUnderlying:
		return -e.Amount, 0, nil
	case domain.ActionBorrow:
		return 0, e.Amount, nil
	case domain.ActionRepay:
		return 0, -e.Amount, nil
	default:
		return 0, 0, fmt.Errorf("matching: unknown interaction action %q in tx %s", e.Action, e.TxHash)
	}
}

// checkNoLoss verifies post-conditions of the merge: at most one clean event
// per (txHash, asset, user), and every input transaction hash survives.
func checkNoLoss(events []*domain.InteractionEvent, clean []*domain.CleanEvent) error {
	type userKey struct {
		TxHash, Asset, User string
	}
	seen := make(map[userKey]bool, len(clean))
	outHashes := make(map[string]bool, len(clean))
	for _, e := range clean {
		k := userKey{TxHash: e.TxHash, Asset: e.Asset, User: e.User}
		if seen[k] {
			return fmt.Errorf("matching: multiple clean events for tx %s asset %s user %s", e.TxHash, e.Asset, e.User)
		}
		seen[k] = true
		outHashes[e.TxHash] = true
	}
	for _, e := range events {
		if !outHashes[e.TxHash] {
			return fmt.Errorf("matching: tx %s dropped during event cleaning", e.TxHash)
		}
	}
	return nil
}

func key(e *domain.InteractionEvent) domain.EventKey {
	return domain.EventKey{TxHash: e.TxHash, User: e.User, Asset: e.Asset, Timestamp: e.Timestamp, Pool: e.Pool}
}
