package matching

import "aave-reserves-lab/internal/domain"

// CleanLiquidations expands raw liquidation calls into per-user, per-reserve
// causal events. One call touches the liquidator and the liquidated user on
// both the collateral and the principal reserve, so each raw event yields up
// to four rows (exact duplicates are removed, e.g. when collateral and
// principal are the same reserve). No liquidation amounts are attached: the
// rows exist to explain balance changes, not to account for them.
func CleanLiquidations(events []*domain.LiquidationEvent) []*domain.CleanEvent {
	seen := make(map[domain.EventKey]bool, 4*len(events))
	var result []*domain.CleanEvent

	add := func(e *domain.LiquidationEvent, user, asset string, action domain.Action) {
		k := domain.EventKey{TxHash: e.TxHash, User: user, Asset: asset, Timestamp: e.Timestamp, Pool: e.Pool}
		if seen[k] {
			return
		}
		seen[k] = true
		result = append(result, &domain.CleanEvent{
			TxHash:    e.TxHash,
			User:      user,
			Asset:     asset,
			Pool:      e.Pool,
			Timestamp: e.Timestamp,
			Action:    action,
		})
	}

	for _, e := range events {
		add(e, e.Liquidator, e.CollateralAsset, domain.ActionTriggerLiquidation)
		add(e, e.Liquidator, e.PrincipalAsset, domain.ActionTriggerLiquidation)
		add(e, e.User, e.CollateralAsset, domain.ActionIsLiquidated)
		add(e, e.User, e.PrincipalAsset, domain.ActionIsLiquidated)
	}
	return result
}
