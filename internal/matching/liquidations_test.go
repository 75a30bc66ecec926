package matching

import (
	"testing"

	"aave-reserves-lab/internal/domain"
)

func TestCleanLiquidationsExpandsFourRows(t *testing.T) {
	clean := CleanLiquidations([]*domain.LiquidationEvent{
		{
			TxHash:          "0xliq",
			Liquidator:      "larry",
			User:            "victim",
			CollateralAsset: "WETH",
			PrincipalAsset:  "USDC",
			Pool:            "pool",
			Timestamp:       100,
		},
	})
	if len(clean) != 4 {
		t.Fatalf("got %d rows, want 4", len(clean))
	}

	byKey := make(map[domain.EventKey]domain.Action, len(clean))
	for _, e := range clean {
		byKey[e.Key()] = e.Action
	}
	check := func(user, asset string, want domain.Action) {
		t.Helper()
		k := domain.EventKey{TxHash: "0xliq", User: user, Asset: asset, Timestamp: 100, Pool: "pool"}
		if byKey[k] != want {
			t.Errorf("(%s, %s) action = %s, want %s", user, asset, byKey[k], want)
		}
	}
	check("larry", "WETH", domain.ActionTriggerLiquidation)
	check("larry", "USDC", domain.ActionTriggerLiquidation)
	check("victim", "WETH", domain.ActionIsLiquidated)
	check("victim", "USDC", domain.ActionIsLiquidated)
}

func TestCleanLiquidationsDedupesSameReserve(t *testing.T) {
	// Collateral and principal on the same reserve: two rows, not four.
	clean := CleanLiquidations([]*domain.LiquidationEvent{
		{
			TxHash:          "0xliq",
			Liquidator:      "larry",
			User:            "victim",
			CollateralAsset: "USDC",
			PrincipalAsset:  "USDC",
			Pool:            "pool",
			Timestamp:       100,
		},
	})
	if len(clean) != 2 {
		t.Fatalf("got %d rows, want 2", len(clean))
	}
}

func TestCombineLiquidationWins(t *testing.T) {
	shared := &domain.CleanEvent{
		TxHash: "0xa", User: "alice", Asset: "USDC", Pool: "pool", Timestamp: 100,
		Action: domain.ActionSupply, AAmount: 500,
	}
	liq := &domain.CleanEvent{
		TxHash: "0xa", User: "alice", Asset: "USDC", Pool: "pool", Timestamp: 100,
		Action: domain.ActionIsLiquidated,
	}
	other := &domain.CleanEvent{
		TxHash: "0xb", User: "bob", Asset: "USDC", Pool: "pool", Timestamp: 200,
		Action: domain.ActionBorrow, VAmount: 10,
	}

	combined := Combine([]*domain.CleanEvent{shared, other}, []*domain.CleanEvent{liq})
	if len(combined) != 2 {
		t.Fatalf("got %d combined events, want 2", len(combined))
	}
	if combined[shared.Key()].Action != domain.ActionIsLiquidated {
		t.Errorf("shared key action = %s, want the liquidation", combined[shared.Key()].Action)
	}
	if combined[other.Key()].Action != domain.ActionBorrow {
		t.Errorf("unshared key action = %s, want Borrow", combined[other.Key()].Action)
	}
}
