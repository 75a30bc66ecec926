package matching

import (
	"testing"

	"aave-reserves-lab/internal/domain"
)

func interaction(tx, user, asset string, ts int64, action domain.Action, amount float64) *domain.InteractionEvent {
	return &domain.InteractionEvent{
		TxHash:    tx,
		User:      user,
		Asset:     asset,
		Pool:      "pool",
		Timestamp: ts,
		Action:    action,
		Amount:    amount,
	}
}

func TestCleanInteractionsSignsAmounts(t *testing.T) {
	clean, err := CleanInteractions([]*domain.InteractionEvent{
		interaction("0xa", "alice", "USDC", 100, domain.ActionSupply, 500),
		interaction("0xb", "bob", "USDC", 200, domain.ActionRedeemUnderlying, 200),
		interaction("0xc", "carol", "USDC", 300, domain.ActionBorrow, 100),
		interaction("0xd", "dave", "USDC", 400, domain.ActionRepay, 50),
	})
	if err != nil {
		t.Fatalf("CleanInteractions: %v", err)
	}
	if len(clean) != 4 {
		t.Fatalf("got %d events, want 4", len(clean))
	}

	want := []struct {
		action domain.Action
		a, v   float64
	}{
		{domain.ActionSupply, 500, 0},
		{domain.ActionRedeemUnderlying, -200, 0},
		{domain.ActionBorrow, 0, 100},
		{domain.ActionRepay, 0, -50},
	}
	for i, w := range want {
		if clean[i].Action != w.action || clean[i].AAmount != w.a || clean[i].VAmount != w.v {
			t.Errorf("clean[%d] = (%s, %v, %v), want (%s, %v, %v)",
				i, clean[i].Action, clean[i].AAmount, clean[i].VAmount, w.action, w.a, w.v)
		}
	}
}

func TestCleanInteractionsMergesSharedKey(t *testing.T) {
	// A borrow and a repay inside the same transaction for the same user
	// and reserve collapse into one Multiple event with summed amounts.
	clean, err := CleanInteractions([]*domain.InteractionEvent{
		interaction("0xa", "alice", "USDC", 100, domain.ActionBorrow, 300),
		interaction("0xa", "alice", "USDC", 100, domain.ActionRepay, 100),
	})
	if err != nil {
		t.Fatalf("CleanInteractions: %v", err)
	}
	if len(clean) != 1 {
		t.Fatalf("got %d events, want 1 merged", len(clean))
	}
	if clean[0].Action != domain.ActionMultiple {
		t.Errorf("action = %s, want Multiple", clean[0].Action)
	}
	if clean[0].VAmount != 200 {
		t.Errorf("VAmount = %v, want 200", clean[0].VAmount)
	}
	if clean[0].AAmount != 0 {
		t.Errorf("AAmount = %v, want 0", clean[0].AAmount)
	}
}

func TestCleanInteractionsKeepsDistinctUsers(t *testing.T) {
	// Same transaction, different users: no merge.
	clean, err := CleanInteractions([]*domain.InteractionEvent{
		interaction("0xa", "alice", "USDC", 100, domain.ActionSupply, 1),
		interaction("0xa", "bob", "USDC", 100, domain.ActionSupply, 2),
	})
	if err != nil {
		t.Fatalf("CleanInteractions: %v", err)
	}
	if len(clean) != 2 {
		t.Fatalf("got %d events, want 2", len(clean))
	}
}

func TestCleanInteractionsUnknownAction(t *testing.T) {
	_, err := CleanInteractions([]*domain.InteractionEvent{
		interaction("0xa", "alice", "USDC", 100, "Swap", 1),
	})
	if err == nil {
		t.Fatal("expected error for unknown action")
	}
}
