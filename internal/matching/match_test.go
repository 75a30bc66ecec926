package matching

import (
	"testing"

	"aave-reserves-lab/internal/domain"
)

func balance(id, tx, user, asset string, ts int64) *domain.BalanceSnapshot {
	return &domain.BalanceSnapshot{
		ID: id, TxHash: tx, User: user, Asset: asset, Pool: "pool", Timestamp: ts,
		Kind: domain.TokenKindSupply,
	}
}

func TestMatchLeftJoin(t *testing.T) {
	balances := []*domain.BalanceSnapshot{
		balance("b1", "0xa", "alice", "USDC", 100),
		balance("b2", "0xb", "bob", "USDC", 200),
	}
	events := Combine([]*domain.CleanEvent{
		{TxHash: "0xa", User: "alice", Asset: "USDC", Pool: "pool", Timestamp: 100,
			Action: domain.ActionSupply, AAmount: 500},
	}, nil)

	rows, err := Match(balances, events)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want one per balance", len(rows))
	}
	if rows[0].Action != domain.ActionSupply || rows[0].AAmount != 500 {
		t.Errorf("rows[0] = (%s, %v), want (Supply, 500)", rows[0].Action, rows[0].AAmount)
	}
	if rows[1].Action != "" {
		t.Errorf("rows[1].Action = %s, want empty for the unmatched balance", rows[1].Action)
	}
	if got := UnmatchedRatio(rows); got != 0.5 {
		t.Errorf("UnmatchedRatio = %v, want 0.5", got)
	}
}

func TestMatchEmptyEvents(t *testing.T) {
	balances := []*domain.BalanceSnapshot{
		balance("b1", "0xa", "alice", "USDC", 100),
	}
	rows, err := Match(balances, Combine(nil, nil))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1: the join is a left join", len(rows))
	}
	if got := UnmatchedRatio(rows); got != 1.0 {
		t.Errorf("UnmatchedRatio = %v, want 1.0", got)
	}
}

func TestUnmatchedRatioEmpty(t *testing.T) {
	if got := UnmatchedRatio(nil); got != 0 {
		t.Errorf("UnmatchedRatio(nil) = %v, want 0", got)
	}
}

func TestCheckBalanceIDs(t *testing.T) {
	if err := CheckBalanceIDs([]*domain.BalanceSnapshot{
		balance("b1", "0xa", "alice", "USDC", 100),
		balance("b2", "0xb", "bob", "USDC", 200),
	}); err != nil {
		t.Fatalf("CheckBalanceIDs: %v", err)
	}

	err := CheckBalanceIDs([]*domain.BalanceSnapshot{
		balance("b1", "0xa", "alice", "USDC", 100),
		balance("b1", "0xb", "bob", "USDC", 200),
	})
	if err == nil {
		t.Fatal("expected error for duplicate balance id")
	}
}
