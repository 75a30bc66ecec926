package domain

// TokenKind distinguishes the supply side (aTokens) from the debt side
// (vTokens) of a user position.
type TokenKind string

const (
	TokenKindSupply TokenKind = "atoken"
	TokenKindDebt   TokenKind = "vtoken"
)

// BalanceSnapshot is one balance change of a user position, produced by
// exactly one on-chain transaction.
// Corresponds to balance_snapshots table in PostgreSQL.
type BalanceSnapshot struct {
	ID        string    // upstream item id; the tx hash is its tail
	TxHash    string    // transaction that produced the change
	User      string    // user address
	Asset     string    // reserve name
	Pool      string    // pool address
	Timestamp int64     // Unix timestamp in seconds
	Kind      TokenKind // supply side or debt side
	Decimals  int

	ScaledBalance     float64 // principal in scaled units
	CurrentBalance    float64 // principal plus accrued interest
	Index             float64 // ray-scaled reserve index at snapshot time
	CollateralEnabled bool
}

// MatchedBalance is a balance snapshot joined with its causal event.
// Action is empty when no event matched.
type MatchedBalance struct {
	BalanceSnapshot
	Action  Action
	AAmount float64 // signed supply-side amount from the matched event
	VAmount float64 // signed debt-side amount from the matched event
}
