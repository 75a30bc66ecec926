package domain

// Action is the kind of protocol interaction that produced a balance change.
type Action string

const (
	ActionSupply           Action = "Supply"
	ActionBorrow           Action = "Borrow"
	ActionRepay            Action = "Repay"
	ActionRedeemUnderlying Action = "RedeemUnderlying"

	// Liquidation-derived actions.
	ActionTriggerLiquidation Action = "trigger_liquidation"
	ActionIsLiquidated       Action = "is_liquidated"

	// ActionMultiple marks several interaction events merged into one
	// because they share (txHash, asset, user, timestamp, pool).
	ActionMultiple Action = "Multiple"
)

// InteractionEvent is a raw supply/borrow/repay/redeem event as delivered by
// the upstream indexer, amounts already decimals-scaled.
// Corresponds to interaction_events table in PostgreSQL.
type InteractionEvent struct {
	ID        int64  // BIGSERIAL primary key
	TxHash    string
	User      string
	Asset     string
	Pool      string
	Timestamp int64
	Action    Action  // Supply | Borrow | Repay | RedeemUnderlying
	Amount    float64 // unsigned amount in token units
}

// LiquidationEvent is a raw liquidation call. One call touches two reserves
// (collateral seized, principal repaid) and two users (liquidator, liquidated).
// Corresponds to liquidation_events table in PostgreSQL.
type LiquidationEvent struct {
	ID               int64 // BIGSERIAL primary key
	TxHash           string
	Liquidator       string
	User             string // the liquidated position's owner
	CollateralAsset  string
	PrincipalAsset   string
	Pool             string
	Timestamp        int64
	CollateralAmount float64
	PrincipalAmount  float64
}

// CleanEvent is a deduplicated causal event: at most one exists per
// (TxHash, Asset, User) after cleaning.
type CleanEvent struct {
	TxHash    string
	User      string
	Asset     string
	Pool      string
	Timestamp int64
	Action    Action
	AAmount   float64 // signed supply-side amount: +Supply, -RedeemUnderlying
	VAmount   float64 // signed debt-side amount: +Borrow, -Repay
}

// EventKey is the composite join key shared by balance snapshots and
// clean events.
type EventKey struct {
	TxHash    string
	User      string
	Asset     string
	Timestamp int64
	Pool      string
}

// Key returns the composite join key of the event.
func (e *CleanEvent) Key() EventKey {
	return EventKey{TxHash: e.TxHash, User: e.User, Asset: e.Asset, Timestamp: e.Timestamp, Pool: e.Pool}
}

// Key returns the composite join key of the balance snapshot.
func (b *BalanceSnapshot) Key() EventKey {
	return EventKey{TxHash: b.TxHash, User: b.User, Asset: b.Asset, Timestamp: b.Timestamp, Pool: b.Pool}
}
