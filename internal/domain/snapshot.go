package domain

// ReserveSnapshot is one observation of a reserve's state, already converted
// from the fixed-point wire encoding to float64 units.
// Corresponds to reserve_snapshots table in PostgreSQL.
type ReserveSnapshot struct {
	ID        int64  // BIGSERIAL primary key
	Asset     string // reserve name, e.g. "Dai Stablecoin"
	Pool      string // pool address (empty on protocol v2)
	Timestamp int64  // Unix timestamp in seconds; several snapshots may share one
	Decimals  int    // token decimals used for amount scaling

	// Monotonic cumulative indices (ray-scaled on the wire).
	LiquidityIndex      float64
	VariableBorrowIndex float64

	// Rates (ray-scaled on the wire).
	LiquidityRate           float64
	VariableBorrowRate      float64
	StableBorrowRate        float64
	AverageStableBorrowRate float64
	UtilizationRate         float64

	// Amounts (decimals-scaled on the wire).
	TotalLiquidity           float64
	TotalATokenSupply        float64
	AvailableLiquidity       float64
	TotalCurrentVariableDebt float64
	TotalScaledVariableDebt  float64
	TotalPrincipalStableDebt float64
	AccruedToTreasury        float64 // protocol v3 only

	PriceInEth float64
	PriceInUsd float64
}

// Key identifies a snapshot for exact-duplicate removal: two rows with the
// same key and the same field values are the same upstream item re-delivered.
func (s *ReserveSnapshot) Key() SnapshotKey {
	return SnapshotKey{Asset: s.Asset, Timestamp: s.Timestamp}
}

// SnapshotKey groups snapshots by (asset, timestamp).
type SnapshotKey struct {
	Asset     string
	Timestamp int64
}

// Version identifies the protocol deployment a dataset comes from.
type Version string

const (
	// V2 has no treasury accrual and needs index-validated resampling
	// because its indexer occasionally reorders snapshots.
	V2 Version = "v2"
	// V3 exposes accruedToTreasury and keeps snapshots in order.
	V3 Version = "v3"
)

// HasTreasury reports whether the version exposes treasury accrual, which
// enables the balance-equilibrium quality sub-score.
func (v Version) HasTreasury() bool {
	return v == V3
}
