package domain

// HourSeconds is the resampling granularity.
const HourSeconds = 3600

// RegularRow is one row of the gap-filled hourly panel.
// Corresponds to reserve_panel table in ClickHouse.
type RegularRow struct {
	Asset string
	Hour  int64 // Unix timestamp in seconds, aligned to the hour grid

	Decimals int
	Pool     string

	LiquidityIndex      float64
	VariableBorrowIndex float64

	LiquidityRate           float64
	VariableBorrowRate      float64
	StableBorrowRate        float64
	AverageStableBorrowRate float64
	UtilizationRate         float64

	TotalLiquidity           float64
	TotalATokenSupply        float64
	AvailableLiquidity       float64
	TotalCurrentVariableDebt float64
	TotalScaledVariableDebt  float64
	TotalPrincipalStableDebt float64
	AccruedToTreasury        float64

	PriceInEth float64
	PriceInUsd float64

	// Consolidated columns produced by the outlier correction pass.
	FixedLiquidityIndex      float64
	FixedVariableBorrowIndex float64
	FixedLiquidityRate       float64
	FixedVariableBorrowRate  float64
	FixedUtilizationRate     float64

	// Observed is true only when a genuine snapshot exists at exactly
	// this hour; forward-filled rows carry false.
	Observed bool
}

// FloorHour truncates a Unix timestamp (seconds) down to its hour bucket.
func FloorHour(ts int64) int64 {
	return ts - ts%HourSeconds
}
