// Package quality scores a completed asset-month panel. Structural problems
// (wrong month length, duplicate rows) are reported as a typed Failure so
// callers can tell them apart from a merely low score.
package quality

import "fmt"

// PassThreshold is the composite score above which a panel passes.
const PassThreshold = 0.95

// equilibriumBand is the tolerated relative distance of the balance-sheet
// equilibrium from zero.
const equilibriumBand = 0.05

// Failure is a fatal, structural defect of a panel. A Failure aborts the
// asset-month; a low Report.Score does not.
type Failure struct {
	Asset  string
	Reason string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("quality check failed for %s: %s", f.Asset, f.Reason)
}

// Report is the non-fatal outcome of scoring a panel.
type Report struct {
	Asset  string
	Passed bool    // Score > PassThreshold
	Score  float64 // composite score in [0, 1]

	IndexScore   float64
	RateScore    float64
	BalanceScore float64 // only meaningful when HasBalance
	HasBalance   bool    // version exposes treasury accrual
}
