// Package correction repairs monotonicity violations in cumulative reserve
// indices. Three strategies exist because index corruption in upstream data
// is bursty: a global cummax never un-freezes after a large early outlier,
// a purely local check misses multi-point drift, and the day-windowed fence
// re-anchors once per day.
package correction

import "fmt"

// Strategy names accepted by New.
const (
	StrategyCummax    = "cummax"
	StrategyDayWindow = "daywindow"
	StrategyLocal     = "local"
)

// Strategy fixes a time-ordered series of one monotonic index column.
type Strategy interface {
	// Name returns the strategy identifier used in configuration.
	Name() string

	// Fix returns the corrected series. times carries the Unix timestamp
	// (seconds) of each value; both slices have equal length and the
	// input is ordered by time. The input slices are not modified.
	Fix(times []int64, values []float64) []float64
}

// New creates a correction strategy by name.
func New(name string) (Strategy, error) {
	switch name {
	case StrategyCummax:
		return &Cummax{}, nil
	case StrategyDayWindow:
		return NewDayWindow(), nil
	case StrategyLocal:
		return &Local{}, nil
	default:
		return nil, fmt.Errorf("unknown correction strategy: %q", name)
	}
}
