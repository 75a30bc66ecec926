package correction

import (
	"math"
	"sort"
)

// Defaults for the day-windowed fence.
const (
	// DefaultIQRFactor is the Tukey fence multiplier.
	DefaultIQRFactor = 1.5

	// DefaultMinSample is the smallest day bucket the fence is computed
	// for. Smaller buckets are accepted untouched rather than corrected
	// from a meaningless quartile estimate.
	DefaultMinSample = 4

	// seedValue anchors the carry-forward state before the first day.
	// Cumulative indices start at 1.0 at reserve creation.
	seedValue = 1.0

	daySeconds = 24 * 3600
)

// DayWindow partitions the series into calendar-day buckets, flags values
// outside the [Q1 - k*IQR, Q3 + k*IQR] fence of their day as outliers, and
// replaces them with the last accepted value, carried across day boundaries.
type DayWindow struct {
	IQRFactor float64
	MinSample int
}

// NewDayWindow creates a DayWindow strategy with the default fence.
func NewDayWindow() *DayWindow {
	return &DayWindow{IQRFactor: DefaultIQRFactor, MinSample: DefaultMinSample}
}

// Name returns the strategy identifier.
func (d *DayWindow) Name() string { return StrategyDayWindow }

// Fix corrects the series day by day. The last accepted value of each day
// seeds the next; the very first day is seeded at 1.0.
func (d *DayWindow) Fix(times []int64, values []float64) []float64 {
	fixed := make([]float64, len(values))
	last := seedValue

	for start := 0; start < len(values); {
		end := start + 1
		day := times[start] / daySeconds
		for end < len(values) && times[end]/daySeconds == day {
			end++
		}

		bucket := values[start:end]
		if len(bucket) < d.MinSample {
			// Too few points for a meaningful IQR: accept as-is.
			for i := start; i < end; i++ {
				fixed[i] = values[i]
				last = values[i]
			}
			start = end
			continue
		}

		q1 := quantile(bucket, 0.25)
		q3 := quantile(bucket, 0.75)
		iqr := q3 - q1
		lo := q1 - d.IQRFactor*iqr
		hi := q3 + d.IQRFactor*iqr

		for i := start; i < end; i++ {
			v := values[i]
			if v < lo || v > hi {
				fixed[i] = last
				continue
			}
			fixed[i] = v
			last = v
		}
		start = end
	}
	return fixed
}

// quantile returns the q-quantile of values using linear interpolation
// between closest ranks. values is not modified.
func quantile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

var _ Strategy = (*DayWindow)(nil)
