package correction

// Cummax replaces every value with the running maximum of the series.
// Monotone by construction, but a single huge outlier early in the series
// freezes all later legitimate values.
type Cummax struct{}

// Name returns the strategy identifier.
func (c *Cummax) Name() string { return StrategyCummax }

// Fix returns fixed[i] = max(values[0..i]).
func (c *Cummax) Fix(_ []int64, values []float64) []float64 {
	fixed := make([]float64, len(values))
	for i, v := range values {
		if i > 0 && fixed[i-1] > v {
			fixed[i] = fixed[i-1]
			continue
		}
		fixed[i] = v
	}
	return fixed
}

var _ Strategy = (*Cummax)(nil)
