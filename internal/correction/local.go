package correction

// Local inspects each interior point against its immediate neighbours and
// replaces it with its predecessor's corrected value when the raw triple
// is not non-decreasing. Endpoints are always accepted as-is.
type Local struct{}

// Name returns the strategy identifier.
func (l *Local) Name() string { return StrategyLocal }

// Fix replaces values[i] with fixed[i-1] when prev <= curr <= next does not
// hold for the raw triple around i.
func (l *Local) Fix(_ []int64, values []float64) []float64 {
	fixed := make([]float64, len(values))
	copy(fixed, values)
	for i := 1; i < len(values)-1; i++ {
		if values[i-1] <= values[i] && values[i] <= values[i+1] {
			continue
		}
		fixed[i] = fixed[i-1]
	}
	return fixed
}

var _ Strategy = (*Local)(nil)
