package subgraph

import (
	"fmt"
	"math"
	"strconv"
)

// rayScale converts ray fixed-point (10^27) integers to floats.
const rayScale = 1e-27

// parseRay decodes a ray-encoded integer string. An absent field is a
// precondition failure, not a zero.
func parseRay(field, s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing required field %s", field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", field, s, err)
	}
	return v * rayScale, nil
}

// parseAmount decodes a token amount scaled by 10^decimals.
func parseAmount(field, s string, decimals int) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing required field %s", field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", field, s, err)
	}
	return v / math.Pow10(decimals), nil
}

// parseRaw decodes an unscaled integer string, used for price fields that
// arrive without a unit.
func parseRaw(field, s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing required field %s", field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", field, s, err)
	}
	return v, nil
}
