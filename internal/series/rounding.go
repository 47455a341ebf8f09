package series

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rounding is the policy used whenever a value is rounded to a number of
// decimal places, both for index buckets and for reported output.
type Rounding int

const (
	// HalfEven rounds the exact binary value, ties to the nearest even
	// digit (2.5 -> 2, 21.15 -> 21.1 since 21.15 is stored below the tie).
	HalfEven Rounding = iota
	// HalfAwayFromZero rounds v * 10^places, ties away from zero (2.5 -> 3).
	HalfAwayFromZero
)

// ParseRounding accepts "half-even" and "half-away" (plus a few aliases).
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "half-even", "even", "bankers":
		return HalfEven, nil
	case "half-away", "half-up", "away":
		return HalfAwayFromZero, nil
	default:
		return HalfEven, fmt.Errorf("unknown rounding policy %q (use half-even or half-away)", s)
	}
}

func (r Rounding) String() string {
	if r == HalfAwayFromZero {
		return "half-away"
	}
	return "half-even"
}

// Scaled returns v rounded under the policy, as an integer count of
// 10^-places units.
func (r Rounding) Scaled(v float64, places int) int64 {
	return int64(math.Round(r.Round(v, places) * math.Pow10(places)))
}

// Round rounds v to the given number of decimal places.
func (r Rounding) Round(v float64, places int) float64 {
	if r == HalfAwayFromZero {
		p := math.Pow10(places)
		return math.Round(v*p) / p
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || places < 0 {
		p := math.Pow10(places)
		return math.RoundToEven(v*p) / p
	}
	// strconv formats from the exact decimal expansion and breaks exact
	// ties to even.
	out, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return math.RoundToEven(v*math.Pow10(places)) / math.Pow10(places)
	}
	return out
}

func (r Rounding) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Rounding) UnmarshalText(b []byte) error {
	v, err := ParseRounding(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
