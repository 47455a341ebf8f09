package series

import "time"

// Interpolate returns the value on the straight line through a and b at t.
// a and b must have distinct timestamps.
func Interpolate(a, b Reading, t time.Time) (float64, error) {
	span := b.Time.Sub(a.Time)
	if span == 0 {
		return 0, &DegenerateIntervalError{At: a.Time}
	}
	ratio := float64(t.Sub(a.Time)) / float64(span)
	return a.Value + ratio*(b.Value-a.Value), nil
}
