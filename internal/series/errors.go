package series

import (
	"fmt"
	"time"
)

// DegenerateIntervalError indicates interpolation between two readings that
// share a timestamp.
type DegenerateIntervalError struct {
	At time.Time
}

func (e *DegenerateIntervalError) Error() string {
	return fmt.Sprintf("degenerate interval: both samples at %s", e.At.UTC().Format(time.RFC3339))
}
