package calibration

import (
	"fmt"
	"time"
)

// Stage names used in error messages.
const (
	StageGrid        = "grid"
	StageTemperature = "temperature"
	StageHumidity    = "humidity"
	StageAssembly    = "assembly"
)

// InsufficientDataError indicates an axis cannot be calibrated: no temperature
// level has enough samples, or no timestamps match a humidity band.
type InsufficientDataError struct {
	Stage  string
	Sensor string
	Detail string
}

func (e *InsufficientDataError) Error() string {
	if e.Sensor != "" {
		return fmt.Sprintf("insufficient data: %s stage, sensor %s: %s", e.Stage, e.Sensor, e.Detail)
	}
	return fmt.Sprintf("insufficient data: %s stage: %s", e.Stage, e.Detail)
}

// MisalignedSeriesError indicates a timestamp expected in one resampled grid
// is absent when cross-referenced from another, i.e. the inputs do not cover
// a common time span.
type MisalignedSeriesError struct {
	Stage  string
	Sensor string
	// Grid names the grid the timestamp was missing from.
	Grid string
	At   time.Time
}

func (e *MisalignedSeriesError) Error() string {
	at := e.At.UTC().Format(time.RFC3339)
	if e.Sensor != "" {
		return fmt.Sprintf("misaligned series: %s stage, sensor %s: %s grid has no value at %s", e.Stage, e.Sensor, e.Grid, at)
	}
	return fmt.Sprintf("misaligned series: %s stage: %s grid has no value at %s", e.Stage, e.Grid, at)
}

// PairingError indicates temperature and humidity sensors could not be matched.
type PairingError struct {
	Detail string
}

func (e *PairingError) Error() string { return "sensor pairing: " + e.Detail }
