package calibration

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
)

// Params carries every tunable of a calibration run. Nothing is read from
// package-level state, so tests can vary precision freely.
type Params struct {
	// Interval is the resampling grid step.
	Interval time.Duration `json:"interval"`
	// MinSamples is the count a temperature bucket must exceed to qualify.
	MinSamples int `json:"min_samples"`
	// MinSpacing is the minimum distance, in rounded degrees, between
	// consecutive candidate temperatures.
	MinSpacing float64 `json:"min_spacing"`
	// MatchPrecision is the decimals used to bucket values for matching.
	MatchPrecision int `json:"match_precision"`
	// ReportPrecision is the decimals used for band levels and output.
	ReportPrecision int             `json:"report_precision"`
	Rounding        series.Rounding `json:"rounding"`
	Pairing         Pairing         `json:"pairing"`
}

// DefaultParams returns the standard grid: 30s interval, more than 4 samples,
// 2 degree spacing, 1 decimal for matching and 3 for reporting.
func DefaultParams() Params {
	return Params{
		Interval:        30 * time.Second,
		MinSamples:      4,
		MinSpacing:      2,
		MatchPrecision:  1,
		ReportPrecision: 3,
		Rounding:        series.HalfEven,
		Pairing:         Pairing{Mode: PairByRank},
	}
}

// Validate rejects parameter sets that cannot produce a grid.
func (p Params) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", p.Interval)
	}
	if p.MinSamples < 0 {
		return fmt.Errorf("min samples must not be negative, got %d", p.MinSamples)
	}
	if p.MinSpacing < 0 {
		return fmt.Errorf("min spacing must not be negative, got %v", p.MinSpacing)
	}
	if p.MatchPrecision < 0 || p.ReportPrecision < 0 {
		return fmt.Errorf("precision must not be negative")
	}
	return p.Pairing.validate()
}

func (p Params) grid(start, end time.Time) series.GridParams {
	return series.GridParams{
		Interval:  p.Interval,
		Start:     start,
		End:       end,
		Precision: p.MatchPrecision,
		Rounding:  p.Rounding,
	}
}

// PairingMode selects how temperature and humidity sensors are matched.
type PairingMode string

const (
	// PairByRank pairs the Nth temperature sensor with the Nth humidity sensor
	// after sorting both name sets. It assumes both channels of one device sort
	// to the same rank.
	PairByRank PairingMode = "rank"
	// PairExplicit pairs by the Pairs map (temperature name -> humidity name).
	PairExplicit PairingMode = "explicit"
)

// ParsePairingMode accepts "rank" and "explicit".
func ParsePairingMode(s string) (PairingMode, error) {
	switch PairingMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", PairByRank:
		return PairByRank, nil
	case PairExplicit:
		return PairExplicit, nil
	default:
		return PairByRank, fmt.Errorf("unknown pairing mode %q (use rank or explicit)", s)
	}
}

// Pairing configures sensor matching during assembly.
type Pairing struct {
	Mode  PairingMode       `json:"mode"`
	Pairs map[string]string `json:"pairs,omitempty"`
}

func (p Pairing) validate() error {
	switch p.Mode {
	case PairByRank, "":
		return nil
	case PairExplicit:
		if len(p.Pairs) == 0 {
			return &PairingError{Detail: "explicit pairing requires at least one sensor pair"}
		}
		return nil
	default:
		return &PairingError{Detail: fmt.Sprintf("unknown pairing mode %q", p.Mode)}
	}
}
