package calibration

import (
	"fmt"
	"math"
	"time"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
	"gonum.org/v1/gonum/stat"
)

// Candidate is a reference temperature level chosen as a calibration anchor,
// with the grid timestamps at which the reference sat at that level.
type Candidate struct {
	Temperature float64     `json:"temperature"`
	Times       []time.Time `json:"-"`
}

// Pair maps one uncalibrated reading onto the reference value.
type Pair struct {
	Uncalibrated float64 `json:"uncalibrated"`
	Reference    float64 `json:"reference"`
}

// SelectCandidates walks the reference temperature buckets in ascending order
// and keeps a bucket when it holds more than MinSamples timestamps and lies at
// least MinSpacing above the previously kept one. Spacing is compared on the
// integer bucket keys so it is exact at the index precision.
func SelectCandidates(ix *series.ValueIndex, p Params) ([]Candidate, error) {
	spacing := series.Bucket(math.Round(p.MinSpacing * math.Pow10(ix.Precision())))
	var out []Candidate
	var last series.Bucket
	for _, b := range ix.Buckets() {
		ts := ix.Times(b)
		if len(ts) <= p.MinSamples {
			continue
		}
		if len(out) > 0 && b < last+spacing {
			continue
		}
		out = append(out, Candidate{Temperature: ix.Value(b), Times: ts})
		last = b
	}
	if len(out) == 0 {
		return nil, &InsufficientDataError{
			Stage:  StageTemperature,
			Detail: fmt.Sprintf("no reference temperature level has more than %d samples", p.MinSamples),
		}
	}
	return out, nil
}

// PairTemperatures computes, for each uncalibrated sensor, the mean of its
// grid values at every candidate's timestamps. Pairs come out in ascending
// candidate order.
func PairTemperatures(cands []Candidate, uncal map[string]*series.Grid) (map[string][]Pair, error) {
	out := make(map[string][]Pair, len(uncal))
	for _, name := range sortedKeys(uncal) {
		g := uncal[name]
		pairs := make([]Pair, 0, len(cands))
		for _, c := range cands {
			vals := make([]float64, 0, len(c.Times))
			for _, ts := range c.Times {
				v, ok := g.Value(ts)
				if !ok {
					return nil, &MisalignedSeriesError{Stage: StageTemperature, Sensor: name, Grid: "uncalibrated temperature", At: ts}
				}
				vals = append(vals, v)
			}
			pairs = append(pairs, Pair{Uncalibrated: stat.Mean(vals, nil), Reference: c.Temperature})
		}
		out[name] = pairs
	}
	return out, nil
}
