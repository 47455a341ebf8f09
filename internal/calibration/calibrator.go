package calibration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
)

// Input is the four series sets a run consumes.
type Input struct {
	ReferenceTemperature    series.Set
	ReferenceHumidity       series.Set
	UncalibratedTemperature series.Set
	UncalibratedHumidity    series.Set
}

// Result is the outcome of a calibration run.
type Result struct {
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Params     Params      `json:"params"`
	Candidates []Candidate `json:"candidates"`
	Bands      *Bands      `json:"bands"`
	Records    []Record    `json:"records"`
}

// Calibrator runs the full resample -> select -> assemble pipeline.
type Calibrator struct {
	params Params
	log    *slog.Logger
}

// New returns a Calibrator. A nil logger discards diagnostics.
func New(p Params, log *slog.Logger) *Calibrator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Calibrator{params: p, log: log}
}

// Run calibrates every uncalibrated sensor in the input. Any failure aborts
// the whole run; no partial records are returned.
func (c *Calibrator) Run(ctx context.Context, in Input) (*Result, error) {
	p := c.params
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	for _, chk := range []struct {
		label string
		set   series.Set
	}{
		{"reference temperature", in.ReferenceTemperature},
		{"reference humidity", in.ReferenceHumidity},
		{"uncalibrated temperature", in.UncalibratedTemperature},
		{"uncalibrated humidity", in.UncalibratedHumidity},
	} {
		if len(chk.set) == 0 {
			return nil, &InsufficientDataError{Stage: StageGrid, Detail: "no " + chk.label + " series"}
		}
	}

	start, end, err := gridBounds(in.ReferenceTemperature)
	if err != nil {
		return nil, err
	}
	gp := p.grid(start, end)
	c.log.Debug("grid", "start", start, "end", end, "interval", p.Interval)

	refTemp, err := series.Resample(in.ReferenceTemperature, gp)
	if err != nil {
		return nil, fmt.Errorf("resample reference temperature: %w", err)
	}
	refHum, err := series.Resample(in.ReferenceHumidity, gp)
	if err != nil {
		return nil, fmt.Errorf("resample reference humidity: %w", err)
	}
	uncalTemp, err := series.ResampleEach(ctx, in.UncalibratedTemperature, gp)
	if err != nil {
		return nil, fmt.Errorf("resample uncalibrated temperature: %w", err)
	}
	uncalHum, err := series.ResampleEach(ctx, in.UncalibratedHumidity, gp)
	if err != nil {
		return nil, fmt.Errorf("resample uncalibrated humidity: %w", err)
	}
	c.log.Debug("resampled reference", "temperature_points", refTemp.Len(), "temperature_buckets", refTemp.Index().Len(),
		"humidity_points", refHum.Len(), "humidity_buckets", refHum.Index().Len())

	cands, err := SelectCandidates(refTemp.Index(), p)
	if err != nil {
		return nil, err
	}
	for _, cand := range cands {
		c.log.Debug("temperature candidate", "level", cand.Temperature, "samples", len(cand.Times))
	}
	pairs, err := PairTemperatures(cands, uncalTemp)
	if err != nil {
		return nil, err
	}

	bands, err := SelectBands(refHum, refTemp, p)
	if err != nil {
		return nil, err
	}
	c.log.Debug("humidity bands", "mean", bands.Mean, "stddev", bands.StdDev, "low", bands.Low.Level, "high", bands.High.Level)
	hum, err := ApplyBands(bands, uncalHum)
	if err != nil {
		return nil, err
	}

	records, err := Assemble(pairs, hum, p.Pairing)
	if err != nil {
		return nil, err
	}
	c.log.Info("calibration complete", "sensors", len(records), "temperature_points", len(cands))
	return &Result{
		Start:      start,
		End:        end,
		Params:     p,
		Candidates: cands,
		Bands:      bands,
		Records:    records,
	}, nil
}

// gridBounds takes the first and last timestamps of the alphabetically first
// reference temperature series.
func gridBounds(ref series.Set) (time.Time, time.Time, error) {
	name := ref.Names()[0]
	s := ref[name]
	if s.Len() == 0 {
		return time.Time{}, time.Time{}, &InsufficientDataError{Stage: StageGrid, Sensor: name, Detail: "reference temperature series has no readings"}
	}
	return s.First().Time, s.Last().Time, nil
}
