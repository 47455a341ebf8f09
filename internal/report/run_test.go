package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/sensorcal-cli/internal/calibration"
	"github.com/KaramelBytes/sensorcal-cli/internal/report"
)

func sampleResult() *calibration.Result {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &calibration.Result{
		Start:      t0,
		End:        t0.Add(time.Hour),
		Params:     calibration.DefaultParams(),
		Candidates: []calibration.Candidate{{Temperature: 18}, {Temperature: 20}},
		Bands: &calibration.Bands{
			Mean: 50, StdDev: 5,
			Low:  calibration.BandTarget{Level: 45},
			High: calibration.BandTarget{Level: 55},
		},
		Records: []calibration.Record{{
			Name:           "sensor.b_temperature",
			HumiditySensor: "sensor.b_humidity",
			Temperature:    []calibration.Pair{{Uncalibrated: 18.4, Reference: 18}, {Uncalibrated: 20.5, Reference: 20}},
			Humidity: calibration.HumidityCalibration{
				Low: calibration.Segment{Cold: calibration.Anchor{Temperature: 17.9, Humidity: 45, Raw: 47.5, At: t0}},
			},
		}},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	run := report.NewRun(report.Source{
		Kind:   report.SourceCSV,
		Inputs: map[string][]string{"reference_temperature": {"rt.csv"}},
	}, sampleResult())
	if _, err := uuid.Parse(run.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", run.ID)
	}

	path := filepath.Join(dir, "runs", "run.json")
	if err := run.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := report.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != run.ID || got.Source.Kind != report.SourceCSV {
		t.Fatalf("metadata lost: %+v", got)
	}
	if got.Result.Params.Rounding != run.Result.Params.Rounding || got.Result.Params.Interval != 30*time.Second {
		t.Fatalf("params lost: %+v", got.Result.Params)
	}
	rec := got.Result.Records[0]
	if rec.Name != "sensor.b_temperature" || len(rec.Temperature) != 2 || rec.Temperature[1].Uncalibrated != 20.5 {
		t.Fatalf("record lost: %+v", rec)
	}
	if !rec.Humidity.Low.Cold.At.Equal(run.Result.Start) || rec.Humidity.Low.Cold.Raw != 47.5 {
		t.Fatalf("humidity anchor lost: %+v", rec.Humidity.Low.Cold)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := report.Load(filepath.Join(dir, "missing.json")); err == nil || !strings.Contains(err.Error(), "run not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	p := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(p, []byte(`{"id":"x"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := report.Load(p); err == nil || !strings.Contains(err.Error(), "no result") {
		t.Fatalf("expected missing result error, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	run := report.NewRun(report.Source{Kind: report.SourceInflux}, sampleResult())
	s := run.Summary()
	for _, want := range []string{
		"(influx source)",
		"Temperature points: 18, 20",
		"Humidity bands: 45 / 55",
		"sensor.b_temperature + sensor.b_humidity",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}
}
