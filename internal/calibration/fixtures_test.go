package calibration

import (
	"testing"
	"time"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

const step = 30 * time.Second

func tick(k int) time.Time { return t0.Add(time.Duration(k) * step) }

// seriesOf lays values out every 30s starting at t0.
func seriesOf(values []float64) series.Series {
	rs := make([]series.Reading, len(values))
	for i, v := range values {
		rs[i] = series.Reading{Time: tick(i), Value: v}
	}
	return series.NewSeries(rs)
}

// gridOf returns a grid whose points at tick(1)..tick(len(values)) carry
// exactly the given values.
func gridOf(t *testing.T, values []float64) *series.Grid {
	t.Helper()
	padded := append([]float64{values[0]}, values...)
	padded = append(padded, values[len(values)-1])
	g, err := series.Resample(series.Set{"s": seriesOf(padded)}, gridParams(len(padded)))
	require.NoError(t, err)
	require.Equal(t, len(values), g.Len())
	return g
}

func gridParams(n int) series.GridParams {
	p := DefaultParams()
	return p.grid(t0, tick(n-1))
}

// rampInput is a full dataset: reference temperature 15..30°C and reference
// humidity 40..60%RH rising together over 2001 readings, two uncalibrated
// devices with known linear errors.
func rampInput() Input {
	const n = 2001
	refT := make([]float64, n)
	refH := make([]float64, n)
	aT := make([]float64, n)
	bT := make([]float64, n)
	aH := make([]float64, n)
	bH := make([]float64, n)
	for i := 0; i < n; i++ {
		refT[i] = 15.002 + 0.0075*float64(i)
		refH[i] = 40.003 + 0.01*float64(i)
		aT[i] = 1.02*refT[i] + 0.5
		bT[i] = refT[i] - 1
		aH[i] = refH[i] + 3
		bH[i] = refH[i] * 0.9
	}
	return Input{
		ReferenceTemperature:    series.Set{"ref_t": seriesOf(refT)},
		ReferenceHumidity:       series.Set{"ref_h": seriesOf(refH)},
		UncalibratedTemperature: series.Set{"a_temperature": seriesOf(aT), "b_temperature": seriesOf(bT)},
		UncalibratedHumidity:    series.Set{"a_humidity": seriesOf(aH), "b_humidity": seriesOf(bH)},
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
