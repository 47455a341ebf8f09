package calibration

import (
	"context"
	"testing"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
	"github.com/stretchr/testify/require"
)

func TestRunRamp(t *testing.T) {
	res, err := New(DefaultParams(), nil).Run(context.Background(), rampInput())
	require.NoError(t, err)
	require.Equal(t, t0, res.Start)
	require.Equal(t, tick(2000), res.End)
	require.Len(t, res.Candidates, 8)
	require.Len(t, res.Records, 2)

	a := res.Records[0]
	require.Equal(t, "a_temperature", a.Name)
	require.Equal(t, "a_humidity", a.HumiditySensor)
	require.Len(t, a.Temperature, 8)
	// 15.0 level holds ticks 1..6, reference mean 15.02825
	require.InDelta(t, 1.02*15.02825+0.5, a.Temperature[0].Uncalibrated, 1e-9)
	require.Equal(t, 15.0, a.Temperature[0].Reference)
	for i := 1; i < len(a.Temperature); i++ {
		require.Greater(t, a.Temperature[i].Reference, a.Temperature[i-1].Reference)
		require.Greater(t, a.Temperature[i].Uncalibrated, a.Temperature[i-1].Uncalibrated)
	}

	require.InDelta(t, 50.003, res.Bands.Mean, 1e-9)
	require.Equal(t, 44.232, res.Bands.Low.Level)
	require.Equal(t, 55.774, res.Bands.High.Level)

	h := a.Humidity
	require.Equal(t, tick(415), h.Low.Cold.At)
	require.Equal(t, tick(424), h.Low.Hot.At)
	require.InDelta(t, 18.1145, h.Low.Cold.Temperature, 1e-9)
	require.InDelta(t, 18.182, h.Low.Hot.Temperature, 1e-9)
	require.InDelta(t, 40.003+4.15+3, h.Low.Cold.Raw, 1e-9)
	require.Equal(t, tick(1575), h.High.Cold.At)
	require.Equal(t, tick(1584), h.High.Hot.At)
	require.Equal(t, 55.774, h.High.Hot.Humidity)

	b := res.Records[1]
	require.Equal(t, "b_temperature", b.Name)
	require.InDelta(t, 15.02825-1, b.Temperature[0].Uncalibrated, 1e-9)
	require.InDelta(t, (40.003+4.15)*0.9, b.Humidity.Low.Cold.Raw, 1e-9)
}

func TestRunDeterministic(t *testing.T) {
	c := New(DefaultParams(), nil)
	r1, err := c.Run(context.Background(), rampInput())
	require.NoError(t, err)
	r2, err := c.Run(context.Background(), rampInput())
	require.NoError(t, err)
	require.Equal(t, r1.Records, r2.Records)
}

func TestRunMissingInput(t *testing.T) {
	in := rampInput()
	in.UncalibratedHumidity = nil
	_, err := New(DefaultParams(), nil).Run(context.Background(), in)
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	require.Equal(t, StageGrid, ide.Stage)
	require.Contains(t, err.Error(), "uncalibrated humidity")
}

func TestRunUncalibratedSensorTooShort(t *testing.T) {
	in := rampInput()
	vals := make([]float64, 100)
	for i := range vals {
		vals[i] = 20
	}
	in.UncalibratedTemperature["c_temperature"] = seriesOf(vals)
	in.UncalibratedHumidity["c_humidity"] = in.UncalibratedHumidity["a_humidity"]
	_, err := New(DefaultParams(), nil).Run(context.Background(), in)
	var mse *MisalignedSeriesError
	require.ErrorAs(t, err, &mse)
	require.Equal(t, "c_temperature", mse.Sensor)
}

func TestRunFlatReferenceHasNoCandidates(t *testing.T) {
	in := rampInput()
	in.ReferenceTemperature = series.Set{"ref_t": seriesOf([]float64{20, 20.05})}
	_, err := New(DefaultParams(), nil).Run(context.Background(), in)
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
}

func TestRunInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.Interval = 0
	_, err := New(p, nil).Run(context.Background(), rampInput())
	require.Error(t, err)
}
