package calibration

import (
	"testing"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
	"github.com/stretchr/testify/require"
)

func TestSelectCandidatesThresholdAndSpacing(t *testing.T) {
	g := gridOf(t, concat(
		repeat(20.0, 5),  // kept: 5 > 4
		repeat(21.0, 10), // too close to 20.0
		repeat(22.0, 4),  // only 4 samples
		repeat(22.5, 6),  // kept: 2.5 above 20.0
		repeat(23.0, 6),  // too close to 22.5
		repeat(24.5, 5),  // kept: exactly 2 above 22.5
	))
	cands, err := SelectCandidates(g.Index(), DefaultParams())
	require.NoError(t, err)

	got := make([]float64, len(cands))
	for i, c := range cands {
		got[i] = c.Temperature
	}
	require.Equal(t, []float64{20.0, 22.5, 24.5}, got)
	require.Len(t, cands[0].Times, 5)
	require.Len(t, cands[1].Times, 6)
	require.Len(t, cands[2].Times, 5)
}

func TestSelectCandidatesInsufficient(t *testing.T) {
	g := gridOf(t, concat(repeat(20.0, 4), repeat(25.0, 3)))
	_, err := SelectCandidates(g.Index(), DefaultParams())
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	require.Equal(t, StageTemperature, ide.Stage)
}

func TestSelectCandidatesSpacingProperty(t *testing.T) {
	in := rampInput()
	p := DefaultParams()
	s := in.ReferenceTemperature["ref_t"]
	g, err := series.Resample(in.ReferenceTemperature, p.grid(s.First().Time, s.Last().Time))
	require.NoError(t, err)

	cands, err := SelectCandidates(g.Index(), p)
	require.NoError(t, err)
	require.Len(t, cands, 8)
	require.Equal(t, 15.0, cands[0].Temperature)
	require.Equal(t, 29.0, cands[len(cands)-1].Temperature)
	for i := 1; i < len(cands); i++ {
		require.GreaterOrEqual(t, cands[i].Temperature, cands[i-1].Temperature+p.MinSpacing-1e-9)
		require.Greater(t, len(cands[i].Times), p.MinSamples)
	}
}

func TestPairTemperaturesMeans(t *testing.T) {
	ref := gridOf(t, concat(repeat(20.0, 5), repeat(22.0, 5)))
	cands, err := SelectCandidates(ref.Index(), DefaultParams())
	require.NoError(t, err)

	uncal := map[string]*series.Grid{
		"dev": gridOf(t, []float64{20.4, 20.6, 20.5, 20.5, 20.5, 22.1, 22.3, 22.2, 22.2, 22.2}),
	}
	pairs, err := PairTemperatures(cands, uncal)
	require.NoError(t, err)
	require.Len(t, pairs["dev"], 2)
	require.InDelta(t, 20.5, pairs["dev"][0].Uncalibrated, 1e-9)
	require.Equal(t, 20.0, pairs["dev"][0].Reference)
	require.InDelta(t, 22.2, pairs["dev"][1].Uncalibrated, 1e-9)
	require.Equal(t, 22.0, pairs["dev"][1].Reference)
}

func TestPairTemperaturesMisaligned(t *testing.T) {
	ref := gridOf(t, concat(repeat(20.0, 5), repeat(22.0, 5)))
	cands, err := SelectCandidates(ref.Index(), DefaultParams())
	require.NoError(t, err)

	// covers only the first level
	short := gridOf(t, repeat(20.3, 5))
	_, err = PairTemperatures(cands, map[string]*series.Grid{"short": short})
	var mse *MisalignedSeriesError
	require.ErrorAs(t, err, &mse)
	require.Equal(t, "short", mse.Sensor)
	require.Equal(t, StageTemperature, mse.Stage)
	require.Contains(t, err.Error(), "sensor short")
}
