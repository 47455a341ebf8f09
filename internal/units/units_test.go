package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTemperature(t *testing.T) {
	for in, want := range map[string]Temperature{
		"C": Celsius, "c": Celsius, "°C": Celsius, "celsius": Celsius,
		"F": Fahrenheit, " °f ": Fahrenheit, "Fahrenheit": Fahrenheit,
	} {
		got, err := ParseTemperature(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseTemperature("K")
	require.Error(t, err)
}

func TestConverter(t *testing.T) {
	require.InDelta(t, 212.0, Converter(Celsius, Fahrenheit)(100), 1e-12)
	require.InDelta(t, 32.0, Converter(Celsius, Fahrenheit)(0), 1e-12)
	require.InDelta(t, -40.0, Converter(Fahrenheit, Celsius)(-40), 1e-12)
	require.InDelta(t, 20.0, Converter(Fahrenheit, Celsius)(68), 1e-12)
	require.Equal(t, 21.37, Converter(Celsius, Celsius)(21.37))

	c2f, f2c := Converter(Celsius, Fahrenheit), Converter(Fahrenheit, Celsius)
	for _, v := range []float64{-12.5, 0, 18.114, 37} {
		require.InDelta(t, v, f2c(c2f(v)), 1e-9)
	}
}

func TestMeasurement(t *testing.T) {
	require.Equal(t, "°C", Celsius.Measurement())
	require.Equal(t, "°F", Fahrenheit.Measurement())
}
