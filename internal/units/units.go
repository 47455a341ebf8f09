// Package units converts temperatures between the unit a database stores
// them in and the unit the device reports.
package units

import (
	"fmt"
	"strings"
)

// Temperature is a temperature unit.
type Temperature string

const (
	Celsius    Temperature = "C"
	Fahrenheit Temperature = "F"
)

// ParseTemperature accepts C/F with or without a degree sign, in any case.
func ParseTemperature(s string) (Temperature, error) {
	u := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "°"))
	switch u {
	case "C", "CELSIUS":
		return Celsius, nil
	case "F", "FAHRENHEIT":
		return Fahrenheit, nil
	}
	return "", fmt.Errorf("unknown temperature unit %q (want C or F)", s)
}

// Measurement is the InfluxDB measurement name Home Assistant uses for the
// unit, e.g. "°C".
func (u Temperature) Measurement() string { return "°" + string(u) }

// Converter returns the function mapping a value in from to a value in to.
func Converter(from, to Temperature) func(float64) float64 {
	switch {
	case from == to:
		return func(v float64) float64 { return v }
	case from == Celsius && to == Fahrenheit:
		return func(v float64) float64 { return v*9/5 + 32 }
	default:
		return func(v float64) float64 { return (v - 32) * 5 / 9 }
	}
}
