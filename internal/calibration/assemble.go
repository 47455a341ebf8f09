package calibration

import (
	"fmt"
	"sort"
	"strings"
)

// Record is the finished calibration of one physical sensor.
type Record struct {
	Name           string              `json:"name"`
	HumiditySensor string              `json:"humidity_sensor"`
	Temperature    []Pair              `json:"temperature"`
	Humidity       HumidityCalibration `json:"humidity"`
}

// Assemble joins temperature and humidity results into per-sensor records,
// named after the temperature sensor and ordered by that name.
//
// With PairByRank the Nth temperature sensor (alphabetically) is paired with
// the Nth humidity sensor. Nothing checks that they are the same device; name
// both channels consistently or use PairExplicit.
func Assemble(temp map[string][]Pair, hum map[string]HumidityCalibration, pairing Pairing) ([]Record, error) {
	tNames := sortedKeys(temp)
	hNames := sortedKeys(hum)
	var match func(i int, tName string) (string, error)
	switch pairing.Mode {
	case PairByRank, "":
		if len(tNames) != len(hNames) {
			return nil, &PairingError{Detail: fmt.Sprintf("%d temperature sensors but %d humidity sensors", len(tNames), len(hNames))}
		}
		match = func(i int, _ string) (string, error) { return hNames[i], nil }
	case PairExplicit:
		// Config keys arrive lowercased, so names match case-insensitively.
		pairs := foldKeys(pairing.Pairs)
		humByFold := make(map[string]string, len(hNames))
		for _, h := range hNames {
			humByFold[strings.ToLower(h)] = h
		}
		match = func(_ int, tName string) (string, error) {
			want, ok := pairs[strings.ToLower(tName)]
			if !ok {
				return "", &PairingError{Detail: fmt.Sprintf("no humidity sensor configured for %s", tName)}
			}
			if _, ok := hum[want]; ok {
				return want, nil
			}
			hName, ok := humByFold[strings.ToLower(want)]
			if !ok {
				return "", &PairingError{Detail: fmt.Sprintf("humidity sensor %s (paired with %s) has no calibration", want, tName)}
			}
			return hName, nil
		}
	default:
		return nil, &PairingError{Detail: fmt.Sprintf("unknown pairing mode %q", pairing.Mode)}
	}
	out := make([]Record, 0, len(tNames))
	for i, tName := range tNames {
		hName, err := match(i, tName)
		if err != nil {
			return nil, err
		}
		pairs := make([]Pair, len(temp[tName]))
		copy(pairs, temp[tName])
		out = append(out, Record{
			Name:           tName,
			HumiditySensor: hName,
			Temperature:    pairs,
			Humidity:       hum[hName],
		})
	}
	return out, nil
}

func foldKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
