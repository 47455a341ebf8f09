package calibration

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
	"gonum.org/v1/gonum/stat"
)

// TempPoint is a reference temperature observed at a grid timestamp.
type TempPoint struct {
	Temperature float64   `json:"temperature"`
	At          time.Time `json:"at"`
}

// less orders points by temperature, then timestamp.
func (p TempPoint) less(q TempPoint) bool {
	if p.Temperature != q.Temperature {
		return p.Temperature < q.Temperature
	}
	return p.At.Before(q.At)
}

// BandTarget is one humidity level with the coldest and hottest reference
// temperatures seen while the reference humidity sat at that level.
type BandTarget struct {
	Level float64   `json:"level"`
	Cold  TempPoint `json:"cold"`
	Hot   TempPoint `json:"hot"`
}

// Bands holds the low (mean - stddev) and high (mean + stddev) humidity targets.
type Bands struct {
	Mean   float64    `json:"mean"`
	StdDev float64    `json:"stddev"`
	Low    BandTarget `json:"low"`
	High   BandTarget `json:"high"`
}

// Anchor is one (temperature, humidity level, raw reading) calibration point.
type Anchor struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Raw         float64   `json:"raw"`
	At          time.Time `json:"at"`
}

// Segment is the two-point mapping of one band: the sensor's raw reading at
// the coldest and at the hottest reference temperature.
type Segment struct {
	Cold Anchor `json:"cold"`
	Hot  Anchor `json:"hot"`
}

// HumidityCalibration holds both band segments of one sensor.
type HumidityCalibration struct {
	Low  Segment `json:"low"`
	High Segment `json:"high"`
}

// SelectBands derives the low and high humidity targets from the reference
// humidity grid and locates, for each, the coldest and hottest matching
// reference temperature.
func SelectBands(refHum, refTemp *series.Grid, p Params) (*Bands, error) {
	vals := refHum.Values()
	if len(vals) == 0 {
		return nil, &InsufficientDataError{Stage: StageHumidity, Detail: "reference humidity grid is empty"}
	}
	mean, sd := stat.PopMeanStdDev(vals, nil)
	b := &Bands{Mean: mean, StdDev: sd}
	var err error
	if b.Low, err = bandTarget("low", p.Rounding.Round(mean-sd, p.ReportPrecision), refHum, refTemp); err != nil {
		return nil, err
	}
	if b.High, err = bandTarget("high", p.Rounding.Round(mean+sd, p.ReportPrecision), refHum, refTemp); err != nil {
		return nil, err
	}
	return b, nil
}

func bandTarget(name string, level float64, refHum, refTemp *series.Grid) (BandTarget, error) {
	ix := refHum.Index()
	times := ix.Lookup(level)
	if len(times) == 0 {
		return BandTarget{}, &InsufficientDataError{
			Stage:  StageHumidity,
			Detail: fmt.Sprintf("no reference humidity readings round to %v (%s band %v)", ix.Value(ix.Key(level)), name, level),
		}
	}
	bt := BandTarget{Level: level}
	for i, ts := range times {
		temp, ok := refTemp.Value(ts)
		if !ok {
			return BandTarget{}, &MisalignedSeriesError{Stage: StageHumidity, Grid: "reference temperature", At: ts}
		}
		pt := TempPoint{Temperature: temp, At: ts}
		if i == 0 || pt.less(bt.Cold) {
			bt.Cold = pt
		}
		if i == 0 || bt.Hot.less(pt) {
			bt.Hot = pt
		}
	}
	return bt, nil
}

// ApplyBands reads every uncalibrated humidity sensor at the four band
// timestamps.
func ApplyBands(b *Bands, uncal map[string]*series.Grid) (map[string]HumidityCalibration, error) {
	out := make(map[string]HumidityCalibration, len(uncal))
	for _, name := range sortedKeys(uncal) {
		g := uncal[name]
		anchor := func(pt TempPoint, level float64) (Anchor, error) {
			raw, ok := g.Value(pt.At)
			if !ok {
				return Anchor{}, &MisalignedSeriesError{Stage: StageHumidity, Sensor: name, Grid: "uncalibrated humidity", At: pt.At}
			}
			return Anchor{Temperature: pt.Temperature, Humidity: level, Raw: raw, At: pt.At}, nil
		}
		var hc HumidityCalibration
		var err error
		if hc.Low.Cold, err = anchor(b.Low.Cold, b.Low.Level); err != nil {
			return nil, err
		}
		if hc.Low.Hot, err = anchor(b.Low.Hot, b.Low.Level); err != nil {
			return nil, err
		}
		if hc.High.Cold, err = anchor(b.High.Cold, b.High.Level); err != nil {
			return nil, err
		}
		if hc.High.Hot, err = anchor(b.High.Hot, b.High.Level); err != nil {
			return nil, err
		}
		out[name] = hc
	}
	return out, nil
}
