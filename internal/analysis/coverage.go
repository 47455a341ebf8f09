// Package analysis summarizes reading dumps so coverage problems (short
// series, long gaps, spikes) show up before a calibration run.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
)

// Options controls what counts as a gap or an outlier.
type Options struct {
	// GapThreshold flags consecutive readings further apart than this.
	GapThreshold time.Duration
	// OutlierZ flags readings whose |z| exceeds this. Zero disables.
	OutlierZ float64
}

// DefaultOptions returns reasonable defaults for 30s sensors.
func DefaultOptions() Options {
	return Options{GapThreshold: 5 * time.Minute, OutlierZ: 4}
}

// SensorSummary describes one sensor's series.
type SensorSummary struct {
	Name      string
	Count     int
	Start     time.Time
	End       time.Time
	Min       float64
	Max       float64
	Mean      float64
	Std       float64
	MedianGap time.Duration
	MaxGap    time.Duration
	// Gaps is the number of intervals longer than the threshold.
	Gaps     int
	Outliers int
	MaxAbsZ  float64
}

// Report is the summary of one reading set.
type Report struct {
	Name    string
	Opt     Options
	Sensors []SensorSummary
}

// Summarize computes per-sensor statistics, in sensor name order.
func Summarize(name string, set series.Set, opt Options) *Report {
	rep := &Report{Name: name, Opt: opt}
	for _, sensor := range set.Names() {
		rep.Sensors = append(rep.Sensors, summarize(sensor, set[sensor], opt))
	}
	return rep
}

func summarize(name string, s series.Series, opt Options) SensorSummary {
	sum := SensorSummary{Name: name, Count: s.Len()}
	if s.Len() == 0 {
		return sum
	}
	sum.Start, sum.End = s.First().Time, s.Last().Time
	vals := make([]float64, s.Len())
	gaps := make([]float64, 0, s.Len()-1)
	sum.Min, sum.Max = math.Inf(1), math.Inf(-1)
	for i := 0; i < s.Len(); i++ {
		r := s.At(i)
		vals[i] = r.Value
		sum.Min = math.Min(sum.Min, r.Value)
		sum.Max = math.Max(sum.Max, r.Value)
		if i > 0 {
			d := r.Time.Sub(s.At(i - 1).Time)
			gaps = append(gaps, float64(d))
			if d > sum.MaxGap {
				sum.MaxGap = d
			}
			if opt.GapThreshold > 0 && d > opt.GapThreshold {
				sum.Gaps++
			}
		}
	}
	sum.Mean, sum.Std = stat.MeanStdDev(vals, nil)
	if len(vals) < 2 {
		sum.Std = 0
	}
	if len(gaps) > 0 {
		sort.Float64s(gaps)
		sum.MedianGap = time.Duration(stat.Quantile(0.5, stat.Empirical, gaps, nil))
	}
	if opt.OutlierZ > 0 && sum.Std > 0 {
		for _, v := range vals {
			z := math.Abs(stat.StdScore(v, sum.Mean, sum.Std))
			if z > opt.OutlierZ {
				sum.Outliers++
			}
			sum.MaxAbsZ = math.Max(sum.MaxAbsZ, z)
		}
	}
	return sum
}

// Warnings lists coverage problems worth fixing before calibrating.
func (r *Report) Warnings() []string {
	var out []string
	for _, s := range r.Sensors {
		if s.Count < 2 {
			out = append(out, fmt.Sprintf("%s has %d reading(s); at least 2 are needed to interpolate", s.Name, s.Count))
		}
		if s.Gaps > 0 {
			out = append(out, fmt.Sprintf("%s has %d gap(s) over %s (longest %s)", s.Name, s.Gaps, r.Opt.GapThreshold, s.MaxGap))
		}
		if s.Outliers > 0 {
			out = append(out, fmt.Sprintf("%s has %d reading(s) beyond |z|>%.1f", s.Name, s.Outliers, r.Opt.OutlierZ))
		}
	}
	return out
}

// Markdown renders the report as a compact text block.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[READINGS SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Sensors: %d\n\n", len(r.Sensors)))
	for _, s := range r.Sensors {
		b.WriteString(fmt.Sprintf("- %s: %d readings", s.Name, s.Count))
		if s.Count > 0 {
			b.WriteString(fmt.Sprintf(", %s .. %s", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339)))
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", s.Min, s.Max, s.Mean, s.Std))
		}
		if s.Count > 1 {
			b.WriteString(fmt.Sprintf("; median step %s, longest gap %s", s.MedianGap, s.MaxGap))
		}
		if s.Outliers > 0 {
			b.WriteString(fmt.Sprintf("; outliers: %d (max |z|≈%.2f)", s.Outliers, s.MaxAbsZ))
		}
		b.WriteString("\n")
	}
	return b.String()
}
