package series

import (
	"sort"
	"time"
)

// Reading is a single timestamped measurement (°C, °F or %RH).
type Reading struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is an immutable sequence of readings ordered by time.
type Series struct {
	readings []Reading
}

// NewSeries copies readings and sorts them ascending by timestamp.
// Readings sharing a timestamp keep their input order.
func NewSeries(readings []Reading) Series {
	rs := make([]Reading, len(readings))
	copy(rs, readings)
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Time.Before(rs[j].Time) })
	return Series{readings: rs}
}

// Len returns the number of readings.
func (s Series) Len() int { return len(s.readings) }

// At returns the i-th reading.
func (s Series) At(i int) Reading { return s.readings[i] }

// Readings returns a copy of the underlying readings.
func (s Series) Readings() []Reading {
	out := make([]Reading, len(s.readings))
	copy(out, s.readings)
	return out
}

// First and Last panic on an empty series.
func (s Series) First() Reading { return s.readings[0] }
func (s Series) Last() Reading  { return s.readings[len(s.readings)-1] }

// search returns the index of the first reading at or after t.
func (s Series) search(t time.Time) int {
	return sort.Search(len(s.readings), func(i int) bool {
		return !s.readings[i].Time.Before(t)
	})
}

// Set maps a sensor name to its series.
type Set map[string]Series

// Names returns the sensor names in ascending order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns a new Set with fn applied to every value.
func (s Set) Map(fn func(float64) float64) Set {
	out := make(Set, len(s))
	for name, sr := range s {
		rs := make([]Reading, len(sr.readings))
		for i, r := range sr.readings {
			rs[i] = Reading{Time: r.Time, Value: fn(r.Value)}
		}
		out[name] = Series{readings: rs}
	}
	return out
}

// Builder accumulates readings per sensor before freezing them into a Set.
type Builder struct {
	readings map[string][]Reading
}

func NewBuilder() *Builder {
	return &Builder{readings: make(map[string][]Reading)}
}

func (b *Builder) Add(name string, t time.Time, v float64) {
	b.readings[name] = append(b.readings[name], Reading{Time: t, Value: v})
}

// Set sorts each sensor's readings and returns the result.
func (b *Builder) Set() Set {
	out := make(Set, len(b.readings))
	for name, rs := range b.readings {
		out[name] = NewSeries(rs)
	}
	return out
}
