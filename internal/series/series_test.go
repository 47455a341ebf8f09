package series

import (
	"context"
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func TestNewSeriesSortsByTime(t *testing.T) {
	s := NewSeries([]Reading{{at(60), 3}, {at(0), 1}, {at(30), 2}})
	for i, want := range []float64{1, 2, 3} {
		if got := s.At(i).Value; got != want {
			t.Fatalf("reading %d: got %v want %v", i, got, want)
		}
	}
	if !s.First().Time.Equal(at(0)) || !s.Last().Time.Equal(at(60)) {
		t.Fatalf("unexpected bounds %v..%v", s.First().Time, s.Last().Time)
	}
}

func TestInterpolateBoundaries(t *testing.T) {
	a := Reading{at(0), 20.0}
	b := Reading{at(30), 21.5}
	cases := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"start", a.Time, a.Value},
		{"end", b.Time, b.Value},
		{"midpoint", at(15), 20.75},
		{"third", at(10), 20.5},
	}
	for _, c := range cases {
		got, err := Interpolate(a, b, c.at)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestInterpolateDegenerate(t *testing.T) {
	_, err := Interpolate(Reading{at(0), 1}, Reading{at(0), 2}, at(0))
	var de *DegenerateIntervalError
	if !errors.As(err, &de) {
		t.Fatalf("expected DegenerateIntervalError, got %v", err)
	}
}

func params(start, end time.Time) GridParams {
	return GridParams{Interval: 30 * time.Second, Start: start, End: end, Precision: 1, Rounding: HalfEven}
}

func TestResampleExcludesEnd(t *testing.T) {
	set := Set{"S1": NewSeries([]Reading{{at(0), 20.0}, {at(30), 20.2}, {at(60), 20.4}})}
	g, err := Resample(set, params(at(0), at(60)))
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if g.Len() != 1 {
		t.Fatalf("expected 1 grid point, got %d", g.Len())
	}
	v, ok := g.Value(at(30))
	if !ok || v != 20.2 {
		t.Fatalf("grid at +30s: got %v (present=%v) want 20.2", v, ok)
	}
	if ts := g.Index().Lookup(20.2); len(ts) != 1 || !ts[0].Equal(at(30)) {
		t.Fatalf("index lookup 20.2: %v", ts)
	}
}

func TestResampleSingleReadingIsEmpty(t *testing.T) {
	set := Set{"U1": NewSeries([]Reading{{at(45), 19.0}})}
	g, err := Resample(set, params(at(0), at(300)))
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if g.Len() != 0 || g.Index().Len() != 0 {
		t.Fatalf("expected empty grid, got %d points", g.Len())
	}
}

func TestResampleEmptyRange(t *testing.T) {
	set := Set{"S1": NewSeries([]Reading{{at(0), 1}, {at(600), 2}})}
	for _, p := range []GridParams{params(at(300), at(300)), params(at(600), at(0))} {
		g, err := Resample(set, p)
		if err != nil {
			t.Fatalf("resample: %v", err)
		}
		if g.Len() != 0 {
			t.Fatalf("expected empty grid for %v..%v", p.Start, p.End)
		}
	}
}

func TestResampleAveragesAndSkipsUncovered(t *testing.T) {
	set := Set{
		"A": NewSeries([]Reading{{at(0), 10}, {at(120), 14}}),
		// B only brackets +60s and +90s.
		"B": NewSeries([]Reading{{at(45), 20}, {at(105), 24}}),
	}
	g, err := Resample(set, params(at(0), at(120)))
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	want := map[int]float64{
		30: 11,              // A only
		60: (12 + 21) / 2.0, // A=12, B=21
		90: (13 + 23) / 2.0, // A=13, B=23
	}
	if g.Len() != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), g.Len())
	}
	for sec, w := range want {
		got, ok := g.Value(at(sec))
		if !ok || got != w {
			t.Errorf("+%ds: got %v (present=%v) want %v", sec, got, ok, w)
		}
	}
}

func rampSet() Set {
	var rs []Reading
	for i := 0; i <= 200; i++ {
		// irregular spacing so interpolation does real work
		rs = append(rs, Reading{at(i*37 + i%5), 18 + float64(i)*0.013})
	}
	return Set{"ramp": NewSeries(rs)}
}

func TestResampleIdempotent(t *testing.T) {
	set := rampSet()
	p := params(at(0), at(200*37))
	g1, err := Resample(set, p)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := Resample(set, p)
	if err != nil {
		t.Fatal(err)
	}
	if g1.Len() != g2.Len() {
		t.Fatalf("lengths differ: %d vs %d", g1.Len(), g2.Len())
	}
	for _, ts := range g1.Times() {
		v1, _ := g1.Value(ts)
		v2, ok := g2.Value(ts)
		if !ok || v1 != v2 {
			t.Fatalf("grids differ at %v: %v vs %v", ts, v1, v2)
		}
	}
}

func TestIndexPartitionsGrid(t *testing.T) {
	g, err := Resample(rampSet(), params(at(0), at(200*37)))
	if err != nil {
		t.Fatal(err)
	}
	seen := map[int64]bool{}
	total := 0
	ix := g.Index()
	for _, b := range ix.Buckets() {
		for _, ts := range ix.Times(b) {
			k := ts.UnixNano()
			if seen[k] {
				t.Fatalf("timestamp %v in more than one bucket", ts)
			}
			seen[k] = true
			total++
			v, ok := g.Value(ts)
			if !ok {
				t.Fatalf("bucketed timestamp %v missing from grid", ts)
			}
			if ix.Key(v) != b {
				t.Fatalf("value %v filed under bucket %d", v, b)
			}
		}
	}
	if total != g.Len() {
		t.Fatalf("index covers %d timestamps, grid has %d", total, g.Len())
	}
}

func TestIndexBucketsAscending(t *testing.T) {
	g, err := Resample(rampSet(), params(at(0), at(200*37)))
	if err != nil {
		t.Fatal(err)
	}
	bs := g.Index().Buckets()
	for i := 1; i < len(bs); i++ {
		if bs[i] <= bs[i-1] {
			t.Fatalf("buckets not ascending at %d: %v", i, bs)
		}
	}
}

func TestResampleEachMatchesSingle(t *testing.T) {
	set := Set{
		"a": rampSet()["ramp"],
		"b": NewSeries([]Reading{{at(0), 50}, {at(3000), 60}}),
	}
	p := params(at(0), at(3000))
	grids, err := ResampleEach(context.Background(), set, p)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range set.Names() {
		single, err := Resample(Set{name: set[name]}, p)
		if err != nil {
			t.Fatal(err)
		}
		if grids[name].Len() != single.Len() {
			t.Fatalf("%s: %d vs %d points", name, grids[name].Len(), single.Len())
		}
	}
}

func TestSetMap(t *testing.T) {
	set := Set{"s": NewSeries([]Reading{{at(0), 0}, {at(30), 100}})}
	f := set.Map(func(c float64) float64 { return c*1.8 + 32 })
	if f["s"].At(0).Value != 32 || f["s"].At(1).Value != 212 {
		t.Fatalf("unexpected mapped values: %+v", f["s"].Readings())
	}
	if set["s"].At(1).Value != 100 {
		t.Fatalf("source set mutated")
	}
}
