package series

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// GridParams fixes the time grid and the index precision used by Resample.
type GridParams struct {
	// Interval between grid timestamps.
	Interval time.Duration
	// Start is excluded; the first grid point is Start+Interval.
	Start time.Time
	// End is excluded.
	End time.Time
	// Precision is the number of decimals used for value buckets.
	Precision int
	Rounding  Rounding
}

// Grid is a resampled series: values on a fixed interval plus the reverse
// value index. Grid points with no contributing series are absent.
type Grid struct {
	times  []time.Time
	values map[int64]float64 // keyed by UnixNano; time.Time is a poor map key
	index  *ValueIndex
}

// Len returns the number of grid points that carry a value.
func (g *Grid) Len() int { return len(g.times) }

// Times returns the populated grid timestamps in ascending order.
func (g *Grid) Times() []time.Time {
	out := make([]time.Time, len(g.times))
	copy(out, g.times)
	return out
}

// Value returns the grid value at t.
func (g *Grid) Value(t time.Time) (float64, bool) {
	v, ok := g.values[t.UnixNano()]
	return v, ok
}

// Values returns the grid values in timestamp order.
func (g *Grid) Values() []float64 {
	out := make([]float64, len(g.times))
	for i, t := range g.times {
		out[i] = g.values[t.UnixNano()]
	}
	return out
}

// Index returns the reverse value index.
func (g *Grid) Index() *ValueIndex { return g.index }

// Resample interpolates every series in set onto the grid described by p and
// averages the contributions at each point. A series contributes at t only if
// it has readings on both sides of t; there is no extrapolation. Start at or
// after End yields an empty grid.
func Resample(set Set, p GridParams) (*Grid, error) {
	g := &Grid{values: make(map[int64]float64), index: newValueIndex(p.Precision, p.Rounding)}
	if p.Interval <= 0 {
		return g, nil
	}
	names := set.Names()
	contrib := make([]float64, 0, len(names))
	for t := p.Start.Add(p.Interval); t.Before(p.End); t = t.Add(p.Interval) {
		contrib = contrib[:0]
		for _, name := range names {
			s := set[name]
			i := s.search(t)
			if i < 1 || i >= s.Len() {
				continue
			}
			v, err := Interpolate(s.At(i-1), s.At(i), t)
			if err != nil {
				return nil, err
			}
			contrib = append(contrib, v)
		}
		if len(contrib) == 0 {
			continue
		}
		v := stat.Mean(contrib, nil)
		g.times = append(g.times, t)
		g.values[t.UnixNano()] = v
		g.index.add(v, t)
	}
	return g, nil
}

// ResampleEach resamples every series in set on its own, concurrently.
func ResampleEach(ctx context.Context, set Set, p GridParams) (map[string]*Grid, error) {
	names := set.Names()
	grids := make([]*Grid, len(names))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for i, name := range names {
		i, name := i, name
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			g, err := Resample(Set{name: set[name]}, p)
			if err != nil {
				return err
			}
			grids[i] = g
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]*Grid, len(names))
	for i, name := range names {
		out[name] = grids[i]
	}
	return out, nil
}
