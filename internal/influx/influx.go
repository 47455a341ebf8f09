// Package influx loads sensor readings from an InfluxDB 2.x bucket populated
// by Home Assistant.
package influx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/query"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
)

// EntityTag is the tag holding the Home Assistant entity id.
const EntityTag = "entity_id"

// Config holds connection settings.
type Config struct {
	URL     string
	Token   string
	Org     string
	Bucket  string
	Timeout time.Duration
}

func (c Config) validate() error {
	var missing []string
	for _, f := range []struct{ key, val string }{
		{"influx_url", c.URL}, {"influx_token", c.Token}, {"influx_org", c.Org}, {"influx_bucket", c.Bucket},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("influx configuration incomplete: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Query selects the readings of some entities in a time range. Measurement
// is optional; temperature queries pass the stored unit, e.g. "°C".
type Query struct {
	Start       time.Time
	End         time.Time
	Entities    []string
	Measurement string
	// Convert is applied to every value; nil leaves values as stored.
	Convert func(float64) float64
}

// BuildFlux renders q as a Flux query against bucket.
func BuildFlux(bucket string, q Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", strconv.Quote(bucket))
	fmt.Fprintf(&b, "  |> range(start: %s, stop: %s)\n",
		q.Start.UTC().Format(time.RFC3339), q.End.UTC().Format(time.RFC3339))
	ors := make([]string, len(q.Entities))
	for i, e := range q.Entities {
		ors[i] = fmt.Sprintf("r[%q] == %s", EntityTag, strconv.Quote(e))
	}
	fmt.Fprintf(&b, "  |> filter(fn: (r) => %s)\n", strings.Join(ors, " or "))
	b.WriteString("  |> filter(fn: (r) => r[\"_field\"] == \"value\")")
	if q.Measurement != "" {
		fmt.Fprintf(&b, "\n  |> filter(fn: (r) => r[\"_measurement\"] == %s)", strconv.Quote(q.Measurement))
	}
	return b.String()
}

// Fetcher runs one query.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (series.Set, error)
}

// Client queries a single bucket. A failed query is returned as is; there
// are no retries.
type Client struct {
	cfg    Config
	client influxdb2.Client
	api    api.QueryAPI
}

// New validates cfg and opens a client. No request is made until Fetch.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opts := influxdb2.DefaultOptions()
	if cfg.Timeout > 0 {
		opts.SetHTTPRequestTimeout(uint(cfg.Timeout / time.Second))
	}
	cl := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)
	return &Client{cfg: cfg, client: cl, api: cl.QueryAPI(cfg.Org)}, nil
}

// Close releases the underlying HTTP resources.
func (c *Client) Close() { c.client.Close() }

// Fetch runs q and groups the records by entity id.
func (c *Client) Fetch(ctx context.Context, q Query) (series.Set, error) {
	if len(q.Entities) == 0 {
		return nil, errors.New("no entities to query")
	}
	res, err := c.api.Query(ctx, BuildFlux(c.cfg.Bucket, q))
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	defer res.Close()
	return collect(res, q.Convert)
}

// FetchAll runs every query concurrently and returns the sets in query order.
func FetchAll(ctx context.Context, f Fetcher, qs ...Query) ([]series.Set, error) {
	out := make([]series.Set, len(qs))
	g, ctx := errgroup.WithContext(ctx)
	for i, q := range qs {
		i, q := i, q
		g.Go(func() error {
			set, err := f.Fetch(ctx, q)
			if err != nil {
				return err
			}
			out[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowIterator interface {
	Next() bool
	Record() *query.FluxRecord
	Err() error
}

func collect(it rowIterator, conv func(float64) float64) (series.Set, error) {
	b := series.NewBuilder()
	for it.Next() {
		rec := it.Record()
		id, ok := rec.ValueByKey(EntityTag).(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("record at %s has no %s tag", rec.Time().Format(time.RFC3339), EntityTag)
		}
		v, err := toFloat(rec.Value())
		if err != nil {
			return nil, fmt.Errorf("%s at %s: %w", id, rec.Time().Format(time.RFC3339), err)
		}
		if conv != nil {
			v = conv(v)
		}
		b.Add(id, rec.Time().UTC(), v)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("influx result: %w", err)
	}
	return b.Set(), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("unsupported value type %T", v)
}
