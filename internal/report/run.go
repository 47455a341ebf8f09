// Package report persists calibration runs so they can be re-rendered or
// published later without re-querying the source data.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/sensorcal-cli/internal/calibration"
	"github.com/KaramelBytes/sensorcal-cli/internal/utils"
)

// Source kinds.
const (
	SourceCSV    = "csv"
	SourceInflux = "influx"
)

// Source records where the input series came from.
type Source struct {
	Kind string `json:"kind"`
	// Inputs maps the input role (reference_temperature, ...) to file paths
	// or entity ids.
	Inputs map[string][]string `json:"inputs"`
	Start  *time.Time          `json:"start,omitempty"`
	End    *time.Time          `json:"end,omitempty"`
}

// Run is a persisted calibration run.
type Run struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Source    Source              `json:"source"`
	Result    *calibration.Result `json:"result"`
}

// NewRun constructs an in-memory run. Call Save to persist.
func NewRun(src Source, res *calibration.Result) *Run {
	return &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Source:    src,
		Result:    res,
	}
}

// Load reads a run file written by Save.
func Load(path string) (*Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run: %w", err)
	}
	if r.Result == nil {
		return nil, fmt.Errorf("parse run: %s has no result", path)
	}
	return &r, nil
}

// JSON returns the indented run document.
func (r *Run) JSON() ([]byte, error) {
	return utils.PrettyJSON(r)
}

// Save writes the run to path using atomic write.
func (r *Run) Save(path string) error {
	if r.Result == nil {
		return errors.New("run has no result")
	}
	data, err := r.JSON()
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, data)
}

// Summary is a short human-readable description of the run.
func (r *Run) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s (%s source)\n", r.ID, r.Source.Kind)
	res := r.Result
	if res == nil {
		return sb.String()
	}
	fmt.Fprintf(&sb, "Window: %s .. %s\n", res.Start.Format(time.RFC3339), res.End.Format(time.RFC3339))
	levels := make([]string, len(res.Candidates))
	for i, c := range res.Candidates {
		levels[i] = fmt.Sprintf("%g", c.Temperature)
	}
	fmt.Fprintf(&sb, "Temperature points: %s\n", strings.Join(levels, ", "))
	if res.Bands != nil {
		fmt.Fprintf(&sb, "Humidity bands: %g / %g (mean %.3f, sd %.3f)\n",
			res.Bands.Low.Level, res.Bands.High.Level, res.Bands.Mean, res.Bands.StdDev)
	}
	names := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		names = append(names, rec.Name+" + "+rec.HumiditySensor)
	}
	sort.Strings(names)
	fmt.Fprintf(&sb, "Sensors (%d):\n", len(names))
	for _, n := range names {
		sb.WriteString("  - ")
		sb.WriteString(n)
		sb.WriteString("\n")
	}
	return sb.String()
}
