package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
)

// TimeLayout is the timestamp format of reading dumps.
const TimeLayout = "2006-01-02T15:04:05Z"

// Header is the first line WriteCSV emits.
var Header = []string{"ENTITY_ID", "TIMESTAMP", "VALUE"}

type delimited struct {
	comma    rune
	suffixes []string
}

func (d delimited) CanParse(filename string) bool {
	return hasSuffix(filename, d.suffixes)
}

func (d delimited) Parse(in io.Reader, b *series.Builder) (int, error) {
	r := csv.NewReader(in)
	r.Comma = d.comma
	r.ReuseRecord = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	n := 0
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if isHeader(rec) || blank(rec) {
			continue
		}
		if len(rec) < 3 {
			return n, fmt.Errorf("line %d: expected SENSOR_ID,TIMESTAMP,VALUE, got %d fields", line, len(rec))
		}
		ts, err := ParseTime(rec[1])
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return n, fmt.Errorf("line %d: value %q: %w", line, rec[2], err)
		}
		b.Add(strings.TrimSpace(rec[0]), ts, v)
		n++
	}
}

// ParseTime accepts TimeLayout and falls back to RFC 3339 with fractional
// seconds or an offset. Results are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func isHeader(rec []string) bool {
	for _, f := range rec {
		if strings.Contains(strings.ToUpper(f), "TIMESTAMP") {
			return true
		}
	}
	return false
}

func blank(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "")
}

// WriteCSV writes the set as ENTITY_ID,TIMESTAMP,VALUE rows, sorted by sensor
// then time.
func WriteCSV(w io.Writer, set series.Set) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, name := range set.Names() {
		s := set[name]
		for i := 0; i < s.Len(); i++ {
			r := s.At(i)
			row := []string{name, r.Time.UTC().Format(TimeLayout), strconv.FormatFloat(r.Value, 'f', -1, 64)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
