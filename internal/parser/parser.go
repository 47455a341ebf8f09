// Package parser reads sensor reading dumps into series sets and writes them
// back out. Each row is SENSOR_ID,TIMESTAMP,VALUE.
package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/sensorcal-cli/internal/series"
)

// Parser defines a readings file parser implementation.
type Parser interface {
	CanParse(filename string) bool
	// Parse appends every reading in r to b.
	Parse(r io.Reader, b *series.Builder) (int, error)
}

var registry []Parser

// Register adds a parser implementation to the registry. Later registrations
// take precedence over the default CSV fallback only if they match first.
func Register(p Parser) {
	registry = append(registry, p)
}

// ErrEmpty indicates a file held no readings.
var ErrEmpty = errors.New("no readings")

// ParseFile selects a parser by filename and returns the readings grouped by
// sensor.
func ParseFile(path string) (series.Set, error) {
	b := series.NewBuilder()
	if err := parseInto(path, b); err != nil {
		return nil, err
	}
	return b.Set(), nil
}

// ParseFiles merges several files into one set. A sensor present in more than
// one file gets all of its readings, re-sorted by time.
func ParseFiles(paths ...string) (series.Set, error) {
	b := series.NewBuilder()
	for _, p := range paths {
		if err := parseInto(p, b); err != nil {
			return nil, err
		}
	}
	return b.Set(), nil
}

func parseInto(path string, b *series.Builder) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	p := lookup(path)
	n, err := p.Parse(f, b)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("parse %s: %w", path, ErrEmpty)
	}
	return nil
}

func lookup(path string) Parser {
	for _, p := range registry {
		if p.CanParse(path) {
			return p
		}
	}
	// Fallback to comma separated
	return delimited{comma: ','}
}

func init() {
	Register(delimited{comma: '\t', suffixes: []string{".tsv"}})
	Register(delimited{comma: ',', suffixes: []string{".csv", ".txt"}})
}

func hasSuffix(name string, suffixes []string) bool {
	name = strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
