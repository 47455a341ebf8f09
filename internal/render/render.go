// Package render turns calibration records into ESPHome configuration text:
// a calibrate_linear filter for temperature and a lambda filter for humidity
// that relies on the segmented_linear and calibrated_humidity helpers from
// the device-side calibration.h.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/KaramelBytes/sensorcal-cli/internal/calibration"
	"github.com/KaramelBytes/sensorcal-cli/internal/series"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.New("").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(templatesFS, "templates/*.tmpl"))

// Options controls numeric formatting and template parameters.
type Options struct {
	// Precision is the number of decimals every emitted value is rounded to
	// and printed with.
	Precision int
	Rounding  series.Rounding
	// TemperatureID is the ESPHome id of the live temperature sensor the
	// humidity lambda reads.
	TemperatureID string
}

// DefaultOptions returns 3-decimal half-even output reading id(temperature).
func DefaultOptions() Options {
	return Options{Precision: 3, Rounding: series.HalfEven, TemperatureID: "temperature"}
}

// Number rounds v and prints it with exactly Precision decimals.
func (o Options) Number(v float64) string {
	return strconv.FormatFloat(o.Rounding.Round(v, o.Precision), 'f', o.Precision, 64)
}

// Temperature renders the calibrate_linear block of a record.
func Temperature(rec calibration.Record, opt Options) (string, error) {
	points := make([]string, len(rec.Temperature))
	for i, p := range rec.Temperature {
		points[i] = opt.Number(p.Uncalibrated) + " -> " + opt.Number(p.Reference)
	}
	return execute("temperature.tmpl", struct{ Points []string }{points})
}

// HumidityLambda renders the body of the humidity lambda.
func HumidityLambda(rec calibration.Record, opt Options) (string, error) {
	id := opt.TemperatureID
	if id == "" {
		id = "temperature"
	}
	point := func(a calibration.Anchor) string {
		return "{" + opt.Number(a.Temperature) + ", " + opt.Number(a.Raw) + "}"
	}
	h := rec.Humidity
	data := struct {
		LowLevel, HighLevel   string
		LowPoints, HighPoints []string
		TemperatureID         string
	}{
		LowLevel:      opt.Number(h.Low.Cold.Humidity),
		HighLevel:     opt.Number(h.High.Cold.Humidity),
		LowPoints:     []string{point(h.Low.Cold), point(h.Low.Hot)},
		HighPoints:    []string{point(h.High.Cold), point(h.High.Hot)},
		TemperatureID: id,
	}
	return execute("humidity.tmpl", data)
}

// Humidity renders the full `lambda: |-` block of a record.
func Humidity(rec calibration.Record, opt Options) (string, error) {
	body, err := HumidityLambda(rec, opt)
	if err != nil {
		return "", err
	}
	return "lambda: |-\n" + indent(body, "  "), nil
}

// Text writes every record in the plain console layout.
func Text(w io.Writer, recs []calibration.Record, opt Options) error {
	for _, rec := range recs {
		temp, err := Temperature(rec, opt)
		if err != nil {
			return fmt.Errorf("render %s temperature: %w", rec.Name, err)
		}
		hum, err := Humidity(rec, opt)
		if err != nil {
			return fmt.Errorf("render %s humidity: %w", rec.Name, err)
		}
		var b strings.Builder
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Sensor:", rec.Name)
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "========== Temperature Calibration ==========")
		fmt.Fprintln(&b, temp)
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "=========== Humidity Calibration ============")
		fmt.Fprintln(&b, hum)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return fmt.Errorf("write %s: %w", rec.Name, err)
		}
	}
	return nil
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
