package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sensorcal-cli/internal/calibration"
	"github.com/KaramelBytes/sensorcal-cli/internal/influx"
	"github.com/KaramelBytes/sensorcal-cli/internal/parser"
	"github.com/KaramelBytes/sensorcal-cli/internal/report"
	"github.com/KaramelBytes/sensorcal-cli/internal/series"
	"github.com/KaramelBytes/sensorcal-cli/internal/units"
	"github.com/KaramelBytes/sensorcal-cli/internal/utils"
)

// fetchTimeLayout is the --start/--end format, interpreted as UTC.
const fetchTimeLayout = "2006-01-02 15:04:05"

var (
	fetchStart        string
	fetchEnd          string
	fetchRefTemp      []string
	fetchRefHum       []string
	fetchUncalTemp    []string
	fetchUncalHum     []string
	fetchStoredUnit   string
	fetchReportedUnit string
	fetchCSVDir       string
	fetchOut          outputFlags
)

// readingSource is satisfied by *influx.Client.
type readingSource interface {
	influx.Fetcher
	Close()
}

// newReadingSource is swapped in tests.
var newReadingSource = func(c influx.Config) (readingSource, error) {
	return influx.New(c)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Calibrate sensors from readings stored in InfluxDB",
	Long: `Queries the configured InfluxDB bucket (influx_url, influx_token, influx_org,
influx_bucket; SENSORCAL_* env vars and .env are honored) for the four sensor groups
between --start and --end (UTC) and calibrates them. With --output-csv the query
results are written as CSV dumps instead, for use with 'sensorcal calibrate'.`,
	Example: `  sensorcal fetch --start "2024-03-01 00:00:00" --end "2024-03-03 00:00:00" \
    --reference-temperature-sensors ref_temp --reference-humidity-sensors ref_hum \
    --uncalibrated-temperature-sensors attic_temp,garage_temp \
    --uncalibrated-humidity-sensors attic_hum,garage_hum
  sensorcal fetch ... --stored-temp-unit F --reported-temp-unit C --output-csv dumps/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := fetchOut.validate(); err != nil {
			return err
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		start, err := time.ParseInLocation(fetchTimeLayout, fetchStart, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid --start (want %q): %w", fetchTimeLayout, err)
		}
		end, err := time.ParseInLocation(fetchTimeLayout, fetchEnd, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid --end (want %q): %w", fetchTimeLayout, err)
		}
		if !end.After(start) {
			return fmt.Errorf("--end must be after --start")
		}
		if cmd.Flags().Changed("stored-temp-unit") {
			if err := c.Set("stored_temp_unit", fetchStoredUnit); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("reported-temp-unit") {
			if err := c.Set("reported_temp_unit", fetchReportedUnit); err != nil {
				return err
			}
		}
		stored, reported, err := c.TempUnits()
		if err != nil {
			return err
		}
		var params calibration.Params
		if fetchCSVDir == "" {
			if params, err = c.Params(); err != nil {
				return err
			}
		}

		src, err := newReadingSource(c.Influx())
		if err != nil {
			return err
		}
		defer src.Close()

		conv := units.Converter(stored, reported)
		temp := func(ids []string) influx.Query {
			return influx.Query{Start: start, End: end, Entities: ids, Measurement: stored.Measurement(), Convert: conv}
		}
		hum := func(ids []string) influx.Query {
			return influx.Query{Start: start, End: end, Entities: ids}
		}
		sets, err := influx.FetchAll(cmd.Context(), src,
			temp(fetchRefTemp), hum(fetchRefHum), temp(fetchUncalTemp), hum(fetchUncalHum))
		if err != nil {
			return err
		}
		in := calibration.Input{
			ReferenceTemperature:    sets[0],
			ReferenceHumidity:       sets[1],
			UncalibratedTemperature: sets[2],
			UncalibratedHumidity:    sets[3],
		}

		if fetchCSVDir != "" {
			return writeDumps(cmd, fetchCSVDir, start, end, in)
		}

		log, closer, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closer.Close()
		res, err := calibration.New(params, log).Run(cmd.Context(), in)
		if err != nil {
			return err
		}
		run := report.NewRun(report.Source{
			Kind: report.SourceInflux,
			Inputs: map[string][]string{
				"reference_temperature":    fetchRefTemp,
				"reference_humidity":       fetchRefHum,
				"uncalibrated_temperature": fetchUncalTemp,
				"uncalibrated_humidity":    fetchUncalHum,
			},
			Start: &start,
			End:   &end,
		}, res)
		return emit(cmd, c, run, &fetchOut)
	},
}

// writeDumps writes the four sets as <role>_<start>_<end>.csv under dir.
func writeDumps(cmd *cobra.Command, dir string, start, end time.Time, in calibration.Input) error {
	const stamp = "20060102_150405"
	for _, d := range []struct {
		role string
		set  series.Set
	}{
		{"reference_temperatures", in.ReferenceTemperature},
		{"reference_humidities", in.ReferenceHumidity},
		{"uncalibrated_temperatures", in.UncalibratedTemperature},
		{"uncalibrated_humidities", in.UncalibratedHumidity},
	} {
		var buf bytes.Buffer
		if err := parser.WriteCSV(&buf, d.set); err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.csv", d.role, start.Format(stamp), end.Format(stamp)))
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s (%d sensors)\n", path, len(d.set))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	f := fetchCmd.Flags()
	f.StringVar(&fetchStart, "start", "", `start of the query window, UTC ("YYYY-MM-DD HH:MM:SS")`)
	f.StringVar(&fetchEnd, "end", "", `end of the query window, UTC ("YYYY-MM-DD HH:MM:SS")`)
	f.StringSliceVar(&fetchRefTemp, "reference-temperature-sensors", nil, "entity ids of reference thermometers (comma separated)")
	f.StringSliceVar(&fetchRefHum, "reference-humidity-sensors", nil, "entity ids of reference hygrometers (comma separated)")
	f.StringSliceVar(&fetchUncalTemp, "uncalibrated-temperature-sensors", nil, "entity ids of uncalibrated temperature sensors (comma separated)")
	f.StringSliceVar(&fetchUncalHum, "uncalibrated-humidity-sensors", nil, "entity ids of uncalibrated humidity sensors (comma separated)")
	for _, name := range []string{"start", "end", "reference-temperature-sensors", "reference-humidity-sensors",
		"uncalibrated-temperature-sensors", "uncalibrated-humidity-sensors"} {
		_ = fetchCmd.MarkFlagRequired(name)
	}
	f.StringVar(&fetchStoredUnit, "stored-temp-unit", "C", "unit temperatures are stored in: C|F (overrides config)")
	f.StringVar(&fetchReportedUnit, "reported-temp-unit", "C", "unit the device reports temperature in: C|F (overrides config)")
	f.StringVar(&fetchCSVDir, "output-csv", "", "write query results as CSV dumps to this directory instead of calibrating")
	fetchOut.register(f, true)
}
