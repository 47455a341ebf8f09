package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/sensorcal-cli/internal/calibration"
	"github.com/KaramelBytes/sensorcal-cli/internal/parser"
	"github.com/KaramelBytes/sensorcal-cli/internal/report"
	"github.com/KaramelBytes/sensorcal-cli/internal/series"
)

var (
	calRefTempFiles   []string
	calRefHumFiles    []string
	calUncalTempFiles []string
	calUncalHumFiles  []string
	calOut            outputFlags
)

// Short spellings accepted for the input flags.
var calFlagAliases = map[string]string{
	"rt": "reference-temperature-csv",
	"rh": "reference-humidity-csv",
	"ut": "uncalibrated-temperature-csv",
	"uh": "uncalibrated-humidity-csv",
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate sensors from CSV/TSV reading dumps",
	Long: `Reads four dumps of SENSOR_ID,TIMESTAMP,VALUE rows (timestamps like
2024-03-01T12:00:00Z) and prints the ESPHome filters for every uncalibrated sensor.
Each flag may be repeated; files of the same role are merged.`,
	Example: `  sensorcal calibrate --rt ref_temp.csv --rh ref_hum.csv --ut temp.csv --uh hum.csv
  sensorcal calibrate --rt ref_temp.csv --rh ref_hum.csv --ut temp.csv --uh hum.csv --format yaml -o filters.yaml
  sensorcal calibrate ... --pairing explicit --save-run runs/attic.json --publish`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := calOut.validate(); err != nil {
			return err
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		params, err := c.Params()
		if err != nil {
			return err
		}

		var in calibration.Input
		for _, role := range []struct {
			flag  string
			files []string
			dst   *series.Set
		}{
			{"reference-temperature-csv", calRefTempFiles, &in.ReferenceTemperature},
			{"reference-humidity-csv", calRefHumFiles, &in.ReferenceHumidity},
			{"uncalibrated-temperature-csv", calUncalTempFiles, &in.UncalibratedTemperature},
			{"uncalibrated-humidity-csv", calUncalHumFiles, &in.UncalibratedHumidity},
		} {
			set, err := parser.ParseFiles(role.files...)
			if err != nil {
				return fmt.Errorf("unable to read all CSVs: --%s: %w", role.flag, err)
			}
			*role.dst = set
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
			Kind: report.SourceCSV,
			Inputs: map[string][]string{
				"reference_temperature":    calRefTempFiles,
				"reference_humidity":       calRefHumFiles,
				"uncalibrated_temperature": calUncalTempFiles,
				"uncalibrated_humidity":    calUncalHumFiles,
			},
		}, res)
		return emit(cmd, c, run, &calOut)
	},
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	f := calibrateCmd.Flags()
	f.StringSliceVar(&calRefTempFiles, "reference-temperature-csv", nil, "reference (calibrated) temperature readings (alias --rt)")
	f.StringSliceVar(&calRefHumFiles, "reference-humidity-csv", nil, "reference (calibrated) humidity readings (alias --rh)")
	f.StringSliceVar(&calUncalTempFiles, "uncalibrated-temperature-csv", nil, "uncalibrated temperature readings (alias --ut)")
	f.StringSliceVar(&calUncalHumFiles, "uncalibrated-humidity-csv", nil, "uncalibrated humidity readings (alias --uh)")
	for _, name := range []string{"reference-temperature-csv", "reference-humidity-csv", "uncalibrated-temperature-csv", "uncalibrated-humidity-csv"} {
		_ = calibrateCmd.MarkFlagRequired(name)
	}
	f.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if full, ok := calFlagAliases[name]; ok {
			name = full
		}
		return pflag.NormalizedName(name)
	})
	calOut.register(f, true)
}
