package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cfgpkg "github.com/KaramelBytes/sensorcal-cli/internal/config"
	"github.com/KaramelBytes/sensorcal-cli/internal/logging"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	logFile string
	// Calibration overrides (override config if set)
	flagIntervalSec int
	flagMinSamples  int
	flagMinSpacing  float64
	flagRounding    string
	flagPairing     string

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "sensorcal",
	Short: "sensorcal: derive ESPHome calibration filters from reference sensors",
	Long: `sensorcal compares cheap temperature/humidity sensors against calibrated reference
sensors that shared the same environment, and emits ESPHome calibrate_linear and
humidity lambda filters for each uncalibrated sensor.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Reload per execution so overrides never leak between runs.
	cobra.OnInitialize(loadConfig)

	// Persistent global flags available to all subcommands
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.sensorcal/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&logFile, "log-file", "", "also append logs to this file")
	pf.IntVar(&flagIntervalSec, "interval-sec", 0, "resampling interval in seconds (overrides config)")
	pf.IntVar(&flagMinSamples, "min-samples", 0, "a temperature level needs more than this many samples (overrides config)")
	pf.Float64Var(&flagMinSpacing, "min-spacing", 0, "minimum spacing between temperature points in degrees (overrides config)")
	pf.StringVar(&flagRounding, "rounding", "", "rounding policy: half-even|half-away (overrides config)")
	pf.StringVar(&flagPairing, "pairing", "", "sensor pairing: rank|explicit (overrides config)")
}

func loadConfig() {
	cfg, cfgErr = nil, nil
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		cfgErr = err
		return
	}

	// Apply CLI overrides if provided. Persistent flags are parsed on the
	// subcommand's flag set, so check Changed rather than Visit.
	var overrides []string
	rootCmd.PersistentFlags().VisitAll(func(fl *pflag.Flag) {
		if !fl.Changed {
			return
		}
		key := ""
		switch fl.Name {
		case "interval-sec":
			key = "interval_sec"
		case "min-samples":
			key = "min_samples"
		case "min-spacing":
			key = "min_spacing"
		case "rounding":
			key = "rounding"
		case "pairing":
			key = "pairing"
		default:
			return
		}
		if err := c.Set(key, fl.Value.String()); err != nil {
			overrides = append(overrides, fmt.Sprintf("--%s: %v", fl.Name, err))
		}
	})
	if len(overrides) > 0 {
		cfgErr = fmt.Errorf("invalid flag: %s", overrides[0])
		return
	}
	cfg = c
}

// requireConfig returns the loaded configuration or the reason it failed.
func requireConfig() (*cfgpkg.Global, error) {
	if cfgErr != nil {
		return nil, fmt.Errorf("load config: %w", cfgErr)
	}
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	return cfg, nil
}

// newLogger builds the run logger on stderr, plus --log-file when given.
func newLogger(cmd *cobra.Command) (*slog.Logger, io.Closer, error) {
	if logFile == "" {
		return logging.New(cmd.ErrOrStderr(), debug), io.NopCloser(nil), nil
	}
	return logging.WithFile(cmd.ErrOrStderr(), logFile, debug)
}

// errNoRecords is returned when a run produced nothing to emit.
var errNoRecords = errors.New("run has no calibration records")
