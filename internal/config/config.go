package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/sensorcal-cli/internal/calibration"
	"github.com/KaramelBytes/sensorcal-cli/internal/influx"
	"github.com/KaramelBytes/sensorcal-cli/internal/publish"
	"github.com/KaramelBytes/sensorcal-cli/internal/render"
	"github.com/KaramelBytes/sensorcal-cli/internal/series"
	"github.com/KaramelBytes/sensorcal-cli/internal/units"
)

// Global configuration structure.
type Global struct {
	// InfluxDB source
	InfluxURL        string `mapstructure:"influx_url" yaml:"influx_url"`
	InfluxToken      string `mapstructure:"influx_token" yaml:"influx_token"`
	InfluxOrg        string `mapstructure:"influx_org" yaml:"influx_org"`
	InfluxBucket     string `mapstructure:"influx_bucket" yaml:"influx_bucket"`
	InfluxTimeoutSec int    `mapstructure:"influx_timeout_sec" yaml:"influx_timeout_sec"`

	// Calibration grid and selection
	IntervalSec     int               `mapstructure:"interval_sec" yaml:"interval_sec"`
	MinSamples      int               `mapstructure:"min_samples" yaml:"min_samples"`
	MinSpacing      float64           `mapstructure:"min_spacing" yaml:"min_spacing"`
	MatchPrecision  int               `mapstructure:"match_precision" yaml:"match_precision"`
	ReportPrecision int               `mapstructure:"report_precision" yaml:"report_precision"`
	Rounding        string            `mapstructure:"rounding" yaml:"rounding"`
	Pairing         string            `mapstructure:"pairing" yaml:"pairing"`
	SensorPairs     map[string]string `mapstructure:"sensor_pairs" yaml:"sensor_pairs,omitempty"`

	// Units and rendering
	StoredTempUnit   string `mapstructure:"stored_temp_unit" yaml:"stored_temp_unit"`
	ReportedTempUnit string `mapstructure:"reported_temp_unit" yaml:"reported_temp_unit"`
	TemperatureID    string `mapstructure:"temperature_id" yaml:"temperature_id"`

	// MQTT publication
	MQTTBroker      string `mapstructure:"mqtt_broker" yaml:"mqtt_broker"`
	MQTTTopicPrefix string `mapstructure:"mqtt_topic_prefix" yaml:"mqtt_topic_prefix"`
	MQTTClientID    string `mapstructure:"mqtt_client_id" yaml:"mqtt_client_id"`
	MQTTQoS         int    `mapstructure:"mqtt_qos" yaml:"mqtt_qos"`
	MQTTRetain      bool   `mapstructure:"mqtt_retain" yaml:"mqtt_retain"`
	MQTTTimeoutSec  int    `mapstructure:"mqtt_timeout_sec" yaml:"mqtt_timeout_sec"`
}

// DefaultPath returns ~/.sensorcal/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".sensorcal", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sensorcal/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded first and never overrides variables already set.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SENSORCAL")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("influx_url", "")
	v.SetDefault("influx_token", "")
	v.SetDefault("influx_org", "")
	v.SetDefault("influx_bucket", "")
	v.SetDefault("influx_timeout_sec", 60)
	v.SetDefault("interval_sec", 30)
	v.SetDefault("min_samples", 4)
	v.SetDefault("min_spacing", 2.0)
	v.SetDefault("match_precision", 1)
	v.SetDefault("report_precision", 3)
	v.SetDefault("rounding", "half-even")
	v.SetDefault("pairing", "rank")
	v.SetDefault("sensor_pairs", map[string]string{})
	v.SetDefault("stored_temp_unit", "C")
	v.SetDefault("reported_temp_unit", "C")
	v.SetDefault("temperature_id", "temperature")
	// MQTT defaults
	v.SetDefault("mqtt_broker", "")
	v.SetDefault("mqtt_topic_prefix", "sensorcal")
	v.SetDefault("mqtt_client_id", "")
	v.SetDefault("mqtt_qos", 1)
	v.SetDefault("mqtt_retain", true)
	v.SetDefault("mqtt_timeout_sec", 10)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Params converts the calibration keys into explicit run parameters.
func (c *Global) Params() (calibration.Params, error) {
	r, err := series.ParseRounding(c.Rounding)
	if err != nil {
		return calibration.Params{}, err
	}
	mode, err := calibration.ParsePairingMode(c.Pairing)
	if err != nil {
		return calibration.Params{}, err
	}
	p := calibration.Params{
		Interval:        time.Duration(c.IntervalSec) * time.Second,
		MinSamples:      c.MinSamples,
		MinSpacing:      c.MinSpacing,
		MatchPrecision:  c.MatchPrecision,
		ReportPrecision: c.ReportPrecision,
		Rounding:        r,
		Pairing:         calibration.Pairing{Mode: mode, Pairs: c.SensorPairs},
	}
	if err := p.Validate(); err != nil {
		return calibration.Params{}, err
	}
	return p, nil
}

// RenderOptions returns output formatting for runs calibrated with p.
func (c *Global) RenderOptions(p calibration.Params) render.Options {
	return render.Options{Precision: p.ReportPrecision, Rounding: p.Rounding, TemperatureID: c.TemperatureID}
}

// TempUnits parses the stored and reported temperature units.
func (c *Global) TempUnits() (stored, reported units.Temperature, err error) {
	if stored, err = units.ParseTemperature(c.StoredTempUnit); err != nil {
		return "", "", fmt.Errorf("stored_temp_unit: %w", err)
	}
	if reported, err = units.ParseTemperature(c.ReportedTempUnit); err != nil {
		return "", "", fmt.Errorf("reported_temp_unit: %w", err)
	}
	return stored, reported, nil
}

// Influx returns the InfluxDB client settings.
func (c *Global) Influx() influx.Config {
	return influx.Config{
		URL:     c.InfluxURL,
		Token:   c.InfluxToken,
		Org:     c.InfluxOrg,
		Bucket:  c.InfluxBucket,
		Timeout: time.Duration(c.InfluxTimeoutSec) * time.Second,
	}
}

// MQTT returns the broker settings.
func (c *Global) MQTT() (publish.Config, error) {
	if c.MQTTQoS < 0 || c.MQTTQoS > 2 {
		return publish.Config{}, fmt.Errorf("mqtt_qos must be 0, 1 or 2, got %d", c.MQTTQoS)
	}
	return publish.Config{
		Broker:      c.MQTTBroker,
		ClientID:    c.MQTTClientID,
		TopicPrefix: c.MQTTTopicPrefix,
		QoS:         byte(c.MQTTQoS),
		Retain:      c.MQTTRetain,
		Timeout:     time.Duration(c.MQTTTimeoutSec) * time.Second,
	}, nil
}
