package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/sensorcal-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set sensorcal configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "influx_url: %s\n", c.InfluxURL)
		fmt.Fprintf(out, "influx_token: %s\n", mask(c.InfluxToken))
		fmt.Fprintf(out, "influx_org: %s\n", c.InfluxOrg)
		fmt.Fprintf(out, "influx_bucket: %s\n", c.InfluxBucket)
		fmt.Fprintf(out, "influx_timeout_sec: %d\n", c.InfluxTimeoutSec)
		fmt.Fprintf(out, "interval_sec: %d\n", c.IntervalSec)
		fmt.Fprintf(out, "min_samples: %d\n", c.MinSamples)
		fmt.Fprintf(out, "min_spacing: %g\n", c.MinSpacing)
		fmt.Fprintf(out, "match_precision: %d\n", c.MatchPrecision)
		fmt.Fprintf(out, "report_precision: %d\n", c.ReportPrecision)
		fmt.Fprintf(out, "rounding: %s\n", c.Rounding)
		fmt.Fprintf(out, "pairing: %s\n", c.Pairing)
		if len(c.SensorPairs) > 0 {
			fmt.Fprintf(out, "sensor_pairs: %s\n", formatPairs(c.SensorPairs))
		}
		fmt.Fprintf(out, "stored_temp_unit: %s\n", c.StoredTempUnit)
		fmt.Fprintf(out, "reported_temp_unit: %s\n", c.ReportedTempUnit)
		fmt.Fprintf(out, "temperature_id: %s\n", c.TemperatureID)
		if c.MQTTBroker != "" {
			fmt.Fprintf(out, "mqtt_broker: %s\n", c.MQTTBroker)
			fmt.Fprintf(out, "mqtt_client_id: %s\n", c.MQTTClientID)
		}
		fmt.Fprintf(out, "mqtt_topic_prefix: %s\n", c.MQTTTopicPrefix)
		fmt.Fprintf(out, "mqtt_qos: %d\n", c.MQTTQoS)
		fmt.Fprintf(out, "mqtt_retain: %t\n", c.MQTTRetain)
		fmt.Fprintf(out, "mqtt_timeout_sec: %d\n", c.MQTTTimeoutSec)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Example: `  sensorcal config set influx_url http://homeassistant.local:8086
  sensorcal config set pairing explicit
  sensorcal config set sensor_pairs attic_temp=attic_hum,garage_temp=garage_hum`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// Start from the file and env only; flag overrides are not persisted.
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := c.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}

func formatPairs(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, ",")
}
