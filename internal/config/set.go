package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/sensorcal-cli/internal/calibration"
	"github.com/KaramelBytes/sensorcal-cli/internal/series"
	"github.com/KaramelBytes/sensorcal-cli/internal/units"
)

// Set assigns one key from its string form. Enumerated keys are normalized;
// sensor_pairs takes "temp=hum,temp=hum".
func (c *Global) Set(key, val string) error {
	switch key {
	case "influx_url":
		c.InfluxURL = val
	case "influx_token":
		c.InfluxToken = val
	case "influx_org":
		c.InfluxOrg = val
	case "influx_bucket":
		c.InfluxBucket = val
	case "influx_timeout_sec":
		return setInt(&c.InfluxTimeoutSec, key, val, 1)
	case "interval_sec":
		return setInt(&c.IntervalSec, key, val, 1)
	case "min_samples":
		return setInt(&c.MinSamples, key, val, 0)
	case "min_spacing":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		c.MinSpacing = f
	case "match_precision":
		return setInt(&c.MatchPrecision, key, val, 0)
	case "report_precision":
		return setInt(&c.ReportPrecision, key, val, 0)
	case "rounding":
		r, err := series.ParseRounding(val)
		if err != nil {
			return err
		}
		c.Rounding = r.String()
	case "pairing":
		m, err := calibration.ParsePairingMode(val)
		if err != nil {
			return err
		}
		c.Pairing = string(m)
	case "sensor_pairs":
		pairs, err := ParsePairs(val)
		if err != nil {
			return err
		}
		c.SensorPairs = pairs
	case "stored_temp_unit", "reported_temp_unit":
		u, err := units.ParseTemperature(val)
		if err != nil {
			return err
		}
		if key == "stored_temp_unit" {
			c.StoredTempUnit = string(u)
		} else {
			c.ReportedTempUnit = string(u)
		}
	case "temperature_id":
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("temperature_id must not be empty")
		}
		c.TemperatureID = val
	case "mqtt_broker":
		c.MQTTBroker = val
	case "mqtt_topic_prefix":
		c.MQTTTopicPrefix = val
	case "mqtt_client_id":
		c.MQTTClientID = val
	case "mqtt_qos":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 || i > 2 {
			return fmt.Errorf("invalid mqtt_qos: %v (use 0, 1 or 2)", val)
		}
		c.MQTTQoS = i
	case "mqtt_retain":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for mqtt_retain: %v", val)
		}
		c.MQTTRetain = b
	case "mqtt_timeout_sec":
		return setInt(&c.MQTTTimeoutSec, key, val, 1)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, val string, min int) error {
	i, err := strconv.Atoi(val)
	if err != nil || i < min {
		return fmt.Errorf("invalid int for %s: %v", key, val)
	}
	*dst = i
	return nil
}

// ParsePairs parses "a=b,c=d" into a map. An empty string yields an empty map.
func ParsePairs(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid sensor pair %q (want temperature=humidity)", part)
		}
		out[k] = v
	}
	return out, nil
}
