// Package publish sends rendered calibration snippets to an MQTT broker so
// device configs can pick them up.
package publish

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/KaramelBytes/sensorcal-cli/internal/calibration"
	"github.com/KaramelBytes/sensorcal-cli/internal/render"
)

// Config holds broker settings.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
	Retain      bool
	Timeout     time.Duration
}

// publisher is the subset of mqtt.Client used here.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher publishes snippets for calibration records.
type Publisher struct {
	cfg    Config
	client publisher
	close  func()
}

// Dial connects to cfg.Broker.
func Dial(cfg Config) (*Publisher, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, errors.New("mqtt_broker is not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetConnectTimeout(cfg.Timeout).
		SetAutoReconnect(false)
	if cfg.ClientID != "" {
		opts.SetClientID(cfg.ClientID)
	}
	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("connect %s: timed out after %s", cfg.Broker, cfg.Timeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	return &Publisher{cfg: cfg, client: c, close: func() { c.Disconnect(250) }}, nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.close != nil {
		p.close()
	}
}

// Topic returns <prefix>/<sensor>/<kind>.
func Topic(prefix, sensor, kind string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return sensor + "/" + kind
	}
	return prefix + "/" + sensor + "/" + kind
}

// Records publishes the temperature block and humidity lambda of every record
// and returns the number of messages sent. It stops at the first failure.
func (p *Publisher) Records(recs []calibration.Record, opt render.Options) (int, error) {
	sent := 0
	for _, rec := range recs {
		temp, err := render.Temperature(rec, opt)
		if err != nil {
			return sent, err
		}
		hum, err := render.Humidity(rec, opt)
		if err != nil {
			return sent, err
		}
		for _, m := range []struct{ kind, body string }{{"temperature", temp}, {"humidity", hum}} {
			if err := p.send(Topic(p.cfg.TopicPrefix, rec.Name, m.kind), m.body); err != nil {
				return sent, err
			}
			sent++
		}
	}
	return sent, nil
}

func (p *Publisher) send(topic, payload string) error {
	tok := p.client.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload)
	if !tok.WaitTimeout(p.cfg.Timeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
