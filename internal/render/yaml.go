package render

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/sensorcal-cli/internal/calibration"
)

// YAML renders every record as an ESPHome-style filters document keyed by
// the uncalibrated temperature sensor name. Key order follows recs.
func YAML(recs []calibration.Record, opt Options) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, rec := range recs {
		lambda, err := HumidityLambda(rec, opt)
		if err != nil {
			return nil, fmt.Errorf("render %s humidity: %w", rec.Name, err)
		}
		points := seq()
		for _, p := range rec.Temperature {
			points.Content = append(points.Content, str(opt.Number(p.Uncalibrated)+" -> "+opt.Number(p.Reference)))
		}
		linear := mapping(
			"method", str("exact"),
			"datapoints", points,
		)
		lam := str(lambda)
		lam.Style = yaml.LiteralStyle

		entry := mapping(
			"humidity_sensor", str(rec.HumiditySensor),
			"temperature", mapping("filters", seq(mapping("calibrate_linear", linear))),
			"humidity", mapping("filters", seq(mapping("lambda", lam))),
		)
		root.Content = append(root.Content, str(rec.Name), entry)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func seq(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Content: items}
}

// mapping builds a mapping node from alternating key, value pairs.
func mapping(kv ...any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Content = append(n.Content, str(kv[i].(string)), kv[i+1].(*yaml.Node))
	}
	return n
}
