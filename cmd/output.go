package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/sensorcal-cli/internal/calibration"
	cfgpkg "github.com/KaramelBytes/sensorcal-cli/internal/config"
	"github.com/KaramelBytes/sensorcal-cli/internal/publish"
	"github.com/KaramelBytes/sensorcal-cli/internal/render"
	"github.com/KaramelBytes/sensorcal-cli/internal/report"
	"github.com/KaramelBytes/sensorcal-cli/internal/utils"
)

// recordPublisher is satisfied by *publish.Publisher.
type recordPublisher interface {
	Records(recs []calibration.Record, opt render.Options) (int, error)
	Close()
}

// dialPublisher is swapped in tests.
var dialPublisher = func(c publish.Config) (recordPublisher, error) {
	return publish.Dial(c)
}

// outputFlags are shared by every command that emits a run.
type outputFlags struct {
	format  string
	output  string
	saveRun string
	publish bool
	summary bool
}

func (o *outputFlags) register(fs *pflag.FlagSet, withSave bool) {
	fs.StringVar(&o.format, "format", "text", "output format: text|yaml|json")
	fs.StringVarP(&o.output, "output", "o", "", "write output to this file instead of stdout")
	fs.BoolVar(&o.publish, "publish", false, "publish snippets to the configured MQTT broker")
	fs.BoolVar(&o.summary, "summary", false, "print a run summary to stderr")
	if withSave {
		fs.StringVar(&o.saveRun, "save-run", "", "persist the run as JSON for later 'sensorcal render'")
	}
}

func (o *outputFlags) validate() error {
	switch o.format {
	case "text", "yaml", "json":
		return nil
	}
	return fmt.Errorf("invalid --format %q (use text, yaml or json)", o.format)
}

// emit writes, saves and publishes a run according to o.
func emit(cmd *cobra.Command, c *cfgpkg.Global, run *report.Run, o *outputFlags) error {
	if run.Result == nil || len(run.Result.Records) == 0 {
		return errNoRecords
	}
	opt := c.RenderOptions(run.Result.Params)
	stderr := cmd.ErrOrStderr()

	var data []byte
	switch o.format {
	case "yaml":
		b, err := render.YAML(run.Result.Records, opt)
		if err != nil {
			return err
		}
		data = b
	case "json":
		b, err := run.JSON()
		if err != nil {
			return err
		}
		data = b
	default:
		var buf bytes.Buffer
		if err := render.Text(&buf, run.Result.Records, opt); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	if o.output != "" {
		if err := utils.SafeWriteFile(o.output, data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(stderr, "✓ Wrote %s calibration for %d sensor(s) to %s\n", o.format, len(run.Result.Records), o.output)
	} else if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}

	if o.saveRun != "" {
		if err := run.Save(o.saveRun); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Fprintf(stderr, "✓ Saved run %s to %s\n", run.ID, o.saveRun)
	}
	if o.summary {
		fmt.Fprint(stderr, run.Summary())
	}

	if o.publish {
		mc, err := c.MQTT()
		if err != nil {
			return err
		}
		p, err := dialPublisher(mc)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		defer p.Close()
		n, err := p.Records(run.Result.Records, opt)
		if err != nil {
			return fmt.Errorf("mqtt: published %d message(s) before failing: %w", n, err)
		}
		fmt.Fprintf(stderr, "✓ Published %d snippet(s) under %s/\n", n, mc.TopicPrefix)
	}
	return nil
}
