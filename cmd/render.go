package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sensorcal-cli/internal/report"
)

var renderOut outputFlags

var renderCmd = &cobra.Command{
	Use:   "render <run.json>",
	Short: "Re-render or publish a saved calibration run",
	Long: `Loads a run written with --save-run and emits it again. Rounding and precision
come from the saved run; temperature_id and MQTT settings come from the current config.`,
	Example: `  sensorcal render runs/attic.json --format yaml -o filters.yaml
  sensorcal render runs/attic.json --publish`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := renderOut.validate(); err != nil {
			return err
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		run, err := report.Load(args[0])
		if err != nil {
			return err
		}
		return emit(cmd, c, run, &renderOut)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderOut.register(renderCmd.Flags(), false)
}
