package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sensorcal-cli/internal/analysis"
	"github.com/KaramelBytes/sensorcal-cli/internal/parser"
	"github.com/KaramelBytes/sensorcal-cli/internal/utils"
)

var (
	inspOutputPath string
	inspGap        time.Duration
	inspOutlierZ   float64
	inspStrict     bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Summarize reading dumps and flag coverage problems",
	Long: `Prints per-sensor counts, time span, value range, sampling step, gaps and
outliers for each CSV/TSV dump. Useful before 'sensorcal calibrate' to spot sensors
that went offline during the calibration window.`,
	Example: `  sensorcal inspect ref_temp.csv temp.csv
  sensorcal inspect dumps/*.csv --gap 2m --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := analysis.DefaultOptions()
		if cmd.Flags().Changed("gap") {
			opt.GapThreshold = inspGap
		}
		if cmd.Flags().Changed("outlier-z") {
			opt.OutlierZ = inspOutlierZ
		}

		var sb strings.Builder
		var warnings []string
		for _, path := range args {
			set, err := parser.ParseFile(path)
			if err != nil {
				return err
			}
			rep := analysis.Summarize(filepath.Base(path), set, opt)
			sb.WriteString(rep.Markdown())
			sb.WriteString("\n")
			warnings = append(warnings, rep.Warnings()...)
		}

		// Decide where to write: --output path or stdout
		if inspOutputPath != "" {
			if err := utils.SafeWriteFile(inspOutputPath, []byte(sb.String())); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote summary to %s\n", inspOutputPath)
		} else {
			fmt.Fprint(cmd.OutOrStdout(), sb.String())
		}
		for _, w := range warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", w)
		}
		if inspStrict && len(warnings) > 0 {
			return fmt.Errorf("%d coverage warning(s)", len(warnings))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspOutputPath, "output", "o", "", "optional path to write the summary")
	inspectCmd.Flags().DurationVar(&inspGap, "gap", 5*time.Minute, "flag intervals between readings longer than this")
	inspectCmd.Flags().Float64Var(&inspOutlierZ, "outlier-z", 4, "flag readings with |z| above this (0 disables)")
	inspectCmd.Flags().BoolVar(&inspStrict, "strict", false, "exit with an error when any warning is raised")
}
