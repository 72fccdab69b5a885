package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"codepulse/internal/version"
)

var (
	// rootFlag is the audited repository root.
	rootFlag string

	// fastFlag skips slow phases.
	fastFlag bool

	// verbosity counts -v occurrences.
	verbosity int

	// quietFlag suppresses all log output.
	quietFlag bool

	// noColorFlag disables colored report output.
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "codepulse",
	Short: "codepulse - continuous quality audit for web app source trees",
	Long: `codepulse audits a JavaScript web application source tree: it builds the
import dependency graph, cross-references event handler wiring, detects dead
code and import cycles, measures the impact of recent changes, and scores the
tree across twelve phases. Results persist across runs so regressions and
recommendation follow-through are tracked over time.`,
	Version: version.Version,
	RunE:    runAudit,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag {
			color.NoColor = true
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("codepulse version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".",
		"Repository root to audit")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false,
		"Suppress all log output")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false,
		"Disable colored output")
	rootCmd.Flags().BoolVar(&fastFlag, "fast", false,
		"Skip slow phases (external performance tooling)")
}
