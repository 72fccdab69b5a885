package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"codepulse/internal/config"
	"codepulse/internal/engine"
	"codepulse/internal/execx"
	"codepulse/internal/report"
	"codepulse/internal/slogutil"
)

// errAuditFailed signals an audit score below the pass threshold. The report
// has already been rendered; main translates this into exit code 1.
var errAuditFailed = errors.New("audit score below pass threshold")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full audit (same as invoking codepulse with no subcommand)",
	RunE:  runAudit,
}

func init() {
	runCmd.Flags().BoolVar(&fastFlag, "fast", false,
		"Skip slow phases (external performance tooling)")
	rootCmd.AddCommand(runCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	logger := slogutil.NewStderrLogger(slogutil.LevelFromVerbosity(verbosity, quietFlag))

	cfg, err := config.LoadConfig(rootFlag)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	eng := engine.New(rootFlag, cfg, execx.NewRealRunner(5*time.Minute), logger)
	eng.Fast = fastFlag

	rep, err := eng.Run(cmd.Context())
	if err != nil {
		return err
	}

	renderer := report.NewRenderer(os.Stdout)
	renderer.Verbose = verbosity > 0
	renderer.Render(rep)

	if !rep.Passed {
		return errAuditFailed
	}
	return nil
}
