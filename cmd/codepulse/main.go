package main

import (
	"errors"
	"os"

	"codepulse/internal/slogutil"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// A failed audit already rendered its report; only unexpected
		// errors get logged here.
		if !errors.Is(err, errAuditFailed) {
			logger := slogutil.NewStderrLogger(slogutil.LevelFromString("error"))
			logger.Error("Command execution failed", "error", err.Error())
		}
		os.Exit(1)
	}
}
