package main

import (
	"os"

	"github.com/spf13/cobra"

	"codepulse/internal/config"
	"codepulse/internal/memory"
	"codepulse/internal/report"
	"codepulse/internal/slogutil"
)

var historyAll bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the score trend across recorded audit runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVarP(&historyAll, "all", "a", false,
		"Include runs pruned into the archive")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := slogutil.NewStderrLogger(slogutil.LevelFromVerbosity(verbosity, quietFlag))

	cfg, err := config.LoadConfig(rootFlag)
	if err != nil {
		return err
	}

	store := memory.NewStore(rootFlag, cfg.Memory.Path, cfg.Memory.ArchivePath, memory.Bounds{
		MaxRuns:         cfg.Memory.MaxRuns,
		MaxErrors:       cfg.Memory.MaxErrors,
		MaxFollowedRecs: cfg.Memory.MaxFollowedRecs,
		MaxOpenRecs:     cfg.Memory.MaxOpenRecs,
	}, logger)
	mem := store.Load()

	var runs []memory.RunRecord
	if historyAll {
		archived, err := store.ReadArchive()
		if err != nil {
			logger.Warn("Run archive unreadable, showing live history only", "error", err)
		}
		runs = append(runs, archived...)
	}
	runs = append(runs, mem.Runs...)

	entries := make([]report.HistoryEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, report.HistoryEntry{
			Date:       run.Date,
			Score:      run.Score,
			Confidence: run.Confidence,
			Commit:     run.Commit,
		})
	}

	report.NewRenderer(os.Stdout).RenderHistory(entries)
	return nil
}
