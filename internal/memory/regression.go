package memory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"codepulse/internal/execx"
)

// ReplayResult is the outcome of replaying one recorded check.
type ReplayResult struct {
	Record ErrorRecord `json:"record"`

	// Passed reports whether the fix still holds.
	Passed bool `json:"passed"`

	// Detail explains a failure in one line.
	Detail string `json:"detail,omitempty"`
}

// Replayer re-runs the checks attached to past error records. A check that
// fails again is a regression: something that was fixed has broken.
type Replayer struct {
	root   string
	runner execx.Runner
	logger *slog.Logger
}

// NewReplayer creates a check replayer rooted at the audited tree.
func NewReplayer(root string, runner execx.Runner, logger *slog.Logger) *Replayer {
	return &Replayer{root: root, runner: runner, logger: logger}
}

// Replay runs every record that carries a check. Records without a check are
// skipped; they document history but cannot be verified mechanically.
func (r *Replayer) Replay(ctx context.Context, records []ErrorRecord) []ReplayResult {
	var results []ReplayResult
	for _, rec := range records {
		if rec.Check == nil {
			continue
		}
		passed, detail := r.replayOne(ctx, rec.Check)
		results = append(results, ReplayResult{Record: rec, Passed: passed, Detail: detail})
	}

	failed := 0
	for _, res := range results {
		if !res.Passed {
			failed++
		}
	}
	r.logger.Debug("Regression checks replayed", "total", len(results), "failed", failed)
	return results
}

func (r *Replayer) replayOne(ctx context.Context, c *Check) (bool, string) {
	switch c.Type {
	case CheckFileExists:
		if _, err := os.Stat(filepath.Join(r.root, filepath.FromSlash(c.Path))); err != nil {
			return false, "file missing: " + c.Path
		}
		return true, ""

	case CheckContentContains:
		data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(c.Path)))
		if err != nil {
			return false, "file unreadable: " + c.Path
		}
		if !strings.Contains(string(data), c.Substring) {
			return false, "content no longer contains " + quote(c.Substring)
		}
		return true, ""

	case CheckTestPasses:
		fields := strings.Fields(c.Command)
		if len(fields) == 0 {
			return true, ""
		}
		if _, stderr, err := r.runner.Run(ctx, r.root, fields[0], fields[1:]...); err != nil {
			detail := strings.TrimSpace(stderr)
			if detail == "" {
				detail = err.Error()
			}
			return false, "test command failed: " + detail
		}
		return true, ""

	default:
		// Unknown check types from a newer schema are treated as passing.
		return true, ""
	}
}

func quote(s string) string {
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return `"` + s + `"`
}
