// Package engine orchestrates the audit: it scans the tree once, builds the
// shared analysis artifacts, runs every phase in a fixed order, aggregates
// the score, and reconciles the persisted memory.
package engine

import (
	"context"
	"log/slog"
	"time"

	"codepulse/internal/config"
	"codepulse/internal/execx"
	"codepulse/internal/graph"
	"codepulse/internal/handlers"
	"codepulse/internal/impact"
	"codepulse/internal/memory"
	"codepulse/internal/scanner"
	"codepulse/internal/symbols"
)

// AuditContext carries everything a phase may need. It is built once per run
// and passed explicitly; phases never reach for globals.
type AuditContext struct {
	Root   string
	Cfg    *config.Config
	Logger *slog.Logger
	Runner execx.Runner

	// Fast skips slow phases (external performance tooling).
	Fast bool

	// Files is the scanned source tree, sorted by path.
	Files []scanner.SourceFile

	// Graph is the import dependency graph over Files.
	Graph *graph.Graph

	// Registry is the handler definition/reference registry.
	Registry *handlers.Registry

	// Symbols maps file path to extracted functions and exports.
	Symbols map[string]*symbols.FileSymbols

	// Changed is the changed-file set since the last recorded run, filtered
	// to scanned files. Empty outside a git repository.
	Changed []string

	// Impact is filled by the impact phase and read by later phases.
	Impact *impact.Result

	// Memory is the persisted state loaded at run start.
	Memory *memory.Memory

	// Features is the declared feature inventory, possibly empty.
	Features *config.FeatureManifest

	// BundleBytes is the measured build output size, set by the build phase.
	BundleBytes int64
}

// Phase is one scored audit step's outcome.
type Phase struct {
	// Name identifies the phase.
	Name string `json:"name"`

	// Score is the points earned, within [0, Max].
	Score int `json:"score"`

	// Max is the points available.
	Max int `json:"max"`

	// Findings are the individual problems found, one line each.
	Findings []string `json:"findings,omitempty"`

	// Details are non-problem observations worth showing.
	Details []string `json:"details,omitempty"`

	// Skipped reports that the phase did not execute. Skipped phases are
	// excluded from the aggregate and lower the run confidence.
	Skipped bool `json:"skipped,omitempty"`

	// Checks are replayable assertions derived from findings, persisted as
	// error records for the next run's regression guard.
	Checks []memory.Check `json:"-"`
}

// PhaseFunc is a registered phase. Run receives the shared context and
// returns the scored outcome; it must not panic and must clamp its own score.
type PhaseFunc struct {
	Name string
	Max  int

	// Slow marks phases skipped under --fast.
	Slow bool

	Run func(ctx context.Context, ac *AuditContext) Phase
}

// Report is the complete outcome of one audit run.
type Report struct {
	// Score is the 0-100 aggregate over executed phases.
	Score int `json:"score"`

	// Passed reports Score at or above the configured threshold.
	Passed bool `json:"passed"`

	// Confidence is executed phases over total phases, 0-1.
	Confidence float64 `json:"confidence"`

	// Trend compares this score with the previous run: "improving",
	// "stable", "declining", or "first-run".
	Trend string `json:"trend"`

	Phases []Phase `json:"phases"`

	// Recommendations is the deduplicated, prioritized open set after
	// merging with memory.
	Recommendations []memory.Recommendation `json:"recommendations"`

	// Changed and Risk summarize the impact analysis for display.
	Changed []string `json:"changed,omitempty"`
	Risk    string   `json:"risk,omitempty"`

	// Duration is the wall-clock run time.
	Duration time.Duration `json:"duration"`
}
