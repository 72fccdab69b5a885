package engine

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"codepulse/internal/config"
	"codepulse/internal/execx"
	"codepulse/internal/gitx"
	"codepulse/internal/graph"
	"codepulse/internal/handlers"
	"codepulse/internal/memory"
	"codepulse/internal/recommend"
	"codepulse/internal/scanner"
	"codepulse/internal/symbols"
)

// Engine runs one complete audit.
type Engine struct {
	Root   string
	Cfg    *config.Config
	Logger *slog.Logger
	Runner execx.Runner

	// Fast skips slow phases.
	Fast bool

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// New creates an engine for one audit run.
func New(root string, cfg *config.Config, runner execx.Runner, logger *slog.Logger) *Engine {
	return &Engine{Root: root, Cfg: cfg, Runner: runner, Logger: logger, Now: time.Now}
}

// phaseOrder is the fixed sequence. Scores depend on order only through the
// shared context (the build phase measures the bundle the impact phase never
// reads, the impact phase fills the result later phases display).
func phaseOrder() []PhaseFunc {
	return []PhaseFunc{
		{Name: "code-quality", Max: 15, Run: codeQualityPhase},
		{Name: "tests", Max: 15, Run: testsPhase},
		{Name: "build", Max: 10, Run: buildPhase},
		{Name: "impact", Max: 10, Run: impactPhase},
		{Name: "feature-inventory", Max: 5, Run: featureInventoryPhase},
		{Name: "regression-guard", Max: 10, Run: regressionGuardPhase},
		{Name: "wiring-integrity", Max: 10, Run: wiringIntegrityPhase},
		{Name: "interaction-audit", Max: 5, Run: interactionAuditPhase},
		{Name: "dead-code", Max: 10, Run: deadCodePhase},
		{Name: "cyclic-imports", Max: 5, Run: cyclicImportsPhase},
		{Name: "multi-level", Max: 5, Run: multiLevelPhase},
		{Name: "performance", Max: 5, Slow: true, Run: performancePhase},
	}
}

// Run executes the audit end to end: scan, analyze, score, reconcile memory,
// save. The memory file is written exactly once, at the end.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := e.Now()

	rubric, err := config.LoadRubric(e.Root)
	if err != nil {
		return nil, err
	}

	features, err := config.LoadFeatures(e.Root)
	if err != nil {
		e.Logger.Warn("Feature manifest unreadable, inventory phase will have nothing to verify", "error", err)
		features = &config.FeatureManifest{}
	}

	store := memory.NewStore(e.Root, e.Cfg.Memory.Path, e.Cfg.Memory.ArchivePath, memory.Bounds{
		MaxRuns:         e.Cfg.Memory.MaxRuns,
		MaxErrors:       e.Cfg.Memory.MaxErrors,
		MaxFollowedRecs: e.Cfg.Memory.MaxFollowedRecs,
		MaxOpenRecs:     e.Cfg.Memory.MaxOpenRecs,
	}, e.Logger)
	mem := store.Load()

	ac, err := e.buildContext(ctx, mem, features)
	if err != nil {
		return nil, err
	}

	report := &Report{Trend: "first-run"}
	var outcomes []recommend.PhaseOutcome
	executed := 0
	scoreSum, maxSum := 0, 0

	for _, pf := range phaseOrder() {
		var p Phase
		if e.Fast && pf.Slow {
			p = Phase{Name: pf.Name, Max: pf.Max, Skipped: true,
				Details: []string{"skipped in fast mode"}}
		} else {
			e.Logger.Debug("Phase starting", "phase", pf.Name)
			p = pf.Run(ctx, ac)
		}

		// Rubric overrides rescale the earned score to the new maximum.
		if override := rubric.MaxFor(pf.Name, p.Max); override != p.Max && p.Max > 0 {
			p.Score = p.Score * override / p.Max
			p.Max = override
		}
		if p.Score < 0 {
			p.Score = 0
		}
		if p.Score > p.Max {
			p.Score = p.Max
		}

		report.Phases = append(report.Phases, p)
		if !p.Skipped {
			executed++
			scoreSum += p.Score
			maxSum += p.Max
			outcomes = append(outcomes, recommend.PhaseOutcome{
				Name: p.Name, Score: p.Score, Max: p.Max, Findings: p.Findings,
			})
		}
		e.Logger.Debug("Phase finished",
			"phase", p.Name, "score", p.Score, "max", p.Max, "skipped", p.Skipped)
	}

	if maxSum > 0 {
		report.Score = (scoreSum*100 + maxSum/2) / maxSum
	}
	report.Passed = report.Score >= e.Cfg.Thresholds.PassScore
	report.Confidence = float64(executed) / float64(len(report.Phases))

	now := e.Now()
	recEngine := recommend.NewEngine(e.Logger)
	current := recEngine.FromPhases(outcomes, now)
	mem.Recommendations = recommend.Merge(mem.Recommendations, current, now)
	report.Recommendations = openRecommendations(mem.Recommendations)

	e.recordErrors(mem, report.Phases, now)

	if len(mem.Runs) > 0 {
		report.Trend = trendLabel(report.Score, mem.Runs[len(mem.Runs)-1].Score)
	}

	commit := e.headCommit(ctx)
	mem.Runs = append(mem.Runs, memory.RunRecord{
		ID:         uuid.NewString(),
		Date:       now,
		Score:      report.Score,
		Confidence: report.Confidence,
		Commit:     commit,
		Phases:     compactPhases(report.Phases),
	})
	if commit != "" {
		mem.LastRunCommit = commit
	}

	if err := store.Save(mem); err != nil {
		// Losing one run of history is survivable; losing the report is not.
		e.Logger.Warn("Failed to persist audit memory", "error", err)
	}

	report.Changed = ac.Changed
	if ac.Impact != nil {
		report.Risk = string(ac.Impact.Risk)
	}
	report.Duration = e.Now().Sub(start)

	e.Logger.Info("Audit completed",
		"score", report.Score,
		"passed", report.Passed,
		"trend", report.Trend,
		"duration", report.Duration.Round(time.Millisecond))

	return report, nil
}

// buildContext scans the tree once and derives the shared analysis artifacts.
func (e *Engine) buildContext(ctx context.Context, mem *memory.Memory, features *config.FeatureManifest) (*AuditContext, error) {
	sc := scanner.New(scanner.Options{
		Extensions:       e.Cfg.Sources.Extensions,
		MarkupExtensions: e.Cfg.Sources.MarkupExtensions,
		ExcludeDirs:      e.Cfg.Sources.ExcludeDirs,
		MaxFileSizeBytes: e.Cfg.Sources.MaxFileSizeBytes,
	}, e.Logger)

	files, err := sc.Scan(e.Root)
	if err != nil {
		return nil, err
	}

	g := graph.NewBuilder(e.Cfg.Sources.DefaultImportExtension, e.Logger).Build(files)
	registry := handlers.BuildRegistry(files, e.Logger)

	syms := make(map[string]*symbols.FileSymbols, len(files))
	for _, f := range files {
		if !f.Markup {
			syms[f.Path] = symbols.Extract(ctx, f.Path, f.Content)
		}
	}

	ac := &AuditContext{
		Root:     e.Root,
		Cfg:      e.Cfg,
		Logger:   e.Logger,
		Runner:   e.Runner,
		Fast:     e.Fast,
		Files:    files,
		Graph:    g,
		Registry: registry,
		Symbols:  syms,
		Memory:   mem,
		Features: features,
	}
	ac.Changed = e.changedFiles(ctx, mem, files)
	return ac, nil
}

// changedFiles asks git for the delta since the last recorded run, filtered
// to scanned files. Outside a repository the changed set is empty and the
// impact phase degrades to a whole-tree view with zero changed files.
func (e *Engine) changedFiles(ctx context.Context, mem *memory.Memory, files []scanner.SourceFile) []string {
	git := gitx.NewAdapter(e.Root, e.Runner, e.Logger)
	if !git.IsRepository(ctx) {
		e.Logger.Debug("Not a git repository, changed-file analysis disabled")
		return nil
	}

	changed, err := git.ChangedFiles(ctx, mem.LastRunCommit)
	if err != nil {
		e.Logger.Warn("Changed-file detection failed", "error", err)
		return nil
	}

	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.Path] = true
	}
	var filtered []string
	for _, f := range changed {
		if known[f] {
			filtered = append(filtered, f)
		}
	}
	sort.Strings(filtered)
	return filtered
}

func (e *Engine) headCommit(ctx context.Context) string {
	git := gitx.NewAdapter(e.Root, e.Runner, e.Logger)
	if !git.IsRepository(ctx) {
		return ""
	}
	commit, err := git.HeadCommit(ctx)
	if err != nil {
		return ""
	}
	return commit
}

// recordErrors turns the phases' replayable checks into persisted error
// records, skipping checks already on file.
func (e *Engine) recordErrors(mem *memory.Memory, phases []Phase, now time.Time) {
	existing := make(map[string]bool, len(mem.Errors))
	for _, rec := range mem.Errors {
		if rec.Check != nil {
			existing[checkKey(rec.Phase, rec.Check)] = true
		}
	}

	for _, p := range phases {
		for _, check := range p.Checks {
			c := check
			key := checkKey(p.Name, &c)
			if existing[key] {
				continue
			}
			existing[key] = true
			desc := "check derived from " + p.Name + " phase finding"
			if len(p.Findings) > 0 {
				desc = p.Findings[0]
			}
			mem.Errors = append(mem.Errors, memory.ErrorRecord{
				Phase:       p.Name,
				Description: desc,
				Check:       &c,
				RecordedAt:  now,
			})
		}
	}
}

func checkKey(phase string, c *memory.Check) string {
	return phase + "\x00" + string(c.Type) + "\x00" + c.Path + "\x00" + c.Substring + "\x00" + c.Command
}

func compactPhases(phases []Phase) []memory.PhaseScore {
	out := make([]memory.PhaseScore, 0, len(phases))
	for _, p := range phases {
		out = append(out, memory.PhaseScore{Name: p.Name, Score: p.Score, Max: p.Max, Skipped: p.Skipped})
	}
	return out
}

func openRecommendations(recs []memory.Recommendation) []memory.Recommendation {
	var open []memory.Recommendation
	for _, r := range recs {
		if !r.Followed {
			open = append(open, r)
		}
	}
	return recommend.Dedupe(open)
}

// trendLabel compares this run's score with the previous one. Small moves
// read as stable so a one-point wobble does not flip the label every run.
func trendLabel(current, previous int) string {
	switch {
	case current >= previous+2:
		return "improving"
	case current <= previous-2:
		return "declining"
	default:
		return "stable"
	}
}
