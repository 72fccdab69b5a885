package impact

import (
	"log/slog"
	"sort"

	"codepulse/internal/graph"
)

// Analyzer computes affected-file closures and risk classifications.
type Analyzer struct {
	critical       map[string]bool
	affectedMedium int
	affectedHigh   int
	logger         *slog.Logger
}

// NewAnalyzer creates an impact analyzer. criticalFiles is the explicitly
// declared set (entry point, global state, root component, i18n root) whose
// modification is maximal risk regardless of closure size.
func NewAnalyzer(criticalFiles []string, affectedMedium, affectedHigh int, logger *slog.Logger) *Analyzer {
	if affectedMedium <= 0 {
		affectedMedium = 8
	}
	if affectedHigh <= affectedMedium {
		affectedHigh = affectedMedium + 12
	}
	critical := make(map[string]bool, len(criticalFiles))
	for _, f := range criticalFiles {
		critical[f] = true
	}
	return &Analyzer{
		critical:       critical,
		affectedMedium: affectedMedium,
		affectedHigh:   affectedHigh,
		logger:         logger,
	}
}

// Analyze computes the affected closure for the changed set by breadth-first
// traversal over the reverse graph: every file that transitively imports a
// changed file is affected. Changed files outside the graph still count as
// affected (they just have no importers).
func (a *Analyzer) Analyze(changed []string, g *graph.Graph) *Result {
	affected := make(map[string]bool, len(changed))
	queue := make([]string, 0, len(changed))

	for _, f := range changed {
		if !affected[f] {
			affected[f] = true
			queue = append(queue, f)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, importer := range g.Reverse[current] {
			if !affected[importer] {
				affected[importer] = true
				queue = append(queue, importer)
			}
		}
	}

	result := &Result{
		Changed:  sortedSlice(changed),
		Affected: sortedKeys(affected),
	}

	for _, f := range result.Changed {
		if a.critical[f] {
			result.CriticalHits = append(result.CriticalHits, f)
		}
	}

	result.Risk = a.classify(len(result.Affected), len(result.CriticalHits))

	a.logger.Debug("Impact analysis completed",
		"changed", len(result.Changed),
		"affected", len(result.Affected),
		"risk", string(result.Risk))

	return result
}

// classify applies the fixed thresholds. A critical-set hit is maximal risk
// regardless of affected-set size.
func (a *Analyzer) classify(affectedCount, criticalHits int) RiskLevel {
	switch {
	case criticalHits > 0:
		return RiskCritical
	case affectedCount >= a.affectedHigh:
		return RiskHigh
	case affectedCount >= a.affectedMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}

func sortedSlice(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
