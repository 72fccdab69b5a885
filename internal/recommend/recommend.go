// Package recommend turns phase findings into prioritized, deduplicated
// recommendations and tracks follow-through across runs. Each finding is
// matched against an ordered rule table; the first matching rule builds the
// recommendation, so specific rules must precede generic ones.
package recommend

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"codepulse/internal/memory"
)

// PhaseOutcome is the recommendation-relevant slice of one executed phase.
type PhaseOutcome struct {
	Name     string
	Score    int
	Max      int
	Findings []string
}

// rule pairs a predicate with a builder. Predicates see the phase name and
// one raw finding line.
type rule struct {
	match func(phase, finding string) bool
	build func(o PhaseOutcome, finding string) memory.Recommendation
}

// Engine applies the rule table.
type Engine struct {
	rules  []rule
	logger *slog.Logger
}

// NewEngine creates a recommendation engine with the built-in rule table.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{rules: buildRules(), logger: logger}
}

// FromPhases converts every finding of every outcome into recommendations.
// Rules emit medium priority; it is raised to high when the producing phase
// scored below half of its maximum.
func (e *Engine) FromPhases(outcomes []PhaseOutcome, now time.Time) []memory.Recommendation {
	var recs []memory.Recommendation
	for _, o := range outcomes {
		for _, finding := range o.Findings {
			rec, ok := e.apply(o, finding)
			if !ok {
				continue
			}
			rec.CreatedAt = now
			rec.Count = 1
			if o.Max > 0 && o.Score*2 < o.Max {
				rec.Priority = "high"
			}
			recs = append(recs, rec)
		}
	}
	e.logger.Debug("Recommendations generated", "count", len(recs))
	return Dedupe(recs)
}

func (e *Engine) apply(o PhaseOutcome, finding string) (memory.Recommendation, bool) {
	for _, r := range e.rules {
		if r.match(o.Name, finding) {
			return r.build(o, finding), true
		}
	}
	return memory.Recommendation{}, false
}

// Dedupe merges recommendations sharing a title: counts sum, the highest
// priority wins, the earliest creation time is kept. Output is ordered by
// priority, then by count descending, then by title.
func Dedupe(recs []memory.Recommendation) []memory.Recommendation {
	byTitle := make(map[string]int)
	var out []memory.Recommendation

	for _, rec := range recs {
		idx, seen := byTitle[rec.Title]
		if !seen {
			byTitle[rec.Title] = len(out)
			out = append(out, rec)
			continue
		}
		out[idx].Count += rec.Count
		if priorityRank(rec.Priority) < priorityRank(out[idx].Priority) {
			out[idx].Priority = rec.Priority
		}
		if rec.CreatedAt.Before(out[idx].CreatedAt) {
			out[idx].CreatedAt = rec.CreatedAt
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if pi != pj {
			return pi < pj
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// Merge folds the current run's recommendations into the persisted ledger.
// A recurring recommendation increments its count and reopens if it had been
// marked followed; a persisted open recommendation whose finding no longer
// occurs is marked followed.
func Merge(existing, current []memory.Recommendation, now time.Time) []memory.Recommendation {
	currentByTitle := make(map[string]memory.Recommendation, len(current))
	for _, rec := range current {
		currentByTitle[rec.Title] = rec
	}

	seen := make(map[string]bool, len(existing))
	out := make([]memory.Recommendation, 0, len(existing)+len(current))

	for _, old := range existing {
		seen[old.Title] = true
		cur, recurs := currentByTitle[old.Title]
		if recurs {
			old.Count += cur.Count
			if priorityRank(cur.Priority) < priorityRank(old.Priority) {
				old.Priority = cur.Priority
			}
			if old.Followed {
				// The finding came back after being resolved.
				old.Followed = false
				old.FollowedAt = nil
			}
		} else if !old.Followed {
			old.Followed = true
			t := now
			old.FollowedAt = &t
		}
		out = append(out, old)
	}

	for _, rec := range current {
		if !seen[rec.Title] {
			out = append(out, rec)
		}
	}
	return out
}

func priorityRank(p string) int {
	switch p {
	case "high":
		return 0
	case "medium":
		return 1
	default:
		return 2
	}
}

func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
