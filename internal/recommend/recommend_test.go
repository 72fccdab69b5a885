package recommend

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"codepulse/internal/memory"
	"codepulse/internal/slogutil"
)

var now = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func fromPhases(t *testing.T, outcomes ...PhaseOutcome) []memory.Recommendation {
	t.Helper()
	return NewEngine(slogutil.NewDiscardLogger()).FromPhases(outcomes, now)
}

func TestRuleMatching(t *testing.T) {
	tests := []struct {
		name      string
		outcome   PhaseOutcome
		wantTitle string
	}{
		{
			name: "dangling handler",
			outcome: PhaseOutcome{Name: "wiring-integrity", Score: 8, Max: 10,
				Findings: []string{"dangling handler deleteNote referenced from index.html"}},
			wantTitle: "Fix dangling handler references",
		},
		{
			name: "duplicate handler",
			outcome: PhaseOutcome{Name: "wiring-integrity", Score: 8, Max: 10,
				Findings: []string{"duplicate handler saveNote defined in multiple files: a.js, b.js"}},
			wantTitle: "Resolve duplicate handler definitions",
		},
		{
			name: "cycle",
			outcome: PhaseOutcome{Name: "cyclic-imports", Score: 3, Max: 5,
				Findings: []string{"cyclic import: a.js -> b.js -> a.js"}},
			wantTitle: "Break the import cycle",
		},
		{
			name: "dead export",
			outcome: PhaseOutcome{Name: "dead-code", Score: 9, Max: 10,
				Findings: []string{"dead export computeTax in src/a.js has no detectable consumer"}},
			wantTitle: "Delete dead code",
		},
		{
			name: "failing tests",
			outcome: PhaseOutcome{Name: "tests", Score: 10, Max: 15,
				Findings: []string{"3 failing tests out of 30"}},
			wantTitle: "Fix failing tests",
		},
		{
			name: "bundle size",
			outcome: PhaseOutcome{Name: "build", Score: 8, Max: 10,
				Findings: []string{"bundle size 900 KB exceeds budget of 500 KB"}},
			wantTitle: "Reduce the bundle size",
		},
		{
			name: "security",
			outcome: PhaseOutcome{Name: "multi-level", Score: 4, Max: 5,
				Findings: []string{"security: direct innerHTML assignment in src/view.js"}},
			wantTitle: "Address the security finding",
		},
		{
			name: "regression",
			outcome: PhaseOutcome{Name: "regression-guard", Score: 5, Max: 10,
				Findings: []string{"regression in tests: suite broke again (exit 1)"}},
			wantTitle: "Repair the regression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := fromPhases(t, tt.outcome)
			if len(recs) != 1 {
				t.Fatalf("got %d recommendations, want 1", len(recs))
			}
			if recs[0].Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", recs[0].Title, tt.wantTitle)
			}
		})
	}
}

func TestHealthyPhaseYieldsMediumPriority(t *testing.T) {
	recs := fromPhases(t, PhaseOutcome{
		Name: "wiring-integrity", Score: 8, Max: 10,
		Findings: []string{
			"dangling handler deleteNote referenced from index.html",
			"orphaned handler exportNotes defined in src/io.js but never referenced",
		},
	})

	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.Priority != "medium" {
			t.Errorf("%q Priority = %s, want medium from a phase at or above half its max",
				rec.Title, rec.Priority)
		}
	}
}

func TestLowPhaseScorePromotesPriority(t *testing.T) {
	recs := fromPhases(t, PhaseOutcome{
		Name: "dead-code", Score: 4, Max: 10,
		Findings: []string{"dead export computeTax in src/a.js has no detectable consumer"},
	})

	if recs[0].Priority != "high" {
		t.Errorf("Priority = %s, want high for a phase below half its max", recs[0].Priority)
	}
}

func TestCatchAllRule(t *testing.T) {
	recs := fromPhases(t, PhaseOutcome{
		Name: "build", Score: 9, Max: 10,
		Findings: []string{"something nobody wrote a rule for"},
	})

	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want catch-all to fire", len(recs))
	}
	if recs[0].Title != "Investigate: something nobody wrote a rule for" {
		t.Errorf("Title = %q, want catch-all investigate title", recs[0].Title)
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	long := strings.Repeat("é", 80)
	got := truncate(long, 70)

	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 70 {
		t.Errorf("rune count = %d, want 70", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated string missing ellipsis: %q", got)
	}
	if short := truncate("  keep me  ", 70); short != "keep me" {
		t.Errorf("truncate(short) = %q, want trimmed passthrough", short)
	}
}

func TestDedupeSumsCountsAndPromotes(t *testing.T) {
	recs := Dedupe([]memory.Recommendation{
		{Title: "Delete dead code", Priority: "low", Count: 1, CreatedAt: now},
		{Title: "Delete dead code", Priority: "high", Count: 2, CreatedAt: now.Add(-time.Hour)},
		{Title: "Fix failing tests", Priority: "medium", Count: 1, CreatedAt: now},
	})

	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	dead := recs[0]
	if dead.Title != "Delete dead code" {
		t.Fatalf("first rec = %q, want the promoted duplicate first", dead.Title)
	}
	if dead.Count != 3 {
		t.Errorf("Count = %d, want 3", dead.Count)
	}
	if dead.Priority != "high" {
		t.Errorf("Priority = %s, want high", dead.Priority)
	}
	if !dead.CreatedAt.Equal(now.Add(-time.Hour)) {
		t.Errorf("CreatedAt = %v, want earliest kept", dead.CreatedAt)
	}
}

func TestMergeMarksResolvedAsFollowed(t *testing.T) {
	existing := []memory.Recommendation{
		{Title: "Fix failing tests", Priority: "high", Count: 2, CreatedAt: now.Add(-48 * time.Hour)},
	}

	merged := Merge(existing, nil, now)
	if len(merged) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(merged))
	}
	if !merged[0].Followed {
		t.Error("resolved recommendation not marked followed")
	}
	if merged[0].FollowedAt == nil || !merged[0].FollowedAt.Equal(now) {
		t.Errorf("FollowedAt = %v, want %v", merged[0].FollowedAt, now)
	}
}

func TestMergeReopensRecurringRecommendation(t *testing.T) {
	followedAt := now.Add(-24 * time.Hour)
	existing := []memory.Recommendation{
		{Title: "Fix failing tests", Priority: "medium", Count: 2,
			Followed: true, FollowedAt: &followedAt},
	}
	current := []memory.Recommendation{
		{Title: "Fix failing tests", Priority: "high", Count: 1, CreatedAt: now},
	}

	merged := Merge(existing, current, now)
	if len(merged) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(merged))
	}
	got := merged[0]
	if got.Followed {
		t.Error("recurring recommendation still marked followed")
	}
	if got.Count != 3 {
		t.Errorf("Count = %d, want 3", got.Count)
	}
	if got.Priority != "high" {
		t.Errorf("Priority = %s, want promoted to high", got.Priority)
	}
}

func TestMergeAddsNewRecommendations(t *testing.T) {
	current := []memory.Recommendation{
		{Title: "Break the import cycle", Priority: "medium", Count: 1, CreatedAt: now},
	}

	merged := Merge(nil, current, now)
	if len(merged) != 1 || merged[0].Title != "Break the import cycle" {
		t.Errorf("merged = %+v, want the new recommendation added", merged)
	}
}
