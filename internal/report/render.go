// Package report renders an audit report for the console.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"codepulse/internal/engine"
)

// Renderer writes human-readable audit reports.
type Renderer struct {
	w io.Writer

	// Verbose includes per-phase details alongside findings.
	Verbose bool
}

// NewRenderer creates a renderer writing to w. Color is controlled globally
// through the color package (disabled automatically on non-terminals).
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	passColor    = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
	phaseOkColor = color.New(color.FgGreen)
)

// Render writes the full report: score banner, per-phase table, findings,
// recommendations, and trend.
func (r *Renderer) Render(rep *engine.Report) {
	fmt.Fprintln(r.w)
	headerColor.Fprintln(r.w, "codepulse audit")
	fmt.Fprintln(r.w, strings.Repeat("=", 40))

	r.renderScore(rep)
	fmt.Fprintln(r.w)
	r.renderPhases(rep)
	r.renderRecommendations(rep)
	r.renderFooter(rep)
}

func (r *Renderer) renderScore(rep *engine.Report) {
	verdict := passColor
	label := "PASS"
	if !rep.Passed {
		verdict = failColor
		label = "FAIL"
	}
	fmt.Fprintf(r.w, "Score: %d/100  ", rep.Score)
	verdict.Fprint(r.w, label)
	fmt.Fprintf(r.w, "  (confidence %.0f%%, trend %s)\n", rep.Confidence*100, rep.Trend)

	if len(rep.Changed) > 0 {
		fmt.Fprintf(r.w, "Changed: %d files, risk %s\n", len(rep.Changed), rep.Risk)
	}
}

func (r *Renderer) renderPhases(rep *engine.Report) {
	headerColor.Fprintln(r.w, "Phases")
	for _, p := range rep.Phases {
		if p.Skipped {
			dimColor.Fprintf(r.w, "  %-18s skipped\n", p.Name)
			continue
		}

		scoreColor := phaseOkColor
		if p.Score*2 < p.Max {
			scoreColor = failColor
		} else if p.Score < p.Max {
			scoreColor = warnColor
		}
		fmt.Fprintf(r.w, "  %-18s ", p.Name)
		scoreColor.Fprintf(r.w, "%2d/%d\n", p.Score, p.Max)

		for _, f := range p.Findings {
			warnColor.Fprintf(r.w, "    ! %s\n", f)
		}
		if r.Verbose {
			for _, d := range p.Details {
				dimColor.Fprintf(r.w, "    - %s\n", d)
			}
		}
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderRecommendations(rep *engine.Report) {
	if len(rep.Recommendations) == 0 {
		return
	}
	headerColor.Fprintln(r.w, "Recommendations")
	for i, rec := range rep.Recommendations {
		if !r.Verbose && i == 10 {
			dimColor.Fprintf(r.w, "  ... and %d more (use -v to show all)\n", len(rep.Recommendations)-i)
			break
		}
		prio := dimColor
		switch rec.Priority {
		case "high":
			prio = failColor
		case "medium":
			prio = warnColor
		}
		prio.Fprintf(r.w, "  [%s]", strings.ToUpper(rec.Priority))
		fmt.Fprintf(r.w, " %s", rec.Title)
		if rec.Count > 1 {
			dimColor.Fprintf(r.w, " (seen %d times)", rec.Count)
		}
		fmt.Fprintln(r.w)
		if rec.Action != "" {
			dimColor.Fprintf(r.w, "         %s\n", rec.Action)
		}
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderFooter(rep *engine.Report) {
	dimColor.Fprintf(r.w, "Completed in %s\n", rep.Duration.Round(time.Millisecond))
}

// RenderHistory writes the run history as a trend table, oldest first.
func (r *Renderer) RenderHistory(runs []HistoryEntry) {
	if len(runs) == 0 {
		fmt.Fprintln(r.w, "No audit runs recorded yet.")
		return
	}

	headerColor.Fprintln(r.w, "Run history")
	fmt.Fprintf(r.w, "  %-20s %-7s %-11s %s\n", "DATE", "SCORE", "CONFIDENCE", "COMMIT")
	prev := -1
	for _, run := range runs {
		marker := " "
		if prev >= 0 {
			switch {
			case run.Score > prev:
				marker = "+"
			case run.Score < prev:
				marker = "-"
			}
		}
		commit := run.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		fmt.Fprintf(r.w, "  %-20s %3d %s   %6.0f%%     %s\n",
			run.Date.Format("2006-01-02 15:04"), run.Score, marker, run.Confidence*100, commit)
		prev = run.Score
	}
}

// HistoryEntry is one row of the history table.
type HistoryEntry struct {
	Date       time.Time
	Score      int
	Confidence float64
	Commit     string
}
