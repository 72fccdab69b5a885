package recommend

import (
	"strings"

	"codepulse/internal/memory"
)

// buildRules returns the ordered rule table. Order matters: the first match
// wins, so narrow patterns come before phase-level catch-alls. Every rule
// emits medium priority; FromPhases raises it to high when the producing
// phase scored below half its maximum.
func buildRules() []rule {
	return []rule{
		// Correctness: wiring between markup and handlers.
		{
			match: func(phase, f string) bool { return containsAny(f, "dangling handler") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Fix dangling handler references",
					"A markup attribute calls a handler that is defined nowhere; the click fails silently at runtime.",
					"Define the handler on the global object or remove the stale attribute.",
					"correctness")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "duplicate handler", "defined in multiple") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Resolve duplicate handler definitions",
					"The same handler name is defined in more than one file; whichever loads last silently wins.",
					"Keep one definition and delete or rename the others.",
					"correctness")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "missing close handler", "cannot be closed", "no close") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Add a close handler to the dialog",
					"An element opens an overlay or dialog that has no working way to dismiss it.",
					"Wire a close button or escape-key handler to the open action.",
					"correctness")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "orphaned handler", "never referenced") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Remove orphaned handlers",
					"Handlers defined on the global object that nothing calls are dead UI wiring.",
					"Delete the definition or reconnect the UI element that used it.",
					"maintainability")
			},
		},

		// Structure.
		{
			match: func(phase, f string) bool { return containsAny(f, "cyclic import", "import cycle", "circular") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Break the import cycle",
					"Files importing each other load in an unpredictable order and resist refactoring.",
					"Extract the shared pieces into a module both sides can import.",
					"maintainability")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "dead export", "dead local", "unused export", "dead code") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Delete dead code",
					"Unused exports and uncalled local functions add review surface with zero behavior.",
					"Remove the symbol, or add the consumer that was meant to exist.",
					"maintainability")
			},
		},

		// Quality gates.
		{
			match: func(phase, f string) bool {
				return phase == "tests" && containsAny(f, "failing", "failed")
			},
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Fix failing tests",
					"The test suite reports failures; the tree is not shippable.",
					"Run the suite locally and repair the failures before anything else.",
					"correctness")
			},
		},
		{
			match: func(phase, f string) bool {
				return phase == "tests" && containsAny(f, "no test", "coverage", "untested")
			},
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Add test coverage",
					"Changed or core modules have no tests, so regressions land unnoticed.",
					"Add tests for the modules named in the finding.",
					"correctness")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "regression") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Repair the regression",
					"A check derived from a previously fixed issue is failing again.",
					"Restore the fix recorded in the audit memory for this check.",
					"correctness")
			},
		},
		{
			match: func(phase, f string) bool {
				return containsAny(f, "eslint", "lint error", "lint warning", "style issue")
			},
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Clean up lint findings",
					"Lint errors and warnings accumulate into real bugs and noisy diffs.",
					"Run the linter with --fix and resolve what remains by hand.",
					"maintainability")
			},
		},

		// Delivery.
		{
			match: func(phase, f string) bool { return containsAny(f, "bundle size", "bundle exceeds") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Reduce the bundle size",
					"The production bundle exceeds its budget, which slows first load on every visit.",
					"Split rarely used routes with dynamic import and drop unused dependencies.",
					"score")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "oversized asset", "large asset", "oversized file") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Shrink oversized assets",
					"A single oversized asset or source file dominates load time and review effort.",
					"Compress the asset or split the file along feature lines.",
					"score")
			},
		},

		// Content and surface audits.
		{
			match: func(phase, f string) bool { return containsAny(f, "seo", "meta description", "title tag") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Fix SEO metadata",
					"Missing or duplicated page metadata hurts discoverability.",
					"Add unique title and meta description tags to the pages named.",
					"score")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "accessib", "aria", "alt text") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Fix accessibility gaps",
					"Interactive elements without labels or alt text are unusable with assistive tech.",
					"Add aria labels and alt attributes where the finding points.",
					"compliance")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "untranslated", "i18n", "hardcoded string") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Route strings through the translation layer",
					"User-facing literals that bypass i18n ship in one language only.",
					"Move the literal into the message catalog and reference it by key.",
					"compliance")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "security", "innerhtml", "eval(", "api key", "secret") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Address the security finding",
					"Injected HTML, eval, or embedded credentials are directly exploitable.",
					"Sanitize the sink or move the secret out of the source tree.",
					"compliance")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "license", "legal", "attribution") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Resolve the legal finding",
					"Missing licenses or attributions create distribution risk.",
					"Add the required license or attribution text.",
					"compliance")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "placeholder", "unfinished", "todo", "fixme") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Finish placeholder work",
					"Placeholder markers and empty function bodies indicate shipped but unfinished features.",
					"Complete the marked work or remove the stub.",
					"correctness")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "stale metric", "outdated stat") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Refresh stale displayed metrics",
					"Numbers shown to users that no code updates drift from reality.",
					"Wire the metric to its data source or remove the display.",
					"correctness")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "unreachable", "not linked", "unfindable") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Link unreachable content",
					"Content that exists but is reachable from no navigation path is invisible to users.",
					"Add a navigation entry or route to the content.",
					"score")
			},
		},
		{
			match: func(phase, f string) bool { return containsAny(f, "competitive", "missing feature") },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Close the feature gap",
					"The feature inventory is missing an expected capability.",
					"Schedule the missing feature named in the finding.",
					"score")
			},
		},
		{
			match: func(phase, f string) bool {
				return phase == "impact" || containsAny(f, "recently changed")
			},
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Review issues in recently changed files",
					"Findings inside files touched since the last run are the likeliest fresh breakage.",
					"Inspect the changed files flagged by the deep scan first.",
					"correctness")
			},
		},

		// Catch-all keeps every finding actionable.
		{
			match: func(phase, f string) bool { return strings.TrimSpace(f) != "" },
			build: func(o PhaseOutcome, f string) memory.Recommendation {
				return rec(o.Name, f, "Investigate: "+truncate(f, 70),
					"", "Investigate the finding reported by the "+o.Name+" phase.",
					"score")
			},
		},
	}
}

func rec(source, text, title, explain, action, impact string) memory.Recommendation {
	return memory.Recommendation{
		Source:   source,
		Text:     text,
		Title:    title,
		Explain:  explain,
		Action:   action,
		Impact:   impact,
		Priority: "medium",
	}
}

// truncate shortens s to at most n runes. Findings embed arbitrary file
// content, so slicing must not split a multibyte rune.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
