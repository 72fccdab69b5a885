package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"codepulse/internal/deadcode"
	"codepulse/internal/graph"
	"codepulse/internal/impact"
	"codepulse/internal/memory"
)

// impactPhase computes the changed-file blast radius and deep-scans each
// changed file. The result is stored on the context for later phases.
func impactPhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "impact", Max: 10}

	analyzer := impact.NewAnalyzer(ac.Cfg.Critical,
		ac.Cfg.Thresholds.AffectedMedium, ac.Cfg.Thresholds.AffectedHigh, ac.Logger)
	result := analyzer.Analyze(ac.Changed, ac.Graph)

	byPath := make(map[string]int, len(ac.Files))
	for i, f := range ac.Files {
		byPath[f.Path] = i
	}

	penalty := 0
	for _, changed := range result.Changed {
		idx, ok := byPath[changed]
		if !ok {
			continue
		}
		ds := impact.DeepScanFile(ctx, ac.Files[idx], ac.Registry, ac.Cfg.Thresholds.LongFileLines)
		result.DeepScans = append(result.DeepScans, ds)
		penalty += ds.Penalty

		if ds.Todos > 0 {
			p.Findings = append(p.Findings, fmt.Sprintf("recently changed %s carries %d unfinished TODO markers", changed, ds.Todos))
		}
		if ds.DanglingOnclick > 0 {
			p.Findings = append(p.Findings, fmt.Sprintf("recently changed %s has %d dangling handler calls", changed, ds.DanglingOnclick))
		}
		if ds.LongLiterals > 0 {
			p.Findings = append(p.Findings, fmt.Sprintf("recently changed %s has %d untranslated string literals", changed, ds.LongLiterals))
		}
		if ds.Oversized {
			p.Findings = append(p.Findings, fmt.Sprintf("recently changed %s is an oversized file (%d lines)", changed, ds.Lines))
		}
		if ds.EmptyFunctions > 0 {
			p.Findings = append(p.Findings, fmt.Sprintf("recently changed %s has %d placeholder empty functions", changed, ds.EmptyFunctions))
		}
	}

	ac.Impact = result

	riskDeduction := map[impact.RiskLevel]int{
		impact.RiskLow:      0,
		impact.RiskMedium:   1,
		impact.RiskHigh:     3,
		impact.RiskCritical: 4,
	}
	p.Score = p.Max - riskDeduction[result.Risk] - penalty
	if p.Score < 0 {
		p.Score = 0
	}

	p.Details = append(p.Details, fmt.Sprintf("%d changed files affect %d files, risk %s",
		len(result.Changed), len(result.Affected), result.Risk))
	if len(result.CriticalHits) > 0 {
		p.Findings = append(p.Findings,
			"critical files changed: "+strings.Join(result.CriticalHits, ", "))
	}
	return p
}

// featureInventoryPhase verifies that each declared feature still has its
// entry file and its registered handlers.
func featureInventoryPhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "feature-inventory", Max: 5}

	if ac.Features == nil || len(ac.Features.Features) == 0 {
		p.Score = p.Max
		p.Details = append(p.Details, "no feature manifest declared")
		return p
	}

	known := make(map[string]bool, len(ac.Files))
	for _, f := range ac.Files {
		known[f.Path] = true
	}

	total := 0
	broken := 0
	for _, feat := range ac.Features.Features {
		total++
		ok := true
		if feat.Entry != "" && !known[feat.Entry] {
			ok = false
			p.Findings = append(p.Findings, fmt.Sprintf("competitive gap: feature %q entry file %s is missing", feat.Name, feat.Entry))
			p.Checks = append(p.Checks, memory.Check{Type: memory.CheckFileExists, Path: feat.Entry})
		}
		for _, h := range feat.Handlers {
			if !ac.Registry.IsDefined(h) {
				ok = false
				p.Findings = append(p.Findings, fmt.Sprintf("feature %q expects handler %s which is defined nowhere", feat.Name, h))
			}
		}
		if !ok {
			broken++
		}
	}

	p.Score = p.Max * (total - broken) / total
	p.Details = append(p.Details, fmt.Sprintf("%d of %d declared features intact", total-broken, total))
	return p
}

// regressionGuardPhase replays the checks recorded from past findings. A
// failing check means a fixed issue has come back.
func regressionGuardPhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "regression-guard", Max: 10}

	replayer := memory.NewReplayer(ac.Root, ac.Runner, ac.Logger)
	results := replayer.Replay(ctx, ac.Memory.Errors)
	if len(results) == 0 {
		p.Score = p.Max
		p.Details = append(p.Details, "no replayable checks recorded yet")
		return p
	}

	passed := 0
	for _, res := range results {
		if res.Passed {
			passed++
			continue
		}
		p.Findings = append(p.Findings, fmt.Sprintf("regression in %s: %s (%s)",
			res.Record.Phase, res.Record.Description, res.Detail))
	}

	p.Score = p.Max * passed / len(results)
	p.Details = append(p.Details, fmt.Sprintf("%d of %d regression checks hold", passed, len(results)))
	return p
}

// wiringIntegrityPhase cross-references handler definitions against call
// sites: dangling references and duplicate definitions.
func wiringIntegrityPhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "wiring-integrity", Max: 10}
	p.Score = p.Max

	for _, f := range ac.Registry.Dangling() {
		p.Findings = append(p.Findings, fmt.Sprintf("dangling handler %s referenced from %s",
			f.Name, strings.Join(f.Files, ", ")))
		p.Score -= 2
	}
	for _, f := range ac.Registry.Duplicates() {
		p.Findings = append(p.Findings, fmt.Sprintf("duplicate handler %s defined in multiple files: %s",
			f.Name, strings.Join(f.Files, ", ")))
		p.Score -= 2
	}
	if p.Score < 0 {
		p.Score = 0
	}
	if len(p.Findings) == 0 {
		p.Details = append(p.Details, fmt.Sprintf("%d handler definitions all resolve cleanly", len(ac.Registry.Definitions)))
	}
	return p
}

var (
	openHandlerRe = regexp.MustCompile(`^(open|show)([A-Z]\w*)$`)

	// <a href="#"> and javascript:void links are do-nothing placeholders
	// unless an onclick handler gives them behavior.
	placeholderLinkRe = regexp.MustCompile(`(?is)<a\b[^>]*href=["'](?:#|javascript:\s*void)[^>]*>`)
	onclickAttrRe     = regexp.MustCompile(`(?i)\bonclick\s*=`)
)

// interactionAuditPhase checks UI interaction hygiene: orphaned handlers,
// open/show handlers with no matching close/hide counterpart, and placeholder
// links that do nothing when clicked.
func interactionAuditPhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "interaction-audit", Max: 5}
	p.Score = p.Max

	// Exports count as usage: a handler consumed through the module system
	// is not orphaned even without a global call site.
	exported := make(map[string]bool)
	for _, fs := range ac.Symbols {
		for _, name := range fs.Exports {
			exported[name] = true
		}
	}

	for _, f := range ac.Registry.Orphans(exported) {
		p.Findings = append(p.Findings, fmt.Sprintf("orphaned handler %s defined in %s but never referenced",
			f.Name, strings.Join(f.Files, ", ")))
		p.Score--
	}

	names := make([]string, 0, len(ac.Registry.Definitions))
	for name := range ac.Registry.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	defined := func(candidates ...string) bool {
		for _, c := range candidates {
			if ac.Registry.IsDefined(c) {
				return true
			}
		}
		return false
	}
	for _, name := range names {
		m := openHandlerRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if !defined("close"+m[2], "hide"+m[2], "dismiss"+m[2], "toggle"+m[2]) {
			p.Findings = append(p.Findings, fmt.Sprintf("missing close handler: %s opens a surface with no close/hide counterpart", name))
			p.Score--
		}
	}

	for _, f := range ac.Files {
		if !f.Markup {
			continue
		}
		dead := 0
		for _, link := range placeholderLinkRe.FindAllString(f.Content, -1) {
			if !onclickAttrRe.MatchString(link) {
				dead++
			}
		}
		if dead > 0 {
			p.Findings = append(p.Findings, fmt.Sprintf("%d placeholder links (href=\"#\" or javascript:void) in %s do nothing when clicked", dead, f.Path))
			p.Score--
		}
	}

	if p.Score < 0 {
		p.Score = 0
	}
	return p
}

// deadCodePhase runs the dead code analyzer and scores by the dead export
// ratio.
func deadCodePhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "dead-code", Max: 10}

	analyzer := deadcode.NewAnalyzer(ac.Logger)
	result := analyzer.Analyze(ac.Files, ac.Graph, ac.Symbols)

	for _, sym := range result.DeadExports {
		p.Findings = append(p.Findings, fmt.Sprintf("dead export %s in %s has no detectable consumer", sym.Name, sym.File))
	}
	for _, sym := range result.DeadLocals {
		p.Findings = append(p.Findings, fmt.Sprintf("dead local function %s in %s is never called", sym.Name, sym.File))
	}

	// Each dead export costs at most 2 points: on a tiny corpus a single
	// stray export reads as 100% dead, which must deduct, not zero the phase.
	deduction := p.Max * result.DeadExportPercent / 100
	if limit := 2 * len(result.DeadExports); deduction > limit {
		deduction = limit
	}
	p.Score = p.Max - deduction
	if len(result.DeadLocals) > 0 {
		p.Score--
	}
	if p.Score < 0 {
		p.Score = 0
	}
	p.Details = append(p.Details, fmt.Sprintf("%d%% of %d exports are dead",
		result.DeadExportPercent, result.TotalExports))
	return p
}

// cyclicImportsPhase reports import cycles in the dependency graph.
func cyclicImportsPhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "cyclic-imports", Max: 5}
	p.Score = p.Max

	for _, c := range graph.FindCycles(ac.Graph) {
		p.Findings = append(p.Findings, "cyclic import: "+strings.Join(c.Path, " -> "))
		p.Score -= 2
	}
	if p.Score < 0 {
		p.Score = 0
	}
	if len(p.Findings) == 0 {
		p.Details = append(p.Details, fmt.Sprintf("no cycles across %d import edges", ac.Graph.EdgeCount))
	}
	return p
}

var (
	titleTagRe   = regexp.MustCompile(`(?is)<title>\s*\S`)
	metaDescRe   = regexp.MustCompile(`(?is)<meta\s+name=["']description["']`)
	imgNoAltRe   = regexp.MustCompile(`(?is)<img\b(?:[^>]*?)>`)
	altAttrRe    = regexp.MustCompile(`(?is)\balt\s*=`)
	innerHTMLRe  = regexp.MustCompile(`\.innerHTML\s*=`)
	evalRe       = regexp.MustCompile(`\beval\s*\(`)
	secretRe     = regexp.MustCompile(`(?i)(?:api[_-]?key|secret|password|token)\s*[:=]\s*["'][A-Za-z0-9+/_\-]{16,}["']`)
	placeholdRe  = regexp.MustCompile(`(?i)lorem ipsum|coming soon|under construction`)
	copyrightRe  = regexp.MustCompile(`(?i)copyright|©`)
	navLinkRe    = regexp.MustCompile(`(?is)<a\s+[^>]*href=["']([^"'#][^"']*)["']`)
	staleStatRe  = regexp.MustCompile(`(?i)>\s*[\d,]{4,}\+?\s*(?:users|downloads|customers|stars|installs)\b`)
)

// multiLevelPhase runs the whole-tree content checks: SEO metadata,
// accessibility, security sinks, legal text, placeholders, markup pages no
// navigation link reaches, and corpus-wide TODO, size, and i18n density.
func multiLevelPhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "multi-level", Max: 5}
	p.Score = p.Max

	linked := make(map[string]bool)
	hasMarkup := false
	hasLegal := false

	sourceFiles := 0
	todoFiles := 0
	untranslatedFiles := 0
	oversizedFiles := 0

	for _, f := range ac.Files {
		if f.Markup {
			hasMarkup = true
			if !titleTagRe.MatchString(f.Content) {
				p.Findings = append(p.Findings, "seo: "+f.Path+" has no title tag")
			}
			if !metaDescRe.MatchString(f.Content) {
				p.Findings = append(p.Findings, "seo: "+f.Path+" has no meta description")
			}
			for _, img := range imgNoAltRe.FindAllString(f.Content, -1) {
				if !altAttrRe.MatchString(img) {
					p.Findings = append(p.Findings, "accessibility: image without alt text in "+f.Path)
					break
				}
			}
			for _, m := range navLinkRe.FindAllStringSubmatch(f.Content, -1) {
				linked[strings.TrimPrefix(m[1], "./")] = true
			}
			if copyrightRe.MatchString(f.Content) {
				hasLegal = true
			}
			if staleStatRe.MatchString(f.Content) {
				p.Findings = append(p.Findings, "stale metric: hardcoded usage statistic displayed in "+f.Path)
			}
		} else {
			sourceFiles++
			if impact.CountTodos(f.Content) > 0 {
				todoFiles++
			}
			if impact.CountUntranslatedLiterals(f.Content) > 0 {
				untranslatedFiles++
			}
			if threshold := ac.Cfg.Thresholds.LongFileLines; threshold > 0 &&
				strings.Count(f.Content, "\n")+1 > threshold {
				oversizedFiles++
			}
			if innerHTMLRe.MatchString(f.Content) {
				p.Findings = append(p.Findings, "security: direct innerHTML assignment in "+f.Path)
			}
			if evalRe.MatchString(f.Content) {
				p.Findings = append(p.Findings, "security: eval( call in "+f.Path)
			}
			if secretRe.MatchString(f.Content) {
				p.Findings = append(p.Findings, "security: possible hardcoded api key or secret in "+f.Path)
			}
		}
		if placeholdRe.MatchString(f.Content) {
			p.Findings = append(p.Findings, "unfinished placeholder content in "+f.Path)
		}
	}

	if hasMarkup && !hasLegal {
		p.Findings = append(p.Findings, "legal: no copyright or attribution notice found in any page")
	}

	// Corpus-wide density thresholds: a fifth of the tree carrying a smell
	// is a project-level problem, not a per-file one.
	if sourceFiles > 0 {
		if todoFiles*5 >= sourceFiles && todoFiles >= 2 {
			p.Findings = append(p.Findings, fmt.Sprintf("%d of %d source files carry TODO markers", todoFiles, sourceFiles))
		}
		if untranslatedFiles*5 >= sourceFiles && untranslatedFiles >= 2 {
			p.Findings = append(p.Findings, fmt.Sprintf("i18n: %d of %d source files contain untranslated user-facing literals", untranslatedFiles, sourceFiles))
		}
		if oversizedFiles > 0 {
			p.Findings = append(p.Findings, fmt.Sprintf("%d source files exceed %d lines", oversizedFiles, ac.Cfg.Thresholds.LongFileLines))
		}
	}

	// Markup pages that no anchor reaches are unfindable by navigation.
	for _, f := range ac.Files {
		if !f.Markup || isEntryPage(f.Path) {
			continue
		}
		if !linked[f.Path] && !linked[basename(f.Path)] {
			p.Findings = append(p.Findings, "unfindable: page "+f.Path+" is not linked from any navigation")
		}
	}

	p.Score -= len(p.Findings)
	if p.Score < 0 {
		p.Score = 0
	}
	return p
}

func isEntryPage(path string) bool {
	base := basename(path)
	return base == "index.html" || base == "index.htm"
}

func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
