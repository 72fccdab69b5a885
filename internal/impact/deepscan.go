package impact

import (
	"context"
	"regexp"
	"strings"

	"codepulse/internal/handlers"
	"codepulse/internal/scanner"
	"codepulse/internal/symbols"
)

var (
	todoRe = regexp.MustCompile(`(?i)\b(?:TODO|FIXME|HACK)\b`)

	// Long quoted literals with sentence-like content: likely user-facing
	// text that bypassed the translation layer.
	longLiteralRe = regexp.MustCompile(`["']([^"'\n]{40,})["']`)
)

// maxDeepScanPenalty bounds what a single file can cost.
const maxDeepScanPenalty = 5

// DeepScanFile inspects one changed file with graph-independent heuristics.
// registry may be nil when no handler registry is available; lineThreshold
// flags oversized files.
func DeepScanFile(ctx context.Context, file scanner.SourceFile, registry *handlers.Registry, lineThreshold int) DeepScan {
	ds := DeepScan{File: file.Path}

	ds.Todos = CountTodos(file.Content)

	if registry != nil {
		for _, name := range handlers.AttributeCalls(file.Content) {
			if !registry.IsDefined(name) {
				ds.DanglingOnclick++
			}
		}
	}

	ds.LongLiterals = CountUntranslatedLiterals(file.Content)

	ds.Lines = strings.Count(file.Content, "\n") + 1
	if lineThreshold > 0 && ds.Lines > lineThreshold {
		ds.Oversized = true
	}

	if !file.Markup {
		syms := symbols.Extract(ctx, file.Path, file.Content)
		for _, fn := range syms.Functions {
			if fn.EmptyBody {
				ds.EmptyFunctions++
			}
		}
	}

	ds.Penalty = deepScanPenalty(ds)
	return ds
}

// deepScanPenalty converts counters into a bounded deduction.
func deepScanPenalty(ds DeepScan) int {
	penalty := 0
	if ds.Todos > 0 {
		penalty++
	}
	if ds.DanglingOnclick > 0 {
		penalty += 2
	}
	if ds.LongLiterals > 0 {
		penalty++
	}
	if ds.Oversized {
		penalty++
	}
	if ds.EmptyFunctions > 0 {
		penalty++
	}
	if penalty > maxDeepScanPenalty {
		penalty = maxDeepScanPenalty
	}
	return penalty
}

// CountTodos counts TODO, FIXME, and HACK markers in file content.
func CountTodos(content string) int {
	return len(todoRe.FindAllString(content, -1))
}

// CountUntranslatedLiterals counts long quoted literals that look like
// user-facing prose written outside the translation layer.
func CountUntranslatedLiterals(content string) int {
	n := 0
	for _, m := range longLiteralRe.FindAllStringSubmatch(content, -1) {
		if looksUntranslated(m[1]) {
			n++
		}
	}
	return n
}

// looksUntranslated filters literals that are probably not user-facing prose:
// URLs, paths, selectors, and translation-call arguments are ignored.
func looksUntranslated(s string) bool {
	if !strings.Contains(s, " ") {
		return false
	}
	if strings.Contains(s, "://") || strings.HasPrefix(s, "/") {
		return false
	}
	words := strings.Fields(s)
	return len(words) >= 5
}
