package deadcode

import (
	"log/slog"
	"regexp"
	"sort"

	"codepulse/internal/graph"
	"codepulse/internal/scanner"
	"codepulse/internal/symbols"
)

// Analyzer cross-references symbol definitions against usage.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates a dead code analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze examines every non-markup file. syms maps file path to its
// extracted symbols; files supplies the raw content used for textual usage
// search across the tree (markup files included, an onclick in HTML is a
// legitimate consumer).
func (a *Analyzer) Analyze(files []scanner.SourceFile, g *graph.Graph, syms map[string]*symbols.FileSymbols) *Result {
	result := &Result{}
	imported := g.ImportedFiles()

	for _, f := range files {
		fs := syms[f.Path]
		if fs == nil {
			continue
		}

		funcLines := make(map[string]int, len(fs.Functions))
		for _, fn := range fs.Functions {
			funcLines[fn.Name] = fn.Line
		}

		for _, name := range fs.Exports {
			result.TotalExports++
			if isWhitelisted(name) {
				continue
			}
			if imported[f.Path] {
				// Some file imports this one; assume the export is consumed.
				continue
			}
			if usedOutside(name, f.Path, files) {
				continue
			}
			result.DeadExports = append(result.DeadExports, DeadSymbol{
				Name:       name,
				File:       f.Path,
				Line:       funcLines[name],
				Kind:       "export",
				Confidence: "medium",
			})
		}

		for _, fn := range fs.Functions {
			if fn.Exported || isWhitelisted(fn.Name) {
				continue
			}
			// A local function used anywhere in its file appears at least
			// twice: once at the declaration, once at a call or reference.
			if countWord(fn.Name, f.Content) <= 1 {
				result.DeadLocals = append(result.DeadLocals, DeadSymbol{
					Name:       fn.Name,
					File:       f.Path,
					Line:       fn.Line,
					Kind:       "local-function",
					Confidence: "high",
				})
			}
		}
	}

	sortSymbols(result.DeadExports)
	sortSymbols(result.DeadLocals)

	if result.TotalExports > 0 {
		result.DeadExportPercent = len(result.DeadExports) * 100 / result.TotalExports
	}

	a.logger.Debug("Dead code analysis completed",
		"deadExports", len(result.DeadExports),
		"deadLocals", len(result.DeadLocals),
		"totalExports", result.TotalExports)

	return result
}

// usedOutside reports whether name appears as a whole word in any file other
// than owner. Textual search deliberately over-approximates usage: a string
// table or dynamic lookup keeps the symbol alive.
func usedOutside(name, owner string, files []scanner.SourceFile) bool {
	re := wordRe(name)
	for _, f := range files {
		if f.Path == owner {
			continue
		}
		if re.MatchString(f.Content) {
			return true
		}
	}
	return false
}

func countWord(name, content string) int {
	return len(wordRe(name).FindAllString(content, -1))
}

func wordRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}

func sortSymbols(list []DeadSymbol) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].File != list[j].File {
			return list[i].File < list[j].File
		}
		return list[i].Name < list[j].Name
	})
}
