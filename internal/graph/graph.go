// Package graph builds and analyzes the import dependency graph of the
// audited source tree. Edges are derived from relative import specifiers
// only; package imports from node_modules are outside the audited surface.
package graph

import (
	"log/slog"
	"path"
	"regexp"
	"sort"

	"codepulse/internal/scanner"
)

// Graph is the forward/reverse adjacency structure over source file paths.
// It is rebuilt fresh every run and never persisted; only the file/edge
// counts are cached in memory for trend display.
type Graph struct {
	// Forward maps a file to the files it imports.
	Forward map[string][]string `json:"forward"`

	// Reverse maps a file to the files importing it.
	Reverse map[string][]string `json:"reverse"`

	// DynamicTargets are files that are the target of a dynamic import().
	DynamicTargets map[string]bool `json:"-"`

	// EdgeCount is the number of resolved import edges.
	EdgeCount int `json:"edgeCount"`

	// FileCount is the number of graph nodes (scanned source files).
	FileCount int `json:"fileCount"`
}

var (
	// import defaultExport from './x';  import { a, b } from '../y';  import './z';
	staticImportRe = regexp.MustCompile(`(?m)import\s+(?:[^'"]*?from\s+)?['"](\.{1,2}/[^'"]*)['"]`)

	// export { a } from './x';  export * from './y';
	reExportRe = regexp.MustCompile(`(?m)export\s+[^'"]*?from\s+['"](\.{1,2}/[^'"]*)['"]`)

	// const m = require('./x')
	requireRe = regexp.MustCompile(`require\(\s*['"](\.{1,2}/[^'"]*)['"]\s*\)`)

	// import('./x') is dynamic; tracked separately for dead code analysis.
	dynamicImportRe = regexp.MustCompile(`\bimport\(\s*['"](\.{1,2}/[^'"]*)['"]\s*\)`)
)

// Builder constructs dependency graphs.
type Builder struct {
	defaultExt string
	logger     *slog.Logger
}

// NewBuilder creates a graph builder. defaultExt is appended to import
// specifiers that resolve to an extensionless path (".js" by default).
func NewBuilder(defaultExt string, logger *slog.Logger) *Builder {
	if defaultExt == "" {
		defaultExt = ".js"
	}
	return &Builder{defaultExt: defaultExt, logger: logger}
}

// Build extracts relative import specifiers from every non-markup file and
// resolves them against the scanned file set. Specifiers that do not resolve
// to a scanned file are silently dropped: a missing target is not an edge
// and not an error.
func (b *Builder) Build(files []scanner.SourceFile) *Graph {
	g := &Graph{
		Forward:        make(map[string][]string),
		Reverse:        make(map[string][]string),
		DynamicTargets: make(map[string]bool),
	}

	known := make(map[string]bool, len(files))
	for _, f := range files {
		if !f.Markup {
			known[f.Path] = true
		}
	}
	g.FileCount = len(known)

	dropped := 0
	for _, f := range files {
		if f.Markup {
			continue
		}

		seen := make(map[string]bool)
		addEdge := func(spec string, dynamic bool) {
			target := b.resolve(f.Path, spec)
			if !known[target] {
				dropped++
				return
			}
			if dynamic {
				g.DynamicTargets[target] = true
			}
			if target == f.Path || seen[target] {
				return
			}
			seen[target] = true
			g.Forward[f.Path] = append(g.Forward[f.Path], target)
			g.Reverse[target] = append(g.Reverse[target], f.Path)
			g.EdgeCount++
		}

		for _, re := range []*regexp.Regexp{staticImportRe, reExportRe, requireRe} {
			for _, m := range re.FindAllStringSubmatch(f.Content, -1) {
				addEdge(m[1], false)
			}
		}
		for _, m := range dynamicImportRe.FindAllStringSubmatch(f.Content, -1) {
			addEdge(m[1], true)
		}
	}

	for _, adj := range [2]map[string][]string{g.Forward, g.Reverse} {
		for _, targets := range adj {
			sort.Strings(targets)
		}
	}

	b.logger.Debug("Dependency graph built",
		"files", g.FileCount,
		"edges", g.EdgeCount,
		"droppedSpecifiers", dropped)

	return g
}

// resolve turns a relative specifier into a root-relative slash path,
// appending the default extension when the specifier has none.
func (b *Builder) resolve(from, spec string) string {
	resolved := path.Join(path.Dir(from), spec)
	if path.Ext(resolved) == "" {
		resolved += b.defaultExt
	}
	return resolved
}

// ImportedFiles returns the set of files that are the target of at least one
// import edge, statically or dynamically.
func (g *Graph) ImportedFiles() map[string]bool {
	imported := make(map[string]bool, len(g.Reverse)+len(g.DynamicTargets))
	for target := range g.Reverse {
		imported[target] = true
	}
	for target := range g.DynamicTargets {
		imported[target] = true
	}
	return imported
}
