// Package handlers cross-references globally registered event handlers
// against their call sites. A handler is a symbol assigned onto the global
// object and invoked from markup attributes or plain identifier calls; the
// registry surfaces dangling references, duplicate definitions, and orphaned
// definitions (dead UI wiring).
package handlers

import (
	"log/slog"
	"regexp"
	"sort"

	"codepulse/internal/scanner"
)

// RefKind classifies how a handler is referenced.
type RefKind string

const (
	// RefAttribute is a declarative inline-attribute call, e.g. onclick="save()".
	RefAttribute RefKind = "declarative-attribute-call"

	// RefDirectCall is a plain identifier call in source code.
	RefDirectCall RefKind = "direct-call"
)

// Reference is a single handler call site.
type Reference struct {
	File string  `json:"file"`
	Kind RefKind `json:"kind"`
}

// Registry holds handler definitions and references for one run.
type Registry struct {
	// Definitions maps a handler name to every file defining it. A
	// well-formed codebase has exactly one defining file per name; at
	// runtime the last-loaded file silently wins, so duplicates are a
	// latent correctness bug the audit must surface.
	Definitions map[string][]string `json:"definitions"`

	// References maps a handler name to its call sites.
	References map[string][]Reference `json:"references"`
}

var (
	// window.saveNote = function ... / window.saveNote = (...) => ...
	definitionRe = regexp.MustCompile(`(?m)window\.([A-Za-z_$][\w$]*)\s*=`)

	// onclick="saveNote(...)" and friends, in markup or JS template strings.
	attributeRefRe = regexp.MustCompile(`\bon(?:click|change|submit|input|keyup|keydown|keypress|blur|focus|load|mouseover|mouseout)\s*=\s*\\?["']\s*([A-Za-z_$][\w$]*)\s*\(`)

	// Plain identifier calls; filtered against the keyword blacklist below.
	directCallRe = regexp.MustCompile(`(?m)(?:^|[\s;{}(,=&|!?:])([A-Za-z_$][\w$]*)\s*\(`)
)

// callBlacklist suppresses control-flow keywords and ubiquitous built-ins
// that would otherwise flood the direct-call reference set.
var callBlacklist = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "function": true, "async": true, "await": true,
	"typeof": true, "new": true, "delete": true, "void": true, "in": true,
	"of": true, "do": true, "else": true, "throw": true, "yield": true,
	"require": true, "import": true, "export": true, "constructor": true,
	"super": true, "console": true, "fetch": true, "alert": true,
	"confirm": true, "prompt": true, "setTimeout": true, "setInterval": true,
	"clearTimeout": true, "clearInterval": true, "parseInt": true,
	"parseFloat": true, "isNaN": true, "String": true, "Number": true,
	"Boolean": true, "Array": true, "Object": true, "Promise": true,
	"Error": true, "Date": true, "Map": true, "Set": true, "JSON": true,
	"Math": true, "RegExp": true, "Symbol": true, "encodeURIComponent": true,
	"decodeURIComponent": true, "addEventListener": true,
	"removeEventListener": true, "requestAnimationFrame": true,
}

// BuildRegistry collects handler definitions and references across all files.
func BuildRegistry(files []scanner.SourceFile, logger *slog.Logger) *Registry {
	r := &Registry{
		Definitions: make(map[string][]string),
		References:  make(map[string][]Reference),
	}

	for _, f := range files {
		if !f.Markup {
			for _, m := range definitionRe.FindAllStringSubmatch(f.Content, -1) {
				name := m[1]
				if !contains(r.Definitions[name], f.Path) {
					r.Definitions[name] = append(r.Definitions[name], f.Path)
				}
			}
		}

		for _, m := range attributeRefRe.FindAllStringSubmatch(f.Content, -1) {
			r.References[m[1]] = append(r.References[m[1]], Reference{File: f.Path, Kind: RefAttribute})
		}

		if !f.Markup {
			for _, m := range directCallRe.FindAllStringSubmatch(f.Content, -1) {
				name := m[1]
				if callBlacklist[name] {
					continue
				}
				r.References[name] = append(r.References[name], Reference{File: f.Path, Kind: RefDirectCall})
			}
		}
	}

	for name := range r.Definitions {
		sort.Strings(r.Definitions[name])
	}

	logger.Debug("Handler registry built",
		"definitions", len(r.Definitions),
		"referencedNames", len(r.References))

	return r
}

// Dangling returns attribute-referenced handler names with zero definitions,
// sorted by name. Direct calls are not considered dangling on their own:
// an undefined identifier call could target any library function, but a
// markup attribute can only resolve against the global handler namespace.
func (r *Registry) Dangling() []Finding {
	var out []Finding
	for name, refs := range r.References {
		if len(r.Definitions[name]) > 0 {
			continue
		}
		var files []string
		for _, ref := range refs {
			if ref.Kind == RefAttribute && !contains(files, ref.File) {
				files = append(files, ref.File)
			}
		}
		if len(files) > 0 {
			sort.Strings(files)
			out = append(out, Finding{Name: name, Files: files})
		}
	}
	sortFindings(out)
	return out
}

// Duplicates returns handler names defined in two or more files.
func (r *Registry) Duplicates() []Finding {
	var out []Finding
	for name, files := range r.Definitions {
		if len(files) >= 2 {
			out = append(out, Finding{Name: name, Files: files})
		}
	}
	sortFindings(out)
	return out
}

// Orphans returns handler names defined somewhere but never referenced by
// any attribute or direct call, a signal of dead UI wiring.
// extraUsage supplies names used through other channels (exports) that
// suppress the orphan flag.
func (r *Registry) Orphans(extraUsage map[string]bool) []Finding {
	var out []Finding
	for name, files := range r.Definitions {
		if len(r.References[name]) > 0 {
			continue
		}
		if extraUsage[name] {
			continue
		}
		out = append(out, Finding{Name: name, Files: files})
	}
	sortFindings(out)
	return out
}

// AttributeCalls returns the handler names invoked by inline attributes in
// the given content. Used by the impact deep scan to find dangling onclick
// references local to a single changed file.
func AttributeCalls(content string) []string {
	var names []string
	for _, m := range attributeRefRe.FindAllStringSubmatch(content, -1) {
		names = append(names, m[1])
	}
	return names
}

// IsDefined reports whether a handler name has at least one definition.
func (r *Registry) IsDefined(name string) bool {
	return len(r.Definitions[name]) > 0
}

// Finding names a handler and the files involved.
type Finding struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

func sortFindings(fs []Finding) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].Name < fs[j].Name })
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
