package symbols

import (
	"regexp"
	"sort"
	"strings"
)

var (
	functionDeclRe = regexp.MustCompile(`(?m)^[ \t]*((?:export[ \t]+(?:default[ \t]+)?)?)(?:async[ \t]+)?function\*?[ \t]+([A-Za-z_$][\w$]*)[ \t]*\([^)]*\)[ \t]*\{`)
	emptyBodyRe    = regexp.MustCompile(`^\([^)]*\)[ \t]*\{[\s]*\}`)

	exportDeclRe   = regexp.MustCompile(`(?m)^[ \t]*export[ \t]+(?:default[ \t]+)?(?:async[ \t]+)?(?:function\*?|class)[ \t]+([A-Za-z_$][\w$]*)`)
	exportVarRe    = regexp.MustCompile(`(?m)^[ \t]*export[ \t]+(?:const|let|var)[ \t]+([A-Za-z_$][\w$]*)`)
	exportClauseRe = regexp.MustCompile(`(?m)^[ \t]*export[ \t]*\{([^}]*)\}`)
	cjsExportRe    = regexp.MustCompile(`(?m)(?:module\.)?exports\.([A-Za-z_$][\w$]*)[ \t]*=`)
)

// extractWithRegex is the CGO-free extraction path. It recognizes the same
// surface the tree-sitter extractor does on conventionally formatted code.
func extractWithRegex(path, content string) *FileSymbols {
	fs := &FileSymbols{Path: path, Source: "regex"}

	exports := make(map[string]bool)
	for _, m := range exportDeclRe.FindAllStringSubmatch(content, -1) {
		exports[m[1]] = true
	}
	for _, m := range exportVarRe.FindAllStringSubmatch(content, -1) {
		exports[m[1]] = true
	}
	for _, m := range exportClauseRe.FindAllStringSubmatch(content, -1) {
		for _, name := range parseExportClause(m[1]) {
			exports[name] = true
		}
	}
	for _, m := range cjsExportRe.FindAllStringSubmatch(content, -1) {
		exports[m[1]] = true
	}

	for _, loc := range functionDeclRe.FindAllStringSubmatchIndex(content, -1) {
		name := content[loc[4]:loc[5]]
		exported := strings.Contains(content[loc[2]:loc[3]], "export")
		line := 1 + strings.Count(content[:loc[0]], "\n")

		// Re-examine the text from the parameter list onward for an empty body.
		paren := strings.Index(content[loc[0]:loc[1]], "(")
		empty := false
		if paren >= 0 {
			tail := content[loc[0]+paren:]
			if len(tail) > 400 {
				tail = tail[:400]
			}
			empty = emptyBodyRe.MatchString(tail)
		}

		fs.Functions = append(fs.Functions, Function{
			Name:      name,
			Line:      line,
			Exported:  exported,
			EmptyBody: empty,
		})
	}

	fs.Exports = sortedKeys(exports)
	fs.markExportedFunctions()
	return fs
}

// parseExportClause splits "a, b as c" into exported names (the local name,
// or the alias when one is given).
func parseExportClause(clause string) []string {
	var names []string
	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, " as "); idx >= 0 {
			part = strings.TrimSpace(part[idx+4:])
		}
		if isIdentifier(part) {
			names = append(names, part)
		}
	}
	return names
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
