// Package symbols extracts function and export information from JavaScript
// sources. The primary implementation parses with tree-sitter; a regex
// fallback covers builds without CGO and files tree-sitter fails to parse.
package symbols

// Function is a single function declaration found in a file.
type Function struct {
	Name string `json:"name"`

	// Line is the 1-indexed start line.
	Line int `json:"line"`

	// Exported reports whether the function is part of the file's export
	// surface (export statement or exports./module.exports assignment).
	Exported bool `json:"exported"`

	// EmptyBody reports a function body with no statements.
	EmptyBody bool `json:"emptyBody"`
}

// FileSymbols is the extraction result for one file.
type FileSymbols struct {
	Path      string     `json:"path"`
	Functions []Function `json:"functions"`

	// Exports are all exported symbol names, including non-functions.
	Exports []string `json:"exports"`

	// Source records which extractor produced the result:
	// "treesitter" or "regex".
	Source string `json:"source"`
}

// ExportSet returns the exports as a lookup set.
func (fs *FileSymbols) ExportSet() map[string]bool {
	set := make(map[string]bool, len(fs.Exports))
	for _, name := range fs.Exports {
		set[name] = true
	}
	return set
}

// markExportedFunctions flips Exported on functions whose name is in the
// export set. Needed because exports can be declared far from the function.
func (fs *FileSymbols) markExportedFunctions() {
	set := fs.ExportSet()
	for i := range fs.Functions {
		if set[fs.Functions[i].Name] {
			fs.Functions[i].Exported = true
		}
	}
}
