// Package deadcode finds exported symbols and local functions that nothing
// in the audited tree uses. Findings are heuristic: dynamic dispatch and
// string-keyed lookups can hide real usage, so results carry a confidence
// hint instead of a hard verdict.
package deadcode

// DeadSymbol is one unused symbol finding.
type DeadSymbol struct {
	// Name is the symbol name.
	Name string `json:"name"`

	// File is the defining file, as a root-relative slash path.
	File string `json:"file"`

	// Line is the 1-indexed declaration line when known, zero otherwise.
	Line int `json:"line,omitempty"`

	// Kind is "export" or "local-function".
	Kind string `json:"kind"`

	// Confidence is "high" for local functions (usage is file-scoped) and
	// "medium" for exports (cross-file textual search can miss dynamic use).
	Confidence string `json:"confidence"`
}

// Result is the dead code analysis outcome for one run.
type Result struct {
	// DeadExports are exported symbols with no detectable consumer.
	DeadExports []DeadSymbol `json:"deadExports"`

	// DeadLocals are non-exported functions never called in their own file.
	DeadLocals []DeadSymbol `json:"deadLocals"`

	// TotalExports is the number of exported symbols examined.
	TotalExports int `json:"totalExports"`

	// DeadExportPercent is DeadExports over TotalExports, 0-100.
	DeadExportPercent int `json:"deadExportPercent"`
}

// Count returns the total number of findings.
func (r *Result) Count() int {
	return len(r.DeadExports) + len(r.DeadLocals)
}
