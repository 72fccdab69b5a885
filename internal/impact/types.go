// Package impact computes changed-file impact analysis over the reverse
// dependency graph, plus a heuristic deep scan of each changed file.
package impact

// RiskLevel classifies the blast radius of a change set.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Result is the outcome of one impact analysis.
type Result struct {
	// Changed is the analyzed changed-file set (source files only), sorted.
	Changed []string `json:"changed"`

	// Affected is the transitive closure over the reverse graph: every file
	// that directly or indirectly imports a changed file, plus the changed
	// files themselves. Sorted.
	Affected []string `json:"affected"`

	// Risk is the overall classification.
	Risk RiskLevel `json:"risk"`

	// CriticalHits are changed files that belong to the critical set.
	CriticalHits []string `json:"criticalHits,omitempty"`

	// DeepScans holds per-changed-file heuristic findings.
	DeepScans []DeepScan `json:"deepScans,omitempty"`
}

// DeepScan is the heuristic inspection of a single changed file. Each
// counter contributes to a bounded score penalty, never a hard failure.
type DeepScan struct {
	File string `json:"file"`

	// Todos counts TODO/FIXME/HACK markers.
	Todos int `json:"todos"`

	// DanglingOnclick counts attribute handler calls in this file whose
	// handler name is defined nowhere.
	DanglingOnclick int `json:"danglingOnclick"`

	// LongLiterals counts suspiciously long untranslated string literals.
	LongLiterals int `json:"longLiterals"`

	// Lines is the file length in lines.
	Lines int `json:"lines"`

	// Oversized reports Lines above the configured threshold.
	Oversized bool `json:"oversized"`

	// EmptyFunctions counts function declarations with empty bodies.
	EmptyFunctions int `json:"emptyFunctions"`

	// Penalty is the bounded score deduction derived from the counters.
	Penalty int `json:"penalty"`
}
