package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// External tool output is parsed tolerantly: these tools are black boxes
// whose formats drift between versions, so every parser accepts several
// known shapes and reports "unknown" rather than failing the phase.

var (
	// "✖ 12 problems (3 errors, 9 warnings)"
	eslintSummaryRe = regexp.MustCompile(`(\d+)\s+problems?\s*\((\d+)\s+errors?,\s*(\d+)\s+warnings?\)`)

	// Compact/unix formats emit one line per finding with "Error"/"Warning".
	eslintErrorLineRe   = regexp.MustCompile(`(?im)^.*\berror\b`)
	eslintWarningLineRe = regexp.MustCompile(`(?im)^.*\bwarning\b`)

	// Jest: "Tests:       2 failed, 34 passed, 36 total"
	jestSummaryRe = regexp.MustCompile(`Tests:\s*(?:(\d+)\s+failed,\s*)?(\d+)\s+passed`)

	// Mocha: "  34 passing" / "  2 failing"
	mochaPassingRe = regexp.MustCompile(`(\d+)\s+passing`)
	mochaFailingRe = regexp.MustCompile(`(\d+)\s+failing`)

	// Lighthouse in its several historical shapes.
	lighthouseLabelRe = regexp.MustCompile(`(?i)Performance:\s*(\d+)\b`)
	lighthouseJSONRe  = regexp.MustCompile(`"performance"\s*:\s*(0?\.\d+|1(?:\.0+)?|\d+)`)
	lighthouseSlashRe = regexp.MustCompile(`(?i)performance score:\s*(\d+)\s*/\s*100`)
)

// lintCounts is the parsed lint summary.
type lintCounts struct {
	errors   int
	warnings int

	// known reports whether any recognized shape was found. Unknown output
	// with a zero exit status is treated as clean.
	known bool
}

func parseLintOutput(out string) lintCounts {
	if m := eslintSummaryRe.FindStringSubmatch(out); m != nil {
		errors, _ := strconv.Atoi(m[2])
		warnings, _ := strconv.Atoi(m[3])
		return lintCounts{errors: errors, warnings: warnings, known: true}
	}

	errors := len(eslintErrorLineRe.FindAllString(out, -1))
	warnings := len(eslintWarningLineRe.FindAllString(out, -1))
	if errors > 0 || warnings > 0 {
		return lintCounts{errors: errors, warnings: warnings, known: true}
	}
	return lintCounts{}
}

// testCounts is the parsed test summary.
type testCounts struct {
	passed int
	failed int
	known  bool
}

func parseTestOutput(out string) testCounts {
	if m := jestSummaryRe.FindStringSubmatch(out); m != nil {
		failed := 0
		if m[1] != "" {
			failed, _ = strconv.Atoi(m[1])
		}
		passed, _ := strconv.Atoi(m[2])
		return testCounts{passed: passed, failed: failed, known: true}
	}

	if m := mochaPassingRe.FindStringSubmatch(out); m != nil {
		passed, _ := strconv.Atoi(m[1])
		failed := 0
		if fm := mochaFailingRe.FindStringSubmatch(out); fm != nil {
			failed, _ = strconv.Atoi(fm[1])
		}
		return testCounts{passed: passed, failed: failed, known: true}
	}

	return testCounts{}
}

// parsePerformanceScore extracts a 0-100 performance score from lighthouse
// style output. Returns -1 when no recognized shape is present.
func parsePerformanceScore(out string) int {
	if m := lighthouseLabelRe.FindStringSubmatch(out); m != nil {
		n, _ := strconv.Atoi(m[1])
		return clampScore(n)
	}
	if m := lighthouseSlashRe.FindStringSubmatch(out); m != nil {
		n, _ := strconv.Atoi(m[1])
		return clampScore(n)
	}
	if m := lighthouseJSONRe.FindStringSubmatch(out); m != nil {
		raw := m[1]
		if strings.Contains(raw, ".") || raw == "1" {
			f, err := strconv.ParseFloat(raw, 64)
			if err == nil && f <= 1.0 {
				return clampScore(int(f*100 + 0.5))
			}
		}
		n, err := strconv.Atoi(raw)
		if err == nil {
			return clampScore(n)
		}
	}
	return -1
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
