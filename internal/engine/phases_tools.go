package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codepulse/internal/config"
	"codepulse/internal/execx"
	"codepulse/internal/memory"
)

// errToolMissing marks a command whose binary is not installed. The phase is
// skipped rather than failed: an absent linter says nothing about the code.
var errToolMissing = errors.New("tool not found in PATH")

// runCommand executes one configured external tool and returns its combined
// output. A configured per-command timeout bounds the context.
func runCommand(ctx context.Context, ac *AuditContext, cmd config.CommandConfig) (string, error) {
	if cmd.Name == "" {
		return "", errToolMissing
	}
	if _, err := ac.Runner.LookPath(cmd.Name); err != nil {
		return "", errToolMissing
	}

	runCtx := ctx
	if cmd.TimeoutMs > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cmd.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	stdout, stderr, err := ac.Runner.Run(runCtx, ac.Root, cmd.Name, cmd.Args...)
	out := stdout
	if stderr != "" {
		out += "\n" + stderr
	}
	return out, err
}

func commandLine(cmd config.CommandConfig) string {
	if len(cmd.Args) == 0 {
		return cmd.Name
	}
	return cmd.Name + " " + strings.Join(cmd.Args, " ")
}

// codeQualityPhase runs the configured linter and scores by error and
// warning counts.
func codeQualityPhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "code-quality", Max: 15}

	out, err := runCommand(ctx, ac, ac.Cfg.Commands.Lint)
	if errors.Is(err, errToolMissing) {
		p.Skipped = true
		p.Details = append(p.Details, "lint tool unavailable: "+commandLine(ac.Cfg.Commands.Lint))
		return p
	}
	if execx.IsTimeout(err) {
		p.Score = 0
		p.Findings = append(p.Findings, "lint error: linter timed out")
		return p
	}

	counts := parseLintOutput(out)
	if !counts.known {
		if err != nil {
			p.Score = 0
			p.Findings = append(p.Findings, "lint error: linter exited non-zero with unrecognized output")
			return p
		}
		p.Score = p.Max
		p.Details = append(p.Details, "linter reported no findings")
		return p
	}

	p.Score = p.Max - 3*counts.errors - counts.warnings
	if p.Score < 0 {
		p.Score = 0
	}
	if counts.errors > 0 {
		p.Findings = append(p.Findings, fmt.Sprintf("eslint reported %d lint errors", counts.errors))
	}
	if counts.warnings > 0 {
		p.Findings = append(p.Findings, fmt.Sprintf("eslint reported %d lint warnings", counts.warnings))
	}
	return p
}

// testsPhase runs the configured test command, scores proportionally to the
// pass rate, and flags changed files that have no apparent test coverage.
func testsPhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "tests", Max: 15}

	out, err := runCommand(ctx, ac, ac.Cfg.Commands.Test)
	if errors.Is(err, errToolMissing) {
		p.Skipped = true
		p.Details = append(p.Details, "test tool unavailable: "+commandLine(ac.Cfg.Commands.Test))
		return p
	}
	if execx.IsTimeout(err) {
		p.Score = 0
		p.Findings = append(p.Findings, "tests failed: test run timed out")
		return p
	}

	counts := parseTestOutput(out)
	switch {
	case !counts.known && err != nil:
		p.Score = 0
		p.Findings = append(p.Findings, "tests failed: test command exited non-zero")
		p.Checks = append(p.Checks, memory.Check{
			Type:    memory.CheckTestPasses,
			Command: commandLine(ac.Cfg.Commands.Test),
		})
	case !counts.known:
		p.Score = p.Max
		p.Details = append(p.Details, "test command succeeded with unrecognized output")
	case counts.failed > 0:
		total := counts.passed + counts.failed
		p.Score = p.Max * counts.passed / total
		p.Findings = append(p.Findings, fmt.Sprintf("%d failing tests out of %d", counts.failed, total))
		p.Checks = append(p.Checks, memory.Check{
			Type:    memory.CheckTestPasses,
			Command: commandLine(ac.Cfg.Commands.Test),
		})
	default:
		p.Score = p.Max
		p.Details = append(p.Details, fmt.Sprintf("%d tests passed", counts.passed))
	}

	// Changed source files with no test referencing them are the likeliest
	// coverage gaps; cap the deduction so it cannot dominate the phase.
	untested := untestedChangedFiles(ac)
	for i, f := range untested {
		if i == 3 {
			break
		}
		p.Findings = append(p.Findings, "no test coverage found for recently changed "+f)
		if p.Score > 0 {
			p.Score--
		}
	}
	return p
}

// untestedChangedFiles returns changed source files whose base name appears
// in no test file.
func untestedChangedFiles(ac *AuditContext) []string {
	var testContent strings.Builder
	for _, f := range ac.Files {
		if isTestPath(f.Path) {
			testContent.WriteString(f.Content)
			testContent.WriteByte('\n')
		}
	}
	haystack := testContent.String()

	var untested []string
	for _, changed := range ac.Changed {
		if isTestPath(changed) {
			continue
		}
		base := strings.TrimSuffix(filepath.Base(changed), filepath.Ext(changed))
		if base == "" || strings.Contains(haystack, base) {
			continue
		}
		untested = append(untested, changed)
	}
	return untested
}

func isTestPath(p string) bool {
	return strings.Contains(p, ".test.") || strings.Contains(p, ".spec.") ||
		strings.Contains(p, "__tests__/") || strings.HasPrefix(p, "test/") ||
		strings.Contains(p, "/test/")
}

// buildPhase runs the configured build command and measures the output
// bundle against its size budget.
func buildPhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "build", Max: 10}

	_, err := runCommand(ctx, ac, ac.Cfg.Commands.Build)
	if errors.Is(err, errToolMissing) {
		p.Skipped = true
		p.Details = append(p.Details, "build tool unavailable: "+commandLine(ac.Cfg.Commands.Build))
		return p
	}
	if err != nil {
		p.Score = 0
		if execx.IsTimeout(err) {
			p.Findings = append(p.Findings, "build failed: build timed out")
		} else {
			p.Findings = append(p.Findings, "build failed: build command exited non-zero")
		}
		return p
	}

	p.Score = p.Max
	bundleBytes := dirSize(filepath.Join(ac.Root, ac.Cfg.Thresholds.BundleDir))
	ac.BundleBytes = bundleBytes
	if bundleBytes == 0 {
		p.Details = append(p.Details, "build succeeded, no bundle output measured")
		return p
	}

	bundleKB := bundleBytes / 1024
	budget := int64(ac.Cfg.Thresholds.BundleSizeKB)
	p.Details = append(p.Details, fmt.Sprintf("bundle size %d KB (budget %d KB)", bundleKB, budget))
	if budget > 0 && bundleKB > budget {
		// One point per 20% overshoot.
		over := int((bundleKB - budget) * 5 / budget)
		if over < 1 {
			over = 1
		}
		p.Score -= over
		if p.Score < 0 {
			p.Score = 0
		}
		p.Findings = append(p.Findings, fmt.Sprintf("bundle size %d KB exceeds budget of %d KB", bundleKB, budget))
	}
	return p
}

func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	if _, err := os.Stat(dir); err != nil {
		return 0
	}
	return total
}

// performancePhase runs the configured lighthouse command. It is the one
// slow phase, skipped under --fast.
func performancePhase(ctx context.Context, ac *AuditContext) Phase {
	p := Phase{Name: "performance", Max: 5}

	out, err := runCommand(ctx, ac, ac.Cfg.Commands.Performance)
	if errors.Is(err, errToolMissing) {
		p.Skipped = true
		p.Details = append(p.Details, "performance tool unavailable: "+commandLine(ac.Cfg.Commands.Performance))
		return p
	}
	if err != nil && !execx.IsTimeout(err) && strings.TrimSpace(out) == "" {
		p.Skipped = true
		p.Details = append(p.Details, "performance tool produced no output")
		return p
	}

	score := parsePerformanceScore(out)
	if score < 0 {
		p.Skipped = true
		p.Details = append(p.Details, "performance output not recognized")
		return p
	}

	p.Score = p.Max * score / 100
	p.Details = append(p.Details, fmt.Sprintf("lighthouse performance score %d/100", score))
	if score < 50 {
		p.Findings = append(p.Findings, fmt.Sprintf("performance score %d/100 is poor", score))
	}
	return p
}
