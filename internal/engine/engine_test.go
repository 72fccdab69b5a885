package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codepulse/internal/config"
	"codepulse/internal/execx"
	"codepulse/internal/slogutil"
)

// writeTree creates a small, clean web app fixture.
func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"index.html": `<!DOCTYPE html>
<html><head><title>Notes</title>
<meta name="description" content="a small notes app"></head>
<body>
<button onclick="saveNote()">Save</button>
<footer>copyright 2026</footer>
</body></html>`,
		"src/main.js":  "import { saveNote } from './notes.js';\nwindow.saveNote = saveNote;\n",
		"src/notes.js": "export function saveNote() {\n  return 1;\n}\n",
	}
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestEngine(root string, runner execx.Runner) *Engine {
	cfg := config.DefaultConfig()
	e := New(root, cfg, runner, slogutil.NewDiscardLogger())
	e.Now = func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestRunCleanTree(t *testing.T) {
	root := writeTree(t)
	e := newTestEngine(root, execx.NewMockRunner())

	rep, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rep.Phases) != 12 {
		t.Errorf("got %d phases, want 12", len(rep.Phases))
	}
	// No external tooling installed: the tool phases skip, the static
	// phases find a clean tree.
	if rep.Score != 100 {
		t.Errorf("Score = %d, want 100 for a clean tree", rep.Score)
	}
	if !rep.Passed {
		t.Error("clean tree did not pass")
	}
	if rep.Trend != "first-run" {
		t.Errorf("Trend = %q, want first-run", rep.Trend)
	}
	if rep.Confidence >= 1.0 {
		t.Errorf("Confidence = %.2f, want below 1 with skipped phases", rep.Confidence)
	}

	if _, err := os.Stat(filepath.Join(root, ".codepulse", "memory.json")); err != nil {
		t.Errorf("memory file not written: %v", err)
	}
}

func TestRunStableTrendOnSecondRun(t *testing.T) {
	root := writeTree(t)

	first, err := newTestEngine(root, execx.NewMockRunner()).Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := newTestEngine(root, execx.NewMockRunner()).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if second.Score != first.Score {
		t.Errorf("score changed on identical input: %d then %d", first.Score, second.Score)
	}
	if second.Trend != "stable" {
		t.Errorf("Trend = %q, want stable", second.Trend)
	}
}

func TestRunWithExternalTools(t *testing.T) {
	root := writeTree(t)

	runner := execx.NewMockRunner()
	runner.SetLookPath("npx", "/usr/bin/npx")
	runner.SetLookPath("npm", "/usr/bin/npm")
	runner.SetCommand("npx eslint .", "✖ 3 problems (1 errors, 2 warnings)", "", os.ErrInvalid)
	runner.SetCommand("npm test --silent", "Tests: 36 passed, 36 total", "", nil)
	runner.SetCommand("npm run build", "built in 1.2s", "", nil)
	runner.SetCommand("npx lighthouse-ci", "Performance: 80", "", nil)

	rep, err := newTestEngine(root, runner).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	byName := make(map[string]Phase, len(rep.Phases))
	for _, p := range rep.Phases {
		byName[p.Name] = p
	}

	if p := byName["code-quality"]; p.Skipped || p.Score != 10 {
		t.Errorf("code-quality = %+v, want score 10 (15 - 3 - 2)", p)
	}
	if p := byName["tests"]; p.Skipped || p.Score != 15 {
		t.Errorf("tests = %+v, want full score", p)
	}
	if p := byName["build"]; p.Skipped || p.Score != 10 {
		t.Errorf("build = %+v, want full score with no bundle dir", p)
	}
	if p := byName["performance"]; p.Skipped || p.Score != 4 {
		t.Errorf("performance = %+v, want score 4 (5 * 80 / 100)", p)
	}
	if rep.Confidence != 1.0 {
		t.Errorf("Confidence = %.2f, want 1.0 with every phase executed", rep.Confidence)
	}
	if len(rep.Recommendations) == 0 {
		t.Error("lint findings produced no recommendations")
	}
}

func TestRunFastSkipsSlowPhases(t *testing.T) {
	root := writeTree(t)

	runner := execx.NewMockRunner()
	runner.SetLookPath("npx", "/usr/bin/npx")
	runner.SetCommand("npx lighthouse-ci", "Performance: 80", "", nil)

	e := newTestEngine(root, runner)
	e.Fast = true
	rep, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, p := range rep.Phases {
		if p.Name == "performance" && !p.Skipped {
			t.Error("performance phase executed in fast mode")
		}
	}
}

func TestRunRubricOverride(t *testing.T) {
	root := writeTree(t)
	dir := filepath.Join(root, ".codepulse")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	rubric := "[phases]\n\"wiring-integrity\" = 20\n"
	if err := os.WriteFile(filepath.Join(dir, "rubric.toml"), []byte(rubric), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := newTestEngine(root, execx.NewMockRunner()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, p := range rep.Phases {
		if p.Name == "wiring-integrity" {
			if p.Max != 20 {
				t.Errorf("Max = %d, want rubric override 20", p.Max)
			}
			if p.Score != 20 {
				t.Errorf("Score = %d, want rescaled full score 20", p.Score)
			}
		}
	}
}

func TestTrendLabel(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		previous int
		want     string
	}{
		{"clear improvement", 85, 70, "improving"},
		{"clear decline", 60, 80, "declining"},
		{"identical", 75, 75, "stable"},
		{"one point wobble", 76, 75, "stable"},
		{"two point rise", 77, 75, "improving"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trendLabel(tt.current, tt.previous); got != tt.want {
				t.Errorf("trendLabel(%d, %d) = %q, want %q", tt.current, tt.previous, got, tt.want)
			}
		})
	}
}

func TestRunDeadExportOnTinyTreeStillScores(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.ts": "export function unused() {\n  return 1;\n}\n",
		"b.ts": "const n = 2;\n",
	}
	for path, content := range files {
		if err := os.WriteFile(filepath.Join(root, path), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	rep, err := newTestEngine(root, execx.NewMockRunner()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var dead *Phase
	for i := range rep.Phases {
		if rep.Phases[i].Name == "dead-code" {
			dead = &rep.Phases[i]
		}
	}
	if dead == nil {
		t.Fatal("dead-code phase missing from report")
	}

	// The whole corpus is one dead export, so the percentage reads 100%.
	// The phase must still deduct proportionally instead of zeroing out.
	if dead.Score != 8 {
		t.Errorf("dead-code Score = %d, want 8", dead.Score)
	}
	if len(dead.Findings) != 1 || !strings.Contains(dead.Findings[0], "dead export unused") {
		t.Errorf("Findings = %v, want the dead export flagged", dead.Findings)
	}
}
