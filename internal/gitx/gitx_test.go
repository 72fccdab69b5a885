package gitx

import (
	"context"
	"errors"
	"sort"
	"testing"

	"codepulse/internal/execx"
	"codepulse/internal/slogutil"
)

func newAdapter(runner execx.Runner) *Adapter {
	return NewAdapter("/repo", runner, slogutil.NewDiscardLogger())
}

func TestIsRepository(t *testing.T) {
	runner := execx.NewMockRunner()
	runner.SetCommand("git rev-parse --git-dir", ".git", "", nil)

	if !newAdapter(runner).IsRepository(context.Background()) {
		t.Error("IsRepository = false inside a repo")
	}

	if newAdapter(execx.NewMockRunner()).IsRepository(context.Background()) {
		t.Error("IsRepository = true when git fails")
	}
}

func TestHeadCommit(t *testing.T) {
	runner := execx.NewMockRunner()
	runner.SetCommand("git rev-parse HEAD", "abc123\n", "", nil)

	commit, err := newAdapter(runner).HeadCommit(context.Background())
	if err != nil {
		t.Fatalf("HeadCommit: %v", err)
	}
	if commit != "abc123" {
		t.Errorf("commit = %q, want abc123", commit)
	}
}

func TestChangedFilesIncludesUntracked(t *testing.T) {
	runner := execx.NewMockRunner()
	runner.SetCommand("git diff --name-only abc123", "src/a.js\nsrc/b.js", "", nil)
	runner.SetCommand("git ls-files --others --exclude-standard", "src/new.js", "", nil)

	changed, err := newAdapter(runner).ChangedFiles(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	sort.Strings(changed)
	want := []string{"src/a.js", "src/b.js", "src/new.js"}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Errorf("changed[%d] = %s, want %s", i, changed[i], want[i])
		}
	}
}

func TestChangedFilesStaleCommitFallsBack(t *testing.T) {
	runner := execx.NewMockRunner()
	runner.SetCommand("git diff --name-only gone", "", "fatal: bad object gone", errors.New("exit 128"))
	runner.SetCommand("git diff --name-only HEAD~1", "src/a.js", "", nil)
	runner.SetCommand("git ls-files --others --exclude-standard", "", "", nil)

	changed, err := newAdapter(runner).ChangedFiles(context.Background(), "gone")
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	if len(changed) != 1 || changed[0] != "src/a.js" {
		t.Errorf("changed = %v, want [src/a.js]", changed)
	}
}

func TestChangedFilesEmptyBaseUsesPreviousCommit(t *testing.T) {
	runner := execx.NewMockRunner()
	runner.SetCommand("git diff --name-only HEAD~1", "src/a.js", "", nil)
	runner.SetCommand("git ls-files --others --exclude-standard", "", "", nil)

	changed, err := newAdapter(runner).ChangedFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	if len(changed) != 1 || changed[0] != "src/a.js" {
		t.Errorf("changed = %v, want [src/a.js]", changed)
	}
}

func TestChangedFilesGitFailureIsError(t *testing.T) {
	runner := execx.NewMockRunner()
	runner.SetCommand("git diff --name-only HEAD~1", "", "fatal: not a repo", errors.New("exit 128"))

	if _, err := newAdapter(runner).ChangedFiles(context.Background(), ""); err == nil {
		t.Error("ChangedFiles succeeded with git failing")
	}
}
