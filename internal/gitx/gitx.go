// Package gitx reads changed-file information from the version control
// system. Git is a black-box collaborator: only command output is consumed,
// and an unavailable repository degrades to an empty changed set.
package gitx

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"codepulse/internal/auditerr"
	"codepulse/internal/execx"
)

// Adapter runs git queries against a repository root.
type Adapter struct {
	root   string
	runner execx.Runner
	logger *slog.Logger
}

// NewAdapter creates a git adapter for the given repository root.
func NewAdapter(root string, runner execx.Runner, logger *slog.Logger) *Adapter {
	return &Adapter{root: root, runner: runner, logger: logger}
}

// IsRepository reports whether root is inside a git work tree.
func (a *Adapter) IsRepository(ctx context.Context) bool {
	_, _, err := a.runner.Run(ctx, a.root, "git", "rev-parse", "--git-dir")
	return err == nil
}

// HeadCommit returns the current HEAD commit hash.
func (a *Adapter) HeadCommit(ctx context.Context) (string, error) {
	out, stderr, err := a.runner.Run(ctx, a.root, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", auditerr.New(auditerr.GitUnavailable, "failed to resolve HEAD: "+stderr, err)
	}
	return strings.TrimSpace(out), nil
}

// ChangedFiles returns the files changed since the given commit, as
// slash-separated paths relative to the repository root. When sinceCommit is
// empty (no prior recorded run) the diff falls back to the immediately
// preceding commit. Working tree and staged changes are included so an
// uncommitted edit is still audited.
func (a *Adapter) ChangedFiles(ctx context.Context, sinceCommit string) ([]string, error) {
	base := sinceCommit
	if base == "" {
		base = "HEAD~1"
	}

	changed := make(map[string]bool)

	out, stderr, err := a.runner.Run(ctx, a.root, "git", "diff", "--name-only", base)
	if err != nil {
		// A stale or garbage-collected commit pointer falls back to HEAD~1.
		if sinceCommit != "" {
			a.logger.Warn("Diff against recorded commit failed, falling back to previous commit",
				"commit", sinceCommit,
				"stderr", stderr)
			out, _, err = a.runner.Run(ctx, a.root, "git", "diff", "--name-only", "HEAD~1")
		}
		if err != nil {
			return nil, auditerr.New(auditerr.GitUnavailable, "git diff failed", err)
		}
	}
	addLines(changed, out)

	// Untracked files count as changed: they exist in the tree being audited
	// but not in any commit.
	out, _, err = a.runner.Run(ctx, a.root, "git", "ls-files", "--others", "--exclude-standard")
	if err == nil {
		addLines(changed, out)
	}

	files := make([]string, 0, len(changed))
	for f := range changed {
		files = append(files, f)
	}
	return files, nil
}

func addLines(set map[string]bool, out string) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			set[filepath.ToSlash(line)] = true
		}
	}
}
