// Package execx abstracts external tool execution. Linter, test runner,
// bundler, and git are consumed strictly as black-box subprocesses: only
// their exit status and textual output matter to the audit engine.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Runner abstracts command execution for testability.
type Runner interface {
	// LookPath checks if a binary exists in PATH.
	LookPath(name string) (string, error)

	// Run executes a command in dir and returns its output.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error)
}

// RealRunner implements Runner using os/exec.
type RealRunner struct {
	// Timeout for each command execution.
	Timeout time.Duration
}

// NewRealRunner creates a runner with the given timeout.
func NewRealRunner(timeout time.Duration) *RealRunner {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &RealRunner{Timeout: timeout}
}

// LookPath checks if a binary exists in PATH.
func (r *RealRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes a command and returns its trimmed output.
func (r *RealRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		err = ctx.Err()
	}
	return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), err
}

// IsTimeout reports whether an error from Run was a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// MockRunner implements Runner for testing.
type MockRunner struct {
	mu       sync.Mutex
	lookPath map[string]string
	commands map[string]mockResult
	calls    []string
}

type mockResult struct {
	stdout string
	stderr string
	err    error
}

// NewMockRunner creates a new mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		lookPath: make(map[string]string),
		commands: make(map[string]mockResult),
	}
}

// SetLookPath configures the mock to return a path for the given name.
func (m *MockRunner) SetLookPath(name, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookPath[name] = path
}

// SetCommand configures the mock result for a command. The key is either the
// bare command name or "name arg1 arg2 ...".
func (m *MockRunner) SetCommand(key string, stdout, stderr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[key] = mockResult{stdout: stdout, stderr: stderr, err: err}
}

// Calls returns the commands executed so far, most recent last.
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// LookPath implements Runner.
func (m *MockRunner) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if path, ok := m.lookPath[name]; ok {
		return path, nil
	}
	return "", exec.ErrNotFound
}

// Run implements Runner.
func (m *MockRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	full := name
	if len(args) > 0 {
		full = name + " " + strings.Join(args, " ")
	}
	m.calls = append(m.calls, full)

	if result, ok := m.commands[full]; ok {
		return result.stdout, result.stderr, result.err
	}
	if result, ok := m.commands[name]; ok {
		return result.stdout, result.stderr, result.err
	}
	return "", "", exec.ErrNotFound
}
