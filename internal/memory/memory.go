// Package memory persists audit state across runs in a single JSON artifact.
// The file is the only durable state the engine has: run history, recurring
// error records, recommendation follow-through, and the commit the last run
// audited. Corruption is recoverable by design; a file that does not parse is
// replaced by a fresh default rather than aborting the audit.
package memory

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"codepulse/internal/auditerr"
)

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 2

// Memory is the persisted cross-run state.
type Memory struct {
	// Version is the schema version of this file.
	Version int `json:"version"`

	// Runs is the audit run history, newest last.
	Runs []RunRecord `json:"runs"`

	// Errors are recurring findings converted into replayable checks.
	Errors []ErrorRecord `json:"errors"`

	// Recommendations is the open and followed recommendation ledger.
	Recommendations []Recommendation `json:"recommendations"`

	// LastRunCommit is the HEAD commit of the most recent run, used as the
	// diff base for the next run's changed-file detection.
	LastRunCommit string `json:"lastRunCommit,omitempty"`
}

// PhaseScore is the compact per-phase record kept in run history.
type PhaseScore struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Max     int    `json:"max"`
	Skipped bool   `json:"skipped,omitempty"`
}

// RunRecord is one completed audit run.
type RunRecord struct {
	// ID is a random UUID assigned at record time.
	ID string `json:"id"`

	// Date is the run completion time, RFC 3339.
	Date time.Time `json:"date"`

	// Score is the 0-100 aggregate over executed phases.
	Score int `json:"score"`

	// Confidence is the fraction of phases that actually executed, 0-1.
	// A fast run that skips slow phases reports lower confidence.
	Confidence float64 `json:"confidence"`

	// Commit is the HEAD commit this run audited, empty outside a repo.
	Commit string `json:"commit,omitempty"`

	Phases []PhaseScore `json:"phases"`
}

// CheckType enumerates replayable regression checks.
type CheckType string

const (
	CheckFileExists      CheckType = "file_exists"
	CheckContentContains CheckType = "content_contains"
	CheckTestPasses      CheckType = "test_passes"
)

// Check is a machine-replayable assertion derived from a past finding.
type Check struct {
	Type CheckType `json:"type"`

	// Path is the file the check targets (file_exists, content_contains).
	Path string `json:"path,omitempty"`

	// Substring is the required content (content_contains).
	Substring string `json:"substring,omitempty"`

	// Command is the test invocation (test_passes).
	Command string `json:"command,omitempty"`
}

// ErrorRecord is a past finding retained for regression guarding.
type ErrorRecord struct {
	// Phase is the audit phase that produced the finding.
	Phase string `json:"phase"`

	// Description is the human-readable finding text.
	Description string `json:"description"`

	// Check is the replayable assertion, when one could be derived.
	Check *Check `json:"check,omitempty"`

	RecordedAt time.Time `json:"recordedAt"`
}

// Recommendation is one actionable suggestion tracked across runs.
type Recommendation struct {
	// Source is the phase or rule that produced the recommendation.
	Source string `json:"source"`

	// Text is the raw finding text used for dedupe and follow-through.
	Text string `json:"text"`

	// Title is the short display headline.
	Title string `json:"title"`

	// Explain says why the finding matters.
	Explain string `json:"explain,omitempty"`

	// Action is the suggested fix.
	Action string `json:"action,omitempty"`

	// Impact estimates the effect of acting ("score", "correctness",
	// "maintainability", "compliance").
	Impact string `json:"impact,omitempty"`

	// Priority is "high", "medium", or "low".
	Priority string `json:"priority"`

	CreatedAt time.Time `json:"createdAt"`

	// Count is how many runs have produced this recommendation.
	Count int `json:"count"`

	// Followed is set once the underlying finding disappears from a run.
	Followed   bool       `json:"followed,omitempty"`
	FollowedAt *time.Time `json:"followedAt,omitempty"`
}

// Bounds caps how much history the file retains.
type Bounds struct {
	MaxRuns         int
	MaxErrors       int
	MaxFollowedRecs int
	MaxOpenRecs     int
}

// DefaultBounds returns the standard retention limits.
func DefaultBounds() Bounds {
	return Bounds{MaxRuns: 50, MaxErrors: 100, MaxFollowedRecs: 30, MaxOpenRecs: 50}
}

// NewMemory returns an empty memory at the current schema version.
func NewMemory() *Memory {
	return &Memory{Version: CurrentVersion}
}

// Store reads and writes the memory file.
type Store struct {
	path        string
	archivePath string
	bounds      Bounds
	logger      *slog.Logger
}

// NewStore creates a store. path and archivePath are relative to root.
func NewStore(root, path, archivePath string, bounds Bounds, logger *slog.Logger) *Store {
	if bounds.MaxRuns <= 0 {
		bounds = DefaultBounds()
	}
	return &Store{
		path:        filepath.Join(root, filepath.FromSlash(path)),
		archivePath: filepath.Join(root, filepath.FromSlash(archivePath)),
		bounds:      bounds,
		logger:      logger,
	}
}

// Load reads the memory file. It never fails: a missing, unreadable, or
// corrupt file yields a fresh default so the audit can proceed and the next
// Save rewrites a valid artifact.
func (s *Store) Load() *Memory {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Memory file unreadable, starting fresh", "path", s.path, "error", err)
		}
		return NewMemory()
	}

	var m Memory
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("Memory file corrupt, starting fresh",
			"path", s.path,
			"error", auditerr.New(auditerr.MemoryCorrupt, "memory file did not parse", err))
		return NewMemory()
	}

	if m.Version != CurrentVersion {
		s.logger.Info("Memory schema version changed, migrating in place",
			"from", m.Version, "to", CurrentVersion)
		m.Version = CurrentVersion
	}
	return &m
}

// Save prunes and writes the memory atomically: the JSON goes to a temp file
// in the same directory, then renames over the target so a crash mid-write
// never leaves a truncated artifact.
func (s *Store) Save(m *Memory) error {
	pruned := s.Prune(m)
	if len(pruned) > 0 {
		s.archiveRuns(pruned)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return auditerr.New(auditerr.InternalError, "failed to encode memory", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return auditerr.New(auditerr.InternalError, "failed to create memory directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".memory-*.json")
	if err != nil {
		return auditerr.New(auditerr.InternalError, "failed to create temp memory file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return auditerr.New(auditerr.InternalError, "failed to write memory", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return auditerr.New(auditerr.InternalError, "failed to flush memory", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return auditerr.New(auditerr.InternalError, "failed to replace memory file", err)
	}

	s.logger.Debug("Memory saved", "path", s.path, "runs", len(m.Runs))
	return nil
}

// Prune enforces the retention bounds in place and returns the run records
// that fell out of the window, oldest first, for archiving.
func (s *Store) Prune(m *Memory) []RunRecord {
	var evicted []RunRecord

	if over := len(m.Runs) - s.bounds.MaxRuns; over > 0 {
		evicted = append(evicted, m.Runs[:over]...)
		m.Runs = append(m.Runs[:0], m.Runs[over:]...)
	}

	if over := len(m.Errors) - s.bounds.MaxErrors; over > 0 {
		m.Errors = append(m.Errors[:0], m.Errors[over:]...)
	}

	m.Recommendations = pruneRecommendations(m.Recommendations, s.bounds)
	return evicted
}

// pruneRecommendations keeps the newest open and followed entries within
// their separate caps. Open recommendations sort by priority first so a
// high-priority item is never evicted ahead of a low-priority one.
func pruneRecommendations(recs []Recommendation, b Bounds) []Recommendation {
	var open, followed []Recommendation
	for _, r := range recs {
		if r.Followed {
			followed = append(followed, r)
		} else {
			open = append(open, r)
		}
	}

	sort.SliceStable(open, func(i, j int) bool {
		pi, pj := priorityRank(open[i].Priority), priorityRank(open[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return open[i].CreatedAt.After(open[j].CreatedAt)
	})
	if len(open) > b.MaxOpenRecs {
		open = open[:b.MaxOpenRecs]
	}

	sort.SliceStable(followed, func(i, j int) bool {
		ti, tj := followed[i].FollowedAt, followed[j].FollowedAt
		if ti != nil && tj != nil {
			return ti.After(*tj)
		}
		return ti != nil
	})
	if len(followed) > b.MaxFollowedRecs {
		followed = followed[:b.MaxFollowedRecs]
	}

	return append(open, followed...)
}

func priorityRank(p string) int {
	switch p {
	case "high":
		return 0
	case "medium":
		return 1
	default:
		return 2
	}
}
