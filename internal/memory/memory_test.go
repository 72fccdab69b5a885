package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codepulse/internal/slogutil"
)

func newTestStore(t *testing.T, bounds Bounds) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	store := NewStore(root, ".codepulse/memory.json", ".codepulse/memory-archive.json.gz",
		bounds, slogutil.NewDiscardLogger())
	return store, root
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	store, _ := newTestStore(t, DefaultBounds())

	m := store.Load()
	if m.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", m.Version, CurrentVersion)
	}
	if len(m.Runs) != 0 {
		t.Errorf("Runs = %v, want empty", m.Runs)
	}
}

func TestLoadCorruptFileReturnsDefault(t *testing.T) {
	store, root := newTestStore(t, DefaultBounds())

	dir := filepath.Join(root, ".codepulse")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "memory.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := store.Load()
	if m == nil {
		t.Fatal("Load returned nil for corrupt file")
	}
	if m.Version != CurrentVersion || len(m.Runs) != 0 {
		t.Errorf("corrupt file did not reset to default: %+v", m)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, DefaultBounds())

	m := NewMemory()
	m.LastRunCommit = "abc123"
	m.Runs = append(m.Runs, RunRecord{
		ID:    "run-1",
		Date:  time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		Score: 82,
		Phases: []PhaseScore{
			{Name: "tests", Score: 15, Max: 15},
		},
	})

	if err := store.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := store.Load()
	if got.LastRunCommit != "abc123" {
		t.Errorf("LastRunCommit = %q, want abc123", got.LastRunCommit)
	}
	if len(got.Runs) != 1 || got.Runs[0].Score != 82 {
		t.Errorf("Runs = %+v, want one run scoring 82", got.Runs)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	store, root := newTestStore(t, DefaultBounds())

	if err := store.Save(NewMemory()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, ".codepulse"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".memory-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestPruneRunBounds(t *testing.T) {
	store, _ := newTestStore(t, Bounds{MaxRuns: 3, MaxErrors: 2, MaxFollowedRecs: 2, MaxOpenRecs: 2})

	m := NewMemory()
	for i := 0; i < 5; i++ {
		m.Runs = append(m.Runs, RunRecord{ID: string(rune('a' + i)), Score: i})
	}
	for i := 0; i < 4; i++ {
		m.Errors = append(m.Errors, ErrorRecord{Phase: "tests", Description: "e"})
	}

	evicted := store.Prune(m)
	if len(evicted) != 2 {
		t.Errorf("evicted %d runs, want 2", len(evicted))
	}
	if len(m.Runs) != 3 {
		t.Errorf("Runs = %d, want 3", len(m.Runs))
	}
	// Oldest runs are the ones evicted.
	if m.Runs[0].ID != "c" {
		t.Errorf("oldest surviving run = %s, want c", m.Runs[0].ID)
	}
	if len(m.Errors) != 2 {
		t.Errorf("Errors = %d, want 2", len(m.Errors))
	}
}

func TestPruneRecommendationsKeepsHighPriority(t *testing.T) {
	now := time.Now()
	recs := []Recommendation{
		{Title: "low-1", Priority: "low", CreatedAt: now},
		{Title: "low-2", Priority: "low", CreatedAt: now},
		{Title: "high-1", Priority: "high", CreatedAt: now.Add(-time.Hour)},
	}

	pruned := pruneRecommendations(recs, Bounds{MaxOpenRecs: 2, MaxFollowedRecs: 1})
	if len(pruned) != 2 {
		t.Fatalf("pruned to %d, want 2", len(pruned))
	}
	if pruned[0].Title != "high-1" {
		t.Errorf("first kept = %s, want high-1", pruned[0].Title)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, Bounds{MaxRuns: 1, MaxErrors: 10, MaxFollowedRecs: 10, MaxOpenRecs: 10})

	m := NewMemory()
	m.Runs = []RunRecord{
		{ID: "old-1", Score: 50},
		{ID: "old-2", Score: 60},
		{ID: "new", Score: 70},
	}
	if err := store.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	archived, err := store.ReadArchive()
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(archived) != 2 {
		t.Fatalf("archived %d runs, want 2", len(archived))
	}
	if archived[0].ID != "old-1" || archived[1].ID != "old-2" {
		t.Errorf("archive order = %s, %s; want old-1, old-2", archived[0].ID, archived[1].ID)
	}

	// A second save appends a new gzip member; the archive stays readable.
	m.Runs = append(m.Runs, RunRecord{ID: "newer", Score: 80})
	if err := store.Save(m); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	archived, err = store.ReadArchive()
	if err != nil {
		t.Fatalf("ReadArchive after append: %v", err)
	}
	if len(archived) != 3 {
		t.Errorf("archived %d runs after append, want 3", len(archived))
	}
}

func TestSavedFileIsValidJSON(t *testing.T) {
	store, root := newTestStore(t, DefaultBounds())
	if err := store.Save(NewMemory()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, ".codepulse", "memory.json"))
	if err != nil {
		t.Fatal(err)
	}
	var m Memory
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("saved file is not valid JSON: %v", err)
	}
}
