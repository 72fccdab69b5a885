package memory

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// archiveRuns appends evicted run records to the gzip archive as one JSON
// document per gzip member. Archiving is fail-soft: a write error is logged
// and the records are dropped, the live memory file is never blocked on the
// archive.
func (s *Store) archiveRuns(runs []RunRecord) {
	if err := os.MkdirAll(filepath.Dir(s.archivePath), 0o755); err != nil {
		s.logger.Warn("Failed to create archive directory", "path", s.archivePath, "error", err)
		return
	}

	f, err := os.OpenFile(s.archivePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Warn("Failed to open run archive", "path", s.archivePath, "error", err)
		return
	}
	defer f.Close()

	// Concatenated gzip members form a valid gzip stream, so appending a
	// fresh member per save keeps writes independent of past content.
	zw := gzip.NewWriter(f)
	enc := json.NewEncoder(zw)
	for _, run := range runs {
		if err := enc.Encode(run); err != nil {
			s.logger.Warn("Failed to archive run record", "id", run.ID, "error", err)
			break
		}
	}
	if err := zw.Close(); err != nil {
		s.logger.Warn("Failed to finalize run archive", "path", s.archivePath, "error", err)
		return
	}

	s.logger.Debug("Archived pruned runs", "count", len(runs), "path", s.archivePath)
}

// ReadArchive decodes every run record in the archive, oldest first. A
// missing archive yields an empty slice.
func (s *Store) ReadArchive() ([]RunRecord, error) {
	f, err := os.Open(s.archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	zr.Multistream(true)

	var runs []RunRecord
	dec := json.NewDecoder(zr)
	for dec.More() {
		var run RunRecord
		if err := dec.Decode(&run); err != nil {
			return runs, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
