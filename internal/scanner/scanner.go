// Package scanner walks the audited source tree and yields file contents.
package scanner

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// SourceFile is a single scanned file. Content is read once per run and
// treated as immutable for the remainder of the run.
type SourceFile struct {
	// Path is slash-separated and relative to the scan root.
	Path string `json:"path"`

	// Content is the full file text. Empty when the file could not be read;
	// a read failure never aborts the scan.
	Content string `json:"-"`

	// Markup marks files scanned only for handler references (HTML-like).
	Markup bool `json:"markup,omitempty"`
}

// Options configures the scanner.
type Options struct {
	// Extensions are source file extensions to include.
	Extensions []string

	// MarkupExtensions are reference-only markup extensions to include.
	MarkupExtensions []string

	// ExcludeDirs are directory names skipped during the walk.
	ExcludeDirs []string

	// MaxFileSizeBytes caps how many bytes of a single file are read.
	// Zero means no cap.
	MaxFileSizeBytes int
}

// Scanner walks a source tree.
type Scanner struct {
	opts   Options
	logger *slog.Logger
}

// New creates a scanner.
func New(opts Options, logger *slog.Logger) *Scanner {
	return &Scanner{opts: opts, logger: logger}
}

// Scan recursively walks root and returns every matching file. Dot
// directories, excluded directories, and gitignored paths are skipped.
// Individual unreadable files are returned with empty content.
func (s *Scanner) Scan(root string) ([]SourceFile, error) {
	exclude := make(map[string]struct{}, len(s.opts.ExcludeDirs))
	for _, d := range s.opts.ExcludeDirs {
		exclude[d] = struct{}{}
	}

	gi := loadGitignore(root)

	var files []SourceFile
	skippedDirs := 0
	readFailures := 0

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Unreadable directory entries degrade to an empty listing.
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := exclude[name]; skip || strings.HasPrefix(name, ".") {
				skippedDirs++
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		markup := matchesExt(ext, s.opts.MarkupExtensions)
		if !markup && !matchesExt(ext, s.opts.Extensions) {
			return nil
		}

		content, readErr := s.readFile(path)
		if readErr != nil {
			readFailures++
			s.logger.Warn("Failed to read file, continuing with empty content",
				"path", rel,
				"error", readErr.Error())
			content = ""
		}

		files = append(files, SourceFile{Path: rel, Content: content, Markup: markup})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	s.logger.Debug("Scan completed",
		"files", len(files),
		"skippedDirs", skippedDirs,
		"readFailures", readFailures)

	return files, nil
}

// readFile reads a file honoring the size cap.
func (s *Scanner) readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if s.opts.MaxFileSizeBytes > 0 && len(data) > s.opts.MaxFileSizeBytes {
		data = data[:s.opts.MaxFileSizeBytes]
	}
	return string(data), nil
}

func matchesExt(ext string, list []string) bool {
	for _, e := range list {
		if ext == e {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
