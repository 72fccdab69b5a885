//go:build !cgo

package symbols

import "context"

// Extract extracts functions and exported names without tree-sitter.
// Used when CGO is not available.
func Extract(_ context.Context, path, content string) *FileSymbols {
	return extractWithRegex(path, content)
}
