package deadcode

import "strings"

// lifecyclePrefixes whitelists naming conventions for functions that are
// invoked by framework plumbing, event wiring, or template rendering rather
// than by a visible call site. Flagging them produces noise, not signal.
var lifecyclePrefixes = []string{
	"render",
	"init",
	"handle",
	"get",
	"set",
	"on",
	"update",
	"load",
	"show",
	"hide",
	"toggle",
	"format",
}

// isWhitelisted reports whether a symbol name matches a lifecycle convention.
// The match requires a prefix followed by an uppercase letter or the bare
// prefix itself, so "settings" does not match "set".
func isWhitelisted(name string) bool {
	for _, prefix := range lifecyclePrefixes {
		if name == prefix {
			return true
		}
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			c := name[len(prefix)]
			if c >= 'A' && c <= 'Z' {
				return true
			}
		}
	}
	return false
}
