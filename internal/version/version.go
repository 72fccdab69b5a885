// Package version holds the codepulse build version.
package version

// Version is the current codepulse version.
// Overridden at build time via -ldflags "-X codepulse/internal/version.Version=...".
var Version = "0.4.0"
