// Package config loads and validates codepulse configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete codepulse configuration (v2 schema)
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Sources    SourcesConfig    `json:"sources" mapstructure:"sources"`
	Commands   CommandsConfig   `json:"commands" mapstructure:"commands"`
	Thresholds ThresholdsConfig `json:"thresholds" mapstructure:"thresholds"`
	Critical   []string         `json:"critical" mapstructure:"critical"`
	Memory     MemoryConfig     `json:"memory" mapstructure:"memory"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// SourcesConfig controls which files the scanner and graph builder consider.
type SourcesConfig struct {
	// Extensions are source file extensions included in the scan.
	Extensions []string `json:"extensions" mapstructure:"extensions"`
	// MarkupExtensions are files scanned only for handler references.
	MarkupExtensions []string `json:"markupExtensions" mapstructure:"markupExtensions"`
	// DefaultImportExtension is appended to extensionless import specifiers.
	DefaultImportExtension string `json:"defaultImportExtension" mapstructure:"defaultImportExtension"`
	// ExcludeDirs are directory names skipped during the walk.
	ExcludeDirs []string `json:"excludeDirs" mapstructure:"excludeDirs"`
	// MaxFileSizeBytes caps how much of a single file is read.
	MaxFileSizeBytes int `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
}

// CommandConfig describes a single external tool invocation.
type CommandConfig struct {
	Name      string   `json:"name" mapstructure:"name"`
	Args      []string `json:"args" mapstructure:"args"`
	TimeoutMs int      `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// CommandsConfig contains the external collaborator commands.
type CommandsConfig struct {
	Lint        CommandConfig `json:"lint" mapstructure:"lint"`
	Test        CommandConfig `json:"test" mapstructure:"test"`
	Build       CommandConfig `json:"build" mapstructure:"build"`
	Performance CommandConfig `json:"performance" mapstructure:"performance"`
}

// ThresholdsConfig contains scoring thresholds.
type ThresholdsConfig struct {
	// PassScore is the minimum aggregate score for exit code 0.
	PassScore int `json:"passScore" mapstructure:"passScore"`
	// BundleSizeKB is the bundle size above which the build phase deducts points.
	BundleSizeKB int `json:"bundleSizeKB" mapstructure:"bundleSizeKB"`
	// BundleDir is the build output directory measured after a successful build.
	BundleDir string `json:"bundleDir" mapstructure:"bundleDir"`
	// AffectedMedium is the affected-file count at which impact risk becomes medium.
	AffectedMedium int `json:"affectedMedium" mapstructure:"affectedMedium"`
	// AffectedHigh is the affected-file count at which impact risk becomes high.
	AffectedHigh int `json:"affectedHigh" mapstructure:"affectedHigh"`
	// LongFileLines is the line count above which a file is flagged as oversized.
	LongFileLines int `json:"longFileLines" mapstructure:"longFileLines"`
}

// MemoryConfig contains retention bounds for the persisted memory file.
type MemoryConfig struct {
	Path            string `json:"path" mapstructure:"path"`
	ArchivePath     string `json:"archivePath" mapstructure:"archivePath"`
	MaxRuns         int    `json:"maxRuns" mapstructure:"maxRuns"`
	MaxErrors       int    `json:"maxErrors" mapstructure:"maxErrors"`
	MaxFollowedRecs int    `json:"maxFollowedRecs" mapstructure:"maxFollowedRecs"`
	MaxOpenRecs     int    `json:"maxOpenRecs" mapstructure:"maxOpenRecs"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  2,
		RepoRoot: ".",
		Sources: SourcesConfig{
			Extensions:             []string{".js", ".mjs", ".ts"},
			MarkupExtensions:       []string{".html", ".htm"},
			DefaultImportExtension: ".js",
			ExcludeDirs:            []string{"node_modules", "dist", "build", "coverage", "vendor"},
			MaxFileSizeBytes:       1000000,
		},
		Commands: CommandsConfig{
			Lint:        CommandConfig{Name: "npx", Args: []string{"eslint", "."}, TimeoutMs: 120000},
			Test:        CommandConfig{Name: "npm", Args: []string{"test", "--silent"}, TimeoutMs: 300000},
			Build:       CommandConfig{Name: "npm", Args: []string{"run", "build"}, TimeoutMs: 300000},
			Performance: CommandConfig{Name: "npx", Args: []string{"lighthouse-ci"}, TimeoutMs: 300000},
		},
		Thresholds: ThresholdsConfig{
			PassScore:      70,
			BundleSizeKB:   500,
			BundleDir:      "dist",
			AffectedMedium: 8,
			AffectedHigh:   20,
			LongFileLines:  1000,
		},
		Critical: []string{
			"src/main.js",
			"src/state.js",
			"src/app.js",
			"src/i18n/index.js",
		},
		Memory: MemoryConfig{
			Path:            ".codepulse/memory.json",
			ArchivePath:     ".codepulse/memory-archive.json.gz",
			MaxRuns:         50,
			MaxErrors:       100,
			MaxFollowedRecs: 30,
			MaxOpenRecs:     50,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .codepulse/config.json, falling back to
// defaults when no config file exists.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", 2)
	v.SetDefault("repoRoot", ".")

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".codepulse"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to .codepulse/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".codepulse")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 2 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Thresholds.PassScore < 0 || c.Thresholds.PassScore > 100 {
		return &ConfigError{Field: "thresholds.passScore", Message: "must be within [0,100]"}
	}
	if len(c.Sources.Extensions) == 0 {
		return &ConfigError{Field: "sources.extensions", Message: "at least one source extension is required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
