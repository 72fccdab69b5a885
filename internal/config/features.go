package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Feature declares a shipped feature for the inventory phase: where its entry
// file lives and which global handlers it is expected to register.
type Feature struct {
	Name     string   `yaml:"name"`
	Entry    string   `yaml:"entry"`
	Handlers []string `yaml:"handlers"`
}

// FeatureManifest is the parsed .codepulse/features.yaml.
type FeatureManifest struct {
	Features []Feature `yaml:"features"`
}

// LoadFeatures reads the feature inventory manifest. A missing manifest is
// not an error; the inventory phase simply has nothing to verify.
func LoadFeatures(repoRoot string) (*FeatureManifest, error) {
	path := filepath.Join(repoRoot, ".codepulse", "features.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FeatureManifest{}, nil
		}
		return nil, err
	}

	var m FeatureManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
