package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Rubric carries per-phase maximum scores. Operators can re-weight phases by
// dropping a rubric.toml next to the config file; phases keep their built-in
// maximums when no override is present.
type Rubric struct {
	Phases map[string]int `toml:"phases"`
}

// LoadRubric reads .codepulse/rubric.toml. A missing file yields an empty
// rubric, never an error; a malformed file is an error so a bad override
// cannot silently re-weight the audit.
func LoadRubric(repoRoot string) (*Rubric, error) {
	path := filepath.Join(repoRoot, ".codepulse", "rubric.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Rubric{Phases: map[string]int{}}, nil
		}
		return nil, err
	}

	var r Rubric
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Phases == nil {
		r.Phases = map[string]int{}
	}
	return &r, nil
}

// MaxFor returns the overridden maximum for a phase, or def when the phase is
// not listed or the override is not a sane positive value.
func (r *Rubric) MaxFor(phase string, def int) int {
	if r == nil {
		return def
	}
	if max, ok := r.Phases[phase]; ok && max > 0 {
		return max
	}
	return def
}
