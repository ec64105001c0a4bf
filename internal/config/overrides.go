package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

// LoadPurposeOverrides reads operator-level threshold overrides keyed by
// purpose from a YAML file. A missing path means no overrides.
func LoadPurposeOverrides(path string) (map[domain.ResearchPurpose]domain.PurposeOverride, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read purpose overrides: %w", err)
	}

	var parsed struct {
		Purposes map[string]domain.PurposeOverride `yaml:"purposes"`
	}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse purpose overrides: %w", err)
	}

	overrides := make(map[domain.ResearchPurpose]domain.PurposeOverride, len(parsed.Purposes))
	for name, override := range parsed.Purposes {
		purpose := domain.ResearchPurpose(name)
		if _, err := domain.ProfileFor(purpose); err != nil {
			return nil, fmt.Errorf("purpose overrides: %w", err)
		}
		overrides[purpose] = override
	}
	return overrides, nil
}
