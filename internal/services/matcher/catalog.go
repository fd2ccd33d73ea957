package matcher

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/glow/internal/model"
)

//go:embed profiles.yaml
var defaultCatalog []byte

// DefaultProfiles returns the built-in match catalog
func DefaultProfiles() []model.Profile {
	profiles, err := ParseProfiles(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("matcher: built-in catalog: %v", err))
	}
	return profiles
}

// ParseProfiles decodes a YAML list of profiles. Every profile needs a
// name and a description.
func ParseProfiles(data []byte) ([]model.Profile, error) {
	var profiles []model.Profile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	seen := make(map[string]bool, len(profiles))
	for i, p := range profiles {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("profile %d: missing name", i)
		}
		if strings.TrimSpace(p.Description) == "" {
			return nil, fmt.Errorf("profile %q: missing description", p.Name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("profile %q: duplicate name", p.Name)
		}
		seen[p.Name] = true
	}
	return profiles, nil
}
