package merge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bountyforge/bountyforge/internal/models"
)

// LoadScannerDefaults reads a config/scanners.yaml-shaped file into a
// ScannerDefaults snapshot. A missing file is not an error: the caller
// gets an empty snapshot and Effective falls back entirely to the
// canonical binary/mode tables.
func LoadScannerDefaults(path string) (ScannerDefaults, error) {
	defaults := ScannerDefaults{Stages: make(map[models.StageName]StageDefaults)}
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("failed to read scanner defaults %s: %w", path, err)
	}

	var raw struct {
		Stages map[string]StageDefaults `yaml:"stages"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return defaults, fmt.Errorf("failed to parse scanner defaults %s: %w", path, err)
	}

	for stage, sd := range raw.Stages {
		defaults.Stages[models.StageName(stage)] = sd
	}
	return defaults, nil
}
