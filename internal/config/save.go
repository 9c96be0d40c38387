package config

import (
	"encoding/json"
	"fmt"

	"github.com/rbright/soundpp/internal/fsutil"
)

// Save merges s over defaults, validates it, and overwrites the settings document.
func Save(paths Paths, s Settings) (Settings, error) {
	merged := Merge(s)
	if err := Validate(merged); err != nil {
		return Settings{}, err
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}

	path := paths.SettingsPath()
	if err := fsutil.WriteJSONFile(path, data); err != nil {
		return Settings{}, fmt.Errorf("write settings %q: %w", path, err)
	}
	return merged, nil
}
