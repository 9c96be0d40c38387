package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rbright/soundpp/internal/fsutil"
)

// Loaded captures the resolved settings document and where it came from.
type Loaded struct {
	Path     string
	Settings Settings
	Source   Source
	OK       bool
}

// Load reads the settings document, migrating it once from a legacy location
// when the canonical file is missing.
//
// The document may carry comments and trailing commas. A missing document
// yields defaults without writing them. An unreadable or
// malformed document yields defaults with OK=false and an error wrapping
// ErrMalformed; the file on disk is left as is.
func Load(paths Paths) (Loaded, error) {
	path := paths.SettingsPath()
	source := SourceCurrent

	if !fsutil.Exists(path) {
		migrated, ok := migrateLegacy(paths, path, paths.LegacySettingsPaths())
		if !ok {
			return Loaded{Path: path, Settings: Default(), Source: SourceDefaults, OK: true}, nil
		}
		source = migrated
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Loaded{Path: path, Settings: Default(), Source: source}, fmt.Errorf("read settings %q: %w", path, err)
	}

	settings := Default()
	if err := decodeSettings(content, &settings); err != nil {
		return Loaded{Path: path, Settings: Default(), Source: source}, fmt.Errorf("%w: %q: %v", ErrMalformed, path, err)
	}

	return Loaded{Path: path, Settings: settings, Source: source, OK: true}, nil
}

// migrateLegacy copies the first existing legacy file to dst.
func migrateLegacy(paths Paths, dst string, legacy []string) (Source, bool) {
	sources := []Source{SourceLegacyDev, SourceLegacyRoot}
	for i, candidate := range legacy {
		if !fsutil.IsFile(candidate) {
			continue
		}
		if err := fsutil.CopyFile(candidate, dst); err != nil {
			if paths.Logger != nil {
				paths.Logger.Warn("legacy migration copy failed", "from", candidate, "to", dst, "error", err.Error())
			}
			return "", false
		}
		if paths.Logger != nil {
			paths.Logger.Info("migrated legacy document", "from", candidate, "to", dst)
		}
		if i < len(sources) {
			return sources[i], true
		}
		return SourceLegacyRoot, true
	}
	return "", false
}

// MigrateLegacyFile exposes the legacy copy step for other persisted documents.
func MigrateLegacyFile(paths Paths, dst string, legacy []string) bool {
	_, ok := migrateLegacy(paths, dst, legacy)
	return ok
}

// IsMalformed reports settings parse failures.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
