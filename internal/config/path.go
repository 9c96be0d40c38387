package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName     = "SoundPP"
	dataDirName    = "soundpp"
	soundsDirName  = "sounds"
	legacyDevDir   = "data"
	settingsFile   = "soundpp-settings.json"
	libraryFile    = "soundpp-library.json"
	bundledSamples = "sounds"
)

// Paths locates every directory SoundPP reads from or writes to.
//
// UserDataDir is the per-user application root; DataDir and SoundsDir are
// created below it on demand. InstallDir is where the binary (and any
// bundled samples or pre-versioned data) lives and is treated as read-only.
type Paths struct {
	UserDataDir string
	InstallDir  string
	Logger      *slog.Logger
}

// ResolvePaths applies env/XDG/home fallback rules for the data and install roots.
func ResolvePaths(logger *slog.Logger) (Paths, error) {
	userData, err := resolveUserDataDir()
	if err != nil {
		return Paths{}, err
	}
	return Paths{
		UserDataDir: userData,
		InstallDir:  resolveInstallDir(),
		Logger:      logger,
	}.Absolute(), nil
}

// Absolute anchors relative roots at the working directory so every stored
// item path is absolute and later comparisons do not depend on the cwd.
func (p Paths) Absolute() Paths {
	p.UserDataDir = absDir(p.UserDataDir)
	p.InstallDir = absDir(p.InstallDir)
	return p
}

func absDir(dir string) string {
	if dir == "" {
		return ""
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

func resolveUserDataDir() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("SOUNDPP_USER_DATA_DIR")); explicit != "" {
		return explicit, nil
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for data directory")
	}
	return filepath.Join(home, ".config", appDirName), nil
}

func resolveInstallDir() string {
	if explicit := strings.TrimSpace(os.Getenv("SOUNDPP_INSTALL_DIR")); explicit != "" {
		return explicit
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// DataDir returns the writable per-user data directory, creating it when missing.
func (p Paths) DataDir() string {
	dir := filepath.Join(p.UserDataDir, dataDirName)
	p.ensureDir(dir)
	return dir
}

// SoundsDir returns the managed sounds directory, creating it when missing.
func (p Paths) SoundsDir() string {
	dir := filepath.Join(p.DataDir(), soundsDirName)
	p.ensureDir(dir)
	return dir
}

// SettingsPath is the canonical settings document location.
func (p Paths) SettingsPath() string {
	return filepath.Join(p.DataDir(), settingsFile)
}

// LibraryPath is the canonical library document location.
func (p Paths) LibraryPath() string {
	return filepath.Join(p.DataDir(), libraryFile)
}

// LegacySettingsPaths lists pre-versioned settings locations in migration priority order.
func (p Paths) LegacySettingsPaths() []string {
	return p.legacyPaths(settingsFile)
}

// LegacyLibraryPaths lists pre-versioned library locations in migration priority order.
func (p Paths) LegacyLibraryPaths() []string {
	return p.legacyPaths(libraryFile)
}

func (p Paths) legacyPaths(name string) []string {
	return []string{
		filepath.Join(p.InstallDir, legacyDevDir, name),
		filepath.Join(p.UserDataDir, name),
	}
}

// BundledSoundsDir holds the sample clips shipped next to the binary.
func (p Paths) BundledSoundsDir() string {
	return filepath.Join(p.InstallDir, bundledSamples)
}

// ensureDir creates dir recursively; failures are logged and left for the
// dependent read/write to surface.
func (p Paths) ensureDir(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil && p.Logger != nil {
		p.Logger.Warn("ensure directory failed", "dir", dir, "error", err.Error())
	}
}
