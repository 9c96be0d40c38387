package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) Paths {
	t.Helper()
	return Paths{UserDataDir: t.TempDir(), InstallDir: t.TempDir()}
}

func TestResolvePathsPrecedence(t *testing.T) {
	explicit := t.TempDir()
	t.Setenv("SOUNDPP_USER_DATA_DIR", explicit)
	t.Setenv("SOUNDPP_INSTALL_DIR", "/opt/soundpp")
	paths, err := ResolvePaths(nil)
	require.NoError(t, err)
	require.Equal(t, explicit, paths.UserDataDir)
	require.Equal(t, "/opt/soundpp", paths.InstallDir)

	xdg := t.TempDir()
	t.Setenv("SOUNDPP_USER_DATA_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	paths, err = ResolvePaths(nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "SoundPP"), paths.UserDataDir)

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)
	paths, err = ResolvePaths(nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "SoundPP"), paths.UserDataDir)
}

func TestResolvePathsAnchorsRelativeRoots(t *testing.T) {
	cwd := t.TempDir()
	t.Chdir(cwd)
	t.Setenv("SOUNDPP_USER_DATA_DIR", "rel")
	t.Setenv("SOUNDPP_INSTALL_DIR", "./bin")

	paths, err := ResolvePaths(nil)
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(wd, "rel"), paths.UserDataDir)
	require.Equal(t, filepath.Join(wd, "bin"), paths.InstallDir)
	require.True(t, filepath.IsAbs(paths.SoundsDir()))
}

func TestDirsAreCreatedOnEveryAccess(t *testing.T) {
	paths := testPaths(t)

	sounds := paths.SoundsDir()
	require.DirExists(t, sounds)
	require.Equal(t, filepath.Join(paths.UserDataDir, "soundpp", "sounds"), sounds)

	require.NoError(t, os.RemoveAll(paths.DataDir()))
	require.DirExists(t, paths.SoundsDir())
}

func TestDirCreationFailureIsSwallowed(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	paths := Paths{UserDataDir: blocker}

	require.NotPanics(t, func() {
		_ = paths.SoundsDir()
	})
	_, err := Load(paths)
	require.NoError(t, err)
}

func TestLoadMissingReturnsDefaultsWithoutWriting(t *testing.T) {
	paths := testPaths(t)

	loaded, err := Load(paths)
	require.NoError(t, err)
	require.True(t, loaded.OK)
	require.Equal(t, SourceDefaults, loaded.Source)
	require.Equal(t, Default(), loaded.Settings)
	require.NoFileExists(t, paths.SettingsPath())
}

func TestLoadMigratesFromLegacyDevPath(t *testing.T) {
	paths := testPaths(t)
	legacy := filepath.Join(paths.InstallDir, "data", "soundpp-settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(legacy), 0o755))
	require.NoError(t, os.WriteFile(legacy, []byte(`{"defaultVolume":40}`), 0o644))

	loaded, err := Load(paths)
	require.NoError(t, err)
	require.Equal(t, SourceLegacyDev, loaded.Source)
	require.Equal(t, Settings{
		EnableHotkeys:         true,
		DefaultVolume:         40,
		MuteHotkey:            "",
		DefaultOutputDeviceID: "default",
	}, loaded.Settings)
	require.FileExists(t, paths.SettingsPath())
}

func TestLoadPrefersDevPathOverRootPath(t *testing.T) {
	paths := testPaths(t)
	dev := filepath.Join(paths.InstallDir, "data", "soundpp-settings.json")
	root := filepath.Join(paths.UserDataDir, "soundpp-settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(dev), 0o755))
	require.NoError(t, os.WriteFile(dev, []byte(`{"defaultVolume":11}`), 0o644))
	require.NoError(t, os.WriteFile(root, []byte(`{"defaultVolume":22}`), 0o644))

	loaded, err := Load(paths)
	require.NoError(t, err)
	require.Equal(t, 11, loaded.Settings.DefaultVolume)
}

func TestLoadMigratesFromLegacyRootPath(t *testing.T) {
	paths := testPaths(t)
	root := filepath.Join(paths.UserDataDir, "soundpp-settings.json")
	require.NoError(t, os.WriteFile(root, []byte(`{"enableHotkeys":false}`), 0o644))

	loaded, err := Load(paths)
	require.NoError(t, err)
	require.Equal(t, SourceLegacyRoot, loaded.Source)
	require.False(t, loaded.Settings.EnableHotkeys)
	require.Equal(t, 70, loaded.Settings.DefaultVolume)
}

func TestLoadMalformedFallsBackToDefaults(t *testing.T) {
	paths := testPaths(t)
	require.NoError(t, os.WriteFile(paths.SettingsPath(), []byte("{nope"), 0o644))

	loaded, err := Load(paths)
	require.Error(t, err)
	require.True(t, IsMalformed(err))
	require.False(t, loaded.OK)
	require.Equal(t, Default(), loaded.Settings)

	data, readErr := os.ReadFile(paths.SettingsPath())
	require.NoError(t, readErr)
	require.Equal(t, "{nope", string(data))
}

func TestLoadPreservesUnknownKeysThroughSave(t *testing.T) {
	paths := testPaths(t)
	require.NoError(t, os.WriteFile(paths.SettingsPath(), []byte(`{"defaultVolume":55,"theme":"dark"}`), 0o644))

	loaded, err := Load(paths)
	require.NoError(t, err)
	require.Equal(t, 55, loaded.Settings.DefaultVolume)
	require.JSONEq(t, `"dark"`, string(loaded.Settings.Extra["theme"]))

	_, err = Save(paths, loaded.Settings)
	require.NoError(t, err)

	var raw map[string]any
	data, err := os.ReadFile(paths.SettingsPath())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "dark", raw["theme"])
	require.Equal(t, float64(55), raw["defaultVolume"])
}

func TestSaveWritesIndentedMergedDocument(t *testing.T) {
	paths := testPaths(t)

	saved, err := Save(paths, Settings{EnableHotkeys: false, DefaultVolume: 30, MuteHotkey: "CommandOrControl+M"})
	require.NoError(t, err)
	require.Equal(t, "default", saved.DefaultOutputDeviceID)

	data, err := os.ReadFile(paths.SettingsPath())
	require.NoError(t, err)
	require.Contains(t, string(data), "\n  \"defaultVolume\": 30")

	loaded, err := Load(paths)
	require.NoError(t, err)
	require.Equal(t, saved, loaded.Settings)
}

func TestSaveRejectsOutOfRangeVolume(t *testing.T) {
	paths := testPaths(t)

	_, err := Save(paths, Settings{DefaultVolume: 140, DefaultOutputDeviceID: "default"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "defaultVolume must be at most 100")
	require.NoFileExists(t, paths.SettingsPath())
}

func TestDecodingOverACopyLeavesOriginalExtraAlone(t *testing.T) {
	original := Default()
	original.Extra = map[string]json.RawMessage{"theme": json.RawMessage(`"dark"`)}

	copied := original
	require.NoError(t, json.Unmarshal([]byte(`{"sneaky":true,"defaultVolume":10}`), &copied))
	require.Len(t, copied.Extra, 2)
	require.Equal(t, 10, copied.DefaultVolume)

	require.Len(t, original.Extra, 1)
	require.NotContains(t, original.Extra, "sneaky")
}
