package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/soundpp/internal/host"
	"github.com/rbright/soundpp/internal/library"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
	require.Contains(t, parsed.Help, "soundpp")
	require.Contains(t, parsed.Help, "serve")
}

func TestParseHelpFlagRendersSubcommandHelp(t *testing.T) {
	parsed, err := Parse([]string{"group", "--help"})
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Contains(t, parsed.Help, "reorder")
}

func TestParseSimpleCommands(t *testing.T) {
	tests := []struct {
		args []string
		want Command
	}{
		{[]string{"--version"}, CommandVersion},
		{[]string{"version"}, CommandVersion},
		{[]string{"serve"}, CommandServe},
		{[]string{"tui"}, CommandTUI},
		{[]string{"devices"}, CommandDevices},
		{[]string{"doctor"}, CommandDoctor},
	}
	for _, tc := range tests {
		t.Run(tc.args[0], func(t *testing.T) {
			parsed, err := Parse(tc.args)
			require.NoError(t, err)
			require.Equal(t, tc.want, parsed.Command)
			require.False(t, parsed.ShowHelp)
		})
	}
}

func TestParseUsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown command", []string{"dance"}, `unknown command "dance"`},
		{"unknown flag", []string{"--loud"}, "unknown flag"},
		{"extra args", []string{"status", "now"}, "accepts no arguments"},
		{"missing arg", []string{"play"}, "accepts 1 arg"},
		{"bad id", []string{"remove", "x"}, `invalid item id "x"`},
		{"bad volume", []string{"volume", "101"}, "between 0 and 100"},
		{"bad slice time", []string{"slice", "1", "-2", "3"}, "invalid time"},
		{"empty edit", []string{"edit", "1"}, "at least one of"},
		{"empty settings set", []string{"settings", "set"}, "at least one flag"},
		{"record needs id", []string{"record", "abc"}, "invalid item id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.args)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParsePlayByIDAndPath(t *testing.T) {
	parsed, err := Parse([]string{"play", "42"})
	require.NoError(t, err)
	require.Equal(t, CommandRequest, parsed.Command)
	require.Equal(t, host.CmdPlay, parsed.Request.Command)
	require.True(t, parsed.Wait)

	var p host.PlayParams
	require.NoError(t, parsed.Request.Decode(&p))
	require.Equal(t, int64(42), p.ID)

	parsed, err = Parse([]string{"play", "--no-wait", "clips/boom.mp3"})
	require.NoError(t, err)
	require.False(t, parsed.Wait)
	require.NoError(t, parsed.Request.Decode(&p))
	require.True(t, filepath.IsAbs(p.Path))
	require.Equal(t, "boom.mp3", filepath.Base(p.Path))
}

func TestParseEditOnlySendsChangedFields(t *testing.T) {
	parsed, err := Parse([]string{"edit", "7", "--shortcut", "ctrl+shift+2", "--json"})
	require.NoError(t, err)
	require.True(t, parsed.JSON)
	require.Equal(t, ViewItems, parsed.View)

	var p host.UpdateItemParams
	require.NoError(t, parsed.Request.Decode(&p))
	require.Equal(t, int64(7), p.ID)
	require.Nil(t, p.Patch.Name)
	require.Nil(t, p.Patch.Description)
	require.NotNil(t, p.Patch.Shortcut)
	require.Equal(t, "ctrl+shift+2", *p.Patch.Shortcut)

	parsed, err = Parse([]string{"edit", "7", "--shortcut", ""})
	require.NoError(t, err)
	require.NoError(t, parsed.Request.Decode(&p))
	require.NotNil(t, p.Patch.Shortcut)
	require.Empty(t, *p.Patch.Shortcut)
}

func TestParseSettingsSetBuildsPartialDocument(t *testing.T) {
	parsed, err := Parse([]string{"settings", "set", "--volume", "40", "--mute-hotkey", "ctrl+m"})
	require.NoError(t, err)
	require.Equal(t, host.CmdSaveSettings, parsed.Request.Command)
	require.JSONEq(t, `{"settings":{"defaultVolume":40,"muteHotkey":"CommandOrControl+M"}}`, string(parsed.Request.Params))
}

func TestParseGroupAndArchiveCommands(t *testing.T) {
	parsed, err := Parse([]string{"group", "add", "Team Calls", "--after", "game"})
	require.NoError(t, err)
	require.Equal(t, host.CmdAddGroup, parsed.Request.Command)
	var g host.GroupParams
	require.NoError(t, parsed.Request.Decode(&g))
	require.Equal(t, host.GroupParams{Name: "Team Calls", After: "game"}, g)

	parsed, err = Parse([]string{"group", "list"})
	require.NoError(t, err)
	require.Equal(t, host.CmdGetAudioLibrary, parsed.Request.Command)
	require.Equal(t, ViewGroups, parsed.View)

	parsed, err = Parse([]string{"export", "meeting"})
	require.NoError(t, err)
	var a host.ArchiveParams
	require.NoError(t, parsed.Request.Decode(&a))
	require.Equal(t, "meeting", a.GroupKey)
	require.True(t, filepath.IsAbs(a.Output))

	parsed, err = Parse([]string{"import", "pack.zip", "-g", "game"})
	require.NoError(t, err)
	var imp host.ImportParams
	require.NoError(t, parsed.Request.Decode(&imp))
	require.Equal(t, "game", imp.TargetGroupKey)
	require.True(t, filepath.IsAbs(imp.Path))
}

func TestParseListDefaultsToAll(t *testing.T) {
	parsed, err := Parse([]string{"list", "-q", "boom"})
	require.NoError(t, err)
	var p host.ListParams
	require.NoError(t, parsed.Request.Decode(&p))
	require.Equal(t, library.KeyAll, p.Group)
	require.Equal(t, "boom", p.Query)
}

func TestParseLibrarySaveAndRecord(t *testing.T) {
	parsed, err := Parse([]string{"library", "save", "lib.json"})
	require.NoError(t, err)
	require.Equal(t, "lib.json", parsed.PayloadFile)
	require.Equal(t, host.CmdSaveAudioLibrary, parsed.Request.Command)

	parsed, err = Parse([]string{"record", "12"})
	require.NoError(t, err)
	require.Equal(t, CommandRecord, parsed.Command)
	require.Equal(t, int64(12), parsed.RecordID)
}

func TestHelpTextListsCommands(t *testing.T) {
	help := HelpText()
	for _, cmd := range []string{"serve", "tui", "play", "export", "import", "group", "settings", "doctor"} {
		require.Contains(t, help, cmd)
	}
}
