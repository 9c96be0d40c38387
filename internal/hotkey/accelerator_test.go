package hotkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToAcceleratorFoldsSynonyms(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ctrl+1", "CommandOrControl+1"},
		{"Control+1", "CommandOrControl+1"},
		{"cmdorctrl+shift+a", "CommandOrControl+Shift+A"},
		{"Cmd+Option+f5", "Command+Alt+F5"},
		{"meta + esc", "Super+Esc"},
		{"win+arrowup", "Super+Up"},
		{"altgr+space", "AltGr+Space"},
		{"Shift+F24", "Shift+F24"},
		{"shift+f25", "Shift+f25"},
		{"Ctrl+Shift+1", "CommandOrControl+Shift+1"},
		{"", ""},
		{"  ", ""},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, ToAccelerator(tc.in), tc.in)
	}
}

func TestToAcceleratorIsIdempotent(t *testing.T) {
	for _, in := range []string{"Ctrl+Shift+1", "alt+x", "Super+PageUp"} {
		once := ToAccelerator(in)
		require.Equal(t, once, ToAccelerator(once))
	}
}

func TestEquivalentShortcutsDisplayTheSame(t *testing.T) {
	require.Equal(t, ToAccelerator("Ctrl+1"), ToAccelerator("Control+1"))
	require.Equal(t, "Ctrl+1", ToDisplay("CommandOrControl+1"))
	require.Equal(t, "Ctrl+1", ToDisplay("Control+1"))
	require.Equal(t, "Cmd+Shift+K", ToDisplay("Command+Shift+K"))
	require.Equal(t, "Super+Alt+F1", ToDisplay("Super+Alt+F1"))
}

func TestDisplayEmptyShowsNotSet(t *testing.T) {
	require.Equal(t, NotSet, ToDisplay(""))
	require.Equal(t, NotSet, ToDisplayLower(""))
}

func TestToDisplayLower(t *testing.T) {
	require.Equal(t, "ctrl+shift+1", ToDisplayLower("CommandOrControl+Shift+1"))
	require.Equal(t, "alt+Space", ToDisplayLower("alt+space"))
}

func TestSplit(t *testing.T) {
	mods, key := Split("ctrl+shift+k")
	require.Equal(t, []string{ModCommandOrControl, ModShift}, mods)
	require.Equal(t, "K", key)

	mods, key = Split("Shift")
	require.Equal(t, []string{ModShift}, mods)
	require.Empty(t, key)
}
