package hotkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromKeyEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   KeyEvent
		want string
	}{
		{"shifted digit uses physical key", KeyEvent{Key: "!", Code: "Digit1", Ctrl: true, Shift: true}, "CommandOrControl+Shift+1"},
		{"numpad", KeyEvent{Key: "5", Code: "Numpad5", Alt: true}, "Alt+5"},
		{"meta folds into ctrl", KeyEvent{Key: "k", Meta: true}, "CommandOrControl+K"},
		{"function key", KeyEvent{Key: "f7"}, "F7"},
		{"arrow", KeyEvent{Key: "ArrowLeft", Shift: true}, "Shift+Left"},
		{"escape", KeyEvent{Key: "Escape"}, "Esc"},
		{"space", KeyEvent{Key: " ", Ctrl: true}, "CommandOrControl+Space"},
		{"bare modifier", KeyEvent{Key: "Shift", Shift: true}, "Shift"},
		{"bare control without flag", KeyEvent{Key: "Control"}, "CommandOrControl"},
		{"named key", KeyEvent{Key: "Home"}, "Home"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FromKeyEvent(tc.ev))
		})
	}
}

func TestIsModifierKey(t *testing.T) {
	for _, k := range []string{"Control", "shift", "ALT", "Meta"} {
		require.True(t, IsModifierKey(k), k)
	}
	for _, k := range []string{"a", "Escape", ""} {
		require.False(t, IsModifierKey(k), k)
	}
}
