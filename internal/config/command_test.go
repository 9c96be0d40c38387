package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "simple", input: "nautilus --new-window", want: []string{"nautilus", "--new-window"}},
		{name: "double quotes", input: `thunar --title "My Sounds"`, want: []string{"thunar", "--title", "My Sounds"}},
		{name: "single quotes", input: `thunar --title 'My Sounds'`, want: []string{"thunar", "--title", "My Sounds"}},
		{name: "escaped space", input: `open My\ Sounds`, want: []string{"open", "My Sounds"}},
		{name: "empty quoted word", input: `cmd ""`, want: []string{"cmd", ""}},
		{name: "comment", input: "# xdg-open", want: nil},
		{name: "unterminated quote", input: `cmd "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `cmd oops\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SplitCommand(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestOpenCommandFromEnv(t *testing.T) {
	t.Setenv("SOUNDPP_OPEN_CMD", "")
	argv, err := OpenCommand()
	require.NoError(t, err)
	require.Nil(t, argv)

	t.Setenv("SOUNDPP_OPEN_CMD", "dolphin --select")
	argv, err = OpenCommand()
	require.NoError(t, err)
	require.Equal(t, []string{"dolphin", "--select"}, argv)

	t.Setenv("SOUNDPP_OPEN_CMD", `dolphin "`)
	_, err = OpenCommand()
	require.ErrorContains(t, err, "SOUNDPP_OPEN_CMD")
}
