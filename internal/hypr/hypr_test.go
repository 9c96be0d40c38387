package hypr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQuerySession(t *testing.T) {
	installHyprctlStub(t, `
case "$*" in
  "-j version") echo '{"tag":"v0.50.1","commit":"4e242d086e20b32951fdc0ebcbfb4d41b5be8dcc"}' ;;
  "-j monitors") echo '[{"name":"HDMI-A-1","focused":false},{"name":" DP-1 ","focused":true}]' ;;
  *) exit 1 ;;
esac
`)

	session, err := QuerySession(context.Background())
	require.NoError(t, err)
	require.Equal(t, Session{Version: "v0.50.1", Monitor: "DP-1"}, session)
}

func TestQuerySessionFallsBackToCommitAndFirstMonitor(t *testing.T) {
	installHyprctlStub(t, `
case "$*" in
  "-j version") echo '{"commit":"4e242d0"}' ;;
  *) echo '[{"name":"eDP-1","focused":false}]' ;;
esac
`)

	session, err := QuerySession(context.Background())
	require.NoError(t, err)
	require.Equal(t, Session{Version: "4e242d0", Monitor: "eDP-1"}, session)
}

func TestQuerySessionNoMonitors(t *testing.T) {
	installHyprctlStub(t, `
case "$*" in
  "-j version") echo '{}' ;;
  *) echo '[]' ;;
esac
`)

	_, err := QuerySession(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no outputs")
}

func TestQuerySessionRejectsGarbage(t *testing.T) {
	installHyprctlStub(t, `echo 'not json'`)

	_, err := QuerySession(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode hyprctl version")
}

func TestNotifyAndDismissUseHyprctlDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	err := Notify(context.Background(), Notification{Icon: IconInfo, Timeout: 3 * time.Second, Text: "已清理 2 个未引用的音频文件"})
	require.NoError(t, err)

	err = Notify(context.Background(), Notification{Icon: IconError, Timeout: 1500 * time.Millisecond, Color: "rgb(f38ba8)", Text: "boom"})
	require.NoError(t, err)

	err = DismissNotify(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{
		"--quiet dispatch notify 1 3000 rgb(89b4fa) 已清理 2 个未引用的音频文件",
		"--quiet dispatch notify 3 1500 rgb(f38ba8) boom",
		"--quiet dispatch dismissnotify",
	}, lines)
}

func TestBindSpec(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CommandOrControl+Shift+1", "CTRL SHIFT,1"},
		{"Ctrl+Alt+Esc", "CTRL ALT,Escape"},
		{"Super+Space", "SUPER,space"},
		{"F9", ",F9"},
		{"AltGr+PageUp", "MOD5,Prior"},
	}
	for _, tc := range tests {
		got, err := BindSpec(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}

	_, err := BindSpec("Ctrl+Shift")
	require.Error(t, err)
}

func TestBinderBindAndUnbind(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
echo ok
`)

	binder := Binder{Exe: "/usr/bin/soundpp"}
	require.NoError(t, binder.Bind(context.Background(), "CommandOrControl+Shift+1", "1700000000000"))
	require.NoError(t, binder.Unbind(context.Background(), "CommandOrControl+Shift+1"))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{
		"keyword bind CTRL SHIFT,1,exec,/usr/bin/soundpp trigger 1700000000000",
		"keyword unbind CTRL SHIFT,1",
	}, lines)
}

func TestBinderReportsRejectedKeyword(t *testing.T) {
	installHyprctlStub(t, `echo 'Invalid bind'`)

	err := Binder{}.Bind(context.Background(), "Ctrl+K", "MUTE_TOGGLE")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid bind")
}

func TestBinderReturnsCombinedOutputOnFailure(t *testing.T) {
	installHyprctlStub(t, `
echo 'boom from hyprctl' >&2
exit 1
`)

	err := Binder{}.Unbind(context.Background(), "Ctrl+K")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom from hyprctl")
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
