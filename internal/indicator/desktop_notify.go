package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// desktopNotify shows or replaces a freedesktop notification through busctl
// and returns the id the notification server assigned.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, summary string, timeout time.Duration) (uint32, error) {
	// app_name replaces_id app_icon summary body actions hints expire_timeout
	out, err := callNotifications(ctx, "Notify", "susssasa{sv}i",
		appName,
		strconv.FormatUint(uint64(replaceID), 10),
		"",
		summary,
		"",
		"0",
		"0",
		strconv.FormatInt(timeout.Milliseconds(), 10),
	)
	if err != nil {
		return 0, err
	}

	reply := strings.Fields(out)
	if len(reply) != 2 || reply[0] != "u" {
		return 0, fmt.Errorf("busctl Notify: unexpected reply %q", out)
	}
	id, err := strconv.ParseUint(reply[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("busctl Notify: notification id %q: %w", reply[1], err)
	}
	return uint32(id), nil
}

// desktopDismiss closes a notification by id.
func desktopDismiss(ctx context.Context, id uint32) error {
	_, err := callNotifications(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10))
	return err
}

func callNotifications(ctx context.Context, method, signature string, args ...string) (string, error) {
	argv := append([]string{
		"--user", "call",
		"org.freedesktop.Notifications",
		"/org/freedesktop/Notifications",
		"org.freedesktop.Notifications",
		method, signature,
	}, args...)

	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	reply := strings.TrimSpace(string(out))
	if err != nil {
		if reply == "" {
			return "", fmt.Errorf("busctl %s: %w", method, err)
		}
		return "", fmt.Errorf("busctl %s: %w (%s)", method, err, reply)
	}
	return reply, nil
}
