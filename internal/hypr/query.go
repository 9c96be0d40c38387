package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Icons understood by "hyprctl dispatch notify".
const (
	IconWarning = 0
	IconInfo    = 1
	IconHint    = 2
	IconError   = 3
	IconOK      = 5
)

const defaultColor = "rgb(89b4fa)"

// Session describes the running compositor.
type Session struct {
	Version string
	Monitor string
}

// QuerySession asks the compositor for its version and focused monitor.
// Any answer proves the instance socket is reachable.
func QuerySession(ctx context.Context) (Session, error) {
	var version struct {
		Tag    string `json:"tag"`
		Commit string `json:"commit"`
	}
	if err := queryJSON(ctx, "version", &version); err != nil {
		return Session{}, err
	}

	var monitors []struct {
		Name    string `json:"name"`
		Focused bool   `json:"focused"`
	}
	if err := queryJSON(ctx, "monitors", &monitors); err != nil {
		return Session{}, err
	}
	if len(monitors) == 0 {
		return Session{}, errors.New("hyprctl monitors returned no outputs")
	}

	session := Session{Version: strings.TrimSpace(version.Tag), Monitor: strings.TrimSpace(monitors[0].Name)}
	if session.Version == "" {
		session.Version = strings.TrimSpace(version.Commit)
	}
	for _, mon := range monitors {
		if mon.Focused {
			session.Monitor = strings.TrimSpace(mon.Name)
			break
		}
	}
	return session, nil
}

// Notification is one "dispatch notify" payload.
type Notification struct {
	Icon    int
	Timeout time.Duration
	Color   string
	Text    string
}

// Notify shows a compositor notification. An empty color uses the accent blue.
func Notify(ctx context.Context, n Notification) error {
	color := strings.TrimSpace(n.Color)
	if color == "" {
		color = defaultColor
	}
	return runHyprctl(ctx,
		"--quiet", "dispatch", "notify",
		strconv.Itoa(n.Icon),
		strconv.FormatInt(n.Timeout.Milliseconds(), 10),
		color,
		n.Text,
	)
}

// DismissNotify clears every visible compositor notification.
func DismissNotify(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
}

func queryJSON(ctx context.Context, target string, dst any) error {
	out, err := runHyprctlOutput(ctx, "-j", target)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, dst); err != nil {
		return fmt.Errorf("decode hyprctl %s: %w", target, err)
	}
	return nil
}
