// Package desktop hands directories and files to the user's file browser.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/soundpp/internal/logging"
)

// ErrNoTarget reports that neither the preferred path nor the fallback exists.
var ErrNoTarget = errors.New("directory does not exist")

const commandTimeout = 5 * time.Second

// Launcher opens paths with xdg-open and reveals files through the
// freedesktop FileManager1 DBus interface.
type Launcher struct {
	OpenArgv []string
	Logger   *slog.Logger
}

// NewLauncher returns a Launcher using xdg-open.
func NewLauncher(logger *slog.Logger) Launcher {
	return Launcher{OpenArgv: []string{"xdg-open"}, Logger: logging.OrDiscard(logger)}
}

// ResolveTarget picks preferred when it exists, else fallback.
func ResolveTarget(preferred, fallback string) (string, error) {
	for _, candidate := range []string{preferred, fallback} {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrNoTarget
}

// Open launches the default handler for target.
func (l Launcher) Open(ctx context.Context, target string) error {
	argv := l.OpenArgv
	if len(argv) == 0 {
		argv = []string{"xdg-open"}
	}
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return runCommand(ctx, append(append([]string(nil), argv...), target))
}

// Reveal shows path selected in the file browser, falling back to opening
// its parent directory.
func (l Launcher) Reveal(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	showCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	err = runCommand(showCtx, []string{
		"busctl",
		"--user",
		"call",
		"org.freedesktop.FileManager1",
		"/org/freedesktop/FileManager1",
		"org.freedesktop.FileManager1",
		"ShowItems",
		"ass",
		"1",
		fileURI(abs),
		"",
	})
	if err == nil {
		return nil
	}
	logging.OrDiscard(l.Logger).Debug("file manager reveal failed; opening parent", "path", abs, "error", err.Error())
	return l.Open(ctx, filepath.Dir(abs))
}

func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func runCommand(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return fmt.Errorf("run %s: %w", argv[0], err)
		}
		return fmt.Errorf("run %s: %w (%s)", argv[0], err, trimmed)
	}
	return nil
}
