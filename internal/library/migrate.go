package library

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbright/soundpp/internal/fsutil"
)

// ResolvePath returns the absolute location of an item path. Relative item
// paths are joined onto installDir, and a relative installDir is itself
// taken from the working directory.
func ResolvePath(p, installDir string) string {
	return absolutize(p, installDir)
}

func absolutize(p, installDir string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(installDir, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// isUnderDir compares case-insensitively and requires a separator after the
// parent, so "/opt/app2/x" is not under "/opt/app".
func isUnderDir(target, parent string) bool {
	if parent == "" {
		return false
	}
	t, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	p, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(t), strings.ToLower(p)+string(os.PathSeparator))
}

// migratePaths copies items still pointing into the install directory into
// soundsDir and rewrites their paths. Items whose copy fails are kept as is.
func migratePaths(items []Item, installDir, soundsDir string, logger *slog.Logger) ([]Item, bool) {
	out := append([]Item(nil), items...)
	changed := false
	for i, it := range out {
		if strings.TrimSpace(it.Path) == "" {
			continue
		}
		abs := absolutize(it.Path, installDir)
		if !isUnderDir(abs, installDir) || isUnderDir(abs, soundsDir) {
			continue
		}
		dst, err := fsutil.CopyInto(abs, soundsDir)
		if err != nil {
			logger.Warn("migrate item path failed", "id", it.ID, "path", abs, "error", err.Error())
			continue
		}
		out[i].Path = dst
		changed = true
		logger.Info("migrated item path", "id", it.ID, "from", abs, "to", dst)
	}
	return out, changed
}
