package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/fsutil"
	"github.com/rbright/soundpp/internal/library"
	"github.com/rbright/soundpp/internal/logging"
)

// Library is the slice of library.Store the codec needs.
type Library interface {
	Snapshot() library.Snapshot
	Paths() config.Paths
	NextID() int64
	AppendItems(items []library.Item, groups []library.Group) error
}

// Revealer shows a file in the desktop file browser.
type Revealer interface {
	Reveal(ctx context.Context, path string) error
}

// Options carries export metadata and collaborators.
type Options struct {
	Version string
	Now     func() time.Time
	Logger  *slog.Logger
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now().UTC()
}

func (o Options) version() string {
	if o.Version == "" {
		return "0.0.0"
	}
	return o.Version
}

// DefaultFileName is the archive name used when the caller names a directory.
func DefaultFileName(groupKey string, at time.Time) string {
	return fmt.Sprintf("SoundPP-%s-%s.zip", groupKey, at.UTC().Format("20060102150405"))
}

// Export writes the items of groupKey and a manifest to a zip and returns its
// path. outPath may name the zip, an existing directory, or be empty for the
// working directory.
func Export(lib Library, groupKey, outPath string, opts Options) (string, error) {
	logger := logging.OrDiscard(opts.Logger)
	if groupKey == "" || groupKey == library.KeyAll {
		return "", fmt.Errorf("%w: choose a specific group to export", library.ErrInvalidTarget)
	}

	snap := lib.Snapshot()
	var members []library.Item
	for _, it := range snap.Items {
		if it.GroupKey() == groupKey {
			members = append(members, it)
		}
	}
	if len(members) == 0 {
		return "", fmt.Errorf("%w: %q", ErrEmptyGroup, groupKey)
	}

	group := library.Group{Key: groupKey, Name: groupKey}
	for _, g := range snap.Groups {
		if g.Key == groupKey {
			group = g
		}
	}

	now := opts.now()
	target, err := resolveOutPath(outPath, DefaultFileName(group.Key, now))
	if err != nil {
		return "", err
	}

	installDir := lib.Paths().InstallDir
	type entry struct {
		name string
		src  string
	}
	var entries []entry
	used := map[string]bool{}
	manifest := Manifest{
		App:        appName,
		Version:    opts.version(),
		ExportedAt: now.Format("2006-01-02T15:04:05.000Z07:00"),
		Group:      ManifestGroup{Key: group.Key, Name: group.Name, Description: group.Description},
	}
	for _, it := range members {
		src := it.Path
		abs := library.ResolvePath(src, installDir)
		if fsutil.IsFile(abs) {
			name := filepath.Base(abs)
			for n := 1; used[name]; n++ {
				name = fsutil.Candidate(filepath.Base(abs), n)
				src = soundsPrefix + name
			}
			used[name] = true
			entries = append(entries, entry{name: name, src: abs})
		} else {
			logger.Warn("export skipped missing file", "id", it.ID, "path", abs)
		}
		manifest.Items = append(manifest.Items, ManifestItem{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Duration:    it.Duration,
			Shortcut:    it.Shortcut,
			Group:       it.Group,
			Src:         src,
		})
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", library.ErrIO, err)
	}
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("%w: create %q: %v", library.ErrIO, target, err)
	}

	zw := zip.NewWriter(out)
	writeErr := func() error {
		data, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return err
		}
		w, err := zw.Create(manifestName)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		for _, e := range entries {
			if err := addFile(zw, soundsPrefix+e.name, e.src); err != nil {
				return err
			}
		}
		return zw.Close()
	}()
	closeErr := out.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("%w: write %q: %v", library.ErrIO, target, writeErr)
	}

	logger.Info("group exported", "group", groupKey, "items", len(manifest.Items), "files", len(entries), "path", target)
	return target, nil
}

func resolveOutPath(outPath, defaultName string) (string, error) {
	if outPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, defaultName), nil
	}
	if info, err := os.Stat(outPath); err == nil && info.IsDir() {
		return filepath.Join(outPath, defaultName), nil
	}
	return outPath, nil
}

func addFile(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

// Share exports the group and reveals the archive. A reveal failure is
// logged and does not fail the share.
func Share(ctx context.Context, lib Library, groupKey, outPath string, opts Options, revealer Revealer) (string, error) {
	path, err := Export(lib, groupKey, outPath, opts)
	if err != nil {
		return "", err
	}
	if revealer != nil {
		if err := revealer.Reveal(ctx, path); err != nil {
			logging.OrDiscard(opts.Logger).Warn("reveal exported archive failed", "path", path, "error", err.Error())
		}
	}
	return path, nil
}
