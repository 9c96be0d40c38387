package archive

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rbright/soundpp/internal/fsutil"
	"github.com/rbright/soundpp/internal/library"
	"github.com/rbright/soundpp/internal/logging"
)

// Import extracts the sounds of a zip into the sounds directory and appends
// one item per extracted file, all in one destination group. It returns the
// number of items added.
func Import(lib Library, zipPath, targetGroupKey string, opts Options) (int, error) {
	logger := logging.OrDiscard(opts.Logger)

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		if fsutil.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %q", library.ErrNotFound, zipPath)
		}
		return 0, fmt.Errorf("%w: open %q: %v", library.ErrMalformed, zipPath, err)
	}
	defer zr.Close()

	manifest := readManifest(zr.File)
	snap := lib.Snapshot()

	groupKey := targetGroupKey
	if groupKey == library.KeyAll {
		groupKey = ""
	}
	if groupKey == "" && manifest != nil {
		groupKey = manifest.group.Key
	}
	if groupKey == "" || groupKey == library.KeyAll {
		groupKey = library.KeyUngrouped
	}

	var newGroups []library.Group
	if !hasGroup(snap.Groups, groupKey) {
		g := library.Group{ID: groupKey, Key: groupKey, Name: groupKey}
		if manifest != nil {
			if manifest.group.Name != "" {
				g.Name = manifest.group.Name
			}
			g.Description = manifest.group.Description
		}
		newGroups = append(newGroups, g)
	}

	soundsDir := lib.Paths().SoundsDir()
	placed := map[string]bool{}
	extracted := map[string]string{}
	var order []string
	var written []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasPrefix(strings.ToLower(f.Name), soundsPrefix) {
			continue
		}
		base := sanitizeName(f.Name)
		if base == "" {
			continue
		}
		outName := fsutil.UniqueName(soundsDir, base, func(c string) bool { return placed[c] })
		placed[outName] = true
		outPath := filepath.Join(soundsDir, outName)
		if err := extract(f, outPath); err != nil {
			removeAll(written)
			return 0, fmt.Errorf("%w: extract %q: %v", library.ErrIO, f.Name, err)
		}
		written = append(written, outPath)
		if _, seen := extracted[base]; !seen {
			order = append(order, base)
		}
		extracted[base] = outPath
	}

	var items []library.Item
	if manifest != nil && manifest.hasItems {
		for _, mi := range manifest.items {
			base := ""
			if mi.src != "" {
				base = sanitizeName(mi.src)
			}
			outPath := extracted[base]
			if base == "" || outPath == "" {
				continue
			}
			items = append(items, library.Item{
				ID:          lib.NextID(),
				Name:        fallback(mi.name, base),
				Description: fallback(mi.description, library.DescriptionImported),
				Duration:    fallback(mi.duration, library.UnknownDuration),
				Group:       groupKey,
				Path:        outPath,
			})
		}
	} else {
		for _, base := range order {
			items = append(items, library.Item{
				ID:          lib.NextID(),
				Name:        strings.TrimSuffix(base, filepath.Ext(base)),
				Description: library.DescriptionImported,
				Duration:    library.UnknownDuration,
				Group:       groupKey,
				Path:        extracted[base],
			})
		}
	}

	if len(items) == 0 {
		removeAll(written)
		return 0, fmt.Errorf("%w: %q", ErrNothingImported, zipPath)
	}
	if err := lib.AppendItems(items, newGroups); err != nil {
		return 0, err
	}

	logger.Info("archive imported", "path", zipPath, "group", groupKey, "items", len(items))
	return len(items), nil
}

// sanitizeName keeps only the final element of an archive path, whatever
// separator style it uses.
func sanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	switch base {
	case ".", "..", "/":
		return ""
	}
	return base
}

func extract(f *zip.File, outPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func removeAll(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

func hasGroup(groups []library.Group, key string) bool {
	for _, g := range groups {
		if g.Key == key {
			return true
		}
	}
	return false
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
