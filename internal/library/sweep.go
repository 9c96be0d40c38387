package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var sweepExtensions = map[string]struct{}{
	".mp3": {}, ".wav": {}, ".aac": {}, ".ogg": {}, ".m4a": {}, ".flac": {},
}

// SweepFailure records one orphan that could not be removed.
type SweepFailure struct {
	Path string
	Err  error
}

// MarshalJSON renders Err as text.
func (f SweepFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}{f.Path, msg})
}

// UnmarshalJSON restores Err as a plain error carrying the message.
func (f *SweepFailure) UnmarshalJSON(data []byte) error {
	var wire struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	f.Path = wire.Path
	f.Err = nil
	if wire.Error != "" {
		f.Err = errors.New(wire.Error)
	}
	return nil
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Removed  int            `json:"removed"`
	Failures []SweepFailure `json:"failures,omitempty"`
}

// SweepOptions resolves relative item paths and receives failure logs.
type SweepOptions struct {
	InstallDir string
	Logger     *slog.Logger
}

// Sweep deletes audio files directly inside soundsDir that no item references.
// Comparison ignores case and separator style. Only a failure to list the
// directory is returned; per-file failures are collected.
func Sweep(soundsDir string, items []Item, opts SweepOptions) (SweepResult, error) {
	entries, err := os.ReadDir(soundsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return SweepResult{}, nil
		}
		return SweepResult{}, fmt.Errorf("%w: list %q: %v", ErrIO, soundsDir, err)
	}

	referenced := make(map[string]struct{}, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Path) == "" {
			continue
		}
		referenced[normalizeRef(absolutize(it.Path, opts.InstallDir))] = struct{}{}
	}

	var result SweepResult
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := sweepExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		full := filepath.Join(soundsDir, entry.Name())
		if abs, err := filepath.Abs(full); err == nil {
			full = abs
		}
		if _, ok := referenced[normalizeRef(full)]; ok {
			continue
		}
		if err := os.Remove(full); err != nil {
			result.Failures = append(result.Failures, SweepFailure{Path: full, Err: err})
			if opts.Logger != nil {
				opts.Logger.Warn("remove orphan failed", "path", full, "error", err.Error())
			}
			continue
		}
		result.Removed++
	}

	if opts.Logger != nil && result.Removed > 0 {
		opts.Logger.Info("orphan sweep", "dir", soundsDir, "removed", result.Removed)
	}
	return result, nil
}

func normalizeRef(p string) string {
	unified := strings.ReplaceAll(p, `\`, "/")
	return strings.ToLower(path.Clean(unified))
}
