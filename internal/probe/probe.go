// Package probe measures clip durations from file headers.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/soundpp/internal/audio"
	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/library"
	"github.com/rbright/soundpp/internal/logging"
)

// DefaultConcurrency bounds FillMissing's parallel header reads.
const DefaultConcurrency = 4

// Duration returns the length of path in seconds. WAV files are measured
// from the RIFF header and MP3 files from the ID3v2 TLEN frame; anything
// else reports false.
func Duration(path string) (float64, bool) {
	if info, err := audio.ReadInfo(path); err == nil {
		secs := info.Seconds()
		return secs, secs > 0
	}
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return id3Length(path)
	}
	return 0, false
}

func id3Length(path string) (float64, bool) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"TLEN"}})
	if err != nil {
		return 0, false
	}
	defer tag.Close()

	text := strings.TrimSpace(tag.GetTextFrame("TLEN").Text)
	ms, err := strconv.ParseFloat(text, 64)
	if err != nil || ms <= 0 {
		return 0, false
	}
	return ms / 1000, true
}

// Format renders seconds as "12.3s", or the unknown marker for
// non-positive values.
func Format(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return library.UnknownDuration
	}
	return fmt.Sprintf("%.1fs", math.Round(seconds*10)/10)
}

// Label probes path and formats the result.
func Label(path string) string {
	secs, ok := Duration(path)
	if !ok {
		return library.UnknownDuration
	}
	return Format(secs)
}

// DurationSetter persists a probed duration.
type DurationSetter interface {
	Paths() config.Paths
	Items(group string) []library.Item
	SetDuration(id int64, duration string) error
}

// FillMissing probes every item without a duration and stores what it
// finds. It returns the number of items updated.
func FillMissing(ctx context.Context, lib DurationSetter, limit int, logger *slog.Logger) (int, error) {
	logger = logging.OrDiscard(logger)
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var pending []library.Item
	for _, it := range lib.Items(library.KeyAll) {
		if !it.HasDuration() {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	installDir := lib.Paths().InstallDir
	labels := make([]string, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, it := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			labels[i] = Label(library.ResolvePath(it.Path, installDir))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	updated := 0
	for i, it := range pending {
		if labels[i] == library.UnknownDuration {
			continue
		}
		if err := lib.SetDuration(it.ID, labels[i]); err != nil {
			logger.Warn("store probed duration failed", "id", it.ID, "error", err.Error())
			continue
		}
		updated++
	}
	return updated, nil
}
