package probe

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/stretchr/testify/require"

	"github.com/rbright/soundpp/internal/audio"
	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/library"
)

func writeWAV(t *testing.T, path string, seconds int) {
	t.Helper()
	format := audio.PCM16(1, 8000)
	var buf bytes.Buffer
	require.NoError(t, audio.Encode(&buf, format, make([]byte, seconds*int(format.ByteRate))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeMP3(t *testing.T, path, tlen string) {
	t.Helper()
	tag := id3v2.NewEmptyTag()
	if tlen != "" {
		tag.AddTextFrame("TLEN", id3v2.EncodingUTF8, tlen)
	}
	var buf bytes.Buffer
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)
	buf.Write([]byte{0xFF, 0xFB, 0x90, 0x00})
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestFormat(t *testing.T) {
	require.Equal(t, "12.3s", Format(12.34))
	require.Equal(t, "0.1s", Format(0.05))
	require.Equal(t, "3.0s", Format(2.96))
	require.Equal(t, library.UnknownDuration, Format(0))
	require.Equal(t, library.UnknownDuration, Format(-1))
}

func TestDurationFromWAVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	writeWAV(t, path, 2)

	secs, ok := Duration(path)
	require.True(t, ok)
	require.InDelta(t, 2.0, secs, 1e-9)
	require.Equal(t, "2.0s", Label(path))
}

func TestDurationFromID3Length(t *testing.T) {
	dir := t.TempDir()
	tagged := filepath.Join(dir, "tagged.mp3")
	writeMP3(t, tagged, "2540")
	untagged := filepath.Join(dir, "untagged.mp3")
	writeMP3(t, untagged, "")

	secs, ok := Duration(tagged)
	require.True(t, ok)
	require.InDelta(t, 2.54, secs, 1e-9)
	require.Equal(t, "2.5s", Label(tagged))

	_, ok = Duration(untagged)
	require.False(t, ok)
	require.Equal(t, library.UnknownDuration, Label(untagged))
}

func TestDurationUnknownFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.ogg")
	require.NoError(t, os.WriteFile(path, []byte("OggS"), 0o644))

	_, ok := Duration(path)
	require.False(t, ok)
	_, ok = Duration(filepath.Join(t.TempDir(), "missing.wav"))
	require.False(t, ok)
}

type fakeLibrary struct {
	install string
	items   []library.Item
	set     map[int64]string
	fail    int64
}

func (f *fakeLibrary) Paths() config.Paths { return config.Paths{InstallDir: f.install} }

func (f *fakeLibrary) Items(string) []library.Item { return f.items }

func (f *fakeLibrary) SetDuration(id int64, d string) error {
	if id == f.fail {
		return errors.New("disk full")
	}
	f.set[id] = d
	return nil
}

func TestFillMissing(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "a.wav")
	writeWAV(t, wav, 1)
	other := filepath.Join(dir, "b.wav")
	writeWAV(t, other, 3)

	lib := &fakeLibrary{
		set:  map[int64]string{},
		fail: 4,
		items: []library.Item{
			{ID: 1, Path: wav, Duration: library.UnknownDuration},
			{ID: 2, Path: wav, Duration: "9.9s"},
			{ID: 3, Path: filepath.Join(dir, "gone.mp3"), Duration: ""},
			{ID: 4, Path: other, Duration: library.UnknownDuration},
		},
	}

	n, err := FillMissing(context.Background(), lib, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, map[int64]string{1: "1.0s"}, lib.set)
}

func TestFillMissingResolvesInstallRelativePaths(t *testing.T) {
	install := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(install, "sounds"), 0o755))
	writeWAV(t, filepath.Join(install, "sounds", "bundled.wav"), 2)

	lib := &fakeLibrary{
		install: install,
		set:     map[int64]string{},
		items:   []library.Item{{ID: 1, Path: "sounds/bundled.wav", Duration: library.UnknownDuration}},
	}

	n, err := FillMissing(context.Background(), lib, 1, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, map[int64]string{1: "2.0s"}, lib.set)
}

func TestFillMissingHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lib := &fakeLibrary{set: map[int64]string{}, items: []library.Item{{ID: 1, Path: "/nope.wav"}}}
	_, err := FillMissing(ctx, lib, 0, nil)
	require.ErrorIs(t, err, context.Canceled)
}
