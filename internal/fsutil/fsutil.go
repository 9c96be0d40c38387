// Package fsutil provides the file copy and collision-free naming helpers
// shared by the settings, library, and archive stores.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CopyFile copies src to dst, creating or truncating dst with mode 0644.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	return out.Close()
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsFile reports whether path names an existing regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Candidate returns the n-th disambiguated form of name: n == 0 is name
// itself, otherwise "base (n).ext".
func Candidate(name string, n int) string {
	if n <= 0 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", base, n, ext)
}

// UniqueName picks the lowest-index candidate of name that is neither
// taken(candidate) nor an existing file in dir.
func UniqueName(dir, name string, taken func(string) bool) string {
	for n := 0; ; n++ {
		candidate := Candidate(name, n)
		if taken != nil && taken(candidate) {
			continue
		}
		if Exists(filepath.Join(dir, candidate)) {
			continue
		}
		return candidate
	}
}

// CopyInto copies src into dir under a collision-free version of its base
// name and returns the destination path.
func CopyInto(src, dir string) (string, error) {
	if !IsFile(src) {
		return "", fmt.Errorf("copy %q: %w", src, os.ErrNotExist)
	}
	dst := filepath.Join(dir, UniqueName(dir, filepath.Base(src), nil))
	if err := CopyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// WriteJSONFile writes already-encoded JSON with a trailing newline.
func WriteJSONFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return os.WriteFile(path, data, 0o644)
}

// IsNotExist reports missing-file failures through any wrapping.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
