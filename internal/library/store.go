package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/fsutil"
	"github.com/rbright/soundpp/internal/logging"
)

// Slicer cuts [start, end) seconds of src into a new WAV file at dst.
type Slicer interface {
	Slice(src, dst string, start, end float64) error
}

// Options configures a Store.
type Options struct {
	Logger *slog.Logger
	IDs    *IDSource
	Slicer Slicer
}

// Store is the single owner of the library document. Every mutation writes
// the document before it returns and before the in-memory copy changes.
type Store struct {
	mu     sync.Mutex
	paths  config.Paths
	logger *slog.Logger
	ids    *IDSource
	slicer Slicer

	items  []Item
	groups []Group
	// unreadable is set while the document on disk failed to load and has
	// not been rewritten; sweeping against the empty stand-in would delete
	// every managed sound.
	unreadable bool
}

// New builds an empty store holding the seed groups; call Load to read disk.
func New(paths config.Paths, opts Options) *Store {
	ids := opts.IDs
	if ids == nil {
		ids = NewIDSource(nil)
	}
	return &Store{
		paths:  paths.Absolute(),
		logger: logging.OrDiscard(opts.Logger),
		ids:    ids,
		slicer: opts.Slicer,
		items:  []Item{},
		groups: SeedGroups(),
	}
}

// Open builds a store and loads it. The store is usable even when Load fails.
func Open(paths config.Paths, opts Options) (*Store, error) {
	s := New(paths, opts)
	return s, s.Load()
}

// Paths exposes the resolved directories the store works in.
func (s *Store) Paths() config.Paths {
	return s.paths
}

// Load reads the library document, migrating a legacy file or seeding a
// fresh library when none exists, then moves install-dir item paths into
// the sounds directory.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.paths.LibraryPath()
	if !fsutil.Exists(path) && !config.MigrateLegacyFile(s.paths, path, s.paths.LegacyLibraryPaths()) {
		snap := s.buildDefault()
		s.ids.Observe(snap.Items)
		return s.commit(snap.Items, snap.Groups)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.reset()
		s.unreadable = true
		return fmt.Errorf("%w: read library %q: %v", ErrIO, path, err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		s.reset()
		s.unreadable = true
		s.logger.Error("library document malformed", "path", path, "error", err.Error())
		return fmt.Errorf("%w: %q: %v", ErrMalformed, path, err)
	}

	items, changed := migratePaths(doc.items, s.paths.InstallDir, s.paths.SoundsDir(), s.logger)
	groups := ensureUngrouped(doc.groups)
	s.ids.Observe(items)
	s.items, s.groups = items, groups
	s.unreadable = false

	if changed {
		if err := s.write(items, groups); err != nil {
			s.logger.Warn("persist migrated library failed", "path", path, "error", err.Error())
		}
	}
	return nil
}

func (s *Store) reset() {
	s.items = []Item{}
	s.groups = SeedGroups()
}

// buildDefault copies the bundled samples that exist into the sounds
// directory and returns them with the seed groups.
func (s *Store) buildDefault() Snapshot {
	items := []Item{}
	for _, seed := range seedItems {
		src := filepath.Join(s.paths.BundledSoundsDir(), seed.file)
		if !fsutil.IsFile(src) {
			continue
		}
		dst, err := fsutil.CopyInto(src, s.paths.SoundsDir())
		if err != nil {
			s.logger.Warn("copy bundled sample failed", "path", src, "error", err.Error())
			continue
		}
		items = append(items, Item{
			ID:          s.ids.Next(),
			Name:        seed.name,
			Description: seed.description,
			Duration:    UnknownDuration,
			Shortcut:    seed.shortcut,
			Group:       seed.group,
			Path:        dst,
		})
	}
	return Snapshot{Items: items, Groups: SeedGroups()}
}

// write persists a full document without touching memory.
func (s *Store) write(items []Item, groups []Group) error {
	data, err := encodeDocument(items, groups)
	if err != nil {
		return fmt.Errorf("%w: encode library: %v", ErrIO, err)
	}
	path := s.paths.LibraryPath()
	if err := fsutil.WriteJSONFile(path, data); err != nil {
		return fmt.Errorf("%w: write library %q: %v", ErrIO, path, err)
	}
	return nil
}

// commit persists and then swaps the in-memory copy.
func (s *Store) commit(items []Item, groups []Group) error {
	if items == nil {
		items = []Item{}
	}
	if groups == nil {
		groups = SeedGroups()
	}
	if err := s.write(items, groups); err != nil {
		return err
	}
	s.items, s.groups = items, groups
	s.unreadable = false
	return nil
}

// Save replaces both collections. A nil groups slice means the seed groups.
func (s *Store) Save(items []Item, groups []Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items = append([]Item(nil), items...)
	if groups != nil {
		groups = ensureUngrouped(append([]Group(nil), groups...))
	}
	s.ids.Observe(items)
	return s.commit(items, groups)
}

// SaveItems replaces the items and keeps the groups currently on disk, or
// the seed groups when the document cannot be read.
func (s *Store) SaveItems(items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := SeedGroups()
	if data, err := os.ReadFile(s.paths.LibraryPath()); err == nil {
		if doc, err := decodeDocument(data); err == nil && doc.format == formatDocument {
			groups = doc.groups
		}
	}
	items = append([]Item(nil), items...)
	s.ids.Observe(items)
	return s.commit(items, groups)
}

// SavePayload dispatches a parsed payload to Save or SaveItems.
func (s *Store) SavePayload(p Payload) error {
	if p.ItemsOnly {
		return s.SaveItems(p.Items)
	}
	return s.Save(p.Items, p.Groups)
}

// Replace overwrites the library with snap.
func (s *Store) Replace(snap Snapshot) error {
	return s.Save(snap.Items, snap.Groups)
}

// Snapshot returns a deep copy of the library.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Items: s.items, Groups: s.groups}.Clone()
}

// Item returns the item with id.
func (s *Store) Item(id int64) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := findItem(s.items, id)
	if i < 0 {
		return Item{}, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return s.items[i], nil
}

// Items lists the items shown under group; KeyAll lists every item.
func (s *Store) Items(group string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.items, s.groups, group, "")
}

// Group returns the group with key.
func (s *Store) Group(key string) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := findGroup(s.groups, key)
	if i < 0 {
		return Group{}, fmt.Errorf("%w: group %q", ErrNotFound, key)
	}
	return s.groups[i], nil
}

// Counts tallies items per group.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CountItems(s.items, s.groups)
}

// Sweep removes unreferenced files from the sounds directory.
func (s *Store) Sweep() (SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Store) sweepLocked() (SweepResult, error) {
	if s.unreadable {
		return SweepResult{}, ErrSweepHeld
	}
	return Sweep(s.paths.SoundsDir(), s.items, SweepOptions{InstallDir: s.paths.InstallDir, Logger: s.logger})
}
