package library

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbright/soundpp/internal/fsutil"
)

var importExtensions = map[string]struct{}{
	".mp3": {}, ".wav": {}, ".aac": {}, ".ogg": {},
}

// minSliceSeconds is the shortest slice Slice will produce.
const minSliceSeconds = 0.05

// IsImportable reports whether AddFiles accepts path by extension.
func IsImportable(path string) bool {
	_, ok := importExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// destinationGroup maps "" and KeyAll onto ungrouped and rejects unknown keys.
func (s *Store) destinationGroup(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || key == KeyAll {
		return KeyUngrouped, nil
	}
	if findGroup(s.groups, key) < 0 {
		return "", fmt.Errorf("%w: group %q", ErrNotFound, key)
	}
	return key, nil
}

// AddFiles copies each importable file into the sounds directory and adds an
// item for it. Unsupported or unreadable files are reported in the joined
// error; when none could be added the error wraps ErrEmptyResult.
func (s *Store) AddFiles(paths []string, group string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dest, err := s.destinationGroup(group)
	if err != nil {
		return nil, err
	}

	var (
		added []Item
		errs  []error
	)
	soundsDir := s.paths.SoundsDir()
	for _, src := range paths {
		if !IsImportable(src) {
			errs = append(errs, fmt.Errorf("%s: unsupported audio type", filepath.Base(src)))
			continue
		}
		dst, err := fsutil.CopyInto(src, soundsDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrIO, err))
			continue
		}
		base := filepath.Base(src)
		added = append(added, Item{
			ID:          s.ids.Next(),
			Name:        strings.TrimSuffix(base, filepath.Ext(base)),
			Description: DescriptionImported,
			Duration:    UnknownDuration,
			Group:       dest,
			Path:        dst,
		})
	}

	if len(added) == 0 {
		return nil, errors.Join(append([]error{fmt.Errorf("%w: no audio files added", ErrEmptyResult)}, errs...)...)
	}

	items := append(append([]Item(nil), s.items...), added...)
	if err := s.commit(items, s.groups); err != nil {
		return nil, err
	}
	s.logger.Info("files added", "count", len(added), "group", dest)
	return added, errors.Join(errs...)
}

// AddItem appends it, assigning an id when zero and normalizing empty fields.
func (s *Store) AddItem(it Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dest, err := s.destinationGroup(it.Group)
	if err != nil {
		return Item{}, err
	}
	it.Group = dest
	if it.ID == 0 || findItem(s.items, it.ID) >= 0 {
		it.ID = s.ids.Next()
	} else {
		s.ids.Observe([]Item{it})
	}
	if strings.TrimSpace(it.Duration) == "" {
		it.Duration = UnknownDuration
	}

	items := append(append([]Item(nil), s.items...), it)
	if err := s.commit(items, s.groups); err != nil {
		return Item{}, err
	}
	return it, nil
}

// AppendItems adds already-built items and groups in one write. Groups whose
// key already exists are skipped.
func (s *Store) AppendItems(items []Item, groups []Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextGroups := append([]Group(nil), s.groups...)
	for _, g := range groups {
		if findGroup(nextGroups, g.Key) < 0 {
			nextGroups = append(nextGroups, g)
		}
	}
	nextItems := append(append([]Item(nil), s.items...), items...)
	s.ids.Observe(items)
	return s.commit(nextItems, nextGroups)
}

// NextID allocates an item id from the store's source.
func (s *Store) NextID() int64 {
	return s.ids.Next()
}

// UpdateItem applies patch to the item with id.
func (s *Store) UpdateItem(id int64, patch ItemPatch) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := findItem(s.items, id)
	if i < 0 {
		return Item{}, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	if patch.Group != nil {
		if err := validGroupTarget(*patch.Group); err != nil {
			return Item{}, err
		}
		if findGroup(s.groups, *patch.Group) < 0 {
			return Item{}, fmt.Errorf("%w: group %q", ErrNotFound, *patch.Group)
		}
	}

	items := append([]Item(nil), s.items...)
	items[i] = patch.apply(items[i])
	if err := s.commit(items, s.groups); err != nil {
		return Item{}, err
	}
	return items[i], nil
}

// SetDuration records a probed duration.
func (s *Store) SetDuration(id int64, duration string) error {
	_, err := s.UpdateItem(id, ItemPatch{Duration: &duration})
	return err
}

// MoveItem reassigns an item to group.
func (s *Store) MoveItem(id int64, group string) (Item, error) {
	return s.UpdateItem(id, ItemPatch{Group: &group})
}

// DeleteItems removes the given items, then sweeps the sounds directory.
// Unknown ids are ignored; ErrNotFound is returned when none matched.
func (s *Store) DeleteItems(ids ...int64) (int, SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	items := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if _, ok := drop[it.ID]; ok {
			continue
		}
		items = append(items, it)
	}
	removed := len(s.items) - len(items)
	if removed == 0 {
		return 0, SweepResult{}, fmt.Errorf("%w: items %v", ErrNotFound, ids)
	}
	if err := s.commit(items, s.groups); err != nil {
		return 0, SweepResult{}, err
	}

	swept, err := s.sweepLocked()
	if err != nil {
		s.logger.Warn("sweep after delete failed", "error", err.Error())
	}
	return removed, swept, nil
}

// AddGroup creates a group named name after the group keyed after.
func (s *Store) AddGroup(name, after string) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, fmt.Errorf("%w: group name is empty", ErrInvalidTarget)
	}
	key := NewGroupKey(name, s.groups)
	g := Group{ID: key, Key: key, Name: name}
	groups := insertGroup(s.groups, g, after)
	if err := s.commit(s.items, groups); err != nil {
		return Group{}, err
	}
	return g, nil
}

func (s *Store) editGroup(key string, edit func(*Group)) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validGroupTarget(key); err != nil {
		return Group{}, err
	}
	if key == KeyUngrouped {
		return Group{}, fmt.Errorf("%w: %q cannot be edited", ErrInvalidTarget, KeyUngrouped)
	}
	i := findGroup(s.groups, key)
	if i < 0 {
		return Group{}, fmt.Errorf("%w: group %q", ErrNotFound, key)
	}
	groups := append([]Group(nil), s.groups...)
	edit(&groups[i])
	if err := s.commit(s.items, groups); err != nil {
		return Group{}, err
	}
	return groups[i], nil
}

// RenameGroup changes a group's display name; its key stays.
func (s *Store) RenameGroup(key, name string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, fmt.Errorf("%w: group name is empty", ErrInvalidTarget)
	}
	return s.editGroup(key, func(g *Group) { g.Name = name })
}

// DescribeGroup sets a group's description.
func (s *Store) DescribeGroup(key, description string) (Group, error) {
	return s.editGroup(key, func(g *Group) { g.Description = strings.TrimSpace(description) })
}

// DeleteGroup removes a group and moves its items to ungrouped.
func (s *Store) DeleteGroup(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validGroupTarget(key); err != nil {
		return 0, err
	}
	if key == KeyUngrouped {
		return 0, fmt.Errorf("%w: %q cannot be deleted", ErrInvalidTarget, KeyUngrouped)
	}
	i := findGroup(s.groups, key)
	if i < 0 {
		return 0, fmt.Errorf("%w: group %q", ErrNotFound, key)
	}

	moved := 0
	items := append([]Item(nil), s.items...)
	for j := range items {
		if items[j].Group == key {
			items[j].Group = KeyUngrouped
			moved++
		}
	}
	groups := append(append([]Group(nil), s.groups[:i]...), s.groups[i+1:]...)
	if err := s.commit(items, groups); err != nil {
		return 0, err
	}
	return moved, nil
}

// ReorderGroup moves group from to the position currently held by to.
func (s *Store) ReorderGroup(from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from == KeyAll || to == KeyAll {
		return fmt.Errorf("%w: %q cannot be reordered", ErrInvalidTarget, KeyAll)
	}
	if from == to {
		return nil
	}
	fromIdx, toIdx := findGroup(s.groups, from), findGroup(s.groups, to)
	if fromIdx < 0 || toIdx < 0 {
		return fmt.Errorf("%w: group %q or %q", ErrNotFound, from, to)
	}
	return s.commit(s.items, moveGroup(s.groups, fromIdx, toIdx))
}

// SliceName builds the output file name for a slice of src.
func SliceName(src string, start, end float64) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return fmt.Sprintf("%s_%d-%d.wav", base, millis(start), millis(end))
}

func millis(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

// Slice cuts [start, end) seconds of an item's WAV file into a new item in
// the same group. end is raised to at least start+50ms.
func (s *Store) Slice(id int64, start, end float64) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slicer == nil {
		return Item{}, errors.New("slicing is not available")
	}
	i := findItem(s.items, id)
	if i < 0 {
		return Item{}, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	src := s.items[i]
	start = math.Max(0, start)
	end = math.Max(start+minSliceSeconds, end)

	soundsDir := s.paths.SoundsDir()
	name := fsutil.UniqueName(soundsDir, SliceName(src.Path, start, end), nil)
	dst := filepath.Join(soundsDir, name)
	if err := s.slicer.Slice(absolutize(src.Path, s.paths.InstallDir), dst, start, end); err != nil {
		_ = os.Remove(dst)
		return Item{}, fmt.Errorf("slice item %d: %w", id, err)
	}

	srcName := src.Name
	if srcName == "" {
		srcName = "音频"
	}
	sliced := Item{
		ID:          s.ids.Next(),
		Name:        fmt.Sprintf("%s_%d-%d", srcName, millis(start), millis(end)),
		Description: DescriptionSliced,
		Duration:    UnknownDuration,
		Group:       src.GroupKey(),
		Path:        dst,
	}
	items := append(append([]Item(nil), s.items...), sliced)
	if err := s.commit(items, s.groups); err != nil {
		_ = os.Remove(dst)
		return Item{}, err
	}
	return sliced, nil
}
