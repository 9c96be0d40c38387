// Package library owns the SoundPP audio library: items, user-ordered groups,
// their on-disk document, and the managed sounds directory.
package library

import "strings"

const (
	// KeyAll is the virtual group listing every item; it is never stored.
	KeyAll = "all"
	// KeyUngrouped always exists and cannot be deleted.
	KeyUngrouped = "ungrouped"

	// UnknownDuration marks an item whose length has not been probed.
	UnknownDuration = "未知"

	// DescriptionImported is given to items created from added or imported files.
	DescriptionImported = "导入的音频文件"
	// DescriptionSliced is given to items created by Slice.
	DescriptionSliced = "切片生成"
)

// Item is one playable clip.
type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Shortcut    string `json:"shortcut"`
	Group       string `json:"group"`
	Path        string `json:"path"`
}

// GroupKey returns the item's group, treating an empty key as ungrouped.
func (it Item) GroupKey() string {
	if strings.TrimSpace(it.Group) == "" {
		return KeyUngrouped
	}
	return it.Group
}

// HasDuration reports whether the item carries a probed duration.
func (it Item) HasDuration() bool {
	d := strings.TrimSpace(it.Duration)
	return d != "" && d != UnknownDuration
}

// Group is a user-named collection of items.
type Group struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Snapshot is a detached copy of the whole library.
type Snapshot struct {
	Items  []Item  `json:"items"`
	Groups []Group `json:"groups"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Items:  append([]Item(nil), s.Items...),
		Groups: append([]Group(nil), s.Groups...),
	}
}

// ItemPatch carries the user-editable item fields; nil fields are left as is.
type ItemPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Shortcut    *string `json:"shortcut,omitempty"`
	Group       *string `json:"group,omitempty"`
	Duration    *string `json:"duration,omitempty"`
}

func (p ItemPatch) apply(it Item) Item {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Shortcut != nil {
		it.Shortcut = *p.Shortcut
	}
	if p.Group != nil {
		it.Group = *p.Group
	}
	if p.Duration != nil {
		it.Duration = *p.Duration
	}
	return it
}

// SeedGroups returns the groups of a fresh library.
func SeedGroups() []Group {
	return []Group{
		{ID: KeyUngrouped, Key: KeyUngrouped, Name: "未分组"},
		{ID: "game", Key: "game", Name: "游戏音效"},
		{ID: "meeting", Key: "meeting", Name: "会议专用"},
		{ID: "entertainment", Key: "entertainment", Name: "娱乐搞笑"},
	}
}

type seedItem struct {
	file        string
	name        string
	description string
	shortcut    string
	group       string
}

var seedItems = []seedItem{
	{file: "victory.mp3", name: "胜利音效", description: "示例：胜利音效", shortcut: "Ctrl+Shift+1", group: "game"},
	{file: "failure.mp3", name: "失败音效", description: "示例：失败音效", shortcut: "Ctrl+Shift+2", group: "game"},
}

// Counts holds item totals per group key, including KeyAll.
type Counts map[string]int

// CountItems tallies items per group; dangling group keys count as ungrouped.
func CountItems(items []Item, groups []Group) Counts {
	known := groupSet(groups)
	counts := Counts{KeyAll: len(items)}
	for _, g := range groups {
		counts[g.Key] = 0
	}
	for _, it := range items {
		counts[resolveGroup(it, known)]++
	}
	return counts
}

// Filter returns the items shown for group and a case-insensitive query on
// name and description. KeyAll selects every item.
func Filter(items []Item, groups []Group, group, query string) []Item {
	known := groupSet(groups)
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if group != "" && group != KeyAll && resolveGroup(it, known) != group {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(it.Name), query) &&
			!strings.Contains(strings.ToLower(it.Description), query) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func groupSet(groups []Group) map[string]struct{} {
	set := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		set[g.Key] = struct{}{}
	}
	return set
}

func resolveGroup(it Item, known map[string]struct{}) string {
	key := it.GroupKey()
	if _, ok := known[key]; !ok {
		return KeyUngrouped
	}
	return key
}

func findGroup(groups []Group, key string) int {
	for i, g := range groups {
		if g.Key == key {
			return i
		}
	}
	return -1
}

func findItem(items []Item, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
