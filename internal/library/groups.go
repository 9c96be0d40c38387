package library

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify lower-cases name, turns whitespace runs into "-", and drops
// everything outside [a-z0-9-]. Names with no Latin letters or digits
// yield "".
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = whitespaceRun.ReplaceAllString(slug, "-")
	return nonSlugChars.ReplaceAllString(slug, "")
}

// NewGroupKey derives a key for name that is unique among groups.
func NewGroupKey(name string, groups []Group) string {
	key := Slugify(name)
	if key == "" {
		key = "g-" + strings.ToLower(ulid.Make().String())
	}
	return uniqueKey(key, groups)
}

func uniqueKey(key string, groups []Group) string {
	if key == KeyAll {
		key = KeyAll + "-1"
	}
	if findGroup(groups, key) < 0 {
		return key
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", key, i)
		if findGroup(groups, candidate) < 0 {
			return candidate
		}
	}
}

// insertGroup places g after the group keyed after, or at the end when after
// is empty, KeyAll, or unknown.
func insertGroup(groups []Group, g Group, after string) []Group {
	index := len(groups)
	if after != "" && after != KeyAll {
		if i := findGroup(groups, after); i >= 0 {
			index = i + 1
		}
	}
	out := make([]Group, 0, len(groups)+1)
	out = append(out, groups[:index]...)
	out = append(out, g)
	return append(out, groups[index:]...)
}

// moveGroup removes the group at from and reinserts it at to.
func moveGroup(groups []Group, from, to int) []Group {
	out := append([]Group(nil), groups...)
	moving := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]Group{moving}, out[to:]...)...)
	return out
}

// ensureUngrouped keeps the reserved group present, prepending it when a
// document or payload dropped it.
func ensureUngrouped(groups []Group) []Group {
	if findGroup(groups, KeyUngrouped) >= 0 {
		return groups
	}
	return append([]Group{SeedGroups()[0]}, groups...)
}

func validGroupTarget(key string) error {
	switch strings.TrimSpace(key) {
	case "":
		return fmt.Errorf("%w: group key is empty", ErrInvalidTarget)
	case KeyAll:
		return fmt.Errorf("%w: %q is not a real group", ErrInvalidTarget, KeyAll)
	}
	return nil
}
