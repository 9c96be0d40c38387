package hotkey

import (
	"regexp"
	"strings"
)

// KeyEvent is one key press as reported by a front-end. Key is the logical
// key name ("a", "Escape", "ArrowUp", "Control"); Code the physical key
// ("KeyA", "Digit5", "Numpad5") when known.
type KeyEvent struct {
	Key   string `json:"key"`
	Code  string `json:"code,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
}

var (
	digitCode  = regexp.MustCompile(`^digit([0-9])$`)
	numpadCode = regexp.MustCompile(`^numpad([0-9])$`)
	plainKey   = regexp.MustCompile(`^[a-z0-9]$`)
	fnKey      = regexp.MustCompile(`^f\d{1,2}$`)
)

// IsModifierKey reports whether key is a bare modifier.
func IsModifierKey(key string) bool {
	switch strings.ToLower(key) {
	case "control", "ctrl", "shift", "alt", "meta", "super":
		return true
	}
	return false
}

// IsEscape reports whether ev is the Escape key.
func IsEscape(ev KeyEvent) bool {
	k := strings.ToLower(ev.Key)
	return k == "escape" || k == "esc"
}

// FromKeyEvent composes an accelerator from the held modifiers and the
// pressed key. A bare modifier press yields only the modifier part.
func FromKeyEvent(ev KeyEvent) string {
	var parts []string
	if ev.Ctrl || ev.Meta || isKey(ev.Key, "control", "ctrl", "meta", "super") {
		parts = append(parts, ModCommandOrControl)
	}
	if ev.Shift || isKey(ev.Key, "shift") {
		parts = append(parts, ModShift)
	}
	if ev.Alt || isKey(ev.Key, "alt") {
		parts = append(parts, ModAlt)
	}
	if !IsModifierKey(ev.Key) {
		if key := eventKey(ev.Key, ev.Code); key != "" {
			parts = append(parts, key)
		}
	}
	return strings.Join(parts, "+")
}

func isKey(key string, names ...string) bool {
	lower := strings.ToLower(key)
	for _, n := range names {
		if lower == n {
			return true
		}
	}
	return false
}

// eventKey prefers the physical digit so Shift+1 records "1", not "!".
func eventKey(key, code string) string {
	if key == "" && code == "" {
		return ""
	}
	c := strings.ToLower(code)
	if m := digitCode.FindStringSubmatch(c); m != nil {
		return m[1]
	}
	if m := numpadCode.FindStringSubmatch(c); m != nil {
		return m[1]
	}
	k := strings.ToLower(key)
	if plainKey.MatchString(k) {
		return strings.ToUpper(k)
	}
	if fnKey.MatchString(k) {
		return strings.ToUpper(k)
	}
	if named, ok := namedKeys[k]; ok {
		return named
	}
	return strings.ToUpper(key)
}
