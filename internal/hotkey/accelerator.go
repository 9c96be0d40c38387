// Package hotkey normalizes shortcut text, composes accelerators from key
// events, and tracks global shortcut registrations.
package hotkey

import (
	"regexp"
	"strings"
)

// NotSet is shown for an item without a shortcut.
const NotSet = "未设置"

// Canonical modifier tokens.
const (
	ModCommandOrControl = "CommandOrControl"
	ModCommand          = "Command"
	ModAlt              = "Alt"
	ModAltGr            = "AltGr"
	ModShift            = "Shift"
	ModSuper            = "Super"
)

var modifierTokens = map[string]string{
	"ctrl":             ModCommandOrControl,
	"control":          ModCommandOrControl,
	"cmdorctrl":        ModCommandOrControl,
	"commandorcontrol": ModCommandOrControl,
	"cmd":              ModCommand,
	"command":          ModCommand,
	"alt":              ModAlt,
	"option":           ModAlt,
	"altgr":            ModAltGr,
	"shift":            ModShift,
	"meta":             ModSuper,
	"super":            ModSuper,
	"win":              ModSuper,
}

var namedKeys = map[string]string{
	"esc":        "Esc",
	"escape":     "Esc",
	"up":         "Up",
	"arrowup":    "Up",
	"down":       "Down",
	"arrowdown":  "Down",
	"left":       "Left",
	"arrowleft":  "Left",
	"right":      "Right",
	"arrowright": "Right",
	"space":      "Space",
	" ":          "Space",
	"plus":       "Plus",
	"minus":      "Minus",
	"enter":      "Enter",
	"return":     "Enter",
	"tab":        "Tab",
	"backspace":  "Backspace",
	"delete":     "Delete",
	"del":        "Delete",
	"insert":     "Insert",
	"home":       "Home",
	"end":        "End",
	"pageup":     "PageUp",
	"pagedown":   "PageDown",
}

var functionKey = regexp.MustCompile(`^f([1-9]|1[0-9]|2[0-4])$`)

// canonicalKey maps a non-modifier token onto its accelerator spelling.
func canonicalKey(part string) string {
	lower := strings.ToLower(part)
	if named, ok := namedKeys[lower]; ok {
		return named
	}
	if len([]rune(part)) == 1 {
		return strings.ToUpper(part)
	}
	if functionKey.MatchString(lower) {
		return strings.ToUpper(lower)
	}
	return part
}

// ToAccelerator canonicalizes shortcut text in one pass over its
// "+"-separated parts. "Ctrl+1", "control+1", and "CmdOrCtrl+1" all become
// "CommandOrControl+1".
func ToAccelerator(shortcut string) string {
	parts := splitParts(shortcut)
	if len(parts) == 0 {
		return ""
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if mod, ok := modifierTokens[strings.ToLower(part)]; ok {
			out = append(out, mod)
			continue
		}
		out = append(out, canonicalKey(part))
	}
	return strings.Join(out, "+")
}

func splitParts(shortcut string) []string {
	raw := strings.Split(strings.TrimSpace(shortcut), "+")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

var displayTokens = map[string]string{
	ModCommandOrControl: "Ctrl",
	ModCommand:          "Cmd",
}

// ToDisplay renders an accelerator for people: "CommandOrControl+Shift+1"
// shows as "Ctrl+Shift+1". An empty accelerator shows NotSet.
func ToDisplay(acc string) string {
	parts := splitParts(ToAccelerator(acc))
	if len(parts) == 0 {
		return NotSet
	}
	for i, p := range parts {
		if d, ok := displayTokens[p]; ok {
			parts[i] = d
		}
	}
	return strings.Join(parts, "+")
}

// ToDisplayLower renders the list style with lower-case modifiers, e.g.
// "ctrl+shift+1".
func ToDisplayLower(acc string) string {
	display := ToDisplay(acc)
	if display == NotSet {
		return display
	}
	parts := strings.Split(display, "+")
	for i, p := range parts {
		switch p {
		case "Ctrl", "Shift", "Alt":
			parts[i] = strings.ToLower(p)
		}
	}
	return strings.Join(parts, "+")
}

// Split separates a canonical accelerator into its modifiers and final key.
// The key is empty when the accelerator holds modifiers only.
func Split(acc string) (mods []string, key string) {
	for _, part := range splitParts(ToAccelerator(acc)) {
		if isModifierToken(part) {
			mods = append(mods, part)
			continue
		}
		key = part
	}
	return mods, key
}

func isModifierToken(part string) bool {
	switch part {
	case ModCommandOrControl, ModCommand, ModAlt, ModAltGr, ModShift, ModSuper:
		return true
	}
	return false
}
