package hypr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/soundpp/internal/hotkey"
)

var modNames = map[string]string{
	hotkey.ModCommandOrControl: "CTRL",
	hotkey.ModCommand:          "SUPER",
	hotkey.ModSuper:            "SUPER",
	hotkey.ModAlt:              "ALT",
	hotkey.ModAltGr:            "MOD5",
	hotkey.ModShift:            "SHIFT",
}

var keysyms = map[string]string{
	"Esc":       "Escape",
	"Space":     "space",
	"Plus":      "plus",
	"Minus":     "minus",
	"Enter":     "Return",
	"Backspace": "BackSpace",
	"PageUp":    "Prior",
	"PageDown":  "Next",
}

// Binder installs accelerators as Hyprland binds that run
// "<Exe> trigger <target>".
type Binder struct {
	Exe string
}

// Bind registers one global shortcut.
func (b Binder) Bind(ctx context.Context, accelerator, target string) error {
	spec, err := BindSpec(accelerator)
	if err != nil {
		return err
	}
	if strings.ContainsAny(target, ",\n") {
		return fmt.Errorf("invalid trigger target %q", target)
	}
	exe := b.Exe
	if exe == "" {
		exe = "soundpp"
	}
	return runKeyword(ctx, "bind", fmt.Sprintf("%s,exec,%s trigger %s", spec, exe, target))
}

// Unbind removes one global shortcut.
func (b Binder) Unbind(ctx context.Context, accelerator string) error {
	spec, err := BindSpec(accelerator)
	if err != nil {
		return err
	}
	return runKeyword(ctx, "unbind", spec)
}

// BindSpec renders an accelerator as Hyprland's "MODS,KEY" pair, e.g.
// "CommandOrControl+Shift+1" becomes "CTRL SHIFT,1".
func BindSpec(accelerator string) (string, error) {
	mods, key := hotkey.Split(accelerator)
	if key == "" {
		return "", errors.New("accelerator has no key")
	}
	names := make([]string, 0, len(mods))
	for _, m := range mods {
		names = append(names, modNames[m])
	}
	if sym, ok := keysyms[key]; ok {
		key = sym
	}
	return strings.Join(names, " ") + "," + key, nil
}

// runKeyword applies a runtime keyword. hyprctl exits 0 on rejected
// keywords, so anything other than "ok" is treated as a failure.
func runKeyword(ctx context.Context, keyword, value string) error {
	out, err := runHyprctlOutput(ctx, "keyword", keyword, value)
	if err != nil {
		return err
	}
	if reply := strings.TrimSpace(string(out)); reply != "" && reply != "ok" {
		return fmt.Errorf("hyprctl keyword %s %q: %s", keyword, value, reply)
	}
	return nil
}
