package hotkey

import (
	"strconv"
	"strings"

	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/library"
)

// MuteTarget is the registration target of the mute toggle shortcut.
const MuteTarget = "MUTE_TOGGLE"

// Plan lists the bindings implied by the library and settings: every item
// with a shortcut in library order, then the mute hotkey. It is empty when
// hotkeys are disabled.
func Plan(items []library.Item, settings config.Settings) []Binding {
	if !settings.EnableHotkeys {
		return nil
	}
	var plan []Binding
	for _, it := range items {
		if strings.TrimSpace(it.Shortcut) == "" {
			continue
		}
		plan = append(plan, Binding{
			Accelerator: ToAccelerator(it.Shortcut),
			Target:      strconv.FormatInt(it.ID, 10),
			Label:       it.Name,
		})
	}
	if strings.TrimSpace(settings.MuteHotkey) != "" {
		plan = append(plan, Binding{
			Accelerator: ToAccelerator(settings.MuteHotkey),
			Target:      MuteTarget,
			Label:       "mute",
		})
	}
	return plan
}
