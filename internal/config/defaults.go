package config

// Default returns the settings used when no document exists or a key is missing.
func Default() Settings {
	return Settings{
		EnableHotkeys:         true,
		DefaultVolume:         70,
		MuteHotkey:            "",
		DefaultOutputDeviceID: "default",
	}
}

// Merge overlays s onto Default(). An empty output device keeps the default
// so a partially filled payload does not erase a required key.
func Merge(s Settings) Settings {
	merged := Default()
	merged.EnableHotkeys = s.EnableHotkeys
	merged.DefaultVolume = s.DefaultVolume
	merged.MuteHotkey = s.MuteHotkey
	if s.DefaultOutputDeviceID != "" {
		merged.DefaultOutputDeviceID = s.DefaultOutputDeviceID
	}
	merged.Extra = s.Clone().Extra
	return merged
}
