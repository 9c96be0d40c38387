// Package config resolves SoundPP paths and loads, merges, and persists user settings.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrMalformed reports a settings document that could not be parsed.
var ErrMalformed = errors.New("malformed settings document")

// Settings is the user preference document.
//
// Extra carries keys present on disk that this version does not know about;
// they are written back untouched.
type Settings struct {
	EnableHotkeys         bool   `json:"enableHotkeys"`
	DefaultVolume         int    `json:"defaultVolume" validate:"min=0,max=100"`
	MuteHotkey            string `json:"muteHotkey" validate:"max=128"`
	DefaultOutputDeviceID string `json:"defaultOutputDeviceId" validate:"required"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownKeys = map[string]struct{}{
	"enableHotkeys":         {},
	"defaultVolume":         {},
	"muteHotkey":            {},
	"defaultOutputDeviceId": {},
}

// settingsFields mirrors Settings without methods so encoding/json does not recurse.
type settingsFields struct {
	EnableHotkeys         bool   `json:"enableHotkeys"`
	DefaultVolume         int    `json:"defaultVolume"`
	MuteHotkey            string `json:"muteHotkey"`
	DefaultOutputDeviceID string `json:"defaultOutputDeviceId"`
}

// UnmarshalJSON decodes present keys over the receiver's current values and
// keeps unknown keys in Extra. Decoding into Default() is a shallow merge.
func (s *Settings) UnmarshalJSON(data []byte) error {
	fields := settingsFields{
		EnableHotkeys:         s.EnableHotkeys,
		DefaultVolume:         s.DefaultVolume,
		MuteHotkey:            s.MuteHotkey,
		DefaultOutputDeviceID: s.DefaultOutputDeviceID,
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	// Extra may be shared with the value this one was copied from.
	extra := s.Clone().Extra
	for key, value := range raw {
		if _, ok := knownKeys[key]; ok {
			continue
		}
		if extra == nil {
			extra = map[string]json.RawMessage{}
		}
		extra[key] = value
	}

	s.EnableHotkeys = fields.EnableHotkeys
	s.DefaultVolume = fields.DefaultVolume
	s.MuteHotkey = fields.MuteHotkey
	s.DefaultOutputDeviceID = fields.DefaultOutputDeviceID
	s.Extra = extra
	return nil
}

// Clone returns a copy that shares no Extra storage with s.
func (s Settings) Clone() Settings {
	if len(s.Extra) == 0 {
		s.Extra = nil
		return s
	}
	extra := make(map[string]json.RawMessage, len(s.Extra))
	for k, v := range s.Extra {
		extra[k] = append(json.RawMessage(nil), v...)
	}
	s.Extra = extra
	return s
}

// MarshalJSON writes known keys first, then preserved unknown keys.
func (s Settings) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(settingsFields{
		EnableHotkeys:         s.EnableHotkeys,
		DefaultVolume:         s.DefaultVolume,
		MuteHotkey:            s.MuteHotkey,
		DefaultOutputDeviceID: s.DefaultOutputDeviceID,
	})
	if err != nil || len(s.Extra) == 0 {
		return known, err
	}

	extra, err := json.Marshal(s.Extra)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(known[:len(known)-1])
	buf.WriteByte(',')
	buf.Write(extra[1:])
	return buf.Bytes(), nil
}

// Source records where Load found the settings document.
type Source string

const (
	SourceCurrent    Source = "current"
	SourceLegacyDev  Source = "legacy-dev"
	SourceLegacyRoot Source = "legacy-root"
	SourceDefaults   Source = "defaults"
)
