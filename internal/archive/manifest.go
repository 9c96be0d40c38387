// Package archive packs a library group into a zip with a manifest and
// unpacks such archives back into the library.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/rbright/soundpp/internal/library"
)

const (
	manifestName = "manifest.json"
	soundsPrefix = "sounds/"
	appName      = "soundpp"
)

var (
	// ErrEmptyGroup reports an export of a group no item references.
	ErrEmptyGroup = fmt.Errorf("%w: group has no audio to export", library.ErrEmptyResult)
	// ErrNothingImported reports an archive that yielded no items.
	ErrNothingImported = fmt.Errorf("%w: archive contains no importable audio", library.ErrEmptyResult)
)

// Manifest describes an exported group.
type Manifest struct {
	App        string         `json:"app"`
	Version    string         `json:"version"`
	ExportedAt string         `json:"exportedAt"`
	Group      ManifestGroup  `json:"group"`
	Items      []ManifestItem `json:"items"`
}

// ManifestGroup is the exported group's identity.
type ManifestGroup struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ManifestItem is one exported item; Src is the item's path at export time.
type ManifestItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Shortcut    string `json:"shortcut"`
	Group       string `json:"group"`
	Src         string `json:"src"`
}

// importedManifest is the lenient read-side view: any field may be missing
// or of an unexpected type without rejecting the archive.
type importedManifest struct {
	group    ManifestGroup
	items    []importedItem
	hasItems bool
}

type importedItem struct {
	name        string
	description string
	duration    string
	src         string
}

// readManifest returns nil when the archive has no manifest or it is not
// a JSON object.
func readManifest(files []*zip.File) *importedManifest {
	for _, f := range files {
		if f.Name != manifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil
		}
		return parseManifest(data)
	}
	return nil
}

func parseManifest(data []byte) *importedManifest {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil
	}

	m := &importedManifest{}
	var group map[string]json.RawMessage
	if json.Unmarshal(raw["group"], &group) == nil {
		m.group = ManifestGroup{
			Key:         stringField(group, "key"),
			Name:        stringField(group, "name"),
			Description: stringField(group, "description"),
		}
	}

	itemsRaw := bytes.TrimSpace(raw["items"])
	if len(itemsRaw) == 0 || itemsRaw[0] != '[' {
		return m
	}
	var items []map[string]json.RawMessage
	if json.Unmarshal(itemsRaw, &items) != nil {
		return m
	}
	m.hasItems = true
	for _, it := range items {
		m.items = append(m.items, importedItem{
			name:        stringField(it, "name"),
			description: stringField(it, "description"),
			duration:    stringField(it, "duration"),
			src:         stringField(it, "src"),
		})
	}
	return m
}

func stringField(obj map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := obj[key]; ok && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}
