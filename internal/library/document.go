package library

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type format int

const (
	// formatDocument is the current {items, groups} object.
	formatDocument format = iota
	// formatLegacyArray is the pre-groups bare item array.
	formatLegacyArray
)

type document struct {
	format format
	items  []Item
	groups []Group
}

// decodeDocument accepts both persisted layouts. A missing or non-array
// "groups" yields the seed groups; a missing or non-array "items" yields none.
func decodeDocument(data []byte) (document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return document{}, errors.New("empty document")
	}

	switch trimmed[0] {
	case '[':
		var items []Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return document{}, err
		}
		return document{format: formatLegacyArray, items: items, groups: SeedGroups()}, nil
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return document{}, err
		}
		doc := document{format: formatDocument, items: []Item{}, groups: SeedGroups()}
		if isArray(raw["items"]) {
			if err := json.Unmarshal(raw["items"], &doc.items); err != nil {
				return document{}, fmt.Errorf("items: %w", err)
			}
		}
		if isArray(raw["groups"]) {
			var groups []Group
			if err := json.Unmarshal(raw["groups"], &groups); err != nil {
				return document{}, fmt.Errorf("groups: %w", err)
			}
			doc.groups = groups
		}
		return doc, nil
	default:
		return document{}, fmt.Errorf("unexpected top-level value %q", trimmed[:1])
	}
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// encodeDocument always writes the current layout, 2-space indented.
func encodeDocument(items []Item, groups []Group) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	if groups == nil {
		groups = SeedGroups()
	}
	return json.MarshalIndent(Snapshot{Items: items, Groups: groups}, "", "  ")
}

// Payload is a save request in either accepted shape.
type Payload struct {
	Items     []Item
	Groups    []Group
	ItemsOnly bool
}

// ParsePayload decodes a bare item array or an {items, groups} object.
func ParsePayload(data []byte) (Payload, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Payload{
		Items:     doc.items,
		Groups:    doc.groups,
		ItemsOnly: doc.format == formatLegacyArray,
	}, nil
}
