package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/piwi3910/atlaspack/internal/model"
)

// mappingEntry is the on-disk shape of one placement. Pointer fields let the
// decoder tell a missing field from a zero value.
type mappingEntry struct {
	Atlas   *string  `json:"atlas,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Width   *float64 `json:"width,omitempty"`
	Height  *float64 `json:"height,omitempty"`
	Padding *int     `json:"padding,omitempty"`
}

// EncodeMapping renders the mapping as a JSON object keyed by texture name.
// Placements become {atlas, x, y, width, height, padding} objects and
// exclusions become null. Keys are written in sorted order.
func EncodeMapping(m model.Mapping) ([]byte, error) {
	doc := make(map[string]*model.AtlasItem, m.Len())
	for name := range m.Exclusions {
		doc[name] = nil
	}
	for name, it := range m.Placements {
		it := it
		doc[name] = &it
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mapping: %w", err)
	}
	return data, nil
}

// DecodeMapping parses a mapping document. A document that is not a JSON
// object is an error. Individual entries that cannot be used are dropped and
// reported in warnings; null and {} entries are exclusions.
func DecodeMapping(data []byte) (model.Mapping, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Mapping{}, nil, fmt.Errorf("failed to parse mapping: %w", err)
	}
	if raw == nil {
		return model.Mapping{}, nil, fmt.Errorf("failed to parse mapping: top level is null")
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	m := model.NewMapping()
	var warnings []string
	for _, name := range names {
		value := bytes.TrimSpace(raw[name])
		if bytes.Equal(value, []byte("null")) {
			m.Exclude(name)
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(value, &fields); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: entry is not an object", name))
			continue
		}
		if len(fields) == 0 {
			m.Exclude(name)
			continue
		}
		item, err := decodeEntry(name, value)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		m.Place(item)
	}
	return m, warnings, nil
}

func decodeEntry(name string, value []byte) (model.AtlasItem, error) {
	var e mappingEntry
	if err := json.Unmarshal(value, &e); err != nil {
		return model.AtlasItem{}, err
	}
	switch {
	case e.Atlas == nil:
		return model.AtlasItem{}, fmt.Errorf("missing atlas")
	case e.X == nil || e.Y == nil:
		return model.AtlasItem{}, fmt.Errorf("missing x or y")
	case e.Width == nil || e.Height == nil:
		return model.AtlasItem{}, fmt.Errorf("missing width or height")
	}
	item := model.AtlasItem{
		Name:    name,
		Atlas:   *e.Atlas,
		X:       *e.X,
		Y:       *e.Y,
		Width:   *e.Width,
		Height:  *e.Height,
		Padding: 1,
	}
	if e.Padding != nil {
		item.Padding = *e.Padding
	}
	if !item.Valid() {
		return model.AtlasItem{}, fmt.Errorf("invalid placement values")
	}
	return item, nil
}

// SaveMapping writes the mapping document, creating parent directories.
func SaveMapping(path string, m model.Mapping) error {
	data, err := EncodeMapping(m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create mapping directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mapping: %w", err)
	}
	return nil
}

// LoadMapping reads a mapping document. A missing file returns an error
// wrapping fs.ErrNotExist.
func LoadMapping(path string) (model.Mapping, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Mapping{}, nil, fmt.Errorf("failed to read mapping: %w", err)
	}
	return DecodeMapping(data)
}
