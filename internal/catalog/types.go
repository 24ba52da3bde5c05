package catalog

import (
	"encoding/json"
	"fmt"
)

// Metadata describes one image. The catalog stores an open key/value map;
// the well-known keys get typed fields and everything else lands in Extra.
type Metadata struct {
	Angle         string
	View          string
	Movement      string
	TimeOfDay     string
	Side          string
	Description   string
	IsPrimary     bool
	OriginalImage bool
	Extra         map[string]interface{}
}

// Wire keys for the typed metadata fields.
const (
	keyAngle         = "angle"
	keyView          = "view"
	keyMovement      = "movement"
	keyTimeOfDay     = "tod"
	keySide          = "side"
	keyDescription   = "description"
	keyIsPrimary     = "isPrimary"
	keyOriginalImage = "originalImage"
)

// UnmarshalJSON splits the open map into typed fields plus Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}

	takeString := func(key string, dst *string) {
		if v, ok := raw[key]; ok {
			// Ignore non-string values for string fields; they stay in Extra
			if err := json.Unmarshal(v, dst); err == nil {
				delete(raw, key)
			}
		}
	}
	takeBool := func(key string, dst *bool) {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err == nil {
				delete(raw, key)
			}
		}
	}

	takeString(keyAngle, &m.Angle)
	takeString(keyView, &m.View)
	takeString(keyMovement, &m.Movement)
	takeString(keyTimeOfDay, &m.TimeOfDay)
	takeString(keySide, &m.Side)
	takeString(keyDescription, &m.Description)
	takeBool(keyIsPrimary, &m.IsPrimary)
	takeBool(keyOriginalImage, &m.OriginalImage)

	if len(raw) > 0 {
		m.Extra = make(map[string]interface{}, len(raw))
		for k, v := range raw {
			var val interface{}
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("metadata key %q: %w", k, err)
			}
			m.Extra[k] = val
		}
	}

	return nil
}

// MarshalJSON reassembles the open map. Typed fields win over Extra on
// key collisions. Empty string fields are omitted; the bool flags are
// only written when true, matching how the catalog stores them.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Extra)+8)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Angle != "" {
		out[keyAngle] = m.Angle
	}
	if m.View != "" {
		out[keyView] = m.View
	}
	if m.Movement != "" {
		out[keyMovement] = m.Movement
	}
	if m.TimeOfDay != "" {
		out[keyTimeOfDay] = m.TimeOfDay
	}
	if m.Side != "" {
		out[keySide] = m.Side
	}
	if m.Description != "" {
		out[keyDescription] = m.Description
	}
	if m.IsPrimary {
		out[keyIsPrimary] = true
	}
	if m.OriginalImage {
		out[keyOriginalImage] = true
	}
	return json.Marshal(out)
}

// ImageRecord is one media asset in the catalog.
type ImageRecord struct {
	ID       string   `json:"id"`
	URL      string   `json:"url"`
	Filename string   `json:"filename"`
	Metadata Metadata `json:"metadata"`
}

// Pagination is the server-computed page shape. It is absent when the
// caller fetched the full set and pages client-side.
type Pagination struct {
	TotalImages  int `json:"totalImages"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// PageResult is one catalog page response.
type PageResult struct {
	Images     []ImageRecord `json:"images"`
	Pagination *Pagination   `json:"pagination,omitempty"`
}

// DeleteResult reports the outcome of a batch delete. Failed maps image
// id to the reason the catalog gave for refusing it.
type DeleteResult struct {
	Deleted []string          `json:"deleted"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// AllDeleted reports whether every requested id was removed.
func (r *DeleteResult) AllDeleted() bool {
	return len(r.Failed) == 0
}
