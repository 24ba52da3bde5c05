package metaview

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"car-archive/internal/catalog"
)

// Field is one formatted row of the info panel.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
	// Flag marks boolean badges (primary, original) rendered
	// differently from plain key/value rows.
	Flag bool `json:"flag,omitempty"`
}

// Display order for the well-known keys. Everything else follows
// alphabetically.
var keyPriority = []string{
	"angle",
	"view",
	"movement",
	"tod",
	"side",
	"description",
}

// Labels that plain camelCase splitting would get wrong.
var specialLabels = map[string]string{
	"tod":           "Time of Day",
	"isPrimary":     "Primary",
	"originalImage": "Original Upload",
	"url":           "URL",
	"id":            "ID",
}

// FormatKey turns a metadata key into a display label: camelCase and
// snake_case split into words, first letters upcased.
func FormatKey(key string) string {
	if label, ok := specialLabels[key]; ok {
		return label
	}

	var b strings.Builder
	prevLower := false
	for _, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			prevLower = false
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
			b.WriteRune(r)
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatValue renders a metadata value for display, type-directed:
// booleans become Yes/No, floats drop trailing zeros, everything else
// falls back to fmt.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case float64:
		// JSON numbers arrive as float64; show integers without a
		// decimal point
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Fields flattens one image's metadata into ordered display rows:
// well-known keys first in priority order, then unknown keys
// alphabetically, then the boolean badges.
func Fields(md catalog.Metadata) []Field {
	known := map[string]string{
		"angle":       md.Angle,
		"view":        md.View,
		"movement":    md.Movement,
		"tod":         md.TimeOfDay,
		"side":        md.Side,
		"description": md.Description,
	}

	var out []Field
	for _, key := range keyPriority {
		if v := known[key]; v != "" {
			out = append(out, Field{Key: key, Label: FormatKey(key), Value: v})
		}
	}

	extraKeys := make([]string, 0, len(md.Extra))
	for k := range md.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if v := FormatValue(md.Extra[k]); v != "" {
			out = append(out, Field{Key: k, Label: FormatKey(k), Value: v})
		}
	}

	if md.IsPrimary {
		out = append(out, Field{Key: "isPrimary", Label: FormatKey("isPrimary"), Value: "Yes", Flag: true})
	}
	if md.OriginalImage {
		out = append(out, Field{Key: "originalImage", Label: FormatKey("originalImage"), Value: "Yes", Flag: true})
	}

	return out
}
