package models

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ExtractionResult holds the fields decoded from a model response.
// A field is present only when the response carried it with a non-null value.
type ExtractionResult struct {
	fields map[string]any
}

// NewExtractionResult wraps a decoded JSON object. Null values are dropped.
func NewExtractionResult(fields map[string]any) ExtractionResult {
	kept := make(map[string]any, len(fields))
	for k, v := range fields {
		if v != nil {
			kept[k] = v
		}
	}
	return ExtractionResult{fields: kept}
}

// Lookup returns the raw value for name and whether it was present
func (r ExtractionResult) Lookup(name string) (any, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Has reports whether name is present
func (r ExtractionResult) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Names returns the present field names in sorted order
func (r ExtractionResult) Names() []string {
	names := make([]string, 0, len(r.fields))
	for k := range r.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of present fields
func (r ExtractionResult) Len() int {
	return len(r.fields)
}

// Raw returns a copy of the underlying object, suitable for re-encoding
func (r ExtractionResult) Raw() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// String returns the field as text. Numbers and booleans are rendered, other types are rejected.
func (r ExtractionResult) String(name string) (string, bool) {
	v, ok := r.fields[name]
	if !ok {
		return "", false
	}
	return AsString(v)
}

// Number returns the field as a float64, accepting JSON numbers and numeric strings
func (r ExtractionResult) Number(name string) (float64, bool) {
	v, ok := r.fields[name]
	if !ok {
		return 0, false
	}
	return AsNumber(v)
}

// Objects returns the field as a list of nested results. Non-object elements are skipped.
func (r ExtractionResult) Objects(name string) ([]ExtractionResult, bool) {
	v, ok := r.fields[name]
	if !ok {
		return nil, false
	}
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]ExtractionResult, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, NewExtractionResult(obj))
		}
	}
	return out, true
}

// AsString converts a decoded JSON scalar to text
func AsString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// AsNumber converts a decoded JSON scalar to a finite float64.
// Strings like "150.50", "$1,200.00" or "1 200" are accepted; NaN and infinities are not.
func AsNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return finite(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		s := strings.TrimSpace(val)
		s = strings.TrimLeft(s, "$€£¥")
		s = strings.NewReplacer(",", "", " ", "").Replace(s)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
