package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// encodingTables must match the integer codes the model artifact was trained with.
// They are never written after package initialisation, so concurrent reads need no locking.
var encodingTables = map[Field]map[string]int{
	FieldCategory: {
		"electronics": 0, "clothing": 1, "home": 2, "sports": 3,
		"books": 4, "automotive": 5, "health": 6, "toys": 7,
	},
	FieldBrand:       {"premium": 0, "established": 1, "emerging": 2, "generic": 3},
	FieldShipping:    {"standard": 0, "express": 1, "prime": 2, "free": 3},
	FieldSeller:      {"high": 0, "medium": 1, "low": 2, "new": 3},
	FieldCompetition: {"low": 0, "medium": 1, "high": 2, "saturated": 3},
	FieldDemand:      {"regular": 0, "seasonal": 1, "trending": 2, "declining": 3},
	FieldProductAge:  {"new": 0, "recent": 1, "established": 2, "mature": 3},
	FieldStock:       {"high": 0, "medium": 1, "low": 2, "limited": 3},
}

// Encode maps a categorical value to its model code.
//
// WARNING: labels missing from the field's table, including empty or absent values, encode to 0
// without any error. Code 0 is also a real label in every table ("electronics", "premium", ...),
// so a typo in a form field silently becomes the first category.
func Encode(field Field, value any) int {
	table, ok := encodingTables[field]
	if !ok {
		return 0
	}
	return table[strings.ToLower(stringify(value))]
}

// Lookup reports the code for an exact (case-insensitive) label.
func Lookup(field Field, label string) (int, bool) {
	table, ok := encodingTables[field]
	if !ok {
		return 0, false
	}
	code, ok := table[strings.ToLower(label)]
	return code, ok
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// label returns the lower-cased value of field, or fallback when the field is absent.
func (in RawInput) label(field Field, fallback string) string {
	v, ok := in.value(field)
	if !ok {
		return fallback
	}
	return strings.ToLower(stringify(v))
}
