package auth

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Lookup walks payload along a dotted path such as "profile.name". It returns
// false when a segment is missing or crosses a non object value. Scalar
// leaves are returned as strings; objects and arrays are returned unchanged.
func Lookup(payload map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")

	var current interface{} = payload
	for i := 0; i < len(segments); i++ {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}

		next, ok := obj[segments[i]]
		if !ok || next == nil {
			return nil, false
		}

		current = next
	}

	return leafValue(current), true
}

func leafValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return v
	}
}
