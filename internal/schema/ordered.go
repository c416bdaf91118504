package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DecodeOrdered decodes JSON into a generic tree where objects are
// *orderedmap.OrderedMap[string, any] instead of map[string]any, so key
// declaration order survives decoding. Arrays become []any, scalars the
// usual string/float64/bool/nil.
func DecodeOrdered(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("schema: decoding JSON: %w", err)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		// string, float64, bool, or nil
		return tok, nil
	}

	switch delim {
	case '{':
		m := orderedmap.New[string, any]()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is not a string: %v", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}
		return m, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil { // consume ']'
			return nil, err
		}
		return arr, nil
	}

	return nil, fmt.Errorf("unexpected token %v", tok)
}

// The accessors below work on both tree flavors: ordered maps from
// DecodeOrdered (or the YAML walk in the openapi package) and plain
// map[string]any from callers that already hold decoded JSON. Plain map
// keys are visited in sorted order so behavior stays deterministic.

func isObject(v any) bool {
	switch v.(type) {
	case *orderedmap.OrderedMap[string, any], map[string]any:
		return true
	}
	return false
}

func field(obj any, key string) (any, bool) {
	switch m := obj.(type) {
	case *orderedmap.OrderedMap[string, any]:
		return m.Get(key)
	case map[string]any:
		v, ok := m[key]
		return v, ok
	}
	return nil, false
}

func hasField(obj any, key string) bool {
	_, ok := field(obj, key)
	return ok
}

func fieldKeys(obj any) []string {
	switch m := obj.(type) {
	case *orderedmap.OrderedMap[string, any]:
		keys := make([]string, 0, m.Len())
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
		return keys
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	}
	return nil
}

func stringField(obj any, key string) (string, bool) {
	v, ok := field(obj, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolField(obj any, key string) (bool, bool) {
	v, ok := field(obj, key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func sliceField(obj any, key string) []any {
	v, ok := field(obj, key)
	if !ok {
		return nil
	}
	arr, _ := v.([]any)
	return arr
}

func stringSliceField(obj any, key string) []string {
	arr := sliceField(obj, key)
	if arr == nil {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// numField extracts a numeric field. JSON decoding yields float64; YAML
// trees may carry int.
func numField(obj any, key string) (float64, bool) {
	v, ok := field(obj, key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func intField(obj any, key string) *int {
	f, ok := numField(obj, key)
	if !ok {
		return nil
	}
	i := int(f)
	return &i
}

func int64Field(obj any, key string) *int64 {
	f, ok := numField(obj, key)
	if !ok {
		return nil
	}
	i := int64(f)
	return &i
}

func floatField(obj any, key string) *float64 {
	f, ok := numField(obj, key)
	if !ok {
		return nil
	}
	return &f
}
