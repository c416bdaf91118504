package schema

import "fmt"

// Normalize converts a raw decoded schema (ordered tree or plain
// map[string]any) into a canonical Node. The input is never mutated, and
// normalizing an already-normalized tree is a no-op:
// Normalize(n.Tree()) reproduces n.
//
// Defaults:
//   - missing "type" with an "anyOf" list → anyOf node
//   - missing "type" with "properties" → object node
//   - anything else unrecognized → string node
//   - object nodes always carry a non-nil properties map and required list
func Normalize(raw any) *Node {
	if !isObject(raw) {
		return &Node{Kind: KindString}
	}
	return normalizeAs(raw, inferKind(raw))
}

// NormalizeObject is Normalize for tool input schemas: a missing or empty
// schema, or one without an explicit type, is treated as an object so every
// tool ends up with a well-formed argument container.
func NormalizeObject(raw any) *Node {
	if !isObject(raw) {
		return New(KindObject)
	}
	if typeField(raw) == "" && !hasField(raw, "anyOf") {
		return normalizeAs(raw, KindObject)
	}
	return Normalize(raw)
}

// typeField reads the "type" keyword. A nullable union like
// ["string", "null"] resolves to the first non-"null" entry.
func typeField(raw any) string {
	v, ok := field(raw, "type")
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, entry := range t {
			if s, ok := entry.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

func inferKind(raw any) Kind {
	if name := typeField(raw); name != "" {
		k, ok := kindFromName(name)
		if !ok {
			return KindString
		}
		return k
	}
	if hasField(raw, "anyOf") {
		return KindAnyOf
	}
	if hasField(raw, "properties") {
		return KindObject
	}
	return KindString
}

func normalizeAs(raw any, kind Kind) *Node {
	n := &Node{Kind: kind}
	n.Description, _ = stringField(raw, "description")
	if def, ok := field(raw, "default"); ok {
		n.Default = def
	}

	switch kind {
	case KindObject:
		n.Properties = newProperties()
		if props, ok := field(raw, "properties"); ok && isObject(props) {
			for _, key := range fieldKeys(props) {
				child, _ := field(props, key)
				n.Properties.Set(key, Normalize(child))
			}
		}
		n.Required = stringSliceField(raw, "required")
		if n.Required == nil {
			n.Required = []string{}
		}
		if b, ok := boolField(raw, "additionalProperties"); ok {
			n.AdditionalProperties = &b
		}
	case KindArray:
		if items, ok := field(raw, "items"); ok && isObject(items) {
			n.Items = Normalize(items)
		}
		n.MinItems = intField(raw, "minItems")
		n.MaxItems = intField(raw, "maxItems")
	case KindString:
		n.MinLength = intField(raw, "minLength")
		n.MaxLength = intField(raw, "maxLength")
		n.Pattern, _ = stringField(raw, "pattern")
		n.Enum = enumField(raw)
	case KindInteger, KindNumber:
		n.Minimum = floatField(raw, "minimum")
		n.Maximum = floatField(raw, "maximum")
		if kind == KindInteger {
			n.MultipleOf = int64Field(raw, "multipleOf")
		}
	case KindAnyOf:
		alts := sliceField(raw, "anyOf")
		n.AnyOf = make([]*Node, 0, len(alts))
		for _, alt := range alts {
			n.AnyOf = append(n.AnyOf, Normalize(alt))
		}
	}

	return n
}

// enumField stringifies enum entries; non-string scalars are rendered with
// their default formatting so numeric enums still compare.
func enumField(raw any) []string {
	arr := sliceField(raw, "enum")
	if arr == nil {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		out = append(out, fmt.Sprintf("%v", v))
	}
	return out
}
