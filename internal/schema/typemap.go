package schema

// GoType maps a schema node to the Go type its values take in generated
// code.
//
// The table is fixed:
//   - string → string
//   - integer → int64
//   - number → float64
//   - boolean → bool
//   - array → []T from items ([]string when items is absent)
//   - object → map[string]any
//   - anyOf → any
func GoType(n *Node) string {
	if n == nil {
		return "any"
	}
	switch n.Kind {
	case KindString:
		return "string"
	case KindInteger:
		return "int64"
	case KindNumber:
		return "float64"
	case KindBoolean:
		return "bool"
	case KindArray:
		if n.Items == nil {
			return "[]string"
		}
		return "[]" + GoType(n.Items)
	case KindObject:
		return "map[string]any"
	case KindAnyOf:
		return "any"
	}
	return "string"
}
