// Package nameutil normalizes the names flowing through generation: tool,
// operation, and table identifiers, kebab-case server names, and server
// names inferred from URLs, commands, and database paths.
package nameutil

import "strings"

// Placeholder is the identifier used when sanitization leaves nothing.
const Placeholder = "unnamed_tool"

// SanitizeTool normalizes an extracted tool name into a safe identifier.
// Names starting with a digit gain a "tool_" prefix.
func SanitizeTool(name string) string {
	return sanitize(name, "tool_")
}

// SanitizeOp normalizes an operationId into a safe identifier. Names
// starting with a digit gain an "op_" prefix.
func SanitizeOp(name string) string {
	return sanitize(name, "op_")
}

// SanitizeTable normalizes a table or column name into a safe identifier.
// Names starting with a digit gain a "t_" prefix.
func SanitizeTable(name string) string {
	return sanitize(name, "t_")
}

// sanitize lowercases the input, collapses every run of non-alphanumeric
// characters into a single underscore, and trims underscores from the ends.
// A leading digit gets the given prefix; an empty result becomes the
// placeholder.
func sanitize(name, prefix string) string {
	name = strings.ToLower(name)

	var b strings.Builder
	pendingSep := false
	for _, r := range name {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}

	out := b.String()
	if out == "" {
		return Placeholder
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = prefix + out
	}
	return out
}
