// Package toolspec defines the canonical tool descriptor every schema
// source compiles down to, plus loaders for the descriptor-shaped JSON
// produced by the external extraction step and by live MCP servers.
package toolspec

import (
	"fmt"
	"strings"

	"github.com/toolforge/toolforge/internal/auth"
	"github.com/toolforge/toolforge/internal/schema"
)

// ToolSpec is the canonical tool descriptor. Adapters produce these;
// the synthesizer consumes them. Immutable once built.
type ToolSpec struct {
	Name         string       // normalized identifier, unique per generation run
	Description  string
	Input        *schema.Node // always kind=object
	Output       *schema.Node // optional
	Impl         string       // Go statements forming the tool body ("" → stub)
	Dependencies []string     // external-library names, first-seen order
	Auth         *auth.Config // optional auth requirement
}

// Dedupe makes tool names unique within a generation run by suffixing
// later duplicates with _2, _3, … Returns the specs in their original
// order.
func Dedupe(specs []ToolSpec) []ToolSpec {
	seen := make(map[string]int, len(specs))
	out := make([]ToolSpec, 0, len(specs))
	for _, spec := range specs {
		n := seen[spec.Name]
		seen[spec.Name] = n + 1
		if n > 0 {
			base := spec.Name
			for {
				candidate := fmt.Sprintf("%s_%d", base, n+1)
				if seen[candidate] == 0 {
					seen[candidate] = 1
					spec.Name = candidate
					break
				}
				n++
			}
		}
		out = append(out, spec)
	}
	return out
}

// cleanDependencies strips version specifiers and empty entries from a
// dependency list, keeping first-seen order.
func cleanDependencies(deps []string) []string {
	var out []string
	seen := make(map[string]bool, len(deps))
	for _, dep := range deps {
		name := dep
		for _, sep := range []string{">=", "==", "<", "@v"} {
			if idx := strings.Index(name, sep); idx >= 0 {
				name = name[:idx]
			}
		}
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
