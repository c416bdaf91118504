package codegen

import "strings"

// knownModules pins versions for the modules generated projects commonly
// import, so the emitted go.mod builds without a resolution step. Unknown
// modules are left for go mod tidy during compilation.
var knownModules = []Require{
	{"github.com/mark3labs/mcp-go", "v0.44.0"},
	{"github.com/jackc/pgx/v5", "v5.8.0"},
	{"modernc.org/sqlite", "v1.34.5"},
	{"gopkg.in/yaml.v3", "v3.0.1"},
	{"github.com/wk8/go-ordered-map/v2", "v2.1.8"},
	{"golang.org/x/oauth2", "v0.35.0"},
	{"github.com/getkin/kin-openapi", "v0.133.0"},
	{"github.com/spf13/cobra", "v1.10.2"},
	{"github.com/google/uuid", "v1.6.0"},
	{"github.com/gorilla/websocket", "v1.5.3"},
	{"golang.org/x/sync", "v0.17.0"},
	{"golang.org/x/net", "v0.46.0"},
}

// moduleFor maps an import path to its pinned module, or ok=false when the
// module is not in the known table.
func moduleFor(importPath string) (Require, bool) {
	for _, req := range knownModules {
		if importPath == req.Module || strings.HasPrefix(importPath, req.Module+"/") {
			return req, true
		}
	}
	return Require{}, false
}

// isModulePath reports whether a dependency name looks like an importable
// Go module path rather than a bare library name from another ecosystem.
func isModulePath(dep string) bool {
	first, _, found := strings.Cut(dep, "/")
	return found && strings.Contains(first, ".")
}
