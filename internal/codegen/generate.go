// Package codegen turns canonical tool descriptors into a standalone Go
// MCP server project: main.go with an embedded validator, a smoke test,
// and a go.mod pinning the modules the emitted code imports.
package codegen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/toolforge/toolforge/internal/auth"
	"github.com/toolforge/toolforge/internal/database"
	"github.com/toolforge/toolforge/internal/gocheck"
	"github.com/toolforge/toolforge/internal/preset"
	"github.com/toolforge/toolforge/internal/schema"
	"github.com/toolforge/toolforge/internal/toolspec"
)

// dbEnvVar is the environment variable generated servers read their DSN from.
const dbEnvVar = "DATABASE_URL"

// Options configures one generation run.
type Options struct {
	ServerName        string
	Version           string // toolforge version stamped into the header
	ModulePath        string // module path for the generated go.mod
	BaseURL           string // upstream API base URL ("" when no API tools)
	Coerce            bool
	HealthCheck       bool
	ProductionSnippet string
	Presets           *preset.Config
	DBEngine          database.Engine // set when any tool queries a database
}

// Result holds the rendered project files. Code is returned even when the
// syntax check fails, so callers can write it out for inspection.
type Result struct {
	ServerName string
	Code       string
	TestCode   string
	GoMod      string
	EnvVars    []string
	SyntaxErr  error
}

// Write materializes the project under dir, creating it if needed.
func (r *Result) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("codegen: creating output dir: %w", err)
	}
	files := map[string]string{
		"main.go":      r.Code,
		"main_test.go": r.TestCode,
		"go.mod":       r.GoMod,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("codegen: writing %s: %w", name, err)
		}
	}
	return nil
}

// Synthesize renders a complete server project from tool descriptors. The
// returned Result carries a non-nil SyntaxErr when the emitted main.go does
// not parse; the text is still returned so the problem can be inspected.
func Synthesize(specs []toolspec.ToolSpec, authCfg *auth.Config, opts Options) (*Result, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("codegen: no tools to generate")
	}
	if authCfg == nil {
		authCfg = auth.None()
	}
	if opts.ModulePath == "" {
		opts.ModulePath = "toolforge.local/" + opts.ServerName
	}

	ctx := Context{
		ServerName:        opts.ServerName,
		ToolVersion:       opts.Version,
		ModulePath:        opts.ModulePath,
		Coerce:            opts.Coerce,
		HealthCheck:       opts.HealthCheck,
		ProductionSnippet: opts.ProductionSnippet,
		AuthKind:          string(authCfg.Kind),
		AuthCheck:         authCfg.EnvCheckSnippet(),
		AuthHeader:        authCfg.HeaderSnippet(),
		AuthQueryParam:    authCfg.QueryParam(),
		BaseURL:           opts.BaseURL,
	}
	if opts.Presets != nil {
		ctx.PresetHidden = opts.Presets.Mode == preset.ModeHidden
	}

	extracted := NewImportSet()
	blanks := NewImportSet()
	usedFuncs := map[string]bool{}

	for _, spec := range specs {
		def, err := toolDef(&spec, opts, extracted)
		if err != nil {
			return nil, err
		}
		def.FuncName = uniqueFuncName(def.FuncName, usedFuncs)
		ctx.Tools = append(ctx.Tools, def)
		for _, dep := range cleanModuleDeps(spec.Dependencies) {
			blanks.AddBlank(dep)
		}
		if strings.Contains(def.Body, "apiRequest(") {
			ctx.HasAPI = true
		}
		if strings.Contains(def.Body, "dbQuery(") || strings.Contains(def.Body, "dbExec(") {
			ctx.HasDB = true
		}
	}

	if ctx.HasAPI && ctx.BaseURL == "" {
		ctx.BaseURL = "http://localhost"
	}
	if ctx.HasDB {
		ctx.DBEnvVar = dbEnvVar
		ctx.DBPostgres = opts.DBEngine == database.EnginePostgres
		if ctx.DBPostgres {
			ctx.DBDriver = "pgx"
		} else {
			ctx.DBDriver = "sqlite"
		}
	}

	ctx.Imports = assembleImports(&ctx, authCfg, extracted, blanks)
	ctx.Requires = assembleRequires(extracted, blanks)
	ctx.EnvVars = append(ctx.EnvVars, authCfg.EnvVars()...)
	if ctx.HasDB {
		ctx.EnvVars = append(ctx.EnvVars, dbEnvVar)
	}

	code, err := render(mainTemplate, &ctx)
	if err != nil {
		return nil, err
	}
	testCode, err := render(testTemplate, &ctx)
	if err != nil {
		return nil, err
	}
	goMod, err := render(goModTemplate, &ctx)
	if err != nil {
		return nil, err
	}

	return &Result{
		ServerName: opts.ServerName,
		Code:       code,
		TestCode:   testCode,
		GoMod:      goMod,
		EnvVars:    ctx.EnvVars,
		SyntaxErr:  gocheck.Source("main.go", []byte(code)),
	}, nil
}

func render(t *template.Template, ctx *Context) (string, error) {
	var buf strings.Builder
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("codegen: rendering template: %w", err)
	}
	return buf.String(), nil
}

// toolDef builds one template-ready tool: schema JSON, registration
// options, preset bindings, and the handler body with its imports peeled
// off into the shared set.
func toolDef(spec *toolspec.ToolSpec, opts Options, extracted *ImportSet) (ToolDef, error) {
	input := spec.Input
	if input == nil {
		input = schema.New(schema.KindObject)
	}

	schemaJSON, err := input.JSON()
	if err != nil {
		return ToolDef{}, fmt.Errorf("codegen: tool %s: %w", spec.Name, err)
	}

	presetJSON := ""
	var hiddenParams map[string]bool
	if opts.Presets != nil {
		bound := opts.Presets.Merge(spec.Name)
		if len(bound) > 0 {
			data, err := json.Marshal(bound)
			if err != nil {
				return ToolDef{}, fmt.Errorf("codegen: tool %s: encoding presets: %w", spec.Name, err)
			}
			presetJSON = string(data)
			if opts.Presets.Mode == preset.ModeHidden {
				hiddenParams = make(map[string]bool, len(bound))
				for name := range bound {
					hiddenParams[name] = true
				}
			}
		}
	}

	body := spec.Impl
	imports, rest := ExtractImports(body)
	for _, path := range imports {
		extracted.Add(path)
	}
	if strings.TrimSpace(rest) == "" {
		rest = fmt.Sprintf("return nil, fmt.Errorf(\"tool %s is not implemented\")", spec.Name)
	}

	desc := spec.Description
	if desc == "" {
		desc = "Tool " + spec.Name
	}

	return ToolDef{
		Name:        spec.Name,
		FuncName:    funcName(spec.Name),
		Description: desc,
		Options:     registrationOptions(input, hiddenParams, opts.Presets, spec.Name),
		SchemaJSON:  schemaJSON,
		PresetJSON:  presetJSON,
		Body:        rest,
	}, nil
}

// registrationOptions renders the mcp.With* expressions advertising a
// tool's parameters. Hidden preset params are dropped from the advertised
// schema; default-mode presets surface as schema defaults.
func registrationOptions(input *schema.Node, hidden map[string]bool, presets *preset.Config, toolName string) []string {
	var defaults map[string]any
	if presets != nil && presets.Mode == preset.ModeDefault {
		defaults = presets.Merge(toolName)
	}

	var options []string
	for _, name := range input.PropNames() {
		if hidden[name] {
			continue
		}
		prop, _ := input.Prop(name)
		effective := prop
		if prop.Kind == schema.KindAnyOf && len(prop.AnyOf) > 0 {
			effective = prop.AnyOf[0]
		}
		goType := schema.GoType(effective)

		var args []string
		if prop.Description != "" {
			args = append(args, fmt.Sprintf("mcp.Description(%q)", prop.Description))
		}
		if input.IsRequired(name) {
			args = append(args, "mcp.Required()")
		}
		if goType == "string" && len(prop.Enum) > 0 {
			quoted := make([]string, len(prop.Enum))
			for i, v := range prop.Enum {
				quoted[i] = fmt.Sprintf("%q", v)
			}
			args = append(args, "mcp.Enum("+strings.Join(quoted, ", ")+")")
		}

		def := prop.Default
		if v, ok := defaults[name]; ok {
			def = v
		}
		if opt := defaultOption(goType, def); opt != "" {
			args = append(args, opt)
		}

		fn := optionFunc(goType)
		expr := fmt.Sprintf("mcp.%s(%q", fn, name)
		if len(args) > 0 {
			expr += ", " + strings.Join(args, ", ")
		}
		expr += ")"
		options = append(options, expr)
	}
	return options
}

// optionFunc maps a property's Go type, as fixed by schema.GoType, onto the
// mcp registration option advertising it. Unresolvable types ("any") fall
// back to string, the loosest surface.
func optionFunc(goType string) string {
	switch {
	case goType == "map[string]any":
		return "WithObject"
	case strings.HasPrefix(goType, "[]"):
		return "WithArray"
	case goType == "int64", goType == "float64":
		return "WithNumber"
	case goType == "bool":
		return "WithBoolean"
	}
	return "WithString"
}

// defaultOption renders the mcp default option for a value, when the value
// fits the property's Go type. Composite defaults are not advertised.
func defaultOption(goType string, def any) string {
	if def == nil {
		return ""
	}
	switch goType {
	case "string":
		if s, ok := def.(string); ok {
			return fmt.Sprintf("mcp.DefaultString(%q)", s)
		}
	case "int64", "float64":
		switch v := def.(type) {
		case int:
			return fmt.Sprintf("mcp.DefaultNumber(%d)", v)
		case int64:
			return fmt.Sprintf("mcp.DefaultNumber(%d)", v)
		case float64:
			return fmt.Sprintf("mcp.DefaultNumber(%v)", v)
		}
	case "bool":
		if b, ok := def.(bool); ok {
			return fmt.Sprintf("mcp.DefaultBool(%t)", b)
		}
	}
	return ""
}

// funcName derives the handler identifier: snake_case tool name to
// lowerCamel plus a Tool suffix, so list_users becomes listUsersTool.
func funcName(toolName string) string {
	parts := strings.Split(toolName, "_")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(strings.ToLower(part))
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	if b.Len() == 0 {
		b.WriteString("unnamed")
	}
	b.WriteString("Tool")
	name := b.String()
	if name[0] >= '0' && name[0] <= '9' {
		name = "t" + name
	}
	return name
}

// uniqueFuncName suffixes a counter when distinct tool names collapse to
// the same identifier (x2 and x_2 both camel to x2Tool).
func uniqueFuncName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s%d", name, n)
	}
	used[candidate] = true
	return candidate
}

// assembleImports builds the generated import block: stdlib first in a
// fixed order, then the MCP SDK, then imports lifted out of tool bodies,
// then dependency drivers as blank imports.
func assembleImports(ctx *Context, authCfg *auth.Config, extracted, blanks *ImportSet) []string {
	set := NewImportSet()

	if ctx.HasAPI {
		set.Add("bytes")
	}
	set.Add("context")
	if ctx.HasDB {
		set.Add("database/sql")
	}
	if authCfg.Kind == auth.KindBasic && ctx.HasAPI {
		set.Add("encoding/base64")
	}
	set.Add("encoding/json")
	set.Add("fmt")
	if ctx.HasAPI {
		set.Add("io")
	}
	set.Add("log")
	set.Add("math")
	if ctx.HasAPI {
		set.Add("net/http")
		set.Add("net/url")
	}
	set.Add("os")
	set.Add("regexp")
	set.Add("sort")
	set.Add("strconv")
	set.Add("strings")
	if ctx.HealthCheck {
		set.Add("time")
	}

	set.Add("github.com/mark3labs/mcp-go/mcp")
	set.Add("github.com/mark3labs/mcp-go/server")

	for pair := extracted.paths.Oldest(); pair != nil; pair = pair.Next() {
		set.Add(pair.Key)
	}
	for pair := blanks.paths.Oldest(); pair != nil; pair = pair.Next() {
		set.AddBlank(pair.Key)
	}

	return set.Lines()
}

// assembleRequires maps the third-party import surface back to pinned
// require lines. The MCP SDK is always present; anything not in the known
// table is left for go mod tidy.
func assembleRequires(extracted, blanks *ImportSet) []Require {
	var requires []Require
	seen := map[string]bool{}
	add := func(path string) {
		req, ok := moduleFor(path)
		if !ok || seen[req.Module] {
			return
		}
		seen[req.Module] = true
		requires = append(requires, req)
	}

	add("github.com/mark3labs/mcp-go")
	for pair := extracted.paths.Oldest(); pair != nil; pair = pair.Next() {
		add(pair.Key)
	}
	for pair := blanks.paths.Oldest(); pair != nil; pair = pair.Next() {
		add(pair.Key)
	}
	return requires
}

// cleanModuleDeps keeps only dependencies that look like Go import paths.
// Extracted descriptors may carry package names from other ecosystems;
// those are ignored rather than guessed at.
func cleanModuleDeps(deps []string) []string {
	var out []string
	for _, dep := range deps {
		if isModulePath(dep) {
			out = append(out, dep)
		}
	}
	return out
}
