package codegen

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/toolforge/toolforge/internal/auth"
	"github.com/toolforge/toolforge/internal/database"
	"github.com/toolforge/toolforge/internal/preset"
	"github.com/toolforge/toolforge/internal/schema"
	"github.com/toolforge/toolforge/internal/toolspec"
)

func petSpecs() []toolspec.ToolSpec {
	listInput := schema.New(schema.KindObject)
	limit := schema.New(schema.KindInteger)
	limit.Description = "Max results"
	listInput.SetProp("limit", limit)

	createInput := schema.New(schema.KindObject)
	name := schema.New(schema.KindString)
	name.Description = "Pet name"
	createInput.SetProp("name", name)
	status := schema.New(schema.KindString)
	status.Enum = []string{"available", "sold"}
	createInput.SetProp("status", status)
	createInput.Required = []string{"name"}

	return []toolspec.ToolSpec{
		{
			Name:        "listpets",
			Description: "List all pets",
			Input:       listInput,
			Impl: "path := \"/pets\"\n" +
				"query := url.Values{}\n" +
				"if v, ok := args[\"limit\"]; ok {\n" +
				"\tquery.Set(\"limit\", fmt.Sprint(v))\n" +
				"}\n" +
				"return apiRequest(ctx, \"GET\", path, query, nil, nil)",
		},
		{
			Name:        "createpet",
			Description: "Create a pet",
			Input:       createInput,
			Impl: "path := \"/pets\"\n" +
				"return apiRequest(ctx, \"POST\", path, nil, nil, args)",
		},
	}
}

func mustParse(t *testing.T, filename, src string) {
	t.Helper()
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, filename, src, parser.AllErrors); err != nil {
		t.Fatalf("%s does not parse: %v\n%s", filename, err, src)
	}
}

// ------------------------------------------------------------------
// Synthesize
// ------------------------------------------------------------------

func TestSynthesizeAPIServer(t *testing.T) {
	authCfg := &auth.Config{
		Kind:       auth.KindBearer,
		SchemeName: "petstoreAuth",
		EnvVar:     "PETSTOREAUTH_TOKEN",
	}
	res, err := Synthesize(petSpecs(), authCfg, Options{
		ServerName:  "petstore",
		Version:     "0.1.0",
		BaseURL:     "https://api.example.com",
		Coerce:      true,
		HealthCheck: true,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.SyntaxErr != nil {
		t.Fatalf("generated code has syntax errors: %v\n%s", res.SyntaxErr, res.Code)
	}
	mustParse(t, "main.go", res.Code)
	mustParse(t, "main_test.go", res.TestCode)

	for _, want := range []string{
		"const serverName = \"petstore\"",
		"const coerceEnabled = true",
		"const baseURL = \"https://api.example.com\"",
		"mcp.NewTool(\"listpets\"",
		"mcp.WithNumber(\"limit\", mcp.Description(\"Max results\"))",
		"mcp.WithString(\"name\", mcp.Description(\"Pet name\"), mcp.Required())",
		"mcp.Enum(\"available\", \"sold\")",
		"handle(\"listpets\", listpetsTool)",
		"func listpetsTool(ctx context.Context, args map[string]any) (any, error)",
		"mcp.NewTool(\"health_check\"",
		"req.Header.Set(\"Authorization\", \"Bearer \"+authCredential)",
		"authCredential = os.Getenv(\"PETSTOREAUTH_TOKEN\")",
	} {
		if !strings.Contains(res.Code, want) {
			t.Errorf("generated code missing %q", want)
		}
	}

	if !strings.Contains(res.GoMod, "github.com/mark3labs/mcp-go v0.44.0") {
		t.Errorf("go.mod missing mcp-go require:\n%s", res.GoMod)
	}
	if len(res.EnvVars) != 1 || res.EnvVars[0] != "PETSTOREAUTH_TOKEN" {
		t.Errorf("EnvVars = %v, want [PETSTOREAUTH_TOKEN]", res.EnvVars)
	}
}

func TestSynthesizeStubBody(t *testing.T) {
	specs := []toolspec.ToolSpec{{
		Name:        "ping",
		Description: "Ping",
		Input:       schema.New(schema.KindObject),
	}}
	res, err := Synthesize(specs, nil, Options{ServerName: "stub", Version: "dev"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.SyntaxErr != nil {
		t.Fatalf("generated code has syntax errors: %v\n%s", res.SyntaxErr, res.Code)
	}
	if !strings.Contains(res.Code, "tool ping is not implemented") {
		t.Error("stub body not emitted for tool without an implementation")
	}
	if strings.Contains(res.Code, "apiRequest") {
		t.Error("HTTP helper emitted without any API tool")
	}
	if strings.Contains(res.Code, "openDatabase") {
		t.Error("database helper emitted without any database tool")
	}
}

func TestSynthesizeDatabaseServer(t *testing.T) {
	input := schema.New(schema.KindObject)
	id := schema.New(schema.KindInteger)
	input.SetProp("id", id)
	input.Required = []string{"id"}

	specs := []toolspec.ToolSpec{{
		Name:        "get_users",
		Description: "Get one users record by primary key",
		Input:       input,
		Impl: "query := \"SELECT * FROM users WHERE id = \" + dbPlaceholder(1)\n" +
			"return dbQuery(ctx, query, args[\"id\"])",
		Dependencies: []string{"modernc.org/sqlite"},
	}}

	res, err := Synthesize(specs, nil, Options{
		ServerName: "appdb",
		Version:    "dev",
		DBEngine:   database.EngineSQLite,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.SyntaxErr != nil {
		t.Fatalf("generated code has syntax errors: %v\n%s", res.SyntaxErr, res.Code)
	}

	for _, want := range []string{
		"_ \"modernc.org/sqlite\"",
		"sql.Open(\"sqlite\", dsn)",
		"os.Getenv(\"DATABASE_URL\")",
		"openDatabase()",
		"return \"?\"",
	} {
		if !strings.Contains(res.Code, want) {
			t.Errorf("generated code missing %q", want)
		}
	}
	if !strings.Contains(res.GoMod, "modernc.org/sqlite") {
		t.Errorf("go.mod missing sqlite driver:\n%s", res.GoMod)
	}
	found := false
	for _, env := range res.EnvVars {
		if env == "DATABASE_URL" {
			found = true
		}
	}
	if !found {
		t.Errorf("EnvVars = %v, want DATABASE_URL listed", res.EnvVars)
	}
}

func TestSynthesizePostgresPlaceholders(t *testing.T) {
	specs := []toolspec.ToolSpec{{
		Name:         "list_users",
		Description:  "List users",
		Input:        schema.New(schema.KindObject),
		Impl:         "return dbQuery(ctx, \"SELECT * FROM users\")",
		Dependencies: []string{"github.com/jackc/pgx/v5/stdlib"},
	}}
	res, err := Synthesize(specs, nil, Options{
		ServerName: "appdb",
		Version:    "dev",
		DBEngine:   database.EnginePostgres,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.Contains(res.Code, "sql.Open(\"pgx\", dsn)") {
		t.Error("postgres driver name not used")
	}
	if !strings.Contains(res.Code, "fmt.Sprintf(\"$%d\", i)") {
		t.Error("numbered placeholders not emitted for postgres")
	}
	if !strings.Contains(res.GoMod, "github.com/jackc/pgx/v5") {
		t.Errorf("go.mod missing pgx:\n%s", res.GoMod)
	}
}

func TestSynthesizeCollidingToolNames(t *testing.T) {
	input := schema.New(schema.KindObject)
	specs := []toolspec.ToolSpec{
		{Name: "x2", Description: "First", Input: input},
		{Name: "x_2", Description: "Second", Input: input},
	}
	res, err := Synthesize(specs, nil, Options{ServerName: "collide", Version: "dev"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.SyntaxErr != nil {
		t.Fatalf("generated code has syntax errors: %v\n%s", res.SyntaxErr, res.Code)
	}

	if n := strings.Count(res.Code, "func x2Tool("); n != 1 {
		t.Errorf("func x2Tool declared %d times, want 1", n)
	}
	if n := strings.Count(res.Code, "func x2Tool2("); n != 1 {
		t.Errorf("func x2Tool2 declared %d times, want 1", n)
	}
	if !strings.Contains(res.Code, "handle(\"x2\", x2Tool)") {
		t.Error("x2 not wired to its handler")
	}
	if !strings.Contains(res.Code, "handle(\"x_2\", x2Tool2)") {
		t.Error("x_2 not wired to its deduplicated handler")
	}
}

// ------------------------------------------------------------------
// Presets
// ------------------------------------------------------------------

func TestSynthesizePresetHidden(t *testing.T) {
	cfg := &preset.Config{
		Mode:   preset.ModeHidden,
		Global: preset.GlobalConfig{Params: map[string]any{"limit": 5}},
	}
	res, err := Synthesize(petSpecs(), nil, Options{
		ServerName: "petstore",
		Version:    "dev",
		BaseURL:    "https://api.example.com",
		Presets:    cfg,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.SyntaxErr != nil {
		t.Fatalf("generated code has syntax errors: %v\n%s", res.SyntaxErr, res.Code)
	}
	if !strings.Contains(res.Code, "const presetOverride = true") {
		t.Error("hidden mode should override caller arguments")
	}
	if strings.Contains(res.Code, "mcp.WithNumber(\"limit\"") {
		t.Error("hidden preset param still advertised in registration options")
	}
	if !strings.Contains(res.Code, "\"listpets\": \"{\\\"limit\\\":5}\"") {
		t.Errorf("preset args not embedded:\n%s", res.Code)
	}
}

func TestSynthesizePresetDefault(t *testing.T) {
	cfg := &preset.Config{
		Mode: preset.ModeDefault,
		Tools: map[string]preset.ToolConfig{
			"createpet": {Params: map[string]any{"status": "available"}},
		},
	}
	res, err := Synthesize(petSpecs(), nil, Options{
		ServerName: "petstore",
		Version:    "dev",
		BaseURL:    "https://api.example.com",
		Presets:    cfg,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.Contains(res.Code, "const presetOverride = false") {
		t.Error("default mode should not override caller arguments")
	}
	if !strings.Contains(res.Code, "mcp.DefaultString(\"available\")") {
		t.Error("default-mode preset value not surfaced as a schema default")
	}
	if !strings.Contains(res.Code, "mcp.WithString(\"status\"") {
		t.Error("default-mode preset param must stay advertised")
	}
}

// ------------------------------------------------------------------
// Import handling
// ------------------------------------------------------------------

func TestExtractImports(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantImports []string
		wantRest    string
	}{
		{
			name:        "no imports",
			body:        "return nil, nil",
			wantImports: nil,
			wantRest:    "return nil, nil",
		},
		{
			name:        "single line",
			body:        "import \"net/url\"\nreturn nil, nil",
			wantImports: []string{"net/url"},
			wantRest:    "return nil, nil",
		},
		{
			name:        "block with blank import",
			body:        "import (\n\t\"net/url\"\n\t_ \"modernc.org/sqlite\"\n)\nreturn nil, nil",
			wantImports: []string{"net/url", "modernc.org/sqlite"},
			wantRest:    "return nil, nil",
		},
		{
			name:        "import-looking line after code stays in body",
			body:        "x := 1\nimport \"fmt\"",
			wantImports: nil,
			wantRest:    "x := 1\nimport \"fmt\"",
		},
		{
			name:        "leading comments skipped",
			body:        "// fetch the record\nimport \"net/url\"\nreturn nil, nil",
			wantImports: []string{"net/url"},
			wantRest:    "return nil, nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imports, rest := ExtractImports(tt.body)
			if len(imports) != len(tt.wantImports) {
				t.Fatalf("imports = %v, want %v", imports, tt.wantImports)
			}
			for i := range imports {
				if imports[i] != tt.wantImports[i] {
					t.Errorf("imports[%d] = %q, want %q", i, imports[i], tt.wantImports[i])
				}
			}
			if rest != tt.wantRest {
				t.Errorf("rest = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestImportSetOrderAndBlank(t *testing.T) {
	s := NewImportSet()
	s.Add("context")
	s.Add("fmt")
	s.AddBlank("modernc.org/sqlite")
	s.Add("context") // duplicate keeps first position
	s.AddBlank("fmt") // blank add does not downgrade a named import

	want := []string{"\"context\"", "\"fmt\"", "_ \"modernc.org/sqlite\""}
	got := s.Lines()
	if len(got) != len(want) {
		t.Fatalf("Lines() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Lines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// ------------------------------------------------------------------
// Naming
// ------------------------------------------------------------------

func TestFuncName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"listpets", "listpetsTool"},
		{"list_users", "listUsersTool"},
		{"get_pets_petid", "getPetsPetidTool"},
		{"create_order_items", "createOrderItemsTool"},
	}
	for _, tt := range tests {
		if got := funcName(tt.in); got != tt.want {
			t.Errorf("funcName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ------------------------------------------------------------------
// Registration options
// ------------------------------------------------------------------

func TestRegistrationOptionKinds(t *testing.T) {
	input := schema.New(schema.KindObject)

	tags := schema.New(schema.KindArray)
	tags.Items = schema.New(schema.KindString)
	input.SetProp("tags", tags)

	input.SetProp("meta", schema.New(schema.KindObject))
	input.SetProp("dry_run", schema.New(schema.KindBoolean))

	count := schema.New(schema.KindAnyOf)
	count.AnyOf = []*schema.Node{schema.New(schema.KindInteger), schema.New(schema.KindString)}
	input.SetProp("count", count)

	want := []string{
		"mcp.WithArray(\"tags\")",
		"mcp.WithObject(\"meta\")",
		"mcp.WithBoolean(\"dry_run\")",
		"mcp.WithNumber(\"count\")",
	}
	got := registrationOptions(input, nil, nil, "sample")
	if len(got) != len(want) {
		t.Fatalf("registrationOptions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("registrationOptions[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// ------------------------------------------------------------------
// Embedded validator
// ------------------------------------------------------------------

func TestGeneratedValidatorPropertyOrder(t *testing.T) {
	res, err := Synthesize(petSpecs(), nil, Options{
		ServerName: "petstore",
		Version:    "dev",
		BaseURL:    "https://api.example.com",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	// The emitted server decodes schemas with its order-keeping decoder and
	// walks properties in declaration order, like the engine does.
	for _, want := range []string{
		"node, err := decodeSchema(raw)",
		"func decodeSchema(raw string)",
		"node[\"propertyOrder\"] = order",
		"names, _ := node[\"propertyOrder\"].([]string)",
	} {
		if !strings.Contains(res.Code, want) {
			t.Errorf("generated code missing %q", want)
		}
	}
	if !strings.Contains(res.TestCode, "decodeSchema(raw)") {
		t.Error("generated test stub does not exercise the schema decoder")
	}
}

func TestGeneratedBooleanTokens(t *testing.T) {
	res, err := Synthesize(petSpecs(), nil, Options{
		ServerName: "petstore",
		Version:    "dev",
		BaseURL:    "https://api.example.com",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.Contains(res.Code, "case \"1\", \"true\", \"True\", \"yes\", \"Yes\":") {
		t.Error("generated truthy tokens do not match the engine's fixed tuple")
	}
	if !strings.Contains(res.Code, "case \"0\", \"false\", \"False\", \"no\", \"No\":") {
		t.Error("generated falsy tokens do not match the engine's fixed tuple")
	}
	if strings.Contains(res.Code, "strings.ToLower(v)") {
		t.Error("generated boolean coercion must not widen tokens by lowercasing")
	}
}
