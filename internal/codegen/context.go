package codegen

// Context holds everything the generated-server templates consume. It is
// assembled once per generation run by Synthesize.
type Context struct {
	ServerName   string
	ToolVersion  string // toolforge version for the header comment
	ModulePath   string // generated project's module path
	Tools        []ToolDef
	Imports      []string // rendered import lines, first-seen order
	EnvVars      []string
	Coerce       bool
	HealthCheck  bool
	PresetHidden bool // hidden presets override caller args

	// Auth wiring snippets, empty when kind is none.
	AuthKind       string
	AuthCheck      string
	AuthHeader     string
	AuthQueryParam string

	// HTTP helper, emitted when any tool calls apiRequest.
	HasAPI  bool
	BaseURL string

	// Database helpers, emitted when any tool calls dbQuery/dbExec.
	HasDB      bool
	DBDriver   string // driver name for sql.Open
	DBEnvVar   string
	DBPostgres bool // numbered placeholders

	ProductionSnippet string
	Requires          []Require // generated go.mod require entries
}

// ToolDef is one tool as the templates see it: registration options,
// embedded schema, pre-bound args, and the handler body, all pre-rendered.
type ToolDef struct {
	Name        string
	FuncName    string // handler function identifier, e.g. listpetsTool
	Description string
	Options     []string // mcp.With* option expressions
	SchemaJSON  string   // canonical input schema, embedded verbatim
	PresetJSON  string   // pre-bound args JSON, "" when none
	Body        string   // handler statements
}

// Require is one require line of the generated go.mod.
type Require struct {
	Module  string
	Version string
}
