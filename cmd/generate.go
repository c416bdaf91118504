package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolforge/toolforge/internal/auth"
	"github.com/toolforge/toolforge/internal/codegen"
	"github.com/toolforge/toolforge/internal/compile"
	"github.com/toolforge/toolforge/internal/database"
	"github.com/toolforge/toolforge/internal/gocheck"
	"github.com/toolforge/toolforge/internal/mcp"
	"github.com/toolforge/toolforge/internal/nameutil"
	"github.com/toolforge/toolforge/internal/openapi"
	"github.com/toolforge/toolforge/internal/preset"
	"github.com/toolforge/toolforge/internal/toolfilter"
	"github.com/toolforge/toolforge/internal/toolspec"
)

var (
	flagOpenAPI           string
	flagDatabase          string
	flagDBSchema          string
	flagSpecs             string
	flagURL               string
	flagStdio             string
	flagName              string
	flagOutput            string
	flagBaseURL           string
	flagIncludeTools      string
	flagExcludeTools      string
	flagPreset            string
	flagSet               []string
	flagSetTool           []string
	flagPresetMode        string
	flagSnippets          []string
	flagNoHealthCheck     bool
	flagNoCoerce          bool
	flagCompile           bool
	flagPlatform          string
	flagEnv               []string
	flagAuthToken         string
	flagOAuthTokenURL     string
	flagOAuthClientID     string
	flagOAuthClientSecret string
	flagSaveCredentials   bool
	flagTimeout           int
	flagVerbose           bool
	flagQuiet             bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an MCP server project from a schema source",
	Long: `Generate a Go MCP server project from a schema source.

toolforge reads one source — an OpenAPI document, a relational database,
a tool-spec JSON file, or a live MCP server — derives one tool per
operation, and writes a server project whose tools validate their
arguments against the embedded schemas before running.

Examples:
  # From an OpenAPI document
  toolforge generate --openapi petstore.yaml

  # From a database (CRUD tools per table)
  toolforge generate --database postgres://localhost/app --db-schema public

  # From extracted tool specs
  toolforge generate --specs tools.json --name mytools

  # Regenerate from a live MCP server
  toolforge generate --url https://mcp.example.com/mcp --auth-token $TOKEN

  # Pin arguments and compile
  toolforge generate --openapi api.yaml --set org=acme --compile`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&flagOpenAPI, "openapi", "", "path to an OpenAPI 2.x/3.x document (JSON or YAML)")
	f.StringVar(&flagDatabase, "database", "", "database DSN (postgres:// URL or SQLite file path)")
	f.StringVar(&flagDBSchema, "db-schema", "public", "PostgreSQL schema to introspect")
	f.StringVar(&flagSpecs, "specs", "", "path to a tool-spec JSON file")
	f.StringVar(&flagURL, "url", "", "streamable HTTP URL of an MCP server to import")
	f.StringVar(&flagStdio, "stdio", "", "shell command spawning a local MCP server to import")
	f.StringVar(&flagName, "name", "", "override the auto-inferred server name")
	f.StringVar(&flagOutput, "output", "./out/", "directory where the generated project is written")
	f.StringVar(&flagBaseURL, "base-url", "", "override the upstream API base URL")
	f.StringVar(&flagIncludeTools, "include-tools", "", "only include these tools (comma-separated)")
	f.StringVar(&flagExcludeTools, "exclude-tools", "", "exclude these tools (comma-separated)")
	f.StringVar(&flagPreset, "preset", "", "JSON file pinning tool arguments")
	f.StringArrayVar(&flagSet, "set", nil, "pin a global argument (key=value, repeatable)")
	f.StringArrayVar(&flagSetTool, "set-tool", nil, "pin a per-tool argument (tool.key=value, repeatable)")
	f.StringVar(&flagPresetMode, "preset-mode", "", "how pinned arguments surface: hidden or default")
	f.StringArrayVar(&flagSnippets, "production-snippet", nil, "file with Go text spliced into the generated server (repeatable)")
	f.BoolVar(&flagNoHealthCheck, "no-health-check", false, "omit the health_check tool")
	f.BoolVar(&flagNoCoerce, "no-coerce", false, "disable argument coercion in the generated server")
	f.BoolVar(&flagCompile, "compile", false, "compile the generated project after writing it")
	f.StringVar(&flagPlatform, "platform", runtime.GOOS+"/"+runtime.GOARCH, "comma-separated GOOS/GOARCH pairs or 'all' (with --compile)")
	f.StringSliceVar(&flagEnv, "env", nil, "environment variables for stdio import and smoke tests (KEY=VALUE, repeatable)")
	f.StringVar(&flagAuthToken, "auth-token", "", "bearer token for authenticated MCP import sources")
	f.StringVar(&flagOAuthTokenURL, "oauth-token-url", "", "OAuth2 token endpoint for client-credentials MCP import")
	f.StringVar(&flagOAuthClientID, "oauth-client-id", "", "OAuth2 client ID")
	f.StringVar(&flagOAuthClientSecret, "oauth-client-secret", "", "OAuth2 client secret")
	f.BoolVar(&flagSaveCredentials, "save-credentials", false, "persist the import auth token to the credentials file")
	f.IntVar(&flagTimeout, "timeout", 30000, "timeout in milliseconds for MCP import")
	f.BoolVar(&flagVerbose, "verbose", false, "show detailed progress during generation")
	f.BoolVar(&flagQuiet, "quiet", false, "suppress all output except errors")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}
	logger := newLogger()

	ctx := context.Background()

	source, err := loadSource(ctx, logger)
	if err != nil {
		return err
	}

	include := toolfilter.ParseToolList(flagIncludeTools)
	exclude := toolfilter.ParseToolList(flagExcludeTools)
	specs, err := toolfilter.FilterTools(source.specs, include, exclude)
	if err != nil {
		return err
	}
	if len(include) > 0 || len(exclude) > 0 {
		logger.Debug("filtered tools", "count", len(specs))
	}

	presets, err := loadPresets()
	if err != nil {
		return err
	}

	snippet, err := loadSnippets()
	if err != nil {
		return err
	}

	serverName := flagName
	if serverName == "" {
		serverName = source.name
	}
	if serverName == "" {
		serverName = "mcp-server"
	}

	baseURL := flagBaseURL
	if baseURL == "" {
		baseURL = source.baseURL
	}

	result, err := codegen.Synthesize(specs, source.auth, codegen.Options{
		ServerName:        serverName,
		Version:           appVersion,
		BaseURL:           baseURL,
		Coerce:            !flagNoCoerce,
		HealthCheck:       !flagNoHealthCheck,
		ProductionSnippet: snippet,
		Presets:           presets,
		DBEngine:          source.dbEngine,
	})
	if err != nil {
		return err
	}

	projectDir := filepath.Join(flagOutput, serverName)
	if err := result.Write(projectDir); err != nil {
		return err
	}
	if result.SyntaxErr != nil {
		return fmt.Errorf("%s: %s (project written to %s for inspection)", serverName, result.SyntaxErr, projectDir)
	}
	logger.Debug("project written", "dir", projectDir)

	if !flagQuiet {
		printSummary(serverName, projectDir, specs, result.EnvVars)
	}

	if flagCompile {
		return compileProject(projectDir, serverName, result.EnvVars)
	}
	return nil
}

// sourceResult is what any of the four schema sources produces: the tool
// descriptors plus the source-derived defaults the synthesizer needs.
type sourceResult struct {
	specs    []toolspec.ToolSpec
	auth     *auth.Config
	name     string
	baseURL  string
	dbEngine database.Engine
}

func loadSource(ctx context.Context, logger *slog.Logger) (*sourceResult, error) {
	switch {
	case flagOpenAPI != "":
		return loadOpenAPI(ctx, logger)
	case flagDatabase != "":
		return loadDatabase(ctx, logger)
	case flagSpecs != "":
		specs, err := toolspec.LoadFile(flagSpecs)
		if err != nil {
			return nil, err
		}
		if len(specs) == 0 {
			return nil, fmt.Errorf("%s contains no tool descriptors", flagSpecs)
		}
		return &sourceResult{specs: specs, name: nameutil.FromPath(flagSpecs)}, nil
	default:
		return loadMCP(ctx, logger)
	}
}

func loadOpenAPI(ctx context.Context, logger *slog.Logger) (*sourceResult, error) {
	doc, err := openapi.Load(flagOpenAPI)
	if err != nil {
		return nil, err
	}

	for _, warning := range doc.Lint(ctx) {
		logger.Warn(warning)
	}

	specs := doc.ToolSpecs()
	if len(specs) == 0 {
		return nil, fmt.Errorf("%s declares no operations", flagOpenAPI)
	}

	name := nameutil.FromTitle(doc.Title())
	if name == "" {
		name = nameutil.FromPath(flagOpenAPI)
	}

	return &sourceResult{
		specs:   specs,
		auth:    doc.AuthConfig(),
		name:    name,
		baseURL: doc.BaseURL(),
	}, nil
}

func loadDatabase(ctx context.Context, logger *slog.Logger) (*sourceResult, error) {
	intr, err := database.Open(flagDatabase, flagDBSchema)
	if err != nil {
		return nil, err
	}
	if err := intr.Connect(ctx); err != nil {
		return nil, err
	}
	defer intr.Close()

	tables, err := intr.Tables(ctx)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables found in %s", flagDatabase)
	}
	logger.Debug("introspected database", "tables", len(tables))

	engine := database.DetectEngine(flagDatabase)
	return &sourceResult{
		specs:    database.Tools(engine, tables),
		name:     nameutil.FromDSN(flagDatabase),
		dbEngine: engine,
	}, nil
}

func loadMCP(ctx context.Context, logger *slog.Logger) (*sourceResult, error) {
	token, err := importToken(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" && flagStdio != "" {
		logger.Warn("--auth-token is ignored for stdio servers; use --env to pass credentials")
	}

	transport, target, err := createTransport(token)
	if err != nil {
		return nil, err
	}

	client := mcp.NewClient(transport)
	defer client.Close()

	timeout := time.Duration(flagTimeout) * time.Millisecond
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug("performing MCP handshake", "target", target)
	if _, err := client.Initialize(tctx, "toolforge", appVersion); err != nil {
		if tctx.Err() != nil {
			return nil, fmt.Errorf("MCP server did not respond within %dms", flagTimeout)
		}
		return nil, fmt.Errorf("MCP server at %s did not complete initialization handshake", target)
	}

	tools, err := client.ListTools(tctx)
	if err != nil {
		if tctx.Err() != nil {
			return nil, fmt.Errorf("MCP server did not respond within %dms", flagTimeout)
		}
		return nil, fmt.Errorf("failed to connect to MCP server at %s: %s", target, err)
	}
	if len(tools) == 0 {
		return nil, fmt.Errorf("MCP server returned no tools")
	}
	logger.Debug("discovered tools", "count", len(tools))

	if flagSaveCredentials && token != "" && flagURL != "" {
		if path := auth.DefaultCredentialsPath(); path != "" {
			creds, loadErr := auth.LoadCredentials(path)
			if loadErr == nil {
				auth.SetToken(creds, flagURL, token)
				if saveErr := auth.SaveCredentials(path, creds); saveErr != nil {
					logger.Warn("could not save credentials", "err", saveErr)
				}
			}
		}
	}

	specs, err := toolspec.FromMCP(tools)
	if err != nil {
		return nil, err
	}

	isURL := flagURL != ""
	source := flagURL
	if !isURL {
		source = flagStdio
	}
	return &sourceResult{
		specs: specs,
		name:  nameutil.InferName(source, isURL),
	}, nil
}

// importToken resolves the credential used to talk to an MCP import
// source: client-credentials grant when an OAuth token URL is given,
// otherwise flag, env var, or the credentials file.
func importToken(ctx context.Context) (string, error) {
	if flagOAuthTokenURL != "" {
		return auth.ClientCredentialsToken(ctx, flagURL, flagOAuthTokenURL, flagOAuthClientID, flagOAuthClientSecret, nil)
	}
	return auth.LookupToken(flagAuthToken, flagURL), nil
}

func createTransport(token string) (mcp.Transport, string, error) {
	if flagURL != "" {
		return mcp.NewHTTPTransport(flagURL, token), flagURL, nil
	}

	parts, err := nameutil.SplitCommand(flagStdio)
	if err != nil {
		return nil, "", fmt.Errorf("invalid --stdio command: %s", err)
	}
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("--stdio command is empty")
	}

	transport := mcp.NewStdioTransport(parts[0], parts[1:], flagEnv)
	if err := transport.Start(); err != nil {
		return nil, "", fmt.Errorf("failed to connect to MCP server at %s: %s", flagStdio, err)
	}
	return transport, flagStdio, nil
}

func loadPresets() (*preset.Config, error) {
	var cfg *preset.Config
	if flagPreset != "" {
		loaded, err := preset.Load(flagPreset)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cfg == nil && len(flagSet) == 0 && len(flagSetTool) == 0 && flagPresetMode == "" {
		return nil, nil
	}
	return preset.MergeOverrides(cfg, flagSet, flagSetTool, flagPresetMode)
}

func loadSnippets() (string, error) {
	var blocks []string
	for _, path := range flagSnippets {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading --production-snippet %s: %w", path, err)
		}
		blocks = append(blocks, strings.TrimRight(string(data), "\n"))
	}
	return strings.Join(blocks, "\n\n"), nil
}

func compileProject(projectDir, serverName string, envVars []string) error {
	if _, err := gocheck.Check(); err != nil {
		return err
	}
	if err := compile.Tidy(projectDir); err != nil {
		return err
	}

	platforms, err := compile.ParsePlatforms(flagPlatform)
	if err != nil {
		return err
	}

	multi := len(platforms) > 1
	goos, goarch := compile.CurrentPlatform()
	for _, p := range platforms {
		binary, err := compile.Compile(projectDir, flagOutput, serverName, p, multi)
		if err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Printf("Built %s\n", binary)
		}
		// Smoke-test only binaries runnable on this machine, and only
		// when the required environment is supplied.
		if p.GOOS == goos && p.GOARCH == goarch && envSatisfied(envVars) {
			if err := compile.SmokeTest(binary, flagEnv); err != nil {
				return err
			}
		}
	}
	return nil
}

// envSatisfied reports whether every required variable is present in the
// process environment or the --env overrides.
func envSatisfied(required []string) bool {
	for _, name := range required {
		if os.Getenv(name) != "" {
			continue
		}
		found := false
		for _, entry := range flagEnv {
			if strings.HasPrefix(entry, name+"=") {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func printSummary(serverName, projectDir string, specs []toolspec.ToolSpec, envVars []string) {
	fmt.Printf("Generated %d tools into %s\n", len(specs), projectDir)
	fmt.Printf("Server name: %s\n", serverName)
	fmt.Println()
	fmt.Println("Tools:")
	for _, s := range specs {
		desc := s.Description
		if len(desc) > 72 {
			desc = desc[:69] + "..."
		}
		if desc != "" {
			fmt.Printf("  - %s: %s\n", s.Name, desc)
		} else {
			fmt.Printf("  - %s\n", s.Name)
		}
	}
	if len(envVars) > 0 {
		fmt.Println()
		fmt.Println("Required environment variables:")
		for _, v := range envVars {
			fmt.Printf("  - %s\n", v)
		}
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	if flagQuiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func validateFlags() error {
	sources := 0
	for _, v := range []string{flagOpenAPI, flagDatabase, flagSpecs, flagURL, flagStdio} {
		if v != "" {
			sources++
		}
	}
	if sources == 0 {
		return fmt.Errorf("provide a schema source: --openapi, --database, --specs, --url, or --stdio")
	}
	if sources > 1 {
		return fmt.Errorf("--openapi, --database, --specs, --url, and --stdio are mutually exclusive")
	}

	if flagIncludeTools != "" && flagExcludeTools != "" {
		return fmt.Errorf("--include-tools and --exclude-tools cannot be used together")
	}
	if flagVerbose && flagQuiet {
		return fmt.Errorf("--verbose and --quiet cannot be used together")
	}
	if flagOAuthTokenURL != "" && (flagOAuthClientID == "" || flagOAuthClientSecret == "") {
		return fmt.Errorf("--oauth-token-url requires --oauth-client-id and --oauth-client-secret")
	}

	for _, env := range flagEnv {
		if !strings.Contains(env, "=") {
			return fmt.Errorf("invalid --env format %q: expected KEY=VALUE", env)
		}
	}

	return nil
}
