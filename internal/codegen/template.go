package codegen

import (
	"fmt"
	"strings"
	"text/template"
)

var templateFuncs = template.FuncMap{
	"quote":  quoteStr,
	"indent": indentLines,
}

var (
	mainTemplate  = template.Must(template.New("main.go").Funcs(templateFuncs).Parse(mainTemplateSource))
	testTemplate  = template.Must(template.New("main_test.go").Funcs(templateFuncs).Parse(testTemplateSource))
	goModTemplate = template.Must(template.New("go.mod").Parse(goModTemplateSource))
)

func quoteStr(s string) string {
	return fmt.Sprintf("%q", s)
}

// indentLines prefixes every non-empty line with n tabs, for splicing
// pre-rendered statement blocks into function bodies.
func indentLines(n int, text string) string {
	prefix := strings.Repeat("\t", n)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

const mainTemplateSource = `// Code generated by toolforge {{.ToolVersion}}. DO NOT EDIT.

// Command {{.ServerName}} is an MCP stdio server. Every tool validates its
// arguments against the schema embedded below before running.
package main

import (
{{- range .Imports}}
	{{.}}
{{- end}}
)

const serverName = {{quote .ServerName}}

// coerceEnabled turns on best-effort argument conversion before validation.
const coerceEnabled = {{.Coerce}}

// presetOverride makes pre-bound arguments replace caller values instead of
// only filling absent ones.
const presetOverride = {{.PresetHidden}}

// toolSchemas holds each tool's input schema exactly as derived at
// generation time.
var toolSchemas = map[string]string{
{{- range .Tools}}
	{{quote .Name}}: {{quote .SchemaJSON}},
{{- end}}
}

// presetArgs carries arguments bound at generation time, merged into the
// caller's arguments before validation.
var presetArgs = map[string]string{
{{- range .Tools}}
{{- if .PresetJSON}}
	{{quote .Name}}: {{quote .PresetJSON}},
{{- end}}
{{- end}}
}
{{- if .AuthCheck}}

var authCredential string
{{- end}}

func main() {
	log.SetOutput(os.Stderr)
{{- if .AuthCheck}}
{{indent 1 .AuthCheck}}
{{- end}}
{{- if .HasDB}}
	openDatabase()
{{- end}}

	s := server.NewMCPServer(serverName, {{quote .ToolVersion}})
	registerTools(s)
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func registerTools(s *server.MCPServer) {
{{- range .Tools}}
	s.AddTool(mcp.NewTool({{quote .Name}},
		mcp.WithDescription({{quote .Description}}),
{{- range .Options}}
		{{.}},
{{- end}}
	), handle({{quote .Name}}, {{.FuncName}}))
{{- end}}
{{- if .HealthCheck}}
	s.AddTool(mcp.NewTool("health_check",
		mcp.WithDescription("Report server health and tool inventory"),
	), healthCheck)
{{- end}}
}

// handle wraps a tool body with preset merging, validation, and result
// encoding. Validation failures come back as tool errors, not protocol
// errors.
func handle(name string, fn func(context.Context, map[string]any) (any, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]any{}
		for k, v := range req.GetArguments() {
			args[k] = v
		}
		if raw, ok := presetArgs[name]; ok {
			var bound map[string]any
			if err := json.Unmarshal([]byte(raw), &bound); err == nil {
				for k, v := range bound {
					if _, exists := args[k]; presetOverride || !exists {
						args[k] = v
					}
				}
			}
		}

		ok, coerced, errs := validateValue(toolSchema(name), args, coerceEnabled)
		if !ok {
			return mcp.NewToolResultError("Input validation failed: " + strings.Join(errs, "; ")), nil
		}
		if m, isMap := coerced.(map[string]any); isMap {
			args = m
		}

		out, err := fn(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.Marshal(out)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func toolSchema(name string) map[string]any {
	raw, ok := toolSchemas[name]
	if !ok {
		return map[string]any{"type": "object"}
	}
	node, err := decodeSchema(raw)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	return node
}

// decodeSchema parses a schema document keeping the declaration order of
// object properties, which plain map decoding loses. The order is recorded
// next to each properties map under the propertyOrder key.
func decodeSchema(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("schema is not an object")
	}
	return decodeSchemaNode(dec)
}

// decodeSchemaNode reads the members of a schema object whose opening brace
// has already been consumed. Keys naming child schemas (properties, items,
// anyOf) recurse; everything else is decoded as a plain JSON value.
func decodeSchemaNode(dec *json.Decoder) (map[string]any, error) {
	node := map[string]any{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch key {
		case "properties":
			d, isDelim := tok.(json.Delim)
			if !isDelim || d != '{' {
				val, err := decodeJSONValue(dec, tok)
				if err != nil {
					return nil, err
				}
				node[key] = val
				continue
			}
			props := map[string]any{}
			var order []string
			for dec.More() {
				nameTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				name, _ := nameTok.(string)
				valTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				if d, ok := valTok.(json.Delim); ok && d == '{' {
					child, err := decodeSchemaNode(dec)
					if err != nil {
						return nil, err
					}
					props[name] = child
				} else {
					val, err := decodeJSONValue(dec, valTok)
					if err != nil {
						return nil, err
					}
					props[name] = val
				}
				order = append(order, name)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			node["properties"] = props
			node["propertyOrder"] = order
		case "items":
			if d, ok := tok.(json.Delim); ok && d == '{' {
				child, err := decodeSchemaNode(dec)
				if err != nil {
					return nil, err
				}
				node[key] = child
				continue
			}
			val, err := decodeJSONValue(dec, tok)
			if err != nil {
				return nil, err
			}
			node[key] = val
		case "anyOf":
			d, isDelim := tok.(json.Delim)
			if !isDelim || d != '[' {
				val, err := decodeJSONValue(dec, tok)
				if err != nil {
					return nil, err
				}
				node[key] = val
				continue
			}
			alts := []any{}
			for dec.More() {
				altTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				if d, ok := altTok.(json.Delim); ok && d == '{' {
					alt, err := decodeSchemaNode(dec)
					if err != nil {
						return nil, err
					}
					alts = append(alts, alt)
				} else {
					val, err := decodeJSONValue(dec, altTok)
					if err != nil {
						return nil, err
					}
					alts = append(alts, val)
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			node[key] = alts
		default:
			val, err := decodeJSONValue(dec, tok)
			if err != nil {
				return nil, err
			}
			node[key] = val
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

// decodeJSONValue finishes reading one JSON value whose first token is tok.
func decodeJSONValue(dec *json.Decoder, tok json.Token) (any, error) {
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		obj := map[string]any{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			valTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			val, err := decodeJSONValue(dec, valTok)
			if err != nil {
				return nil, err
			}
			obj[key] = val
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			valTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			val, err := decodeJSONValue(dec, valTok)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
{{- if .HealthCheck}}

func healthCheck(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info := map[string]any{
		"status":          "healthy",
		"server":          serverName,
		"tools_available": len(toolSchemas),
		"auth":            {{quote .AuthKind}},
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
{{- end}}
{{- range .Tools}}

func {{.FuncName}}(ctx context.Context, args map[string]any) (any, error) {
{{indent 1 .Body}}
}
{{- end}}
{{- if .HasAPI}}

const baseURL = {{quote .BaseURL}}

// apiRequest performs one JSON call against the upstream API and decodes
// the response body when it is JSON.
func apiRequest(ctx context.Context, method, path string, query url.Values, headers map[string]string, body any) (any, error) {
	u := baseURL + path
	if query == nil {
		query = url.Values{}
	}
{{- if .AuthQueryParam}}
	query.Set({{quote .AuthQueryParam}}, authCredential)
{{- end}}
	if enc := query.Encode(); enc != "" {
		u += "?" + enc
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
{{- if .AuthHeader}}
	{{.AuthHeader}}
{{- end}}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if len(data) == 0 {
		return map[string]any{"status": resp.StatusCode}, nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return string(data), nil
	}
	return out, nil
}
{{- end}}
{{- if .HasDB}}

var db *sql.DB

func openDatabase() {
	dsn := os.Getenv({{quote .DBEnvVar}})
	if dsn == "" {
		log.Fatalf("missing required environment variable: {{.DBEnvVar}}")
	}
	var err error
	db, err = sql.Open({{quote .DBDriver}}, dsn)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
}

// dbQuery runs a SELECT and returns the rows as a list of column→value maps.
func dbQuery(ctx context.Context, query string, params ...any) (any, error) {
	rows, err := db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = vals[i]
			}
		}
		out = append(out, record)
	}
	return map[string]any{"data": out, "count": len(out)}, rows.Err()
}

func dbExec(ctx context.Context, query string, params ...any) (any, error) {
	res, err := db.ExecContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	affected, _ := res.RowsAffected()
	return map[string]any{"success": true, "rows_affected": affected}, nil
}

func dbPlaceholder(i int) string {
{{- if .DBPostgres}}
	return fmt.Sprintf("$%d", i)
{{- else}}
	_ = i
	return "?"
{{- end}}
}

func argInt(args map[string]any, key string, fallback int) int {
	switch n := args[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return fallback
}
{{- end}}

// The validator below applies the same rules the generator used when the
// schemas were derived. All outcomes are value returns; it never panics.

func validateValue(node map[string]any, value any, coerce bool) (bool, any, []string) {
	coerced, errs := checkValue(node, value, coerce)
	if !coerce {
		coerced = value
	}
	return len(errs) == 0, coerced, errs
}

func schemaKind(node map[string]any) string {
	if t, ok := node["type"].(string); ok {
		return t
	}
	if _, ok := node["anyOf"]; ok {
		return "anyOf"
	}
	if _, ok := node["properties"]; ok {
		return "object"
	}
	return "string"
}

func checkValue(node map[string]any, value any, coerce bool) (any, []string) {
	switch schemaKind(node) {
	case "object":
		return checkObjectValue(node, value, coerce)
	case "array":
		return checkArrayValue(node, value, coerce)
	case "string":
		return checkStringValue(node, value, coerce)
	case "integer":
		return checkIntegerValue(node, value, coerce)
	case "number":
		return checkNumberValue(node, value, coerce)
	case "boolean":
		return checkBooleanValue(value, coerce)
	case "anyOf":
		return checkAnyOfValue(node, value, coerce)
	}
	return value, nil
}

func checkObjectValue(node map[string]any, value any, coerce bool) (any, []string) {
	obj, ok := value.(map[string]any)
	if !ok {
		if coerce && value == nil {
			return map[string]any{}, nil
		}
		return value, []string{"Expected object type"}
	}

	var errs []string
	for _, req := range stringSlice(node["required"]) {
		if _, present := obj[req]; !present {
			errs = append(errs, "Missing required field: "+req)
		}
	}

	props, _ := node["properties"].(map[string]any)
	result := make(map[string]any, len(obj))
	for k, v := range obj {
		result[k] = v
	}

	// Schemas decoded by decodeSchema carry their declaration order, so
	// property errors come out in the same order the generator saw them.
	names, _ := node["propertyOrder"].([]string)
	if len(names) == 0 {
		names = make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	for _, name := range names {
		v, present := obj[name]
		if !present {
			continue
		}
		child, _ := props[name].(map[string]any)
		coercedVal, propErrs := checkValue(child, v, coerce)
		if len(propErrs) > 0 {
			for _, e := range propErrs {
				errs = append(errs, name+": "+e)
			}
			continue
		}
		result[name] = coercedVal
	}

	if ap, declared := node["additionalProperties"].(bool); declared && !ap {
		var extra []string
		for k := range obj {
			if _, known := props[k]; !known {
				extra = append(extra, k)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			errs = append(errs, "Additional properties not allowed: "+strings.Join(extra, ", "))
		}
	}

	return result, errs
}

func checkArrayValue(node map[string]any, value any, coerce bool) (any, []string) {
	arr, ok := value.([]any)
	if !ok {
		if !coerce {
			return value, []string{"Expected array type"}
		}
		if value == nil {
			arr = []any{}
		} else {
			arr = []any{value}
		}
	}

	items, _ := node["items"].(map[string]any)
	var errs []string
	result := make([]any, 0, len(arr))
	for i, item := range arr {
		if items == nil {
			result = append(result, item)
			continue
		}
		coercedItem, itemErrs := checkValue(items, item, coerce)
		for _, e := range itemErrs {
			errs = append(errs, fmt.Sprintf("[%d]: %s", i, e))
		}
		result = append(result, coercedItem)
	}

	if min, ok := intConstraint(node, "minItems"); ok && len(result) < min {
		errs = append(errs, fmt.Sprintf("Array has %d items, minimum is %d", len(result), min))
	}
	if max, ok := intConstraint(node, "maxItems"); ok && len(result) > max {
		errs = append(errs, fmt.Sprintf("Array has %d items, maximum is %d", len(result), max))
	}

	return result, errs
}

func checkStringValue(node map[string]any, value any, coerce bool) (any, []string) {
	s, ok := value.(string)
	if !ok {
		if value == nil {
			return value, nil
		}
		if !coerce {
			return value, []string{"Expected string type"}
		}
		s = stringifyValue(value)
	}

	var errs []string
	if min, ok := intConstraint(node, "minLength"); ok && len(s) < min {
		errs = append(errs, fmt.Sprintf("String too short, minimum length is %d", min))
	}
	if max, ok := intConstraint(node, "maxLength"); ok && len(s) > max {
		errs = append(errs, fmt.Sprintf("String too long, maximum length is %d", max))
	}
	if pattern, ok := node["pattern"].(string); ok && pattern != "" {
		re, err := regexp.Compile("^(?:" + pattern + ")")
		if err != nil || !re.MatchString(s) {
			errs = append(errs, "String does not match pattern: "+pattern)
		}
	}
	if enum := stringSlice(node["enum"]); len(enum) > 0 && !containsString(enum, s) {
		errs = append(errs, "Value must be one of: "+strings.Join(enum, ", "))
	}

	return s, errs
}

func checkIntegerValue(node map[string]any, value any, coerce bool) (any, []string) {
	if _, isBool := value.(bool); isBool {
		return value, []string{"Expected integer, got boolean"}
	}

	i, ok := toInt64(value)
	if !ok {
		if !coerce {
			return value, []string{"Expected integer type"}
		}
		s, isStr := value.(string)
		if !isStr {
			return value, []string{"Cannot convert to integer"}
		}
		parsed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return value, []string{"Cannot convert to integer"}
		}
		i = parsed
	}

	var errs []string
	if min, ok := numConstraint(node, "minimum"); ok && float64(i) < min {
		errs = append(errs, fmt.Sprintf("Value %d is below minimum %v", i, min))
	}
	if max, ok := numConstraint(node, "maximum"); ok && float64(i) > max {
		errs = append(errs, fmt.Sprintf("Value %d is above maximum %v", i, max))
	}
	if m, ok := numConstraint(node, "multipleOf"); ok && int64(m) != 0 && i%int64(m) != 0 {
		errs = append(errs, fmt.Sprintf("Value %d is not a multiple of %d", i, int64(m)))
	}

	return i, errs
}

func checkNumberValue(node map[string]any, value any, coerce bool) (any, []string) {
	if _, isBool := value.(bool); isBool {
		return value, []string{"Expected number, got boolean"}
	}

	f, ok := toFloat64(value)
	if !ok {
		if !coerce {
			return value, []string{"Expected number type"}
		}
		s, isStr := value.(string)
		if !isStr {
			return value, []string{"Cannot convert to number"}
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return value, []string{"Cannot convert to number"}
		}
		f = parsed
	}

	var errs []string
	if math.IsNaN(f) || math.IsInf(f, 0) {
		errs = append(errs, "Value must be finite")
	}
	if min, ok := numConstraint(node, "minimum"); ok && f < min {
		errs = append(errs, fmt.Sprintf("Value %v is below minimum %v", f, min))
	}
	if max, ok := numConstraint(node, "maximum"); ok && f > max {
		errs = append(errs, fmt.Sprintf("Value %v is above maximum %v", f, max))
	}

	return f, errs
}

func checkBooleanValue(value any, coerce bool) (any, []string) {
	if b, ok := value.(bool); ok {
		return b, nil
	}
	if coerce {
		switch v := value.(type) {
		case string:
			switch v {
			case "1", "true", "True", "yes", "Yes":
				return true, nil
			case "0", "false", "False", "no", "No":
				return false, nil
			}
		default:
			if f, ok := toFloat64(value); ok {
				if f == 1 {
					return true, nil
				}
				if f == 0 {
					return false, nil
				}
			}
		}
	}
	return value, []string{"Expected boolean type"}
}

func checkAnyOfValue(node map[string]any, value any, coerce bool) (any, []string) {
	alts, _ := node["anyOf"].([]any)
	for _, alt := range alts {
		altNode, ok := alt.(map[string]any)
		if !ok {
			continue
		}
		coerced, errs := checkValue(altNode, value, coerce)
		if len(errs) == 0 {
			return coerced, nil
		}
	}
	return value, []string{"Value matches none of the allowed schemas"}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), true
		}
	}
	return 0, false
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func stringifyValue(value any) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprintf("%v", value)
}

func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intConstraint(node map[string]any, key string) (int, bool) {
	f, ok := node[key].(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func numConstraint(node map[string]any, key string) (float64, bool) {
	f, ok := node[key].(float64)
	return f, ok
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
{{- if .ProductionSnippet}}

{{.ProductionSnippet}}
{{- end}}
`

const testTemplateSource = `// Code generated by toolforge {{.ToolVersion}}. DO NOT EDIT.
package main

import (
	"encoding/json"
	"testing"
)

func TestToolSchemasParse(t *testing.T) {
	for name, raw := range toolSchemas {
		var node map[string]any
		if err := json.Unmarshal([]byte(raw), &node); err != nil {
			t.Errorf("schema for %s does not parse: %v", name, err)
		}
	}
}

func TestRequiredFieldsEnforced(t *testing.T) {
	for name, raw := range toolSchemas {
		node, err := decodeSchema(raw)
		if err != nil {
			continue
		}
		if len(stringSlice(node["required"])) == 0 {
			continue
		}
		if ok, _, errs := validateValue(node, map[string]any{}, coerceEnabled); ok || len(errs) == 0 {
			t.Errorf("tool %s accepted empty arguments despite required fields", name)
		}
	}
}
`

const goModTemplateSource = `module {{.ModulePath}}

go 1.25

require (
{{- range .Requires}}
	{{.Module}} {{.Version}}
{{- end}}
)
`
