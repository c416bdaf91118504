package openapi

import (
	"fmt"
	"strings"

	"github.com/toolforge/toolforge/internal/nameutil"
	"github.com/toolforge/toolforge/internal/schema"
	"github.com/toolforge/toolforge/internal/toolspec"
)

// requestBodyArg is the synthetic argument name carrying a JSON request
// body for operations that accept one.
const requestBodyArg = "request_body"

// ToolSpecs compiles every endpoint into a tool descriptor: the merged
// parameters become input-schema properties, the request body becomes a
// request_body property, and the implementation is an apiRequest call
// against the document's base URL.
func (d *Document) ToolSpecs() []toolspec.ToolSpec {
	endpoints := d.Endpoints()
	specs := make([]toolspec.ToolSpec, 0, len(endpoints))
	for _, ep := range endpoints {
		specs = append(specs, toolSpecFor(ep))
	}
	return toolspec.Dedupe(specs)
}

func toolSpecFor(ep Endpoint) toolspec.ToolSpec {
	input := schema.New(schema.KindObject)
	for _, p := range ep.Parameters {
		input.SetProp(p.Name, p.Schema)
		if p.Required {
			input.Required = append(input.Required, p.Name)
		}
	}
	if ep.HasBody {
		body := ep.RequestBody
		if body == nil {
			body = schema.New(schema.KindObject)
		}
		if body.Description == "" {
			body.Description = "JSON request body"
		}
		input.SetProp(requestBodyArg, body)
		if ep.BodyRequired {
			input.Required = append(input.Required, requestBodyArg)
		}
	}

	desc := ep.Summary
	if desc == "" {
		desc = ep.Description
	}
	if desc == "" {
		desc = fmt.Sprintf("%s %s", ep.Method, ep.Path)
	}

	return toolspec.ToolSpec{
		Name:        nameutil.SanitizeOp(ep.OperationID),
		Description: desc,
		Input:       input,
		Impl:        implBody(ep),
	}
}

// implBody renders the Go statements for one endpoint's handler. The
// generated project provides the apiRequest helper they call into.
func implBody(ep Endpoint) string {
	var b strings.Builder

	b.WriteString(pathStatement(ep.Path))
	b.WriteByte('\n')

	queryArg := "nil"
	if params := paramsIn(ep, "query"); len(params) > 0 {
		queryArg = "query"
		b.WriteString("query := url.Values{}\n")
		for _, p := range params {
			fmt.Fprintf(&b, "if v, ok := args[%q]; ok {\n\tquery.Set(%q, fmt.Sprint(v))\n}\n", p.Name, p.Name)
		}
	}

	headersArg := "nil"
	if params := paramsIn(ep, "header"); len(params) > 0 {
		headersArg = "headers"
		b.WriteString("headers := map[string]string{}\n")
		for _, p := range params {
			fmt.Fprintf(&b, "if v, ok := args[%q]; ok {\n\theaders[%q] = fmt.Sprint(v)\n}\n", p.Name, p.Name)
		}
	}

	bodyArg := "nil"
	if ep.HasBody {
		bodyArg = "body"
		fmt.Fprintf(&b, "var body any\nif v, ok := args[%q]; ok {\n\tbody = v\n}\n", requestBodyArg)
	}

	fmt.Fprintf(&b, "return apiRequest(ctx, %q, path, %s, %s, %s)", ep.Method, queryArg, headersArg, bodyArg)
	return b.String()
}

// pathStatement renders the path expression, substituting template
// parameters like {petId} from the validated arguments.
func pathStatement(path string) string {
	if !strings.Contains(path, "{") {
		return fmt.Sprintf("path := %q", path)
	}

	format := path
	var params []string
	for {
		start := strings.Index(format, "{")
		if start < 0 {
			break
		}
		end := strings.Index(format[start:], "}")
		if end < 0 {
			break
		}
		params = append(params, format[start+1:start+end])
		format = format[:start] + "%v" + format[start+end+1:]
	}

	args := make([]string, 0, len(params))
	for _, p := range params {
		args = append(args, fmt.Sprintf("args[%q]", p))
	}
	return fmt.Sprintf("path := fmt.Sprintf(%q, %s)", format, strings.Join(args, ", "))
}

func paramsIn(ep Endpoint, location string) []Parameter {
	var out []Parameter
	for _, p := range ep.Parameters {
		if p.In == location {
			out = append(out, p)
		}
	}
	return out
}
