package openapi

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/toolforge/toolforge/internal/schema"
)

var httpMethods = []string{"get", "post", "put", "patch", "delete"}

// Parameter is one operation parameter after $ref resolution.
type Parameter struct {
	Name        string
	In          string // "query", "path", "header", or "cookie"
	Required    bool
	Description string
	Schema      *schema.Node
}

// Endpoint is one path+method pair with its merged parameter list.
type Endpoint struct {
	Path        string
	Method      string // upper-case HTTP verb
	OperationID string
	Summary     string
	Description string
	Parameters  []Parameter
	RequestBody  *schema.Node // JSON body schema, nil when the operation has none
	HasBody      bool
	BodyRequired bool
}

// Endpoints walks the paths object in declaration order and returns one
// Endpoint per operation. Path-level parameters come before operation-level
// ones, and unresolvable $refs are skipped rather than failing the run.
func (d *Document) Endpoints() []Endpoint {
	paths, ok := getMap(d.root, "paths")
	if !ok {
		return nil
	}

	var endpoints []Endpoint
	for pair := paths.Oldest(); pair != nil; pair = pair.Next() {
		path := pair.Key
		item, ok := d.resolveRef(pair.Value).(*orderedmap.OrderedMap[string, any])
		if !ok {
			continue
		}

		pathParams, _ := get(item, "parameters")

		for _, method := range httpMethods {
			op, ok := getMap(item, method)
			if !ok {
				continue
			}
			endpoints = append(endpoints, d.endpoint(path, method, op, pathParams))
		}
	}
	return endpoints
}

func (d *Document) endpoint(path, method string, op *orderedmap.OrderedMap[string, any], pathParams any) Endpoint {
	ep := Endpoint{
		Path:   path,
		Method: strings.ToUpper(method),
	}
	ep.Summary, _ = getString(op, "summary")
	ep.Description, _ = getString(op, "description")

	ep.OperationID, _ = getString(op, "operationId")
	if ep.OperationID == "" {
		ep.OperationID = synthesizeOperationID(method, path)
	}

	var raw []any
	if arr, ok := pathParams.([]any); ok {
		raw = append(raw, arr...)
	}
	if opParams, ok := get(op, "parameters"); ok {
		if arr, isArr := opParams.([]any); isArr {
			raw = append(raw, arr...)
		}
	}
	for _, entry := range raw {
		param, ok := d.resolveRef(entry).(*orderedmap.OrderedMap[string, any])
		if !ok {
			continue
		}
		p, ok := d.parameter(param)
		if !ok {
			continue
		}
		if p.In == "body" {
			// Swagger 2.x carries the request body as a parameter.
			ep.RequestBody = p.Schema
			ep.HasBody = true
			ep.BodyRequired = p.Required
			continue
		}
		ep.Parameters = append(ep.Parameters, p)
	}

	if body, ok := get(op, "requestBody"); ok {
		d.requestBody(&ep, body)
	}

	return ep
}

func (d *Document) parameter(param *orderedmap.OrderedMap[string, any]) (Parameter, bool) {
	name, _ := getString(param, "name")
	if name == "" {
		return Parameter{}, false
	}
	p := Parameter{
		Name:     name,
		Required: getBool(param, "required"),
	}
	p.In, _ = getString(param, "in")
	p.Description, _ = getString(param, "description")

	if s, ok := get(param, "schema"); ok {
		p.Schema = schema.Normalize(d.resolveRef(s))
	} else {
		// Swagger 2.x inlines type keywords on the parameter itself.
		p.Schema = schema.Normalize(param)
	}
	if p.Description != "" {
		p.Schema.Description = p.Description
	}
	return p, true
}

func (d *Document) requestBody(ep *Endpoint, body any) {
	rb, ok := d.resolveRef(body).(*orderedmap.OrderedMap[string, any])
	if !ok {
		return
	}
	content, ok := getMap(rb, "content")
	if !ok {
		return
	}
	media, ok := getMap(content, "application/json")
	if !ok {
		return
	}
	ep.HasBody = true
	ep.BodyRequired = getBool(rb, "required")
	if s, ok := get(media, "schema"); ok {
		ep.RequestBody = schema.Normalize(d.resolveRef(s))
	}
}

// synthesizeOperationID builds an identifier for operations that declare
// none: the method plus the path with slashes as underscores and the
// template braces stripped, e.g. get_pets_petId for GET /pets/{petId}.
func synthesizeOperationID(method, path string) string {
	p := strings.ReplaceAll(path, "/", "_")
	p = strings.ReplaceAll(p, "{", "")
	p = strings.ReplaceAll(p, "}", "")
	return method + p
}
