package toolspec

import (
	"fmt"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/toolforge/toolforge/internal/mcp"
	"github.com/toolforge/toolforge/internal/nameutil"
	"github.com/toolforge/toolforge/internal/schema"
)

// LoadFile reads tool descriptors from a JSON file produced by the
// extraction step. Accepted shapes: a bare array of descriptors, an object
// with a "tools" array, or a single descriptor object.
//
// The input is treated as pre-validated but gets the usual repairs: a
// missing name becomes tool_<n>, a missing description becomes a fixed
// placeholder, names are sanitized, schemas normalized, and dependency
// version specifiers stripped.
func LoadFile(path string) ([]ToolSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("toolspec: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes descriptor JSON. See LoadFile for the accepted shapes.
func Parse(data []byte) ([]ToolSpec, error) {
	raw, err := schema.DecodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("toolspec: %w", err)
	}

	items, err := descriptorList(raw)
	if err != nil {
		return nil, err
	}

	specs := make([]ToolSpec, 0, len(items))
	for i, item := range items {
		obj, ok := item.(*orderedmap.OrderedMap[string, any])
		if !ok {
			return nil, fmt.Errorf("toolspec: entry %d is not an object", i)
		}
		specs = append(specs, fromRaw(obj, i))
	}

	return Dedupe(specs), nil
}

func descriptorList(raw any) ([]any, error) {
	switch v := raw.(type) {
	case []any:
		return v, nil
	case *orderedmap.OrderedMap[string, any]:
		if tools, ok := v.Get("tools"); ok {
			arr, isArr := tools.([]any)
			if !isArr {
				return nil, fmt.Errorf("toolspec: \"tools\" is not an array")
			}
			return arr, nil
		}
		if _, ok := v.Get("name"); ok {
			return []any{v}, nil
		}
	}
	return nil, fmt.Errorf("toolspec: expected an array of tool descriptors")
}

func fromRaw(obj *orderedmap.OrderedMap[string, any], index int) ToolSpec {
	spec := ToolSpec{}

	if name, ok := obj.Get("name"); ok {
		if s, isStr := name.(string); isStr && s != "" {
			spec.Name = nameutil.SanitizeTool(s)
		}
	}
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("tool_%d", index+1)
	}

	if desc, ok := obj.Get("description"); ok {
		spec.Description, _ = desc.(string)
	}
	if spec.Description == "" {
		spec.Description = "No description provided"
	}

	input, ok := obj.Get("input_schema")
	if !ok {
		input, _ = obj.Get("inputSchema")
	}
	spec.Input = schema.NormalizeObject(input)

	if output, ok := obj.Get("output_schema"); ok && output != nil {
		spec.Output = schema.Normalize(output)
	}

	if hints, ok := obj.Get("implementation_hints"); ok {
		spec.Impl, _ = hints.(string)
	}

	if deps, ok := obj.Get("dependencies"); ok {
		if arr, isArr := deps.([]any); isArr {
			names := make([]string, 0, len(arr))
			for _, d := range arr {
				if s, isStr := d.(string); isStr {
					names = append(names, s)
				}
			}
			spec.Dependencies = cleanDependencies(names)
		}
	}

	return spec
}

// FromMCP converts a live server's tools/list result into descriptors, so
// an existing MCP server can be regenerated as a validated project.
func FromMCP(tools []mcp.Tool) ([]ToolSpec, error) {
	specs := make([]ToolSpec, 0, len(tools))
	for i, tool := range tools {
		name := nameutil.SanitizeTool(tool.Name)
		if tool.Name == "" {
			name = fmt.Sprintf("tool_%d", i+1)
		}

		input := schema.New(schema.KindObject)
		if len(tool.InputSchema) > 0 {
			raw, err := schema.DecodeOrdered(tool.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("toolspec: tool %s input schema: %w", tool.Name, err)
			}
			input = schema.NormalizeObject(raw)
		}

		desc := tool.Description
		if desc == "" {
			desc = "No description provided"
		}

		specs = append(specs, ToolSpec{
			Name:        name,
			Description: desc,
			Input:       input,
		})
	}
	return Dedupe(specs), nil
}
