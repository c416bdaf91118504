// Package openapi extracts endpoints, auth configuration, and tool
// descriptors from OpenAPI 3.x and Swagger 2.x documents.
package openapi

import (
	"fmt"
	"os"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Document is a decoded OpenAPI document. The underlying tree preserves
// key declaration order, which makes security-scheme selection and
// property ordering deterministic.
type Document struct {
	raw  []byte
	root *orderedmap.OrderedMap[string, any]
}

// Load reads and parses an OpenAPI document from a JSON or YAML file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: parsing %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes an OpenAPI document. YAML is a superset of JSON, so one
// decoder handles both formats.
func Parse(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("openapi: decoding document: %w", err)
	}

	tree, err := yamlTree(&node)
	if err != nil {
		return nil, fmt.Errorf("openapi: decoding document: %w", err)
	}

	root, ok := tree.(*orderedmap.OrderedMap[string, any])
	if !ok {
		return nil, fmt.Errorf("openapi: document root is not a mapping")
	}

	return &Document{raw: data, root: root}, nil
}

// yamlTree converts a yaml.Node into a generic tree with ordered maps,
// so mapping key order survives decoding.
func yamlTree(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return yamlTree(node.Content[0])
	case yaml.MappingNode:
		m := orderedmap.New[string, any]()
		for i := 0; i+1 < len(node.Content); i += 2 {
			var key string
			if err := node.Content[i].Decode(&key); err != nil {
				return nil, err
			}
			val, err := yamlTree(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := yamlTree(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.AliasNode:
		return yamlTree(node.Alias)
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Version returns the declared spec version ("3.0.3", "2.0", …), defaulting
// to 3.0.0 when neither version field is present.
func (d *Document) Version() string {
	if v, ok := getString(d.root, "openapi"); ok {
		return v
	}
	if v, ok := getString(d.root, "swagger"); ok {
		return v
	}
	return "3.0.0"
}

// IsSwagger2 reports whether the document declares Swagger 2.x.
func (d *Document) IsSwagger2() bool {
	_, ok := getString(d.root, "swagger")
	return ok
}

// Title returns info.title, or "" when absent.
func (d *Document) Title() string {
	info, _ := getMap(d.root, "info")
	if info == nil {
		return ""
	}
	title, _ := getString(info, "title")
	return title
}

// APIVersion returns info.version, or "" when absent.
func (d *Document) APIVersion() string {
	info, _ := getMap(d.root, "info")
	if info == nil {
		return ""
	}
	v, _ := getString(info, "version")
	return v
}

// BaseURL returns the first declared server URL without its trailing
// slash. Swagger 2.x documents synthesize one from host/schemes/basePath.
// Falls back to http://localhost.
func (d *Document) BaseURL() string {
	if servers, ok := get(d.root, "servers"); ok {
		if arr, isArr := servers.([]any); isArr && len(arr) > 0 {
			if server, isMap := arr[0].(*orderedmap.OrderedMap[string, any]); isMap {
				if u, ok := getString(server, "url"); ok && u != "" {
					return strings.TrimRight(u, "/")
				}
			}
		}
	}

	if d.IsSwagger2() {
		host, _ := getString(d.root, "host")
		if host == "" {
			host = "localhost"
		}
		scheme := "https"
		if schemes, ok := get(d.root, "schemes"); ok {
			if arr, isArr := schemes.([]any); isArr && len(arr) > 0 {
				if s, isStr := arr[0].(string); isStr {
					scheme = s
				}
			}
		}
		basePath, _ := getString(d.root, "basePath")
		return strings.TrimRight(scheme+"://"+host+basePath, "/")
	}

	return "http://localhost"
}

// resolveRef walks an internal "#/a/b/c" pointer. Unresolvable refs
// (external files, missing targets) return the input unchanged so
// extraction can continue.
func (d *Document) resolveRef(obj any) any {
	m, ok := obj.(*orderedmap.OrderedMap[string, any])
	if !ok {
		return obj
	}
	ref, ok := getString(m, "$ref")
	if !ok {
		return obj
	}
	if !strings.HasPrefix(ref, "#/") {
		return obj
	}

	var current any = d.root
	for _, part := range strings.Split(ref[2:], "/") {
		node, ok := current.(*orderedmap.OrderedMap[string, any])
		if !ok {
			return obj
		}
		next, ok := node.Get(decodePointerToken(part))
		if !ok {
			return obj
		}
		current = next
	}
	return current
}

// decodePointerToken unescapes the JSON-pointer sequences ~1 (/) and ~0 (~).
func decodePointerToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	return strings.ReplaceAll(tok, "~0", "~")
}

// Tree accessors shared by the extraction files.

func get(m *orderedmap.OrderedMap[string, any], key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	return m.Get(key)
}

func getMap(m *orderedmap.OrderedMap[string, any], key string) (*orderedmap.OrderedMap[string, any], bool) {
	v, ok := get(m, key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*orderedmap.OrderedMap[string, any])
	return sub, ok
}

func getString(m *orderedmap.OrderedMap[string, any], key string) (string, bool) {
	v, ok := get(m, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getBool(m *orderedmap.OrderedMap[string, any], key string) bool {
	v, ok := get(m, key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
