package schema

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the closed set of schema node kinds. Every consumer switches
// exhaustively on Kind; there is no open-ended string tag.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindString
	KindInteger
	KindNumber
	KindBoolean
	KindAnyOf
)

// String returns the JSON Schema type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindAnyOf:
		return "anyOf"
	}
	return "string"
}

// kindFromName maps a JSON Schema type name to a Kind.
func kindFromName(name string) (Kind, bool) {
	switch name {
	case "object":
		return KindObject, true
	case "array":
		return KindArray, true
	case "string":
		return KindString, true
	case "integer":
		return KindInteger, true
	case "number":
		return KindNumber, true
	case "boolean":
		return KindBoolean, true
	}
	return KindString, false
}

// Node is the canonical in-memory form of a schema. Only the fields that
// apply to the node's Kind are populated; the rest stay zero.
type Node struct {
	Kind        Kind
	Description string
	Default     any

	// Object fields. Properties preserves source declaration order.
	Properties           *orderedmap.OrderedMap[string, *Node]
	Required             []string
	AdditionalProperties *bool

	// Array fields.
	Items    *Node
	MinItems *int
	MaxItems *int

	// String fields.
	MinLength *int
	MaxLength *int
	Pattern   string
	Enum      []string

	// Numeric fields. MultipleOf applies to integers only.
	Minimum    *float64
	Maximum    *float64
	MultipleOf *int64

	// AnyOf alternatives, in declaration order.
	AnyOf []*Node
}

// New returns a node of the given kind with object containers initialized.
func New(kind Kind) *Node {
	n := &Node{Kind: kind}
	if kind == KindObject {
		n.Properties = newProperties()
		n.Required = []string{}
	}
	return n
}

func newProperties() *orderedmap.OrderedMap[string, *Node] {
	return orderedmap.New[string, *Node]()
}

// SetProp adds or replaces a property on an object node, preserving
// first-insertion order.
func (n *Node) SetProp(name string, p *Node) {
	if n.Properties == nil {
		n.Properties = orderedmap.New[string, *Node]()
	}
	n.Properties.Set(name, p)
}

// Prop looks up a property on an object node.
func (n *Node) Prop(name string) (*Node, bool) {
	if n.Properties == nil {
		return nil, false
	}
	return n.Properties.Get(name)
}

// PropNames returns the property names of an object node in declaration order.
func (n *Node) PropNames() []string {
	if n.Properties == nil {
		return nil
	}
	names := make([]string, 0, n.Properties.Len())
	for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// IsRequired reports whether name appears in the node's required list.
func (n *Node) IsRequired(name string) bool {
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Tree converts the node back into a generic ordered tree. Normalize(Tree())
// reproduces the node, which is what makes normalization idempotent.
func (n *Node) Tree() any {
	m := orderedmap.New[string, any]()

	if n.Kind != KindAnyOf {
		m.Set("type", n.Kind.String())
	}
	if n.Description != "" {
		m.Set("description", n.Description)
	}

	switch n.Kind {
	case KindObject:
		props := orderedmap.New[string, any]()
		if n.Properties != nil {
			for pair := n.Properties.Oldest(); pair != nil; pair = pair.Next() {
				props.Set(pair.Key, pair.Value.Tree())
			}
		}
		m.Set("properties", props)
		required := n.Required
		if required == nil {
			required = []string{}
		}
		m.Set("required", required)
		if n.AdditionalProperties != nil {
			m.Set("additionalProperties", *n.AdditionalProperties)
		}
	case KindArray:
		if n.Items != nil {
			m.Set("items", n.Items.Tree())
		}
		if n.MinItems != nil {
			m.Set("minItems", *n.MinItems)
		}
		if n.MaxItems != nil {
			m.Set("maxItems", *n.MaxItems)
		}
	case KindString:
		if n.MinLength != nil {
			m.Set("minLength", *n.MinLength)
		}
		if n.MaxLength != nil {
			m.Set("maxLength", *n.MaxLength)
		}
		if n.Pattern != "" {
			m.Set("pattern", n.Pattern)
		}
		if len(n.Enum) > 0 {
			m.Set("enum", n.Enum)
		}
	case KindInteger, KindNumber:
		if n.Minimum != nil {
			m.Set("minimum", *n.Minimum)
		}
		if n.Maximum != nil {
			m.Set("maximum", *n.Maximum)
		}
		if n.MultipleOf != nil {
			m.Set("multipleOf", *n.MultipleOf)
		}
	case KindAnyOf:
		alts := make([]any, 0, len(n.AnyOf))
		for _, alt := range n.AnyOf {
			alts = append(alts, alt.Tree())
		}
		m.Set("anyOf", alts)
	}

	if n.Default != nil {
		m.Set("default", n.Default)
	}

	return m
}

// JSON renders the node as a JSON document with properties in declaration
// order. The result is what gets embedded into generated servers.
func (n *Node) JSON() (string, error) {
	data, err := json.Marshal(n.Tree())
	if err != nil {
		return "", fmt.Errorf("schema: encoding node: %w", err)
	}
	return string(data), nil
}

// ParseJSON decodes a JSON schema document and normalizes it, preserving
// property declaration order.
func ParseJSON(data []byte) (*Node, error) {
	if len(data) == 0 || string(data) == "null" {
		return New(KindObject), nil
	}
	raw, err := DecodeOrdered(data)
	if err != nil {
		return nil, err
	}
	return Normalize(raw), nil
}
