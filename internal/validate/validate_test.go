package validate

import (
	"strings"
	"testing"

	"github.com/toolforge/toolforge/internal/schema"
)

func mustNode(t *testing.T, doc string) *schema.Node {
	t.Helper()
	n, err := schema.ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON(%s): %v", doc, err)
	}
	return n
}

// ---------------------------------------------------------------------------
// Object validation
// ---------------------------------------------------------------------------

func TestValidate_Object(t *testing.T) {
	node := mustNode(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer"}
		},
		"required": ["name"]
	}`)

	t.Run("valid input", func(t *testing.T) {
		ok, _, errs := Validate(node, map[string]any{"name": "bo", "age": float64(3)}, false)
		if !ok {
			t.Fatalf("expected valid, got errors: %v", errs)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		ok, _, errs := Validate(node, map[string]any{"age": float64(3)}, false)
		if ok {
			t.Fatal("expected invalid")
		}
		if len(errs) != 1 || !strings.Contains(errs[0], "Missing required field: name") {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("property errors are prefixed", func(t *testing.T) {
		ok, _, errs := Validate(node, map[string]any{"name": "bo", "age": "notanumber"}, false)
		if ok {
			t.Fatal("expected invalid")
		}
		if len(errs) != 1 || !strings.HasPrefix(errs[0], "age: ") {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("non-object rejected", func(t *testing.T) {
		ok, _, errs := Validate(node, "hello", true)
		if ok {
			t.Fatal("expected invalid")
		}
		if len(errs) != 1 || errs[0] != "Expected object type" {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("nil coerces to empty map", func(t *testing.T) {
		empty := mustNode(t, `{"type": "object"}`)
		ok, coerced, _ := Validate(empty, nil, true)
		if !ok {
			t.Fatal("expected valid")
		}
		if m, isMap := coerced.(map[string]any); !isMap || len(m) != 0 {
			t.Errorf("expected empty map, got %#v", coerced)
		}
	})

	t.Run("additional properties disallowed", func(t *testing.T) {
		strict := mustNode(t, `{
			"type": "object",
			"properties": {"a": {"type": "string"}},
			"additionalProperties": false
		}`)
		ok, _, errs := Validate(strict, map[string]any{"a": "x", "z": 1, "b": 2}, false)
		if ok {
			t.Fatal("expected invalid")
		}
		if len(errs) != 1 || !strings.Contains(errs[0], "Additional properties not allowed: b, z") {
			t.Errorf("unexpected errors: %v", errs)
		}
	})
}

// ---------------------------------------------------------------------------
// Array validation
// ---------------------------------------------------------------------------

func TestValidate_Array(t *testing.T) {
	node := mustNode(t, `{"type": "array", "items": {"type": "integer"}, "minItems": 1, "maxItems": 3}`)

	t.Run("valid", func(t *testing.T) {
		ok, _, errs := Validate(node, []any{float64(1), float64(2)}, false)
		if !ok {
			t.Fatalf("expected valid, got %v", errs)
		}
	})

	t.Run("item errors carry index prefix", func(t *testing.T) {
		ok, _, errs := Validate(node, []any{float64(1), "x"}, false)
		if ok {
			t.Fatal("expected invalid")
		}
		if len(errs) != 1 || !strings.HasPrefix(errs[0], "[1]: ") {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("scalar wraps under coercion", func(t *testing.T) {
		ok, coerced, errs := Validate(node, float64(7), true)
		if !ok {
			t.Fatalf("expected valid, got %v", errs)
		}
		arr, isArr := coerced.([]any)
		if !isArr || len(arr) != 1 {
			t.Fatalf("expected single-element array, got %#v", coerced)
		}
	})

	t.Run("nil becomes empty array under coercion but fails minItems", func(t *testing.T) {
		ok, coerced, errs := Validate(node, nil, true)
		if ok {
			t.Fatal("expected minItems failure")
		}
		if _, isArr := coerced.([]any); !isArr {
			t.Errorf("expected array, got %#v", coerced)
		}
		if len(errs) != 1 || !strings.Contains(errs[0], "minimum is 1") {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("too many items", func(t *testing.T) {
		ok, _, errs := Validate(node, []any{float64(1), float64(2), float64(3), float64(4)}, false)
		if ok {
			t.Fatal("expected invalid")
		}
		if !strings.Contains(errs[0], "maximum is 3") {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("non-array rejected without coercion", func(t *testing.T) {
		ok, _, errs := Validate(node, float64(7), false)
		if ok {
			t.Fatal("expected invalid")
		}
		if errs[0] != "Expected array type" {
			t.Errorf("unexpected errors: %v", errs)
		}
	})
}

// ---------------------------------------------------------------------------
// String validation
// ---------------------------------------------------------------------------

func TestValidate_String(t *testing.T) {
	t.Run("checks accumulate", func(t *testing.T) {
		node := mustNode(t, `{"type": "string", "minLength": 5, "pattern": "^[a-z]+$", "enum": ["alpha", "gamma"]}`)
		ok, _, errs := Validate(node, "B1", false)
		if ok {
			t.Fatal("expected invalid")
		}
		// Length, pattern, and enum all fail and all report.
		if len(errs) != 3 {
			t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
		}
		if !strings.Contains(errs[0], "too short") {
			t.Errorf("errs[0] = %q", errs[0])
		}
		if !strings.Contains(errs[1], "pattern") {
			t.Errorf("errs[1] = %q", errs[1])
		}
		if !strings.Contains(errs[2], "must be one of") {
			t.Errorf("errs[2] = %q", errs[2])
		}
	})

	t.Run("number stringifies under coercion", func(t *testing.T) {
		node := mustNode(t, `{"type": "string"}`)
		ok, coerced, _ := Validate(node, float64(5), true)
		if !ok {
			t.Fatal("expected valid")
		}
		if coerced != "5" {
			t.Errorf("coerced = %v, want %q", coerced, "5")
		}
	})

	t.Run("number rejected without coercion", func(t *testing.T) {
		node := mustNode(t, `{"type": "string"}`)
		ok, _, errs := Validate(node, float64(5), false)
		if ok {
			t.Fatal("expected invalid")
		}
		if errs[0] != "Expected string type" {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("pattern is anchored at the start", func(t *testing.T) {
		node := mustNode(t, `{"type": "string", "pattern": "[0-9]+"}`)
		if ok, _, _ := Validate(node, "123abc", false); !ok {
			t.Error("expected match at start to pass")
		}
		if ok, _, _ := Validate(node, "abc123", false); ok {
			t.Error("expected non-start match to fail")
		}
	})
}

// ---------------------------------------------------------------------------
// Integer and number validation
// ---------------------------------------------------------------------------

func TestValidate_Integer(t *testing.T) {
	node := mustNode(t, `{"type": "integer", "minimum": 0, "maximum": 100}`)

	t.Run("within bounds succeeds unchanged", func(t *testing.T) {
		ok, coerced, errs := Validate(node, float64(50), false)
		if !ok {
			t.Fatalf("expected valid, got %v", errs)
		}
		if coerced != float64(50) {
			t.Errorf("coerce=false mutated value: %#v", coerced)
		}
	})

	t.Run("above maximum", func(t *testing.T) {
		ok, _, errs := Validate(node, float64(150), false)
		if ok {
			t.Fatal("expected invalid")
		}
		if len(errs) != 1 || !strings.Contains(errs[0], "above maximum") {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("below minimum", func(t *testing.T) {
		ok, _, errs := Validate(node, float64(-1), false)
		if ok {
			t.Fatal("expected invalid")
		}
		if !strings.Contains(errs[0], "below minimum") {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("boolean always rejected", func(t *testing.T) {
		for _, coerce := range []bool{false, true} {
			ok, _, errs := Validate(node, true, coerce)
			if ok {
				t.Fatalf("coerce=%v: expected invalid", coerce)
			}
			if errs[0] != "Expected integer, got boolean" {
				t.Errorf("coerce=%v: unexpected errors: %v", coerce, errs)
			}
		}
	})

	t.Run("string parses under coercion", func(t *testing.T) {
		ok, coerced, errs := Validate(node, "42", true)
		if !ok {
			t.Fatalf("expected valid, got %v", errs)
		}
		if coerced != int64(42) {
			t.Errorf("coerced = %#v, want int64(42)", coerced)
		}
	})

	t.Run("non-integral string fails even with coercion", func(t *testing.T) {
		ok, _, errs := Validate(node, "1.5", true)
		if ok {
			t.Fatal("expected invalid")
		}
		if errs[0] != "Cannot convert to integer" {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("multipleOf", func(t *testing.T) {
		mnode := mustNode(t, `{"type": "integer", "multipleOf": 5}`)
		if ok, _, _ := Validate(mnode, float64(15), false); !ok {
			t.Error("expected 15 to be a multiple of 5")
		}
		ok, _, errs := Validate(mnode, float64(7), false)
		if ok {
			t.Fatal("expected invalid")
		}
		if !strings.Contains(errs[0], "not a multiple of 5") {
			t.Errorf("unexpected errors: %v", errs)
		}
	})
}

func TestValidate_Number(t *testing.T) {
	node := mustNode(t, `{"type": "number", "minimum": 0.5}`)

	t.Run("boolean always rejected", func(t *testing.T) {
		for _, coerce := range []bool{false, true} {
			ok, _, errs := Validate(node, false, coerce)
			if ok {
				t.Fatalf("coerce=%v: expected invalid", coerce)
			}
			if errs[0] != "Expected number, got boolean" {
				t.Errorf("unexpected errors: %v", errs)
			}
		}
	})

	t.Run("string parses under coercion", func(t *testing.T) {
		ok, coerced, errs := Validate(node, "2.25", true)
		if !ok {
			t.Fatalf("expected valid, got %v", errs)
		}
		if coerced != 2.25 {
			t.Errorf("coerced = %#v", coerced)
		}
	})

	t.Run("NaN rejected", func(t *testing.T) {
		plain := mustNode(t, `{"type": "number"}`)
		ok, _, errs := Validate(plain, "NaN", true)
		if ok {
			t.Fatal("expected invalid")
		}
		if errs[0] != "Value must be finite" {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("NaN accepted with AllowNonFinite", func(t *testing.T) {
		plain := mustNode(t, `{"type": "number"}`)
		ok, _, errs := ValidateWith(plain, "Inf", true, Options{AllowNonFinite: true})
		if !ok {
			t.Fatalf("expected valid, got %v", errs)
		}
	})
}

// ---------------------------------------------------------------------------
// Boolean validation
// ---------------------------------------------------------------------------

func TestValidate_Boolean(t *testing.T) {
	node := mustNode(t, `{"type": "boolean"}`)

	truthy := []any{float64(1), "1", "true", "yes", "True", "Yes"}
	for _, v := range truthy {
		ok, coerced, errs := Validate(node, v, true)
		if !ok {
			t.Errorf("Validate(%#v) errors: %v", v, errs)
			continue
		}
		if coerced != true {
			t.Errorf("Validate(%#v) = %#v, want true", v, coerced)
		}
	}

	falsy := []any{float64(0), "0", "false", "no", "False", "No"}
	for _, v := range falsy {
		ok, coerced, errs := Validate(node, v, true)
		if !ok {
			t.Errorf("Validate(%#v) errors: %v", v, errs)
			continue
		}
		if coerced != false {
			t.Errorf("Validate(%#v) = %#v, want false", v, coerced)
		}
	}

	t.Run("tokens rejected without coercion", func(t *testing.T) {
		ok, _, errs := Validate(node, "true", false)
		if ok {
			t.Fatal("expected invalid")
		}
		if errs[0] != "Expected boolean type" {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("case variants rejected", func(t *testing.T) {
		for _, v := range []any{"TRUE", "YES", "FaLsE", "nO"} {
			ok, _, errs := Validate(node, v, true)
			if ok {
				t.Errorf("Validate(%#v) accepted, want rejected", v)
				continue
			}
			if errs[0] != "Expected boolean type" {
				t.Errorf("Validate(%#v) errors: %v", v, errs)
			}
		}
	})

	t.Run("unknown token rejected", func(t *testing.T) {
		if ok, _, _ := Validate(node, "maybe", true); ok {
			t.Error("expected invalid")
		}
		if ok, _, _ := Validate(node, float64(2), true); ok {
			t.Error("expected invalid")
		}
	})

	t.Run("native bool passes", func(t *testing.T) {
		if ok, _, _ := Validate(node, true, false); !ok {
			t.Error("expected valid")
		}
	})
}

// ---------------------------------------------------------------------------
// anyOf validation
// ---------------------------------------------------------------------------

func TestValidate_AnyOf(t *testing.T) {
	node := mustNode(t, `{"anyOf": [{"type": "string"}, {"type": "integer"}]}`)

	t.Run("first matching alternative wins", func(t *testing.T) {
		ok, _, errs := Validate(node, float64(42), false)
		if !ok {
			t.Fatalf("expected valid, got %v", errs)
		}
	})

	t.Run("no match yields exactly one error", func(t *testing.T) {
		ok, _, errs := Validate(node, []any{float64(1), float64(2)}, false)
		if ok {
			t.Fatal("expected invalid")
		}
		if len(errs) != 1 {
			t.Fatalf("expected exactly 1 error, got %d: %v", len(errs), errs)
		}
		if !strings.Contains(errs[0], "matches none of the allowed schemas") {
			t.Errorf("unexpected error: %v", errs[0])
		}
	})

	t.Run("alternatives coerce independently", func(t *testing.T) {
		intFirst := mustNode(t, `{"anyOf": [{"type": "integer"}, {"type": "string"}]}`)
		ok, coerced, _ := Validate(intFirst, "42", true)
		if !ok {
			t.Fatal("expected valid")
		}
		// The integer alternative claims "42" before the string one sees it.
		if coerced != int64(42) {
			t.Errorf("coerced = %#v, want int64(42)", coerced)
		}
	})
}

// ---------------------------------------------------------------------------
// Coercion law
// ---------------------------------------------------------------------------

func TestValidate_CoercionWidensOnly(t *testing.T) {
	cases := []struct {
		doc   string
		value any
	}{
		{`{"type": "string"}`, "x"},
		{`{"type": "integer"}`, float64(3)},
		{`{"type": "number"}`, 1.5},
		{`{"type": "boolean"}`, true},
		{`{"type": "array", "items": {"type": "string"}}`, []any{"a"}},
		{`{"type": "object", "properties": {"a": {"type": "string"}}}`, map[string]any{"a": "x"}},
	}
	for _, tc := range cases {
		node := mustNode(t, tc.doc)
		okStrict, _, _ := Validate(node, tc.value, false)
		if !okStrict {
			t.Errorf("%s: expected valid without coercion", tc.doc)
			continue
		}
		okLoose, _, _ := Validate(node, tc.value, true)
		if !okLoose {
			t.Errorf("%s: valid without coercion but invalid with it", tc.doc)
		}
	}
}

func TestValidate_NoCoercionPreservesValue(t *testing.T) {
	node := mustNode(t, `{"type": "integer"}`)
	ok, coerced, _ := Validate(node, float64(42), false)
	if !ok {
		t.Fatal("expected valid")
	}
	if _, isFloat := coerced.(float64); !isFloat {
		t.Errorf("coerce=false changed value type to %T", coerced)
	}
}

func TestValidate_NilNode(t *testing.T) {
	ok, coerced, errs := Validate(nil, "anything", false)
	if !ok || coerced != "anything" || errs != nil {
		t.Errorf("nil node should pass through: %v %v %v", ok, coerced, errs)
	}
}
