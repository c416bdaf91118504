// Package validate implements schema validation with optional type
// coercion. The same rule set is emitted as Go source into generated
// servers by the codegen package; the tests here are the oracle for both.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/toolforge/toolforge/internal/schema"
)

// Options tunes engine behavior beyond the coerce flag.
type Options struct {
	// AllowNonFinite accepts NaN and ±Inf for number nodes.
	AllowNonFinite bool
}

// Validate checks value against node and returns (ok, coerced, errors).
//
// With coerce=false the returned value is the input unchanged (containers
// are rebuilt but element values keep their types), so anything that
// validates without coercion also validates with it. With coerce=true the
// value may be converted: nil→{} for objects, nil→[]/scalar wrapping for
// arrays, stringification, base-10 parsing for numerics, and the usual
// truthy/falsy tokens for booleans.
//
// Validation outcomes are value returns; the engine never panics and never
// returns a Go error.
func Validate(node *schema.Node, value any, coerce bool) (bool, any, []string) {
	return ValidateWith(node, value, coerce, Options{})
}

// ValidateWith is Validate with explicit Options.
func ValidateWith(node *schema.Node, value any, coerce bool, opts Options) (bool, any, []string) {
	if node == nil {
		return true, value, nil
	}
	coerced, errs := check(node, value, coerce, opts)
	if !coerce {
		coerced = value
	}
	return len(errs) == 0, coerced, errs
}

func check(node *schema.Node, value any, coerce bool, opts Options) (any, []string) {
	switch node.Kind {
	case schema.KindObject:
		return checkObject(node, value, coerce, opts)
	case schema.KindArray:
		return checkArray(node, value, coerce, opts)
	case schema.KindString:
		return checkString(node, value, coerce)
	case schema.KindInteger:
		return checkInteger(node, value, coerce)
	case schema.KindNumber:
		return checkNumber(node, value, coerce, opts)
	case schema.KindBoolean:
		return checkBoolean(value, coerce)
	case schema.KindAnyOf:
		return checkAnyOf(node, value, coerce, opts)
	}
	return value, nil
}

func checkObject(node *schema.Node, value any, coerce bool, opts Options) (any, []string) {
	obj, ok := value.(map[string]any)
	if !ok {
		if coerce && value == nil {
			return map[string]any{}, nil
		}
		return value, []string{"Expected object type"}
	}

	var errs []string

	for _, req := range node.Required {
		if _, present := obj[req]; !present {
			errs = append(errs, fmt.Sprintf("Missing required field: %s", req))
		}
	}

	result := make(map[string]any, len(obj))
	for k, v := range obj {
		result[k] = v
	}

	if node.Properties != nil {
		for pair := node.Properties.Oldest(); pair != nil; pair = pair.Next() {
			v, present := obj[pair.Key]
			if !present {
				continue
			}
			ok, coercedVal, propErrs := ValidateWith(pair.Value, v, coerce, opts)
			if !ok {
				for _, e := range propErrs {
					errs = append(errs, fmt.Sprintf("%s: %s", pair.Key, e))
				}
				continue
			}
			result[pair.Key] = coercedVal
		}
	}

	if node.AdditionalProperties != nil && !*node.AdditionalProperties {
		var extra []string
		for k := range obj {
			if _, declared := node.Prop(k); !declared {
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

func checkArray(node *schema.Node, value any, coerce bool, opts Options) (any, []string) {
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

	var errs []string
	result := make([]any, 0, len(arr))
	for i, item := range arr {
		ok, coercedItem, itemErrs := ValidateWith(node.Items, item, coerce, opts)
		if !ok {
			for _, e := range itemErrs {
				errs = append(errs, fmt.Sprintf("[%d]: %s", i, e))
			}
		}
		result = append(result, coercedItem)
	}

	if node.MinItems != nil && len(result) < *node.MinItems {
		errs = append(errs, fmt.Sprintf("Array has %d items, minimum is %d", len(result), *node.MinItems))
	}
	if node.MaxItems != nil && len(result) > *node.MaxItems {
		errs = append(errs, fmt.Sprintf("Array has %d items, maximum is %d", len(result), *node.MaxItems))
	}

	return result, errs
}

func checkString(node *schema.Node, value any, coerce bool) (any, []string) {
	s, ok := value.(string)
	if !ok {
		if value == nil {
			// Null is passed through for string nodes; required-ness is the
			// enclosing object's concern.
			return value, nil
		}
		if !coerce {
			return value, []string{"Expected string type"}
		}
		s = stringify(value)
	}

	var errs []string
	if node.MinLength != nil && len(s) < *node.MinLength {
		errs = append(errs, fmt.Sprintf("String too short, minimum length is %d", *node.MinLength))
	}
	if node.MaxLength != nil && len(s) > *node.MaxLength {
		errs = append(errs, fmt.Sprintf("String too long, maximum length is %d", *node.MaxLength))
	}
	if node.Pattern != "" {
		// Anchored at the start, like a match (not a search).
		re, err := regexp.Compile("^(?:" + node.Pattern + ")")
		if err != nil {
			errs = append(errs, fmt.Sprintf("String does not match pattern: %s", node.Pattern))
		} else if !re.MatchString(s) {
			errs = append(errs, fmt.Sprintf("String does not match pattern: %s", node.Pattern))
		}
	}
	if len(node.Enum) > 0 && !contains(node.Enum, s) {
		errs = append(errs, "Value must be one of: "+strings.Join(node.Enum, ", "))
	}

	return s, errs
}

func checkInteger(node *schema.Node, value any, coerce bool) (any, []string) {
	if _, isBool := value.(bool); isBool {
		return value, []string{"Expected integer, got boolean"}
	}

	i, ok := asInt(value)
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
	if node.Minimum != nil && float64(i) < *node.Minimum {
		errs = append(errs, fmt.Sprintf("Value %d is below minimum %v", i, *node.Minimum))
	}
	if node.Maximum != nil && float64(i) > *node.Maximum {
		errs = append(errs, fmt.Sprintf("Value %d is above maximum %v", i, *node.Maximum))
	}
	if node.MultipleOf != nil && *node.MultipleOf != 0 && i%*node.MultipleOf != 0 {
		errs = append(errs, fmt.Sprintf("Value %d is not a multiple of %d", i, *node.MultipleOf))
	}

	return i, errs
}

func checkNumber(node *schema.Node, value any, coerce bool, opts Options) (any, []string) {
	if _, isBool := value.(bool); isBool {
		return value, []string{"Expected number, got boolean"}
	}

	f, ok := asFloat(value)
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
	if !opts.AllowNonFinite && (math.IsNaN(f) || math.IsInf(f, 0)) {
		errs = append(errs, "Value must be finite")
	}
	if node.Minimum != nil && f < *node.Minimum {
		errs = append(errs, fmt.Sprintf("Value %v is below minimum %v", f, *node.Minimum))
	}
	if node.Maximum != nil && f > *node.Maximum {
		errs = append(errs, fmt.Sprintf("Value %v is above maximum %v", f, *node.Maximum))
	}

	return f, errs
}

func checkBoolean(value any, coerce bool) (any, []string) {
	if b, ok := value.(bool); ok {
		return b, nil
	}
	if coerce {
		switch v := value.(type) {
		case string:
			// Fixed token tuples; "TRUE" or "yES" are not accepted.
			switch v {
			case "1", "true", "True", "yes", "Yes":
				return true, nil
			case "0", "false", "False", "no", "No":
				return false, nil
			}
		default:
			if f, ok := asFloat(value); ok {
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

func checkAnyOf(node *schema.Node, value any, coerce bool, opts Options) (any, []string) {
	for _, alt := range node.AnyOf {
		ok, coerced, _ := ValidateWith(alt, value, coerce, opts)
		if ok {
			return coerced, nil
		}
	}
	return value, []string{"Value matches none of the allowed schemas"}
}

// asInt accepts the integer-shaped values JSON decoding can produce:
// int, int64, an integral float64, and json.Number holding an integer.
func asInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), true
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

func stringify(value any) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
