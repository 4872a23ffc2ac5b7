package dtdl

import (
	"fmt"
	"strings"
)

// ValidationIssue is one offending path/reason pair. internal/dataplane
// collects every issue from a twin/relationship body into one
// ValidationFailed error carrying all offending property names, per spec
// §4.3.
type ValidationIssue struct {
	Path   string
	Reason string
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Reason)
}

// ValidateValue checks value against schema, appending any issues found
// (each prefixed with path) to issues and returning the updated slice.
// Primitive schemas are coerced numerically per spec §4.3 ("primitive
// schemas coerced numerically") — an integer schema accepts a JSON number
// that happens to decode as float64(expectedly whole), since
// encoding/json always decodes JSON numbers into Go float64 in a
// map[string]interface{} body.
func ValidateValue(schema *Schema, value interface{}, path string, issues []ValidationIssue) []ValidationIssue {
	if schema == nil {
		return append(issues, ValidationIssue{Path: path, Reason: "no schema to validate against"})
	}
	if value == nil {
		return issues
	}

	switch schema.Kind {
	case SchemaPrimitive:
		return validatePrimitive(schema.Primitive, value, path, issues)

	case SchemaEnum:
		for _, ev := range schema.EnumValues {
			if valuesEqual(ev.EnumValue, value) {
				return issues
			}
		}
		return append(issues, ValidationIssue{Path: path, Reason: fmt.Sprintf("value %v is not one of the enum's declared values", value)})

	case SchemaMap:
		m, ok := value.(map[string]interface{})
		if !ok {
			return append(issues, ValidationIssue{Path: path, Reason: "expected a map"})
		}
		for k, v := range m {
			issues = ValidateValue(schema.MapValue, v, path+"/"+k, issues)
		}
		return issues

	case SchemaObject:
		m, ok := value.(map[string]interface{})
		if !ok {
			return append(issues, ValidationIssue{Path: path, Reason: "expected an object"})
		}
		for _, field := range schema.Fields {
			fv, present := m[field.Name]
			if !present {
				continue
			}
			issues = ValidateValue(field.Schema, fv, path+"/"+field.Name, issues)
		}
		for k := range m {
			if _, ok := findField(schema.Fields, k); !ok {
				issues = append(issues, ValidationIssue{Path: path + "/" + k, Reason: "field not declared on object schema"})
			}
		}
		return issues

	case SchemaArray:
		arr, ok := value.([]interface{})
		if !ok {
			return append(issues, ValidationIssue{Path: path, Reason: "expected an array"})
		}
		for idx, elem := range arr {
			issues = ValidateValue(schema.ElementSchema, elem, fmt.Sprintf("%s[%d]", path, idx), issues)
		}
		return issues

	default:
		return append(issues, ValidationIssue{Path: path, Reason: "unrecognized schema kind"})
	}
}

func findField(fields []ObjectField, name string) (ObjectField, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return ObjectField{}, false
}

func valuesEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func validatePrimitive(primitive string, value interface{}, path string, issues []ValidationIssue) []ValidationIssue {
	switch primitive {
	case PrimitiveString, PrimitiveDate, PrimitiveDateTime, PrimitiveDuration:
		if _, ok := value.(string); !ok {
			return append(issues, ValidationIssue{Path: path, Reason: fmt.Sprintf("expected a string for %s", primitive)})
		}
	case PrimitiveBoolean:
		if _, ok := value.(bool); !ok {
			return append(issues, ValidationIssue{Path: path, Reason: "expected a boolean"})
		}
	case PrimitiveInteger, PrimitiveLong:
		f, ok := toFloat(value)
		if !ok {
			return append(issues, ValidationIssue{Path: path, Reason: fmt.Sprintf("expected an integer for %s", primitive)})
		}
		if f != float64(int64(f)) {
			return append(issues, ValidationIssue{Path: path, Reason: fmt.Sprintf("expected a whole number for %s, got %v", primitive, value)})
		}
	case PrimitiveDouble, PrimitiveFloat:
		if _, ok := toFloat(value); !ok {
			return append(issues, ValidationIssue{Path: path, Reason: fmt.Sprintf("expected a number for %s", primitive)})
		}
	default:
		return append(issues, ValidationIssue{Path: path, Reason: fmt.Sprintf("unrecognized primitive %q", primitive)})
	}
	return issues
}

// JoinIssues renders a slice of ValidationIssue as a single message
// listing every offending path, for use in a ValidationFailed error.
func JoinIssues(issues []ValidationIssue) string {
	parts := make([]string, 0, len(issues))
	for _, i := range issues {
		parts = append(parts, i.String())
	}
	return strings.Join(parts, "; ")
}
