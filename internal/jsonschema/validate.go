package jsonschema

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// FieldError describes one validation failure, anchored to the dotted path
// of the offending field ("owner", "filters.state", ...). The root value
// itself is addressed as "$".
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates every field-level failure found in a single
// Validate call, so the caller (and ultimately the reasoning model reading
// the observation) sees all problems at once instead of one per attempt.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	messages := make([]string, len(e.Fields))
	for i, fieldErr := range e.Fields {
		messages[i] = fieldErr.Error()
	}
	return "invalid arguments: " + strings.Join(messages, "; ")
}

// Validate checks value against schema and returns a *ValidationError
// listing every violation, or nil when the value conforms. A nil schema
// accepts anything.
//
// Checks cover the vocabulary GenerateJSONSchema emits: type matching,
// required object properties, undeclared properties when
// additionalProperties is false, enum membership, nested objects, and
// array element schemas. Numeric JSON values arrive as float64; they
// satisfy "integer" only when they carry no fractional part.
func Validate(schema *Schema, value any) error {
	if schema == nil {
		return nil
	}
	var violations []FieldError
	validateValue(schema, value, "$", &violations)
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Fields: violations}
}

func validateValue(schema *Schema, value any, path string, violations *[]FieldError) {
	if schema.Type != "" && !matchesType(schema.Type, value) {
		*violations = append(*violations, FieldError{
			Field:   path,
			Message: fmt.Sprintf("expected %s, got %s", schema.Type, jsonTypeName(value)),
		})
		return
	}

	if len(schema.Enum) > 0 && !enumContains(schema.Enum, value) {
		*violations = append(*violations, FieldError{
			Field:   path,
			Message: fmt.Sprintf("value %v is not one of the allowed values %v", value, schema.Enum),
		})
		return
	}

	switch schema.Type {
	case "object":
		object, ok := value.(map[string]any)
		if !ok {
			return // non-map objects (typed structs) are trusted as-is
		}
		validateObject(schema, object, path, violations)
	case "array":
		if schema.Items == nil {
			return
		}
		items := reflect.ValueOf(value)
		for i := 0; i < items.Len(); i++ {
			validateValue(schema.Items, items.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i), violations)
		}
	}
}

func validateObject(schema *Schema, object map[string]any, path string, violations *[]FieldError) {
	for _, required := range schema.Required {
		if _, present := object[required]; !present {
			*violations = append(*violations, FieldError{
				Field:   joinPath(path, required),
				Message: "required property is missing",
			})
		}
	}

	additionalAllowed := true
	if allowed, ok := schema.AdditionalProperties.(bool); ok {
		additionalAllowed = allowed
	}

	for key, propertyValue := range object {
		propertySchema, declared := schema.Properties[key]
		if !declared {
			if len(schema.Properties) > 0 && !additionalAllowed {
				*violations = append(*violations, FieldError{
					Field:   joinPath(path, key),
					Message: "property is not declared in the schema",
				})
			}
			continue
		}
		if propertyValue == nil {
			// null is only acceptable for optional properties
			if isRequired(schema.Required, key) {
				*violations = append(*violations, FieldError{
					Field:   joinPath(path, key),
					Message: "required property is null",
				})
			}
			continue
		}
		validateValue(propertySchema, propertyValue, joinPath(path, key), violations)
	}
}

func isRequired(required []string, key string) bool {
	for _, name := range required {
		if name == key {
			return true
		}
	}
	return false
}

func joinPath(path, key string) string {
	if path == "$" {
		return key
	}
	return path + "." + key
}

func matchesType(expected string, value any) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		return isNumber(value)
	case "integer":
		return isInteger(value)
	case "object":
		if value == nil {
			return false
		}
		return reflect.TypeOf(value).Kind() == reflect.Map || reflect.TypeOf(value).Kind() == reflect.Struct
	case "array":
		if value == nil {
			return false
		}
		kind := reflect.TypeOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	default:
		return true
	}
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// isInteger accepts native integer types and whole-valued floats, since
// encoding/json decodes every JSON number into float64.
func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return v == math.Trunc(v)
	case float32:
		return float64(v) == math.Trunc(float64(v))
	default:
		return false
	}
}

func jsonTypeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float32, float64, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return reflect.TypeOf(value).Kind().String()
	}
}

func enumContains(enum []any, value any) bool {
	for _, allowed := range enum {
		if reflect.DeepEqual(allowed, value) {
			return true
		}
		// JSON numbers decode as float64 while enum tags may hold int64.
		if allowedInt, ok := allowed.(int64); ok {
			if valueFloat, ok := value.(float64); ok && float64(allowedInt) == valueFloat {
				return true
			}
		}
	}
	return false
}
