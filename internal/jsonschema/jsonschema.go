package jsonschema

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
)

// Schema is the subset of JSON Schema used to describe tool inputs and
// outputs. It is small on purpose: tool arguments are flat-ish objects
// produced by a language model, not arbitrary documents.
type Schema struct {
	// Type is the JSON type ("object", "array", "string", "number",
	// "integer", "boolean").
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties holds the schema of each named field for object types.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items is the element schema for array types.
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties controls whether undeclared object keys are
	// accepted. A nil value means accepted.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
	// Enum lists the allowed values, when restricted.
	Enum []any `json:"enum,omitempty"`
}

// GenerateJSONSchema derives a [Schema] from the Go type T.
//
// Struct fields use their `json` tag name; fields tagged `json:"-"` and
// unexported fields are skipped. A field is required unless it is a pointer
// or carries `omitempty`; the `jsonschema:"required"` tag forces it back on.
// Descriptions and enums come from the `jsonschema` tag, e.g.
//
//	Op string `json:"op" jsonschema:"description=Operation type,enum=add,enum=sub,required"`
//
// Recursive struct types are not supported and collapse to a bare "object"
// schema; tool inputs have no business being recursive.
func GenerateJSONSchema[T any]() *Schema {
	return typeSchema(reflect.TypeFor[T](), make(map[reflect.Type]bool))
}

func typeSchema(t reflect.Type, seen map[reflect.Type]bool) *Schema {
	switch t.Kind() {
	case reflect.Pointer:
		return typeSchema(t.Elem(), seen)
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}
	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: typeSchema(t.Elem(), seen)}
	case reflect.Map:
		return &Schema{Type: "object", AdditionalProperties: typeSchema(t.Elem(), seen)}
	case reflect.Struct:
		if seen[t] {
			// Recursion guard; see GenerateJSONSchema.
			return &Schema{Type: "object"}
		}
		seen[t] = true
		defer delete(seen, t)
		return structSchema(t, seen)
	default:
		return &Schema{Type: "object"}
	}
}

func structSchema(t reflect.Type, seen map[reflect.Type]bool) *Schema {
	schema := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema, t.NumField()),
		// Struct inputs have a closed field set; undeclared arguments are
		// validation failures, not silently dropped extras.
		AdditionalProperties: false,
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, omitEmpty := jsonFieldName(field)
		if name == "" {
			continue
		}

		fieldSchema := typeSchema(field.Type, seen)
		requiredByTag := applySchemaTag(field, fieldSchema)
		schema.Properties[name] = fieldSchema

		if requiredByTag || (field.Type.Kind() != reflect.Pointer && !omitEmpty) {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// jsonFieldName resolves the property name and omitempty flag from the json
// tag, falling back to the Go field name. Returns "" for skipped fields.
func jsonFieldName(field reflect.StructField) (name string, omitEmpty bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name = field.Name
	if tag == "" {
		return name, false
	}
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty
}

// applySchemaTag parses the jsonschema struct tag into the field schema.
// Supported items: "description=...", repeated "enum=..." (converted to the
// field's Go type), and the bare "required" marker, whose presence is the
// return value. Malformed enum values are logged and skipped rather than
// failing schema generation.
func applySchemaTag(field reflect.StructField, schema *Schema) (required bool) {
	tag := field.Tag.Get("jsonschema")
	if tag == "" {
		return false
	}

	for _, item := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(item, "=")
		switch {
		case key == "required" && !hasValue:
			required = true
		case key == "description" && hasValue:
			schema.Description = value
		case key == "enum" && hasValue:
			enumValue, err := convertEnumValue(field.Type, value)
			if err != nil {
				slog.Error("jsonschema: invalid enum tag value", "field", field.Name, "value", value, "error", err)
				continue
			}
			schema.Enum = append(schema.Enum, enumValue)
		}
	}
	return required
}

func convertEnumValue(t reflect.Type, value string) (any, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return value, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseInt(value, 10, 64)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(value, 64)
	case reflect.Bool:
		return strconv.ParseBool(value)
	default:
		return nil, fmt.Errorf("enum tag unsupported for field type %v", t)
	}
}

// JsonString renders the schema as compact JSON, or indented when indent is
// true.
func (s *Schema) JsonString(indent ...bool) (string, error) {
	var (
		jsonBytes []byte
		err       error
	)
	if len(indent) > 0 && indent[0] {
		jsonBytes, err = json.MarshalIndent(s, "", "  ")
	} else {
		jsonBytes, err = json.Marshal(s)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// String returns the compact JSON representation of the schema.
func (s *Schema) String() string {
	jsonStr, err := s.JsonString()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return jsonStr
}
