package util

import (
	"reflect"
	"strings"
)

// FieldSpec is the parameter description derived from one struct field.
type FieldSpec struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     string
	HasDefault  bool
}

// StructFields derives parameter specs from a struct's exported fields using
// reflection. The name comes from the json tag (falling back to the field
// name), the description from the description tag and the default from the
// default tag. Fields tagged json:"-" are skipped. A field is required unless
// it is a pointer, carries omitempty or declares a default.
func StructFields(structType any) []FieldSpec {
	t := reflect.TypeOf(structType)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil
	}

	specs := make([]FieldSpec, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
		}

		spec := FieldSpec{
			Name:        fieldName,
			Type:        paramType(field.Type),
			Description: field.Tag.Get("description"),
		}

		if def, ok := field.Tag.Lookup("default"); ok {
			spec.Default = def
			spec.HasDefault = true
		}

		spec.Required = !spec.HasDefault && !hasOmitEmpty(jsonTag) && !isPointer(field.Type)

		specs = append(specs, spec)
	}

	return specs
}

// paramType returns the parameter type name for a given Go type.
func paramType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Ptr:
		return paramType(t.Elem())
	default:
		return "any"
	}
}

// hasOmitEmpty checks if a JSON tag has the "omitempty" option.
func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

// isPointer checks if a type is a pointer.
func isPointer(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr
}
