package util

import (
	"reflect"
	"strings"
)

// CreateSchema creates a JSON schema object from a Go struct using reflection.
//
// Recognized struct tags:
//
//	json:"name,omitempty"  property name; omitempty or pointer fields are optional
//	description:"..."      property description shown to models
//	enum:"a,b,c"           closed set of string values
func CreateSchema(structType any) map[string]any {
	properties := make(map[string]any)
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	t := reflect.TypeOf(structType)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return schema
	}

	var required []any
	for _, field := range reflect.VisibleFields(t) {
		if !field.IsExported() || field.Anonymous {
			continue
		}

		name, optional, skip := propertyName(field)
		if skip {
			continue
		}

		properties[name] = propertySchema(field)
		if !optional {
			required = append(required, name)
		}
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// propertyName resolves the JSON name of a field and whether it may be omitted.
func propertyName(field reflect.StructField) (name string, optional, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}

	for _, opt := range strings.Split(opts, ",") {
		if strings.TrimSpace(opt) == "omitempty" {
			optional = true
		}
	}

	return name, optional || field.Type.Kind() == reflect.Ptr, false
}

func propertySchema(field reflect.StructField) map[string]any {
	s := map[string]any{"type": jsonType(field.Type)}

	if description := field.Tag.Get("description"); description != "" {
		s["description"] = description
	}

	if enum := field.Tag.Get("enum"); enum != "" {
		var values []any
		for _, v := range strings.Split(enum, ",") {
			values = append(values, strings.TrimSpace(v))
		}
		s["enum"] = values
	}

	return s
}

// jsonType maps a Go kind onto a JSON schema type. Unknown kinds become strings.
func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}
