//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package tool generates argument schemas for Go input types.
package tool

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

// GenerateJSONSchema builds the schema for t.
//
// Struct fields follow encoding/json naming. A field is required when it is
// not a pointer and has no omitempty, or when its jsonschema tag says
// "required". Supported jsonschema tag keys: description=..., enum=...,
// minimum=..., maximum=... and required. Nested structs are inlined; self referencing structs are
// rejected with an open object schema since tool arguments never need them.
func GenerateJSONSchema(t reflect.Type) *tool.Schema {
	if t == nil {
		return &tool.Schema{Type: "object", Properties: map[string]*tool.Schema{}}
	}
	return schemaFor(t, map[reflect.Type]bool{})
}

func schemaFor(t reflect.Type, inProgress map[reflect.Type]bool) *tool.Schema {
	switch t.Kind() {
	case reflect.Ptr:
		return schemaFor(t.Elem(), inProgress)
	case reflect.String:
		return &tool.Schema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &tool.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &tool.Schema{Type: "number"}
	case reflect.Bool:
		return &tool.Schema{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &tool.Schema{Type: "array", Items: schemaFor(t.Elem(), inProgress)}
	case reflect.Map:
		return &tool.Schema{Type: "object", AdditionalProperties: schemaFor(t.Elem(), inProgress)}
	case reflect.Struct:
		if inProgress[t] {
			return &tool.Schema{Type: "object"}
		}
		inProgress[t] = true
		defer delete(inProgress, t)
		return structSchema(t, inProgress)
	default:
		return &tool.Schema{Type: "object"}
	}
}

func structSchema(t reflect.Type, inProgress map[reflect.Type]bool) *tool.Schema {
	schema := &tool.Schema{Type: "object", Properties: map[string]*tool.Schema{}}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}
		fieldSchema := schemaFor(field.Type, inProgress)
		requiredByTag, err := applyTag(field.Type, field.Tag, fieldSchema)
		if err != nil {
			log.Errorf("jsonschema tag of field %s: %v", name, err)
		}
		if (field.Type.Kind() != reflect.Ptr && !omitEmpty) || requiredByTag {
			schema.Required = append(schema.Required, name)
		}
		schema.Properties[name] = fieldSchema
	}
	return schema
}

func jsonName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = field.Name
	if tag == "" {
		return name, false, false
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
	return name, omitEmpty, false
}

// applyTag applies the jsonschema struct tag to schema and reports whether
// the tag marks the field as required.
func applyTag(fieldType reflect.Type, tag reflect.StructTag, schema *tool.Schema) (bool, error) {
	raw := tag.Get("jsonschema")
	if raw == "" {
		return false, nil
	}
	required := false
	for _, item := range strings.Split(raw, ",") {
		key, value, hasValue := strings.Cut(item, "=")
		if !hasValue {
			if key == "required" {
				required = true
			}
			continue
		}
		switch key {
		case "description":
			schema.Description = value
		case "enum":
			v, err := enumValue(fieldType, value)
			if err != nil {
				return required, err
			}
			schema.Enum = append(schema.Enum, v)
		case "minimum", "maximum":
			bound, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return required, fmt.Errorf("parse %s value %q: %w", key, value, err)
			}
			if key == "minimum" {
				schema.Minimum = &bound
			} else {
				schema.Maximum = &bound
			}
		}
	}
	return required, nil
}

func enumValue(fieldType reflect.Type, value string) (any, error) {
	switch fieldType.Kind() {
	case reflect.String:
		return value, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse enum value %q as integer: %w", value, err)
		}
		return v, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("parse enum value %q as number: %w", value, err)
		}
		return v, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("parse enum value %q as bool: %w", value, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("enum unsupported for field type %v", fieldType)
	}
}
