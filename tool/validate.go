//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// emptyArgs is used when a call carries no argument payload.
var emptyArgs = []byte("{}")

// NormalizeArguments returns jsonArgs, or "{}" when it is empty or JSON null.
func NormalizeArguments(jsonArgs []byte) []byte {
	trimmed := bytes.TrimSpace(jsonArgs)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return emptyArgs
	}
	return trimmed
}

// ValidateArguments checks jsonArgs against schema. A nil schema accepts any
// JSON object. Failures wrap ErrInvalidArguments.
func ValidateArguments(schema *Schema, jsonArgs []byte) error {
	args := NormalizeArguments(jsonArgs)
	var obj map[string]any
	if err := json.Unmarshal(args, &obj); err != nil {
		return fmt.Errorf("%w: arguments must be a JSON object: %v", ErrInvalidArguments, err)
	}
	if schema == nil {
		return nil
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal input schema: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(args),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidArguments, strings.Join(msgs, "; "))
}
