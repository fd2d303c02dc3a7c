//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package adapter translates tool declarations into chat function
// declarations and model tool calls back into tool requests.
package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/model"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

// ToCallableSchema maps every declaration to a function declaration, one to
// one and in order. A nil declaration becomes an unnamed function taking an
// empty object.
func ToCallableSchema(decls []*tool.Declaration) []model.FunctionDeclaration {
	out := make([]model.FunctionDeclaration, 0, len(decls))
	for _, decl := range decls {
		if decl == nil {
			out = append(out, model.FunctionDeclaration{Parameters: parameters("", nil)})
			continue
		}
		out = append(out, model.FunctionDeclaration{
			Name:        decl.Name,
			Description: decl.Description,
			Parameters:  parameters(decl.Name, decl.InputSchema),
		})
	}
	return out
}

func parameters(name string, schema *tool.Schema) map[string]any {
	empty := map[string]any{"type": "object", "properties": map[string]any{}}
	if schema == nil {
		return empty
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		log.Warnf("tool %s: marshal input schema: %v", name, err)
		return empty
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		log.Warnf("tool %s: decode input schema: %v", name, err)
		return empty
	}
	if _, ok := params["type"]; !ok {
		params["type"] = "object"
	}
	// Function calling rejects object schemas without properties.
	if params["type"] == "object" {
		if _, ok := params["properties"]; !ok {
			params["properties"] = map[string]any{}
		}
	}
	return params
}

// FromModelCall decodes the arguments a model supplied for a tool call.
// Empty arguments decode to an empty mapping. Anything that is not a JSON
// object fails with tool.ErrMalformedCallArguments.
func FromModelCall(call model.ToolCall) (*tool.Request, error) {
	args := bytes.TrimSpace(call.Function.Arguments)
	if len(args) == 0 {
		return &tool.Request{Name: call.Function.Name, Arguments: map[string]any{}}, nil
	}
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", tool.ErrMalformedCallArguments, call.Function.Name, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: %s: trailing data", tool.ErrMalformedCallArguments, call.Function.Name)
	}
	switch v := decoded.(type) {
	case map[string]any:
		return &tool.Request{Name: call.Function.Name, Arguments: v}, nil
	case nil:
		return &tool.Request{Name: call.Function.Name, Arguments: map[string]any{}}, nil
	default:
		return nil, fmt.Errorf("%w: %s: expected an object, got %T",
			tool.ErrMalformedCallArguments, call.Function.Name, decoded)
	}
}
