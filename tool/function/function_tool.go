//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package function wraps plain Go functions as callable tools.
package function

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	itool "trpc.group/trpc-go/trpc-toolchat-go/internal/tool"
	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

// FunctionTool adapts fn to tool.CallableTool. The input schema is derived
// from I unless WithInputSchema overrides it.
type FunctionTool[I, O any] struct {
	name        string
	description string
	inputSchema *tool.Schema
	fn          func(context.Context, I) (O, error)
}

// Option configures a FunctionTool.
type Option func(*options)

type options struct {
	name        string
	description string
	inputSchema *tool.Schema
}

// WithName sets the tool name. Names should match ^[a-zA-Z0-9_-]+$ to stay
// acceptable to every chat API.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithDescription sets the tool description.
func WithDescription(description string) Option {
	return func(o *options) {
		o.description = description
	}
}

// WithInputSchema replaces the generated input schema.
func WithInputSchema(schema *tool.Schema) Option {
	return func(o *options) {
		o.inputSchema = schema
	}
}

// NewFunctionTool creates a FunctionTool around fn.
func NewFunctionTool[I, O any](fn func(context.Context, I) (O, error), opts ...Option) *FunctionTool[I, O] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.name == "" {
		log.Warnf("FunctionTool: name is empty")
	}
	if o.description == "" {
		log.Warnf("FunctionTool: description is empty for %q", o.name)
	}
	schema := o.inputSchema
	if schema == nil {
		var empty I
		schema = itool.GenerateJSONSchema(reflect.TypeOf(empty))
	}
	return &FunctionTool[I, O]{
		name:        o.name,
		description: o.description,
		inputSchema: schema,
		fn:          fn,
	}
}

// Call decodes jsonArgs into I and runs the wrapped function.
func (ft *FunctionTool[I, O]) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	var input I
	if err := json.Unmarshal(tool.NormalizeArguments(jsonArgs), &input); err != nil {
		return nil, fmt.Errorf("%w: %v", tool.ErrInvalidArguments, err)
	}
	return ft.fn(ctx, input)
}

// Declaration implements tool.Tool.
func (ft *FunctionTool[I, O]) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:        ft.name,
		Description: ft.description,
		InputSchema: ft.inputSchema,
	}
}
