//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package function_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-toolchat-go/tool"
	"trpc.group/trpc-go/trpc-toolchat-go/tool/function"
)

type echoInput struct {
	Message string `json:"message" jsonschema:"description=Text to echo"`
	Prefix  string `json:"prefix,omitempty"`
}

func echo(_ context.Context, in echoInput) (string, error) {
	if in.Message == "" {
		return "", errors.New("message is empty")
	}
	return in.Prefix + in.Message, nil
}

func TestFunctionTool_Declaration(t *testing.T) {
	ft := function.NewFunctionTool(echo,
		function.WithName("echo"),
		function.WithDescription("Echo a message"),
	)
	decl := ft.Declaration()
	assert.Equal(t, "echo", decl.Name)
	assert.Equal(t, "Echo a message", decl.Description)
	require.NotNil(t, decl.InputSchema)
	assert.Equal(t, []string{"message"}, decl.InputSchema.Required)
	assert.Equal(t, "Text to echo", decl.InputSchema.Properties["message"].Description)
}

func TestFunctionTool_Call(t *testing.T) {
	ft := function.NewFunctionTool(echo, function.WithName("echo"), function.WithDescription("Echo"))

	out, err := ft.Call(context.Background(), []byte(`{"message":"hi","prefix":"> "}`))
	require.NoError(t, err)
	assert.Equal(t, "> hi", out)

	_, err = ft.Call(context.Background(), []byte(`{}`))
	assert.EqualError(t, err, "message is empty")

	_, err = ft.Call(context.Background(), []byte(`{"message":`))
	assert.ErrorIs(t, err, tool.ErrInvalidArguments)
}

func TestFunctionTool_CustomSchema(t *testing.T) {
	custom := &tool.Schema{Type: "object", Required: []string{"x"}}
	ft := function.NewFunctionTool(
		func(_ context.Context, _ map[string]any) (int, error) { return 1, nil },
		function.WithName("custom"),
		function.WithInputSchema(custom),
	)
	assert.Same(t, custom, ft.Declaration().InputSchema)

	out, err := ft.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out)
}
