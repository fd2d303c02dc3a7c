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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultText(t *testing.T) {
	assert.Equal(t, "", (*Result)(nil).Text())
	assert.Equal(t, "5", NewTextResult("5").Text())
	r := &Result{Content: []Content{
		{Type: ContentTypeText, Text: "first"},
		{Type: ContentTypeText, Text: "second"},
	}}
	assert.Equal(t, "first\nsecond", r.Text())
}

func TestNewErrorResult(t *testing.T) {
	r := NewErrorResult("ERR: file not found")
	assert.True(t, r.IsError)
	require.Len(t, r.Content, 1)
	assert.Equal(t, ContentTypeText, r.Content[0].Type)

	exec := NewExecutionResult("divide", errors.New("division by zero"))
	assert.True(t, exec.IsError)
	assert.Equal(t, "tool execution error: divide: division by zero", exec.Text())
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unknown tool", fmt.Errorf("call: %w", ErrUnknownTool), "UnknownTool"},
		{"invalid arguments", fmt.Errorf("%w: a is required", ErrInvalidArguments), "InvalidArguments"},
		{"malformed", ErrMalformedCallArguments, "MalformedCallArguments"},
		{"execution", ErrToolExecution, "ToolExecutionError"},
		{"kind error", fmt.Errorf("open: %w", NewKindError("HandshakeFailed", "handshake failed")), "HandshakeFailed"},
		{"plain", errors.New("boom"), "Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestValidateArguments(t *testing.T) {
	schema := &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"a": {Type: "integer"},
			"b": {Type: "integer"},
		},
		Required: []string{"a", "b"},
	}

	tests := []struct {
		name    string
		schema  *Schema
		args    string
		wantErr bool
	}{
		{"valid", schema, `{"a":2,"b":3}`, false},
		{"float encoded integer", schema, `{"a":2.0,"b":3}`, false},
		{"missing field", schema, `{"a":2}`, true},
		{"wrong type", schema, `{"a":"two","b":3}`, true},
		{"not an object", schema, `[1,2]`, true},
		{"not json", schema, `{a:2`, true},
		{"empty payload with no required fields", &Schema{Type: "object"}, ``, false},
		{"null payload", &Schema{Type: "object"}, `null`, false},
		{"nil schema", nil, `{"anything":true}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArguments(tt.schema, []byte(tt.args))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidArguments)
				return
			}
			require.NoError(t, err)
		})
	}
}
