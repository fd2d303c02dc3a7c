//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package tool defines the tool descriptor, call request and call result
// types shared by the tool host, the tool session and the chat runner.
package tool

import (
	"context"
	"strings"
)

// Content types.
const (
	// ContentTypeText is the only content block type produced by this module.
	ContentTypeText = "text"
)

// Declaration describes a tool: its unique name, a human readable
// description and the schema of the arguments it accepts.
// A Declaration is immutable once a host has listed it.
type Declaration struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	InputSchema  *Schema `json:"inputSchema"`
	OutputSchema *Schema `json:"outputSchema,omitempty"`
}

// Schema is the JSON schema subset used for tool arguments.
type Schema struct {
	Type                 string             `json:"type,omitempty"`
	Description          string             `json:"description,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	Default              any                `json:"default,omitempty"`
	Enum                 []any              `json:"enum,omitempty"`
	Minimum              *float64           `json:"minimum,omitempty"`
	Maximum              *float64           `json:"maximum,omitempty"`
	Ref                  string             `json:"$ref,omitempty"`
	Defs                 map[string]*Schema `json:"$defs,omitempty"`
}

// Tool is anything that can describe itself.
type Tool interface {
	Declaration() *Declaration
}

// CallableTool is a Tool that can be executed with JSON encoded arguments.
// The returned value is rendered into a Result by the host: a *Result is used
// as is, a string becomes a single text block and anything else is JSON
// encoded.
type CallableTool interface {
	Tool
	Call(ctx context.Context, jsonArgs []byte) (any, error)
}

// Request names a tool and carries the decoded arguments for one call.
type Request struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Content is one block of a call result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the outcome of one tool invocation. It is never mutated after
// the host produces it.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// NewTextResult returns a successful result with a single text block.
func NewTextResult(text string) *Result {
	return &Result{Content: []Content{{Type: ContentTypeText, Text: text}}}
}

// NewErrorResult returns an error flagged result with a single text block.
func NewErrorResult(text string) *Result {
	return &Result{Content: []Content{{Type: ContentTypeText, Text: text}}, IsError: true}
}

// Text joins the text payload of every block with a newline.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	if len(r.Content) == 1 {
		return r.Content[0].Text
	}
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n")
}
