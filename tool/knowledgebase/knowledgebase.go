//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package knowledgebase provides a tool that renders a static question and
// answer store as one text block.
package knowledgebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
	"trpc.group/trpc-go/trpc-toolchat-go/tool/function"
)

// HostName is the name a host serving only this tool announces.
const HostName = "knowledge base"

// ToolName is the registered name of the tool.
const ToolName = "get_knowledge_base"

// DefaultPath is the store location used when none is configured.
const DefaultPath = "data/kb.json"

// Rendering and error texts.
const (
	header          = "Here is the registered knowledge base"
	unknownQuestion = "unknown question"
	unknownAnswer   = "unknown answer"

	errNotFound  = "ERR: file not found"
	errDecode    = "ERR: could not decode json file"
	errMalformed = "ERR: malformed data: expected a list of records"
	errGeneric   = "ERR: gen error: %v"
)

// Option configures the tool.
type Option func(*options)

type options struct {
	path     string
	readFile func(string) ([]byte, error)
}

// WithPath sets the store file. Relative paths resolve against the working
// directory of the host process.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithReadFile replaces os.ReadFile.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(o *options) {
		o.readFile = fn
	}
}

// NewTool returns the get_knowledge_base tool. It takes no arguments.
// The store is read wholesale on every call, so edits show up without a
// restart. Failures never surface as errors: the tool answers with an error
// flagged result whose text names the failure.
func NewTool(opts ...Option) tool.CallableTool {
	o := &options{path: DefaultPath, readFile: os.ReadFile}
	for _, opt := range opts {
		opt(o)
	}
	return function.NewFunctionTool(
		func(_ context.Context, _ struct{}) (*tool.Result, error) {
			return load(o), nil
		},
		function.WithName(ToolName),
		function.WithDescription("Retrieve the entire knowledge base as formatted question and answer pairs"),
	)
}

func load(o *options) *tool.Result {
	log.Debugf("reading knowledge base from %s", o.path)
	data, err := o.readFile(o.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tool.NewErrorResult(errNotFound)
		}
		return tool.NewErrorResult(fmt.Sprintf(errGeneric, err))
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return tool.NewErrorResult(errDecode)
	}
	items, ok := raw.([]any)
	if !ok {
		return tool.NewErrorResult(errMalformed)
	}
	return tool.NewTextResult(Render(items))
}

// Render formats items as numbered Q/A pairs starting at 1. Object items use
// their question and answer fields. Any other item is shown as raw JSON.
func Render(items []any) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for i, item := range items {
		n := i + 1
		question, answer := describe(n, item)
		fmt.Fprintf(&b, "Q%d: %s\n", n, question)
		fmt.Fprintf(&b, "A%d: %s\n", n, answer)
	}
	return b.String()
}

func describe(n int, item any) (string, string) {
	obj, ok := item.(map[string]any)
	if !ok {
		raw, err := json.Marshal(item)
		if err != nil {
			return fmt.Sprintf("Item %d", n), fmt.Sprint(item)
		}
		return fmt.Sprintf("Item %d", n), string(raw)
	}
	return field(obj, "question", unknownQuestion), field(obj, "answer", unknownAnswer)
}

func field(obj map[string]any, key, fallback string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
