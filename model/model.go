//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package model defines the chat model boundary used by the runner.
package model

import (
	"context"
	"fmt"

	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

// ErrUpstreamModel wraps every failure that reaches the chat API: network,
// authentication, rate limits or an error body. It is never retried.
var ErrUpstreamModel = tool.NewKindError("UpstreamModelError", "upstream model error")

// Info describes a model.
type Info struct {
	Name string
}

// Model is a chat completion backend.
type Model interface {
	// GenerateContent sends request and streams back responses. A
	// non-streaming implementation sends exactly one Response and closes the
	// channel. Transport and API failures arrive as a Response with Error set.
	GenerateContent(ctx context.Context, request *Request) (<-chan *Response, error)
	// Info returns the model description.
	Info() Info
}

// UpstreamError converts a response error into an error wrapping
// ErrUpstreamModel.
func UpstreamError(e *ResponseError) error {
	if e == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrUpstreamModel, e.Type, e.Message)
}
