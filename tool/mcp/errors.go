//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package mcp

import (
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

var (
	// ErrHandshakeFailed is returned by Open when the host does not answer
	// the initialize exchange in time or answers it with an error.
	ErrHandshakeFailed = tool.NewKindError("HandshakeFailed", "handshake failed")
	// ErrNotInitialized is returned by calls on a session that is not open.
	ErrNotInitialized = tool.NewKindError("NotInitialized", "session not initialized")
)

// classifyCallError maps a protocol error text onto the tool taxonomy.
// Host errors lose their identity crossing the transport, so the text is
// all that is left to classify.
func classifyCallError(name string, err error) error {
	if err == nil {
		return nil
	}
	if sentinel := sentinelFor(err.Error()); sentinel != nil {
		return fmt.Errorf("%w: %s: %v", sentinel, name, err)
	}
	return fmt.Errorf("call tool %s: %w", name, err)
}

// sentinelFor matches messages produced by the host for unknown tools and
// rejected arguments. Transport failures such as HTTP 404 or a lost protocol
// session are left unclassified.
func sentinelFor(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, tool.ErrUnknownTool.Error()):
		return tool.ErrUnknownTool
	case strings.Contains(lower, tool.ErrInvalidArguments.Error()):
		return tool.ErrInvalidArguments
	default:
		return nil
	}
}
