//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package toolhost

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

type toolHandler = func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// binding pairs an MCP tool description with the handler serving it.
type binding struct {
	tool    *mcp.Tool
	handler toolHandler
}

// bindings describes every host tool in MCP terms, in registration order.
func bindings(h *Host) ([]binding, error) {
	decls := h.ListTools()
	out := make([]binding, 0, len(decls))
	for _, decl := range decls {
		mt, err := newMCPTool(decl)
		if err != nil {
			return nil, err
		}
		out = append(out, binding{
			tool:    mt,
			handler: newHandler(h, decl.Name),
		})
	}
	return out, nil
}

// newMCPTool builds the MCP description of decl. The announced input schema
// is decl's own schema, so listings carry the same types, bounds and
// required fields the host validates against.
func newMCPTool(decl *tool.Declaration) (*mcp.Tool, error) {
	mt := mcp.NewTool(decl.Name, mcp.WithDescription(decl.Description))
	if decl.InputSchema == nil {
		return mt, nil
	}
	raw, err := json.Marshal(decl.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("tool %s: marshal input schema: %w", decl.Name, err)
	}
	schema := &openapi3.Schema{}
	if err := json.Unmarshal(raw, schema); err != nil {
		return nil, fmt.Errorf("tool %s: convert input schema: %w", decl.Name, err)
	}
	mt.InputSchema = schema
	return mt, nil
}

// newHandler forwards one MCP call to h.Invoke. Unknown tools and invalid
// arguments become protocol errors; everything else travels as a result.
func newHandler(h *Host, name string) toolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", tool.ErrInvalidArguments, name, err)
		}
		log.Debugf("invoke %s with %s", name, args)
		result, err := h.Invoke(ctx, name, args)
		if err != nil {
			log.Infof("invoke %s rejected: %v", name, err)
			return nil, err
		}
		return toMCPResult(result), nil
	}
}

func toMCPResult(result *tool.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{IsError: result.IsError}
	for _, c := range result.Content {
		out.Content = append(out.Content, mcp.NewTextContent(c.Text))
	}
	return out
}
