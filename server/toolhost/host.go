//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package toolhost serves a fixed set of tools over the MCP protocol.
//
// A Host is built once from its tools and never changes afterwards. It is
// independent of any transport: NewStdioServer and NewHTTPServer bind it to
// standard streams or to a streamable HTTP endpoint.
package toolhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/trace"

	itelemetry "trpc.group/trpc-go/trpc-toolchat-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

// Host is an immutable registry of named tools.
type Host struct {
	name    string
	version string
	decls   []*tool.Declaration
	tools   map[string]tool.CallableTool
}

// New registers tools in the given order. Names must be unique and non
// empty.
func New(name, version string, tools ...tool.CallableTool) (*Host, error) {
	h := &Host{
		name:    name,
		version: version,
		decls:   make([]*tool.Declaration, 0, len(tools)),
		tools:   make(map[string]tool.CallableTool, len(tools)),
	}
	for i, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("tool %d is nil", i)
		}
		decl := t.Declaration()
		if decl == nil || decl.Name == "" {
			return nil, fmt.Errorf("tool %d has no name", i)
		}
		if _, ok := h.tools[decl.Name]; ok {
			return nil, fmt.Errorf("duplicate tool name %q", decl.Name)
		}
		if decl.InputSchema == nil {
			decl.InputSchema = &tool.Schema{Type: "object"}
		}
		h.decls = append(h.decls, decl)
		h.tools[decl.Name] = t
	}
	log.Debugf("host %s registered %d tools", name, len(h.decls))
	return h, nil
}

// Name returns the host name announced during the handshake.
func (h *Host) Name() string { return h.name }

// Version returns the host version announced during the handshake.
func (h *Host) Version() string { return h.version }

// ListTools returns the declarations in registration order. The slice is a
// copy; the declarations themselves must not be modified.
func (h *Host) ListTools() []*tool.Declaration {
	out := make([]*tool.Declaration, len(h.decls))
	copy(out, h.decls)
	return out
}

// Invoke runs the tool called name with JSON encoded arguments.
//
// It returns tool.ErrUnknownTool for a name that is not registered and
// tool.ErrInvalidArguments when the arguments do not satisfy the tool's
// schema. Every failure inside the tool, panics included, is returned as an
// error flagged Result instead.
func (h *Host) Invoke(ctx context.Context, name string, jsonArgs []byte) (result *tool.Result, err error) {
	t, ok := h.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tool.ErrUnknownTool, name)
	}
	decl := t.Declaration()
	args := tool.NormalizeArguments(jsonArgs)

	ctx, span := itelemetry.Tracer.Start(ctx, itelemetry.NewExecuteToolSpanName(name),
		trace.WithSpanKind(trace.SpanKindInternal))
	start := time.Now()
	defer func() {
		itelemetry.TraceToolCall(span, decl, args, result, err)
		itelemetry.ReportExecuteToolMetrics(ctx, itelemetry.ExecuteToolAttributes{
			ToolName: name,
			IsError:  result != nil && result.IsError,
			Error:    err,
		}, time.Since(start))
		span.End()
	}()

	if err := tool.ValidateArguments(decl.InputSchema, args); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var (
		out     any
		callErr error
		pc      panics.Catcher
	)
	pc.Try(func() { out, callErr = t.Call(ctx, args) })
	if r := pc.Recovered(); r != nil {
		log.ErrorfContext(ctx, "tool %s panicked: %v", name, r.Value)
		return tool.NewExecutionResult(name, r.Value), nil
	}
	if callErr != nil {
		if errors.Is(callErr, tool.ErrInvalidArguments) {
			return nil, fmt.Errorf("%s: %w", name, callErr)
		}
		log.DebugfContext(ctx, "tool %s failed: %v", name, callErr)
		return tool.NewExecutionResult(name, callErr), nil
	}
	return render(name, out), nil
}

// render turns a tool's return value into a Result.
func render(name string, out any) *tool.Result {
	switch v := out.(type) {
	case *tool.Result:
		if v == nil {
			return tool.NewTextResult("")
		}
		return v
	case string:
		return tool.NewTextResult(v)
	case nil:
		return tool.NewTextResult("")
	default:
		bts, err := json.Marshal(v)
		if err != nil {
			return tool.NewExecutionResult(name, fmt.Errorf("encode result: %w", err))
		}
		return tool.NewTextResult(string(bts))
	}
}
