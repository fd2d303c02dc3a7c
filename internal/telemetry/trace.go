//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the span and metric helpers used by the tool host
// and the chat runner.
package telemetry

import (
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"trpc.group/trpc-go/trpc-toolchat-go/model"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

// grpcDial is swapped in tests.
var grpcDial = grpc.Dial

// telemetry service constants.
const (
	ServiceName      = "trpc-toolchat-go"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-go-toolchat"
	InstrumentName   = "trpc.toolchat.go"

	OperationExecuteTool = "execute_tool"
	OperationChat        = "chat"
	OperationRun         = "run"
)

// OTLP exporter protocols.
const (
	ProtocolGRPC string = "grpc"
	ProtocolHTTP string = "http"
)

// Attribute keys, following the OpenTelemetry gen_ai conventions where one
// exists.
const (
	KeyGenAISystem             = "gen_ai.system"
	KeyGenAIOperationName      = "gen_ai.operation.name"
	KeyGenAIRequestModel       = "gen_ai.request.model"
	KeyGenAIResponseModel      = "gen_ai.response.model"
	KeyGenAIResponseID         = "gen_ai.response.id"
	KeyGenAIUsageInputTokens   = "gen_ai.usage.input_tokens"
	KeyGenAIUsageOutputTokens  = "gen_ai.usage.output_tokens"
	KeyGenAIToolName           = "gen_ai.tool.name"
	KeyGenAIToolDescription    = "gen_ai.tool.description"
	KeyGenAIToolCallID         = "gen_ai.tool.call.id"
	KeyGenAIToolCallArguments  = "gen_ai.tool.call.arguments"
	KeyGenAIToolCallResult     = "gen_ai.tool.call.result"
	KeyGenAIConversationID     = "gen_ai.conversation.id"
	KeyToolChatToolChoice      = "trpc_toolchat_go.request.tool_choice"
	KeyToolChatToolCount       = "trpc_toolchat_go.request.tool_count"
	KeyToolChatResultIsError   = "trpc_toolchat_go.tool.result.is_error"
	KeyToolChatRequestedCalls  = "trpc_toolchat_go.response.tool_calls"
	KeyErrorType               = "error.type"
	KeyErrorMessage            = "error.message"
	ValueDefaultErrorType      = "_OTHER"
	SystemTRPCToolChat         = "trpc.toolchat.go"
	ValueToolResultNotJSONable = "<not json serializable>"
)

// Tracer starts every span of the module. It delegates to the global tracer
// provider, so telemetry/trace.Start takes effect without re-creating it.
var Tracer trace.Tracer = otel.Tracer(InstrumentName)

// NewChatSpanName returns "chat <model>", or "chat" when model is empty.
func NewChatSpanName(requestModel string) string {
	if requestModel == "" {
		return OperationChat
	}
	return fmt.Sprintf("%s %s", OperationChat, requestModel)
}

// NewExecuteToolSpanName returns "execute_tool <tool>".
func NewExecuteToolSpanName(toolName string) string {
	return fmt.Sprintf("%s %s", OperationExecuteTool, toolName)
}

// TraceToolCall records one tool invocation on span. result may be nil when
// the invocation failed before the tool ran.
func TraceToolCall(span trace.Span, declaration *tool.Declaration, args []byte, result *tool.Result, err error) {
	span.SetAttributes(
		attribute.String(KeyGenAISystem, SystemTRPCToolChat),
		attribute.String(KeyGenAIOperationName, OperationExecuteTool),
		attribute.String(KeyGenAIToolCallArguments, string(args)),
	)
	if declaration != nil {
		span.SetAttributes(
			attribute.String(KeyGenAIToolName, declaration.Name),
			attribute.String(KeyGenAIToolDescription, declaration.Description),
		)
	}
	if result != nil {
		span.SetAttributes(attribute.Bool(KeyToolChatResultIsError, result.IsError))
		if bts, mErr := json.Marshal(result); mErr == nil {
			span.SetAttributes(attribute.String(KeyGenAIToolCallResult, string(bts)))
		} else {
			span.SetAttributes(attribute.String(KeyGenAIToolCallResult, ValueToolResultNotJSONable))
		}
		if result.IsError {
			span.SetStatus(codes.Error, result.Text())
		}
	}
	if err != nil {
		setError(span, tool.Kind(err), err)
	}
}

// TraceChat records one chat completion round trip on span.
func TraceChat(span trace.Span, req *model.Request, rsp *model.Response, err error) {
	span.SetAttributes(
		attribute.String(KeyGenAISystem, SystemTRPCToolChat),
		attribute.String(KeyGenAIOperationName, OperationChat),
	)
	if req != nil {
		span.SetAttributes(
			attribute.String(KeyToolChatToolChoice, string(req.ToolChoice)),
			attribute.Int(KeyToolChatToolCount, len(req.Tools)),
		)
	}
	if rsp != nil {
		span.SetAttributes(
			attribute.String(KeyGenAIResponseID, rsp.ID),
			attribute.String(KeyGenAIResponseModel, rsp.Model),
		)
		if msg, ok := rsp.FirstMessage(); ok {
			span.SetAttributes(attribute.Int(KeyToolChatRequestedCalls, len(msg.ToolCalls)))
		}
		if rsp.Usage != nil {
			span.SetAttributes(
				attribute.Int(KeyGenAIUsageInputTokens, rsp.Usage.PromptTokens),
				attribute.Int(KeyGenAIUsageOutputTokens, rsp.Usage.CompletionTokens),
			)
		}
	}
	if err != nil {
		setError(span, tool.Kind(err), err)
	}
}

func setError(span trace.Span, kind string, err error) {
	if kind == "" || kind == "Error" {
		kind = ValueDefaultErrorType
	}
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(
		attribute.String(KeyErrorType, kind),
		attribute.String(KeyErrorMessage, err.Error()),
	)
}

// NewGRPCConn opens an insecure gRPC connection to an OpenTelemetry collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpcDial(endpoint,
		// Use TLS credentials when the collector is not on a trusted network.
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
