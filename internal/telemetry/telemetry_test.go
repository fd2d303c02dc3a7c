//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"

	"trpc.group/trpc-go/trpc-toolchat-go/model"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

func recordSpan(t *testing.T, fn func(span trace.Span)) sdktrace.ReadOnlySpan {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := tp.Tracer(InstrumentName).Start(context.Background(), "test")
	fn(span)
	span.End()
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	return spans[0]
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestSpanNames(t *testing.T) {
	assert.Equal(t, "chat gpt-4o", NewChatSpanName("gpt-4o"))
	assert.Equal(t, "chat", NewChatSpanName(""))
	assert.Equal(t, "execute_tool add", NewExecuteToolSpanName("add"))
}

func TestTraceToolCall(t *testing.T) {
	decl := &tool.Declaration{Name: "add", Description: "Add two numbers"}

	span := recordSpan(t, func(s trace.Span) {
		TraceToolCall(s, decl, []byte(`{"a":2,"b":3}`), tool.NewTextResult("5"), nil)
	})
	a := attrs(span)
	assert.Equal(t, "add", a[KeyGenAIToolName].AsString())
	assert.Equal(t, `{"a":2,"b":3}`, a[KeyGenAIToolCallArguments].AsString())
	assert.False(t, a[KeyToolChatResultIsError].AsBool())
	assert.Contains(t, a[KeyGenAIToolCallResult].AsString(), `"text":"5"`)
	assert.Equal(t, codes.Unset, span.Status().Code)

	span = recordSpan(t, func(s trace.Span) {
		TraceToolCall(s, decl, []byte(`{}`), tool.NewErrorResult("ERR: file not found"), nil)
	})
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "ERR: file not found", span.Status().Description)

	span = recordSpan(t, func(s trace.Span) {
		TraceToolCall(s, decl, []byte(`{}`), nil, fmt.Errorf("%w: add", tool.ErrInvalidArguments))
	})
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "InvalidArguments", attrs(span)[KeyErrorType].AsString())
}

func TestTraceChat(t *testing.T) {
	req := &model.Request{
		Tools:      []model.FunctionDeclaration{{Name: "add"}, {Name: "subtract"}},
		ToolChoice: model.ToolChoiceNone,
	}
	msg := model.NewAssistantMessage("")
	msg.ToolCalls = []model.ToolCall{{ID: "call_1"}}
	rsp := &model.Response{
		ID:      "chatcmpl-1",
		Model:   "gpt-4o",
		Choices: []model.Choice{{Message: msg}},
		Usage:   &model.Usage{PromptTokens: 12, CompletionTokens: 7},
	}

	span := recordSpan(t, func(s trace.Span) { TraceChat(s, req, rsp, nil) })
	a := attrs(span)
	assert.Equal(t, "none", a[KeyToolChatToolChoice].AsString())
	assert.Equal(t, int64(2), a[KeyToolChatToolCount].AsInt64())
	assert.Equal(t, "chatcmpl-1", a[KeyGenAIResponseID].AsString())
	assert.Equal(t, int64(1), a[KeyToolChatRequestedCalls].AsInt64())
	assert.Equal(t, int64(12), a[KeyGenAIUsageInputTokens].AsInt64())
	assert.Equal(t, int64(7), a[KeyGenAIUsageOutputTokens].AsInt64())

	span = recordSpan(t, func(s trace.Span) {
		TraceChat(s, req, nil, errors.New("connection reset"))
	})
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, ValueDefaultErrorType, attrs(span)[KeyErrorType].AsString())
}

func TestReportMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	original := MeterProvider
	require.NoError(t, InitMeterProvider(mp))
	t.Cleanup(func() { require.NoError(t, InitMeterProvider(original)) })

	ctx := context.Background()
	ReportExecuteToolMetrics(ctx, ExecuteToolAttributes{ToolName: "add"}, 10*time.Millisecond)
	ReportExecuteToolMetrics(ctx, ExecuteToolAttributes{ToolName: "add", IsError: true}, time.Millisecond)
	ReportChatMetrics(ctx, ChatAttributes{RequestModel: "gpt-4o", ToolChoice: "auto"}, time.Second, 12, 7)
	ReportChatMetrics(ctx, ChatAttributes{RequestModel: "gpt-4o", Error: errors.New("boom")}, time.Second, 0, 0)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := make(map[string]int64)
	seen := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			key := sm.Scope.Name + "/" + m.Name
			seen[key] = true
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counts[key] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), counts[MeterNameExecuteTool+"/"+MetricClientRequestCnt])
	assert.Equal(t, int64(2), counts[MeterNameChat+"/"+MetricClientRequestCnt])
	assert.True(t, seen[MeterNameChat+"/"+MetricClientTokenUsage])
	assert.True(t, seen[MeterNameExecuteTool+"/"+MetricClientOperationDuration])
}

func TestNewGRPCConn(t *testing.T) {
	conn, err := NewGRPCConn("localhost:4317")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	orig := grpcDial
	t.Cleanup(func() { grpcDial = orig })
	grpcDial = func(string, ...grpc.DialOption) (*grpc.ClientConn, error) {
		return nil, errors.New("dial failed")
	}
	_, err = NewGRPCConn("localhost:4317")
	assert.ErrorContains(t, err, "dial failed")
}
