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
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

// Meter and metric names.
const (
	MeterNameChat        = "trpc_toolchat_go.chat"
	MeterNameExecuteTool = "trpc_toolchat_go.execute_tool"

	MetricClientRequestCnt        = "trpc_toolchat_go.client.request_cnt"
	MetricClientOperationDuration = "gen_ai.client.operation.duration"
	MetricClientTokenUsage        = "gen_ai.client.token.usage"

	KeyGenAITokenType = "gen_ai.token.type"
	TokenTypeInput    = "input"
	TokenTypeOutput   = "output"
)

// Instruments. They are no-ops until InitMeterProvider runs.
var (
	MeterProvider metric.MeterProvider = noop.NewMeterProvider()

	ChatRequestCnt               metric.Int64Counter     = noop.Int64Counter{}
	ChatOperationDuration        metric.Float64Histogram = noop.Float64Histogram{}
	ChatTokenUsage               metric.Int64Histogram   = noop.Int64Histogram{}
	ExecuteToolRequestCnt        metric.Int64Counter     = noop.Int64Counter{}
	ExecuteToolOperationDuration metric.Float64Histogram = noop.Float64Histogram{}
)

// InitMeterProvider creates every instrument from mp.
func InitMeterProvider(mp metric.MeterProvider) error {
	chat := mp.Meter(MeterNameChat)
	exec := mp.Meter(MeterNameExecuteTool)

	chatCnt, err := chat.Int64Counter(MetricClientRequestCnt,
		metric.WithDescription("Total number of chat completion requests"),
		metric.WithUnit("1"))
	if err != nil {
		return fmt.Errorf("failed to create chat metric %s: %w", MetricClientRequestCnt, err)
	}
	chatDur, err := chat.Float64Histogram(MetricClientOperationDuration,
		metric.WithDescription("Duration of chat completion requests"),
		metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("failed to create chat metric %s: %w", MetricClientOperationDuration, err)
	}
	chatTokens, err := chat.Int64Histogram(MetricClientTokenUsage,
		metric.WithDescription("Token usage of chat completion requests"),
		metric.WithUnit("{token}"))
	if err != nil {
		return fmt.Errorf("failed to create chat metric %s: %w", MetricClientTokenUsage, err)
	}
	execCnt, err := exec.Int64Counter(MetricClientRequestCnt,
		metric.WithDescription("Total number of tool invocations"),
		metric.WithUnit("1"))
	if err != nil {
		return fmt.Errorf("failed to create execute tool metric %s: %w", MetricClientRequestCnt, err)
	}
	execDur, err := exec.Float64Histogram(MetricClientOperationDuration,
		metric.WithDescription("Duration of tool invocations"),
		metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("failed to create execute tool metric %s: %w", MetricClientOperationDuration, err)
	}

	MeterProvider = mp
	ChatRequestCnt, ChatOperationDuration, ChatTokenUsage = chatCnt, chatDur, chatTokens
	ExecuteToolRequestCnt, ExecuteToolOperationDuration = execCnt, execDur
	return nil
}

// ExecuteToolAttributes labels one tool invocation.
type ExecuteToolAttributes struct {
	ToolName string
	IsError  bool
	Error    error
}

func (a ExecuteToolAttributes) toAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(KeyGenAIOperationName, OperationExecuteTool),
		attribute.String(KeyGenAIToolName, a.ToolName),
		attribute.Bool(KeyToolChatResultIsError, a.IsError),
	}
	if a.Error != nil {
		attrs = append(attrs, attribute.String(KeyErrorType, tool.Kind(a.Error)))
	}
	return attrs
}

// ReportExecuteToolMetrics records count and duration of a tool invocation.
func ReportExecuteToolMetrics(ctx context.Context, a ExecuteToolAttributes, duration time.Duration) {
	opt := metric.WithAttributes(a.toAttributes()...)
	ExecuteToolRequestCnt.Add(ctx, 1, opt)
	ExecuteToolOperationDuration.Record(ctx, duration.Seconds(), opt)
}

// ChatAttributes labels one chat completion round trip.
type ChatAttributes struct {
	RequestModel string
	ToolChoice   string
	Error        error
}

func (a ChatAttributes) toAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(KeyGenAIOperationName, OperationChat),
		attribute.String(KeyGenAIRequestModel, a.RequestModel),
		attribute.String(KeyToolChatToolChoice, a.ToolChoice),
	}
	if a.Error != nil {
		attrs = append(attrs, attribute.String(KeyErrorType, tool.Kind(a.Error)))
	}
	return attrs
}

// ReportChatMetrics records count, duration and token usage of a round trip.
// Token counts are skipped when both are zero.
func ReportChatMetrics(ctx context.Context, a ChatAttributes, duration time.Duration, inputTokens, outputTokens int) {
	attrs := a.toAttributes()
	opt := metric.WithAttributes(attrs...)
	ChatRequestCnt.Add(ctx, 1, opt)
	ChatOperationDuration.Record(ctx, duration.Seconds(), opt)
	if inputTokens == 0 && outputTokens == 0 {
		return
	}
	ChatTokenUsage.Record(ctx, int64(inputTokens),
		metric.WithAttributes(append(attrs, attribute.String(KeyGenAITokenType, TokenTypeInput))...))
	ChatTokenUsage.Record(ctx, int64(outputTokens),
		metric.WithAttributes(append(attrs, attribute.String(KeyGenAITokenType, TokenTypeOutput))...))
}
