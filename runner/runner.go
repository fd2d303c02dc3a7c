//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package runner runs the tool augmented chat loop: one completion with the
// available tools, at most one round of tool calls, and a final completion
// with tools disabled.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-toolchat-go/adapter"
	itelemetry "trpc.group/trpc-go/trpc-toolchat-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/model"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

// ToolCaller is the part of a tool session the loop needs. The caller of Run
// owns it and closes it.
type ToolCaller interface {
	ListTools(ctx context.Context) ([]*tool.Declaration, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error)
}

// Option is a function that configures a Runner.
type Option func(*Options)

// Options is the options for the Runner.
type Options struct {
	systemPrompt string
	temperature  *float64
	maxTokens    *int
}

// WithSystemPrompt prepends a system message to every conversation.
func WithSystemPrompt(prompt string) Option {
	return func(opts *Options) {
		opts.systemPrompt = prompt
	}
}

// WithTemperature sets the sampling temperature of both round trips.
func WithTemperature(t float64) Option {
	return func(opts *Options) {
		opts.temperature = &t
	}
}

// WithMaxTokens caps the completion length of both round trips.
func WithMaxTokens(n int) Option {
	return func(opts *Options) {
		opts.maxTokens = &n
	}
}

// ToolCallRecord is one executed tool call.
type ToolCallRecord struct {
	ID        string
	Name      string
	Arguments []byte
	// Result is what was sent back to the model. Failures are recorded as
	// error flagged results.
	Result *tool.Result
	// ErrorKind names the failure category, empty on success.
	ErrorKind string
}

// Result is the outcome of one Run.
type Result struct {
	RunID     string
	Answer    string
	ToolCalls []ToolCallRecord
	// Messages is the full conversation, final answer included.
	Messages []model.Message
}

// Runner runs queries against one model. It holds no per query state and
// may serve concurrent Runs.
type Runner struct {
	model model.Model
	opts  Options
}

// New creates a Runner for m.
func New(m model.Model, opts ...Option) *Runner {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return &Runner{model: m, opts: o}
}

// Run answers query, letting the model call the tools of caller once.
// Failures of the chat API wrap model.ErrUpstreamModel and are not retried.
// Tool failures never fail the Run; they are sent to the model as error
// results.
func (r *Runner) Run(ctx context.Context, caller ToolCaller, query string) (*Result, error) {
	if caller == nil {
		return nil, errors.New("tool caller is nil")
	}
	result := &Result{RunID: uuid.New().String()}
	ctx, span := itelemetry.Tracer.Start(ctx, itelemetry.OperationRun,
		trace.WithAttributes(
			attribute.String(itelemetry.KeyGenAIConversationID, result.RunID),
			attribute.String(itelemetry.KeyGenAIRequestModel, r.model.Info().Name),
		))
	defer span.End()

	decls, err := caller.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	tools := adapter.ToCallableSchema(decls)
	log.Debugf("run %s: %d tools offered to %s", result.RunID, len(tools), r.model.Info().Name)

	var messages []model.Message
	if r.opts.systemPrompt != "" {
		messages = append(messages, model.NewSystemMessage(r.opts.systemPrompt))
	}
	messages = append(messages, model.NewUserMessage(query))

	first, err := r.chat(ctx, r.newRequest(messages, tools, model.ToolChoiceAuto))
	if err != nil {
		return nil, err
	}
	reply, _ := first.FirstMessage()
	reply.Role = model.RoleAssistant
	messages = append(messages, reply)
	if len(reply.ToolCalls) == 0 {
		result.Answer = reply.Content
		result.Messages = messages
		return result, nil
	}

	// Calls run one by one in the order the model emitted them.
	for _, call := range reply.ToolCalls {
		record := r.invoke(ctx, caller, call)
		result.ToolCalls = append(result.ToolCalls, record)
		messages = append(messages, model.NewToolMessage(call.ID, call.Function.Name, record.Result.Text()))
	}

	final, err := r.chat(ctx, r.newRequest(messages, tools, model.ToolChoiceNone))
	if err != nil {
		return nil, err
	}
	answer, _ := final.FirstMessage()
	answer.Role = model.RoleAssistant
	if len(answer.ToolCalls) > 0 {
		log.WarnfContext(ctx, "run %s: ignoring %d tool calls in the final reply", result.RunID, len(answer.ToolCalls))
		answer.ToolCalls = nil
	}
	result.Answer = answer.Content
	result.Messages = append(messages, answer)
	return result, nil
}

func (r *Runner) newRequest(messages []model.Message, tools []model.FunctionDeclaration, choice model.ToolChoice) *model.Request {
	snapshot := make([]model.Message, len(messages))
	copy(snapshot, messages)
	return &model.Request{
		Messages:    snapshot,
		Tools:       tools,
		ToolChoice:  choice,
		Temperature: r.opts.temperature,
		MaxTokens:   r.opts.maxTokens,
	}
}

// invoke runs one model requested call. It never fails: decoding and
// session errors become error flagged results.
func (r *Runner) invoke(ctx context.Context, caller ToolCaller, call model.ToolCall) ToolCallRecord {
	record := ToolCallRecord{
		ID:        call.ID,
		Name:      call.Function.Name,
		Arguments: call.Function.Arguments,
	}
	req, err := adapter.FromModelCall(call)
	if err == nil {
		log.DebugfContext(ctx, "calling tool %s (%s)", call.Function.Name, call.ID)
		record.Result, err = caller.CallTool(ctx, req.Name, req.Arguments)
	}
	if err != nil {
		log.InfofContext(ctx, "tool call %s (%s) failed: %v", call.Function.Name, call.ID, err)
		record.ErrorKind = tool.Kind(err)
		record.Result = tool.NewErrorResult(err.Error())
		return record
	}
	if record.Result == nil {
		record.Result = tool.NewTextResult("")
	}
	if record.Result.IsError {
		record.ErrorKind = "ToolExecutionError"
	}
	return record
}

// chat performs one completion and returns its last response.
func (r *Runner) chat(ctx context.Context, req *model.Request) (rsp *model.Response, err error) {
	modelName := r.model.Info().Name
	ctx, span := itelemetry.Tracer.Start(ctx, itelemetry.NewChatSpanName(modelName))
	start := time.Now()
	defer func() {
		itelemetry.TraceChat(span, req, rsp, err)
		var in, out int
		if rsp != nil && rsp.Usage != nil {
			in, out = rsp.Usage.PromptTokens, rsp.Usage.CompletionTokens
		}
		itelemetry.ReportChatMetrics(ctx, itelemetry.ChatAttributes{
			RequestModel: modelName,
			ToolChoice:   string(req.ToolChoice),
			Error:        err,
		}, time.Since(start), in, out)
		span.End()
	}()

	ch, err := r.model.GenerateContent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamModel, err)
	}
	var last *model.Response
	for response := range ch {
		if response == nil {
			continue
		}
		if response.Error != nil && err == nil {
			err = model.UpstreamError(response.Error)
		}
		last = response
	}
	if err != nil {
		return last, err
	}
	if last == nil {
		return nil, model.UpstreamError(&model.ResponseError{
			Message: "model returned no response",
			Type:    model.ErrorTypeNoChoice,
		})
	}
	if _, ok := last.FirstMessage(); !ok {
		return last, model.UpstreamError(&model.ResponseError{
			Message: "completion returned no choices",
			Type:    model.ErrorTypeNoChoice,
		})
	}
	log.DebugfContext(ctx, "chat %s with tool_choice %q returned %s", modelName, req.ToolChoice, last.ID)
	return last, nil
}
