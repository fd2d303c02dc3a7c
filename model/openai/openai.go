//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package openai implements model.Model on top of the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/model"
)

// Model implements the model.Model interface for the OpenAI API.
type Model struct {
	client               openai.Client
	name                 string
	baseURL              string
	apiKey               string
	channelBufferSize    int
	chatRequestCallback  ChatRequestCallbackFunc
	chatResponseCallback ChatResponseCallbackFunc
}

// New creates a model named name, for example "gpt-4o".
func New(name string, opts ...Option) *Model {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.APIKey == "" {
		o.APIKey = os.Getenv(defaultAPIKeyEnv)
	}

	// Failures reach the caller unchanged; retrying is the caller's decision.
	clientOpts := []openaiopt.RequestOption{openaiopt.WithMaxRetries(0)}
	if o.APIKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.APIKey))
	}
	if o.BaseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.BaseURL))
	}
	httpClient := o.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	clientOpts = append(clientOpts, openaiopt.WithHTTPClient(httpClient))
	clientOpts = append(clientOpts, o.OpenAIOptions...)

	return &Model{
		client:               openai.NewClient(clientOpts...),
		name:                 name,
		baseURL:              o.BaseURL,
		apiKey:               o.APIKey,
		channelBufferSize:    o.ChannelBufferSize,
		chatRequestCallback:  o.ChatRequestCallback,
		chatResponseCallback: o.ChatResponseCallback,
	}
}

// Info implements the model.Model interface.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// GenerateContent implements the model.Model interface. It performs one
// non-streaming completion and sends exactly one response.
func (m *Model) GenerateContent(
	ctx context.Context,
	request *model.Request,
) (<-chan *model.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	responseChan := make(chan *model.Response, m.channelBufferSize)
	chatRequest := m.buildChatRequest(request)

	go func() {
		defer close(responseChan)
		if m.chatRequestCallback != nil {
			m.chatRequestCallback(ctx, &chatRequest)
		}
		m.handleNonStreamingResponse(ctx, chatRequest, responseChan)
	}()
	return responseChan, nil
}

func (m *Model) buildChatRequest(request *model.Request) openai.ChatCompletionNewParams {
	chatRequest := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: m.convertMessages(request.Messages),
		Tools:    m.convertTools(request.Tools),
	}
	// tool_choice is rejected by the API when no tools are offered.
	if len(chatRequest.Tools) > 0 && request.ToolChoice != "" {
		chatRequest.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(request.ToolChoice)),
		}
	}
	if request.Temperature != nil {
		chatRequest.Temperature = openai.Float(*request.Temperature)
	}
	if request.MaxTokens != nil {
		chatRequest.MaxCompletionTokens = openai.Int(int64(*request.MaxTokens))
	}
	return chatRequest
}

func (m *Model) convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			}
		case model.RoleAssistant:
			assistant := &openai.ChatCompletionAssistantMessageParam{
				ToolCalls: m.convertToolCalls(msg.ToolCalls),
			}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			result[i] = openai.ChatCompletionMessageParamUnion{OfAssistant: assistant}
		case model.RoleTool:
			result[i] = openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
					ToolCallID: msg.ToolID,
				},
			}
		default: // Unknown roles are sent as user messages.
			result[i] = openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			}
		}
	}
	return result
}

func (m *Model) convertToolCalls(toolCalls []model.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	var result []openai.ChatCompletionMessageToolCallParam
	for _, toolCall := range toolCalls {
		result = append(result, openai.ChatCompletionMessageToolCallParam{
			ID: toolCall.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      toolCall.Function.Name,
				Arguments: string(toolCall.Function.Arguments),
			},
		})
	}
	return result
}

// convertTools keeps the order of tools.
func (m *Model) convertTools(tools []model.FunctionDeclaration) []openai.ChatCompletionToolParam {
	var result []openai.ChatCompletionToolParam
	for _, decl := range tools {
		param := openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:       decl.Name,
				Parameters: shared.FunctionParameters(decl.Parameters),
			},
		}
		if decl.Description != "" {
			param.Function.Description = openai.String(decl.Description)
		}
		result = append(result, param)
	}
	return result
}

func (m *Model) handleNonStreamingResponse(
	ctx context.Context,
	chatRequest openai.ChatCompletionNewParams,
	responseChan chan<- *model.Response,
) {
	chatCompletion, err := m.client.Chat.Completions.New(ctx, chatRequest)
	if err != nil {
		log.Debugf("openai chat completion for %s failed: %v", m.name, err)
		send(ctx, responseChan, &model.Response{
			Error: &model.ResponseError{
				Message: err.Error(),
				Type:    model.ErrorTypeAPIError,
			},
			Timestamp: time.Now(),
			Done:      true,
		})
		return
	}
	if m.chatResponseCallback != nil {
		m.chatResponseCallback(ctx, &chatRequest, chatCompletion)
	}

	response := &model.Response{
		ID:        chatCompletion.ID,
		Object:    string(chatCompletion.Object),
		Created:   chatCompletion.Created,
		Model:     chatCompletion.Model,
		Timestamp: time.Now(),
		Done:      true,
	}
	if len(chatCompletion.Choices) == 0 {
		response.Error = &model.ResponseError{
			Message: "completion returned no choices",
			Type:    model.ErrorTypeNoChoice,
		}
	}
	response.Choices = make([]model.Choice, len(chatCompletion.Choices))
	for i, choice := range chatCompletion.Choices {
		response.Choices[i] = model.Choice{
			Index: int(choice.Index),
			Message: model.Message{
				Role:    model.RoleAssistant,
				Content: choice.Message.Content,
			},
		}
		for j, toolCall := range choice.Message.ToolCalls {
			id := toolCall.ID
			if id == "" {
				// Some compatible providers omit ids.
				id = fmt.Sprintf("auto_call_%d", j)
			}
			response.Choices[i].Message.ToolCalls = append(response.Choices[i].Message.ToolCalls, model.ToolCall{
				ID:   id,
				Type: string(toolCall.Type),
				Function: model.FunctionDefinitionParam{
					Name:      toolCall.Function.Name,
					Arguments: []byte(toolCall.Function.Arguments),
				},
			})
		}
		if choice.FinishReason != "" {
			finishReason := choice.FinishReason
			response.Choices[i].FinishReason = &finishReason
		}
	}
	if chatCompletion.Usage.PromptTokens > 0 || chatCompletion.Usage.CompletionTokens > 0 {
		response.Usage = &model.Usage{
			PromptTokens:     int(chatCompletion.Usage.PromptTokens),
			CompletionTokens: int(chatCompletion.Usage.CompletionTokens),
			TotalTokens:      int(chatCompletion.Usage.TotalTokens),
		}
	}
	send(ctx, responseChan, response)
}

func send(ctx context.Context, ch chan<- *model.Response, rsp *model.Response) {
	select {
	case ch <- rsp:
	case <-ctx.Done():
	}
}
