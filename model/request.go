//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package model

// Role represents the role of a message author.
type Role string

// Role constants for message authors.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// ToolChoice controls whether the model may request tool calls.
type ToolChoice string

// Tool choice modes.
const (
	// ToolChoiceAuto lets the model decide whether to call tools.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone forbids tool calls; the model must answer in text.
	ToolChoiceNone ToolChoice = "none"
)

// Message is one entry of a conversation.
type Message struct {
	// Role is the role of the message author.
	Role Role `json:"role"`
	// Content is the text content.
	Content string `json:"content,omitempty"`
	// ToolID is the id of the call a tool message answers.
	ToolID string `json:"tool_id,omitempty"`
	// ToolName is the name of the tool a tool message answers.
	ToolName string `json:"tool_name,omitempty"`
	// ToolCalls are the calls an assistant message requests.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a tool result message answering call toolID.
func NewToolMessage(toolID, toolName, content string) Message {
	return Message{Role: RoleTool, ToolID: toolID, ToolName: toolName, Content: content}
}

// ToolCall is a call suggested by the model.
type ToolCall struct {
	// Type is always "function".
	Type string `json:"type"`
	// Function holds the tool name and the raw JSON arguments.
	Function FunctionDefinitionParam `json:"function"`
	// ID correlates the call with its tool message.
	ID string `json:"id"`
}

// FunctionDefinitionParam carries the name and arguments of a suggested call.
type FunctionDefinitionParam struct {
	Name      string `json:"name"`
	Arguments []byte `json:"arguments,omitempty"`
}

// FunctionDeclaration is a tool described in the shape chat APIs expect for
// callable functions. Parameters is a JSON schema object.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is one chat completion request.
type Request struct {
	// Messages is the conversation so far, oldest first.
	Messages []Message `json:"messages"`
	// Tools are offered to the model in order.
	Tools []FunctionDeclaration `json:"tools,omitempty"`
	// ToolChoice is sent only when Tools is not empty.
	ToolChoice ToolChoice `json:"tool_choice,omitempty"`
	// Temperature overrides the model default when set.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens caps the completion length when set.
	MaxTokens *int `json:"max_tokens,omitempty"`
}
