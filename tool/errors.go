//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool is returned when a call names a tool the host, or the
	// most recent listing seen by a session, does not know.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned when arguments fail schema validation.
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrMalformedCallArguments is returned when a model supplied argument
	// payload cannot be decoded into a JSON object.
	ErrMalformedCallArguments = errors.New("malformed call arguments")
	// ErrToolExecution marks a failure inside tool logic. Hosts render it into
	// an error flagged Result instead of returning it.
	ErrToolExecution = errors.New("tool execution error")
)

// kinder lets errors owned by other packages report their taxonomy name.
type kinder interface {
	Kind() string
}

// kinds maps the sentinels of this package to their taxonomy names.
var kinds = []struct {
	err  error
	name string
}{
	{ErrUnknownTool, "UnknownTool"},
	{ErrInvalidArguments, "InvalidArguments"},
	{ErrMalformedCallArguments, "MalformedCallArguments"},
	{ErrToolExecution, "ToolExecutionError"},
}

// Kind returns the taxonomy name of err, such as "UnknownTool", or "Error"
// when err does not belong to the taxonomy.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Error"
}

// KindError is a sentinel that reports its own taxonomy name. Packages
// outside tool use it so Kind can classify their errors.
type KindError struct {
	Name string
	Msg  string
}

// NewKindError creates a KindError.
func NewKindError(name, msg string) *KindError {
	return &KindError{Name: name, Msg: msg}
}

// Error implements error.
func (e *KindError) Error() string { return e.Msg }

// Kind implements kinder.
func (e *KindError) Kind() string { return e.Name }

// executionText renders a tool failure for an error flagged Result.
func executionText(name string, cause any) string {
	return fmt.Sprintf("%v: %s: %v", ErrToolExecution, name, cause)
}

// NewExecutionResult wraps a failure of tool name into an error flagged
// result. cause may be an error or a recovered panic value.
func NewExecutionResult(name string, cause any) *Result {
	return NewErrorResult(executionText(name, cause))
}
