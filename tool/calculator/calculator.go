//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package calculator provides the integer add and subtract tools.
package calculator

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"trpc.group/trpc-go/trpc-toolchat-go/tool"
	"trpc.group/trpc-go/trpc-toolchat-go/tool/function"
)

// HostName is the name a host serving only these tools announces.
const HostName = "Calculator"

// Tool names.
const (
	AddToolName      = "add"
	SubtractToolName = "subtract"
)

// MaxOperand bounds both operands. Tool arguments may cross a JSON transport
// that decodes numbers as float64, which is exact only up to 2^53-1.
const MaxOperand = 1<<53 - 1

// ErrOverflow is returned when a result does not fit in an int64.
var ErrOverflow = errors.New("integer overflow")

// Operands is the argument object of both tools.
type Operands struct {
	A int64 `json:"a" jsonschema:"description=First integer,required,minimum=-9007199254740991,maximum=9007199254740991"`
	B int64 `json:"b" jsonschema:"description=Second integer,required,minimum=-9007199254740991,maximum=9007199254740991"`
}

// NewAddTool returns the add tool. It renders a+b in decimal.
func NewAddTool() tool.CallableTool {
	return function.NewFunctionTool(
		func(_ context.Context, in Operands) (string, error) {
			sum, err := add(in.A, in.B)
			if err != nil {
				return "", err
			}
			return strconv.FormatInt(sum, 10), nil
		},
		function.WithName(AddToolName),
		function.WithDescription("Add two integers and return the sum"),
	)
}

// NewSubtractTool returns the subtract tool. It renders a-b in decimal.
func NewSubtractTool() tool.CallableTool {
	return function.NewFunctionTool(
		func(_ context.Context, in Operands) (string, error) {
			diff, err := subtract(in.A, in.B)
			if err != nil {
				return "", err
			}
			return strconv.FormatInt(diff, 10), nil
		},
		function.WithName(SubtractToolName),
		function.WithDescription("Subtract the second integer from the first and return the difference"),
	)
}

func add(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return sum, nil
}

func subtract(a, b int64) (int64, error) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, fmt.Errorf("%w: %d - %d", ErrOverflow, a, b)
	}
	return diff, nil
}

// Tools returns add and subtract in registration order.
func Tools() []tool.CallableTool {
	return []tool.CallableTool{NewAddTool(), NewSubtractTool()}
}
