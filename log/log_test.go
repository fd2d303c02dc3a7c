//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	a2alog "trpc.group/trpc-go/trpc-a2a-go/log"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel(LevelInfo)
	cases := []struct {
		in       string
		expected zapcore.Level
	}{
		{LevelDebug, zapcore.DebugLevel},
		{LevelInfo, zapcore.InfoLevel},
		{LevelWarn, zapcore.WarnLevel},
		{LevelError, zapcore.ErrorLevel},
		{LevelFatal, zapcore.FatalLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, c := range cases {
		SetLevel(c.in)
		assert.Equal(t, c.expected, zapLevel.Level(), "level %q", c.in)
	}
}

func TestSetOutput(t *testing.T) {
	origDefault, origCtx := Default, ContextDefault
	defer func() {
		Default, ContextDefault = origDefault, origCtx
		a2alog.Default = origDefault
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	Infof("session opened with %d tools", 3)
	InfofContext(context.Background(), "tool %s invoked", "add")

	out := buf.String()
	require.Contains(t, out, "session opened with 3 tools")
	require.Contains(t, out, "tool add invoked")
	assert.Same(t, Default, a2alog.Default)
}

func TestLevelFiltersOutput(t *testing.T) {
	origDefault, origCtx := Default, ContextDefault
	defer func() {
		Default, ContextDefault = origDefault, origCtx
		a2alog.Default = origDefault
		SetLevel(LevelInfo)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	Debug("hidden debug")
	Info("hidden info")
	Warn("visible warn")
	Errorf("visible %s", "error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
	assert.Contains(t, out, "visible error")
}
