//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-toolchat-go/tool"
	toolmcp "trpc.group/trpc-go/trpc-toolchat-go/tool/mcp"
)

// serveArg makes the test binary act as the tool host.
const serveArg = "-toolhost.serve"

func TestMain(m *testing.M) {
	if len(os.Args) > 1 && os.Args[1] == serveArg {
		os.Exit(run(os.Args[2:], os.Stderr))
	}
	os.Exit(m.Run())
}

func TestServeStdio_Subprocess(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a host subprocess")
	}
	kb, err := filepath.Abs(filepath.Join("..", "..", "data", "kb.json"))
	require.NoError(t, err)
	// Debug logging makes the host log on every call; any of it on stdout
	// would break the framing.
	cfgPath := filepath.Join(t.TempDir(), "toolchat.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: debug\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := toolmcp.Open(ctx, toolmcp.ConnectionConfig{
		Transport: "stdio",
		Command:   os.Args[0],
		Args:      []string{serveArg, "-config", cfgPath, "-transport", "stdio", "-kb", kb},
	})
	require.NoError(t, err)
	assert.Equal(t, hostName, s.ServerInfo().Name)
	assert.Equal(t, hostVersion, s.ServerInfo().Version)

	decls, err := s.ListTools(ctx)
	require.NoError(t, err)
	var names []string
	for _, d := range decls {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"add", "subtract", "get_knowledge_base"}, names)

	sum, err := s.CallTool(ctx, "add", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.False(t, sum.IsError)
	assert.Equal(t, "5", sum.Text())

	kbText, err := s.CallTool(ctx, "get_knowledge_base", nil)
	require.NoError(t, err)
	assert.False(t, kbText.IsError)
	assert.True(t, strings.HasPrefix(kbText.Text(),
		"Here is the registered knowledge base\nQ1: What is the company's vacation policy?\n"), kbText.Text())

	_, err = s.CallTool(ctx, "multiply", map[string]any{"a": 2, "b": 3})
	assert.True(t, errors.Is(err, tool.ErrUnknownTool))

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
