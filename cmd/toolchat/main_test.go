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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-toolchat-go/config"
	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/model"
	"trpc.group/trpc-go/trpc-toolchat-go/server/toolhost"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
	"trpc.group/trpc-go/trpc-toolchat-go/tool/calculator"
)

// addModel asks for add(2,3) when the conversation ends with a user message
// and answers with the tool output once it ends with a tool message.
type addModel struct{}

func (addModel) GenerateContent(_ context.Context, req *model.Request) (<-chan *model.Response, error) {
	last := req.Messages[len(req.Messages)-1]
	msg := model.NewAssistantMessage("")
	if last.Role == model.RoleTool {
		msg.Content = "answer: " + last.Content
	} else {
		msg.ToolCalls = []model.ToolCall{{
			ID:       "call_1",
			Type:     "function",
			Function: model.FunctionDefinitionParam{Name: "add", Arguments: []byte(`{"a":2,"b":3}`)},
		}}
	}
	ch := make(chan *model.Response, 1)
	ch <- &model.Response{Choices: []model.Choice{{Message: msg}}, Done: true}
	close(ch)
	return ch, nil
}

func (addModel) Info() model.Info { return model.Info{Name: "gpt-4o"} }

// hostSession serves a Host in process and counts open sessions.
type hostSession struct {
	host   *toolhost.Host
	open   *atomic.Int32
	closed atomic.Bool
}

func (s *hostSession) ListTools(context.Context) ([]*tool.Declaration, error) {
	return s.host.ListTools(), nil
}

func (s *hostSession) CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	bts, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return s.host.Invoke(ctx, name, bts)
}

func (s *hostSession) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.open.Add(-1)
	}
	return nil
}

func testConfig(concurrency int) *config.Config {
	return &config.Config{
		Model:     config.ModelConfig{Name: "gpt-4o"},
		Host:      config.HostConfig{Transport: "stdio"},
		Session:   config.SessionConfig{Transport: "stdio", Command: "toolhost"},
		Telemetry: config.TelemetryConfig{Protocol: "grpc"},
		Batch:     config.BatchConfig{Concurrency: concurrency},
	}
}

// newTestApp wires an app to in-process sessions. opened counts every
// session ever opened, live the ones not yet closed.
func newTestApp(t *testing.T, concurrency int) (a *app, opened, live *atomic.Int32) {
	t.Helper()
	h, err := toolhost.New(calculator.HostName, "1.0.0", calculator.Tools()...)
	require.NoError(t, err)
	opened, live = &atomic.Int32{}, &atomic.Int32{}
	a = newApp(testConfig(concurrency), addModel{})
	a.open = func(context.Context) (session, error) {
		opened.Add(1)
		live.Add(1)
		return &hostSession{host: h, open: live}, nil
	}
	return a, opened, live
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	f, err := parseFlags([]string{"-model", "gpt-4o-mini", "-command", "./toolhost -transport stdio -kb kb.json", "What", "is", "2+3?"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "What is 2+3?", f.query)

	cfg := testConfig(4)
	require.NoError(t, f.apply(cfg))
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, "./toolhost", cfg.Session.Command)
	assert.Equal(t, []string{"-transport", "stdio", "-kb", "kb.json"}, cfg.Session.Args)

	f, err = parseFlags([]string{"-transport", "streamable", "-server", "http://h/mcp", "-concurrency", "2", "-demo"}, &stderr)
	require.NoError(t, err)
	cfg = testConfig(4)
	require.NoError(t, f.apply(cfg))
	assert.Equal(t, "streamable", cfg.Session.Transport)
	assert.Equal(t, "http://h/mcp", cfg.Session.ServerURL)
	assert.Equal(t, 2, cfg.Batch.Concurrency)

	_, err = parseFlags(nil, &stderr)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "Usage: toolchat")
}

func TestRunQuery(t *testing.T) {
	a, opened, live := newTestApp(t, 1)
	var out bytes.Buffer
	require.NoError(t, a.dispatch(context.Background(), &flags{query: "What is 2+3?"}, &out))
	assert.Equal(t, "answer: 5\n", out.String())
	assert.Equal(t, int32(1), opened.Load())
	assert.Equal(t, int32(0), live.Load())
}

func TestRunQuery_OpenFailure(t *testing.T) {
	a, _, _ := newTestApp(t, 1)
	a.open = func(context.Context) (session, error) {
		return nil, fmt.Errorf("%w: connection refused", errors.New("handshake failed"))
	}
	_, err := a.runQuery(context.Background(), "q")
	assert.ErrorContains(t, err, "connection refused")
}

func TestRunDemo(t *testing.T) {
	a, _, live := newTestApp(t, 1)
	var out bytes.Buffer
	require.NoError(t, a.runDemo(context.Background(), &out))
	assert.Equal(t, "Available tools:\n"+
		"  - add: Add two integers and return the sum\n"+
		"  - subtract: Subtract the second integer from the first and return the difference\n"+
		"add(2, 3) = 5\n"+
		"subtract(2, 3) = -1\n", out.String())
	assert.Equal(t, int32(0), live.Load())
}

func TestRunBatch(t *testing.T) {
	a, opened, live := newTestApp(t, 3)
	queries := make([]string, 10)
	for i := range queries {
		queries[i] = fmt.Sprintf("query %d", i)
	}
	var out bytes.Buffer
	require.NoError(t, a.runBatch(context.Background(), queries, &out))
	assert.Equal(t, int32(10), opened.Load(), "one session per query")
	assert.Equal(t, int32(0), live.Load())

	blocks := strings.Split(strings.TrimSpace(out.String()), "\n\n")
	require.Len(t, blocks, 10)
	for i, block := range blocks {
		assert.Equal(t, fmt.Sprintf("[%d] query %d\nanswer: 5", i+1, i), block)
	}
}

func TestRunBatch_Failures(t *testing.T) {
	a, _, _ := newTestApp(t, 2)
	open := a.open
	var n atomic.Int32
	a.open = func(ctx context.Context) (session, error) {
		if n.Add(1) == 1 {
			return nil, fmt.Errorf("%w: boom", model.ErrUpstreamModel)
		}
		return open(ctx)
	}
	var out bytes.Buffer
	err := a.runBatch(context.Background(), []string{"a", "b"}, &out)
	assert.EqualError(t, err, "1 of 2 queries failed")
	assert.Contains(t, out.String(), "UpstreamModelError: upstream model error: boom")
	assert.Contains(t, out.String(), "answer: 5")
}

func TestReadQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(path, []byte("# header\nfirst\n\n  second  \n"), 0o644))
	queries, err := readQueries(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, queries)

	_, err = readQueries(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestRunQuery_StreamableSession(t *testing.T) {
	h, err := toolhost.New(calculator.HostName, "1.0.0", calculator.Tools()...)
	require.NoError(t, err)
	srv, err := toolhost.NewHTTPServer(h)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	logs := &lockedBuffer{}
	log.SetOutput(logs)
	log.SetLevel(log.LevelDebug)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.LevelInfo)
	}()

	cfg := testConfig(1)
	cfg.Session.Transport = "streamable"
	cfg.Session.ServerURL = ts.URL + toolhost.DefaultPath
	cfg.Session.Timeout = 5 * time.Second
	a := newApp(cfg, addModel{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := a.runQuery(ctx, "What is 2+3?")
	require.NoError(t, err)
	assert.Equal(t, "answer: 5", res.Answer)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "5", res.ToolCalls[0].Result.Text())
	assert.Contains(t, logs.String(), "connected to tool host "+calculator.HostName+" 1.0.0")
}

// lockedBuffer is written by server and client goroutines at once.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
