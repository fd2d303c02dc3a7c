//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package mcp provides the caller side of the tool protocol: a Session that
// owns one transport to a tool host, performs the handshake and exposes
// list and call operations with normalized results.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

// ServerInfo is what the host reported during the handshake.
type ServerInfo struct {
	Name            string
	Version         string
	ProtocolVersion string
}

// SessionOption configures Open.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	mcpOptions []mcp.ClientOption
	connect    func(ConnectionConfig, transport) (mcp.Connector, error)
}

// WithMCPOptions sets additional MCP client options for the streamable
// transport.
func WithMCPOptions(options ...mcp.ClientOption) SessionOption {
	return func(o *sessionOptions) {
		o.mcpOptions = append(o.mcpOptions, options...)
	}
}

// Session is a caller side handle to one tool host. A Session is not shared
// between concurrent queries; its methods are nonetheless safe to call from
// several goroutines.
type Session struct {
	cfg    ConnectionConfig
	client mcp.Connector
	info   ServerInfo

	mu          sync.RWMutex
	initialized bool
	// listed holds the most recent listing keyed by name; nil until the
	// first ListTools.
	listed map[string]*tool.Declaration

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the host described by cfg and performs the handshake.
// On any failure the transport is released before Open returns. The caller
// must Close the returned Session.
func Open(ctx context.Context, cfg ConnectionConfig, opts ...SessionOption) (*Session, error) {
	t, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.connect == nil {
		o.connect = func(c ConnectionConfig, t transport) (mcp.Connector, error) {
			return createClient(c, t, o.mcpOptions)
		}
	}

	log.Infof("connecting to tool host over %s", cfg.Transport)
	client, err := o.connect(cfg, t)
	if err != nil {
		return nil, fmt.Errorf("%w: create client: %v", ErrHandshakeFailed, err)
	}

	s := &Session{cfg: cfg, client: client}
	if err := s.initialize(ctx); err != nil {
		if closeErr := s.Close(); closeErr != nil {
			log.Errorf("close transport after failed handshake: %v", closeErr)
		}
		return nil, err
	}
	return s, nil
}

// createClient creates the connector for the selected transport.
func createClient(cfg ConnectionConfig, t transport, extra []mcp.ClientOption) (mcp.Connector, error) {
	clientInfo := cfg.ClientInfo
	if clientInfo.Name == "" {
		clientInfo = defaultClientInfo
	}
	switch t {
	case transportStdio:
		config := mcp.StdioTransportConfig{
			ServerParams: mcp.StdioServerParameters{
				Command: cfg.Command,
				Args:    cfg.Args,
			},
			Timeout: cfg.Timeout,
		}
		return mcp.NewStdioClient(config, clientInfo)
	case transportStreamable:
		options := []mcp.ClientOption{
			mcp.WithClientLogger(mcp.GetDefaultLogger()),
		}
		if len(cfg.Headers) > 0 {
			headers := http.Header{}
			for k, v := range cfg.Headers {
				headers.Set(k, v)
			}
			options = append(options, mcp.WithHTTPHeaders(headers))
		}
		options = append(options, extra...)
		return mcp.NewClient(cfg.ServerURL, clientInfo, options...)
	default:
		return nil, fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}
}

func (s *Session) initialize(ctx context.Context) error {
	timeout := s.cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	initResp, err := s.client.Initialize(ctx, &mcp.InitializeRequest{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	if initResp == nil {
		return fmt.Errorf("%w: empty initialize response", ErrHandshakeFailed)
	}

	s.mu.Lock()
	s.info = ServerInfo{
		Name:            initResp.ServerInfo.Name,
		Version:         initResp.ServerInfo.Version,
		ProtocolVersion: initResp.ProtocolVersion,
	}
	s.initialized = true
	s.mu.Unlock()

	log.Infof("tool session initialized: server %s %s, protocol %s",
		initResp.ServerInfo.Name, initResp.ServerInfo.Version, initResp.ProtocolVersion)
	return nil
}

// ServerInfo returns the host identity reported by the handshake.
func (s *Session) ServerInfo() ServerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// ListTools returns the host's tools in host order and remembers them as the
// most recent listing.
func (s *Session) ListTools(ctx context.Context) ([]*tool.Declaration, error) {
	if !s.isInitialized() {
		return nil, ErrNotInitialized
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	listResp, err := s.client.ListTools(ctx, &mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	if listResp == nil {
		return nil, errors.New("list tools: empty response")
	}
	decls := make([]*tool.Declaration, 0, len(listResp.Tools))
	listed := make(map[string]*tool.Declaration, len(listResp.Tools))
	for _, t := range listResp.Tools {
		decl, err := convertTool(t)
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		decls = append(decls, decl)
		listed[decl.Name] = decl
	}

	s.mu.Lock()
	s.listed = listed
	s.mu.Unlock()

	log.Debugf("listed %d tools", len(decls))
	return decls, nil
}

// CallTool invokes name with args. A name absent from the most recent
// listing fails with tool.ErrUnknownTool without reaching the host; a
// session that has not listed yet lists first. Unknown tool and invalid
// argument failures reported by the host surface as tool.ErrUnknownTool and
// tool.ErrInvalidArguments.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	if !s.isInitialized() {
		return nil, ErrNotInitialized
	}
	if !s.hasListed() {
		if _, err := s.ListTools(ctx); err != nil {
			return nil, err
		}
	}
	if !s.isListed(name) {
		return nil, fmt.Errorf("%w: %s", tool.ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	log.Debugf("calling tool %s with %v", name, args)
	callReq := &mcp.CallToolRequest{}
	callReq.Params.Name = name
	callReq.Params.Arguments = args

	callResp, err := s.client.CallTool(ctx, callReq)
	if err != nil {
		log.Errorf("tool %s call failed: %v", name, err)
		return nil, classifyCallError(name, err)
	}
	result := convertResult(callResp)
	if result.IsError {
		// Hosts that report protocol failures as results still use the
		// sentinel text as the prefix.
		text := result.Text()
		if strings.HasPrefix(text, tool.ErrUnknownTool.Error()) ||
			strings.HasPrefix(text, tool.ErrInvalidArguments.Error()) {
			return nil, fmt.Errorf("%w: %s: %s", sentinelFor(text), name, text)
		}
	}
	log.Debugf("tool %s returned %d content blocks, isError=%t", name, len(result.Content), result.IsError)
	return result, nil
}

// Close releases the transport. It is idempotent and releases the transport
// exactly once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.initialized = false
		s.mu.Unlock()
		if s.client == nil {
			return
		}
		log.Debugf("closing tool session")
		if err := s.client.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close MCP client: %w", err)
		}
	})
	return s.closeErr
}

func (s *Session) isInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Session) hasListed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listed != nil
}

func (s *Session) isListed(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.listed[name]
	return ok
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// convertTool reads the wire form of an MCP tool into a Declaration.
func convertTool(t mcp.Tool) (*tool.Declaration, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode tool %s: %w", t.Name, err)
	}
	decl := &tool.Declaration{}
	if err := json.Unmarshal(raw, decl); err != nil {
		return nil, fmt.Errorf("decode tool %s: %w", t.Name, err)
	}
	if decl.InputSchema == nil {
		decl.InputSchema = &tool.Schema{Type: "object"}
	}
	return decl, nil
}

// convertResult keeps text blocks as they are and renders any other content
// as JSON text. StructuredContent is used when no content blocks exist.
func convertResult(rsp *mcp.CallToolResult) *tool.Result {
	if rsp == nil {
		return &tool.Result{}
	}
	result := &tool.Result{IsError: rsp.IsError}
	for _, c := range rsp.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			result.Content = append(result.Content, tool.Content{Type: tool.ContentTypeText, Text: v.Text})
		case *mcp.TextContent:
			result.Content = append(result.Content, tool.Content{Type: tool.ContentTypeText, Text: v.Text})
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				log.Warnf("drop unreadable content block: %v", err)
				continue
			}
			result.Content = append(result.Content, tool.Content{Type: tool.ContentTypeText, Text: string(raw)})
		}
	}
	if len(result.Content) == 0 && rsp.StructuredContent != nil {
		raw, err := json.Marshal(rsp.StructuredContent)
		if err != nil {
			log.Warnf("drop unreadable structured content: %v", err)
			return result
		}
		result.Content = []tool.Content{{Type: tool.ContentTypeText, Text: string(raw)}}
	}
	return result
}
