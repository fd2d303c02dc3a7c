//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package mcp

import (
	"fmt"
	"time"

	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// transport specifies the transport method: "stdio", "streamable".
type transport string

const (
	// transportStdio runs the host as a child process and talks over its
	// standard streams.
	transportStdio transport = "stdio"
	// transportStreamable connects to a running host over streamable HTTP.
	transportStreamable transport = "streamable"
)

// Default configurations.
var (
	defaultClientInfo = mcp.Implementation{
		Name:    "trpc-toolchat-go",
		Version: "1.0.0",
	}

	defaultHandshakeTimeout = 10 * time.Second
)

// ConnectionConfig defines the configuration for connecting to a tool host.
type ConnectionConfig struct {
	// Transport specifies the transport method: "stdio", "sse", "streamable".
	// "sse" is accepted as an alias of "streamable".
	Transport string `json:"transport"`

	// Streamable configuration.
	ServerURL string            `json:"server_url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`

	// STDIO configuration.
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`

	// Common configuration.
	// Timeout bounds every list and call request when positive.
	Timeout time.Duration `json:"timeout,omitempty"`
	// HandshakeTimeout bounds the initialize exchange. Zero means 10s.
	HandshakeTimeout time.Duration `json:"handshake_timeout,omitempty"`

	// Advanced configuration.
	ClientInfo mcp.Implementation `json:"client_info,omitempty"`
}

// validateTransport validates the transport string and returns the internal transport type.
func validateTransport(t string) (transport, error) {
	switch t {
	case "stdio":
		return transportStdio, nil
	case "sse", "streamable", "streamable_http":
		return transportStreamable, nil
	default:
		return "", fmt.Errorf("unsupported transport: %s, supported: stdio, sse, streamable", t)
	}
}

// validate checks the fields the selected transport needs.
func (c ConnectionConfig) validate() (transport, error) {
	t, err := validateTransport(c.Transport)
	if err != nil {
		return "", err
	}
	switch t {
	case transportStdio:
		if c.Command == "" {
			return "", fmt.Errorf("stdio transport requires a command")
		}
	case transportStreamable:
		if c.ServerURL == "" {
			return "", fmt.Errorf("%s transport requires a server url", c.Transport)
		}
	}
	return t, nil
}
