//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package toolhost

import (
	"context"
	"errors"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-toolchat-go/log"
)

// NewStdioServer binds h to standard input and output. Nothing else may
// write to stdout while the server runs.
func NewStdioServer(h *Host) (*mcp.StdioServer, error) {
	if h == nil {
		return nil, errors.New("host is nil")
	}
	server := mcp.NewStdioServer(h.Name(), h.Version(),
		mcp.WithStdioServerLogger(mcp.GetDefaultLogger()),
	)
	bs, err := bindings(h)
	if err != nil {
		return nil, err
	}
	for _, b := range bs {
		server.RegisterTool(b.tool, b.handler)
	}
	return server, nil
}

// ServeStdio serves h over standard streams until the caller closes stdin or
// ctx is done. Cancellation is a clean stop and returns nil.
func ServeStdio(ctx context.Context, h *Host) error {
	server, err := NewStdioServer(h)
	if err != nil {
		return err
	}
	log.Infof("serving %d tools of %s over stdio", len(h.ListTools()), h.Name())
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Infof("stdio server of %s stopped", h.Name())
		return nil
	}
}
