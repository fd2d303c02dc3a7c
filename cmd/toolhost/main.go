//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package main serves the calculator and knowledge base tools over stdio or
// streamable HTTP.
//
//	toolhost -transport stdio
//	toolhost -transport http -addr 127.0.0.1:8050 -path /mcp -kb data/kb.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"trpc.group/trpc-go/trpc-toolchat-go/config"
	"trpc.group/trpc-go/trpc-toolchat-go/internal/cli"
	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/server/toolhost"
	"trpc.group/trpc-go/trpc-toolchat-go/tool/calculator"
	"trpc.group/trpc-go/trpc-toolchat-go/tool/knowledgebase"
)

const (
	hostName    = "toolhost"
	hostVersion = "1.0.0"
)

type flags struct {
	config    string
	transport string
	addr      string
	path      string
	kb        string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	// Stdout carries protocol frames on the stdio transport.
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(f.config)
	if err != nil {
		return cli.Report(stderr, err)
	}
	if err := f.apply(cfg); err != nil {
		return cli.Report(stderr, err)
	}
	log.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cli.Report(stderr, serve(ctx, cfg))
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet(hostName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "config", "", "Config file, defaults to ./toolchat.yaml or ./config/toolchat.yaml")
	fs.StringVar(&f.transport, "transport", "", "Transport: stdio or http (overrides host.transport)")
	fs.StringVar(&f.addr, "addr", "", "Listen address of the http transport (overrides host.address)")
	fs.StringVar(&f.path, "path", "", "Endpoint path of the http transport (overrides host.path)")
	fs.StringVar(&f.kb, "kb", "", "Knowledge base file (overrides host.kb_path)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply overrides cfg with every flag that was set.
func (f *flags) apply(cfg *config.Config) error {
	if f.transport != "" {
		cfg.Host.Transport = f.transport
	}
	if f.addr != "" {
		cfg.Host.Address = f.addr
	}
	if f.path != "" {
		cfg.Host.Path = f.path
	}
	if f.kb != "" {
		cfg.Host.KBPath = f.kb
	}
	return cfg.Validate()
}

func newHost(cfg *config.Config) (*toolhost.Host, error) {
	tools := append(calculator.Tools(), knowledgebase.NewTool(knowledgebase.WithPath(cfg.Host.KBPath)))
	return toolhost.New(hostName, hostVersion, tools...)
}

func serve(ctx context.Context, cfg *config.Config) error {
	clean, err := cli.StartTelemetry(ctx, cfg.Telemetry, hostName)
	if err != nil {
		return err
	}
	defer clean()

	h, err := newHost(cfg)
	if err != nil {
		return fmt.Errorf("failed to build host: %w", err)
	}
	switch cfg.Host.Transport {
	case "http":
		srv, err := toolhost.NewHTTPServer(h,
			toolhost.WithAddress(cfg.Host.Address),
			toolhost.WithPath(cfg.Host.Path),
		)
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx)
	default:
		return toolhost.ServeStdio(ctx, h)
	}
}
