//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package main answers questions with a chat model that may call the tools of
// a tool host.
//
//	toolchat "What is 2 plus 3?"
//	toolchat -transport streamable -server http://localhost:8050/mcp "What is our vacation policy?"
//	toolchat -demo
//	toolchat -batch queries.txt -concurrency 8
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"trpc.group/trpc-go/trpc-toolchat-go/config"
	"trpc.group/trpc-go/trpc-toolchat-go/internal/cli"
	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/model"
	"trpc.group/trpc-go/trpc-toolchat-go/model/openai"
	"trpc.group/trpc-go/trpc-toolchat-go/runner"
	toolmcp "trpc.group/trpc-go/trpc-toolchat-go/tool/mcp"
)

const serviceName = "toolchat"

type flags struct {
	config      string
	model       string
	transport   string
	server      string
	command     string
	system      string
	concurrency int
	demo        bool
	batch       string
	query       string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	cfg, err := config.Load(f.config)
	if err != nil {
		return cli.Report(stderr, err)
	}
	if err := f.apply(cfg); err != nil {
		return cli.Report(stderr, err)
	}
	log.SetOutput(stderr)
	log.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	clean, err := cli.StartTelemetry(ctx, cfg.Telemetry, serviceName)
	if err != nil {
		return cli.Report(stderr, err)
	}
	defer clean()

	a := newApp(cfg, openai.New(cfg.Model.Name,
		openai.WithAPIKey(cfg.Model.APIKey),
		openai.WithBaseURL(cfg.Model.BaseURL),
	), f.runnerOptions()...)
	return cli.Report(stderr, a.dispatch(ctx, f, stdout))
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "config", "", "Config file, defaults to ./toolchat.yaml or ./config/toolchat.yaml")
	fs.StringVar(&f.model, "model", "", "Chat model name (overrides model.name)")
	fs.StringVar(&f.transport, "transport", "", "Session transport: stdio or streamable (overrides session.transport)")
	fs.StringVar(&f.server, "server", "", "Tool host URL for streamable sessions (overrides session.server_url)")
	fs.StringVar(&f.command, "command", "", "Tool host command line for stdio sessions (overrides session.command and session.args)")
	fs.StringVar(&f.system, "system", "", "Optional system prompt")
	fs.IntVar(&f.concurrency, "concurrency", 0, "Parallel queries in batch mode (overrides batch.concurrency)")
	fs.BoolVar(&f.demo, "demo", false, "List the tools and call add(2,3) and subtract(2,3) without a model")
	fs.StringVar(&f.batch, "batch", "", "File with one query per line")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <query>\n", serviceName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.query = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if !f.demo && f.batch == "" && f.query == "" {
		fs.Usage()
		return nil, errors.New("no query given")
	}
	return f, nil
}

// apply overrides cfg with every flag that was set.
func (f *flags) apply(cfg *config.Config) error {
	if f.model != "" {
		cfg.Model.Name = f.model
	}
	if f.transport != "" {
		cfg.Session.Transport = f.transport
	}
	if f.server != "" {
		cfg.Session.ServerURL = f.server
	}
	if fields := strings.Fields(f.command); len(fields) > 0 {
		cfg.Session.Command = fields[0]
		cfg.Session.Args = fields[1:]
	}
	if f.concurrency != 0 {
		cfg.Batch.Concurrency = f.concurrency
	}
	return cfg.Validate()
}

func (f *flags) runnerOptions() []runner.Option {
	if f.system == "" {
		return nil
	}
	return []runner.Option{runner.WithSystemPrompt(f.system)}
}

// session is the part of a tool session the commands use.
type session interface {
	runner.ToolCaller
	Close() error
}

type app struct {
	cfg    *config.Config
	runner *runner.Runner
	open   func(ctx context.Context) (session, error)
}

func newApp(cfg *config.Config, m model.Model, opts ...runner.Option) *app {
	return &app{
		cfg:    cfg,
		runner: runner.New(m, opts...),
		open: func(ctx context.Context) (session, error) {
			s, err := toolmcp.Open(ctx, cfg.Connection())
			if err != nil {
				return nil, err
			}
			info := s.ServerInfo()
			log.DebugfContext(ctx, "connected to tool host %s %s (protocol %s)",
				info.Name, info.Version, info.ProtocolVersion)
			return s, nil
		},
	}
}

func (a *app) dispatch(ctx context.Context, f *flags, w io.Writer) error {
	switch {
	case f.demo:
		return a.runDemo(ctx, w)
	case f.batch != "":
		queries, err := readQueries(f.batch)
		if err != nil {
			return err
		}
		return a.runBatch(ctx, queries, w)
	default:
		res, err := a.runQuery(ctx, f.query)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, res.Answer)
		return nil
	}
}

// runQuery answers one query on a session of its own.
func (a *app) runQuery(ctx context.Context, query string) (*runner.Result, error) {
	s, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warnf("close tool session: %v", err)
		}
	}()
	res, err := a.runner.Run(ctx, s, query)
	if err != nil {
		return nil, err
	}
	for _, call := range res.ToolCalls {
		log.Debugf("run %s: %s(%s) -> %q %s", res.RunID, call.Name, call.Arguments, call.Result.Text(), call.ErrorKind)
	}
	return res, nil
}

// runDemo exercises the session without a model.
func (a *app) runDemo(ctx context.Context, w io.Writer) error {
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warnf("close tool session: %v", err)
		}
	}()

	decls, err := s.ListTools(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Available tools:")
	for _, d := range decls {
		fmt.Fprintf(w, "  - %s: %s\n", d.Name, d.Description)
	}
	for _, name := range []string{"add", "subtract"} {
		res, err := s.CallTool(ctx, name, map[string]any{"a": 2, "b": 3})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s(2, 3) = %s\n", name, res.Text())
	}
	return nil
}
