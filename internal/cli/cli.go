//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package cli holds the start-up pieces shared by the toolhost and toolchat
// binaries.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"trpc.group/trpc-go/trpc-toolchat-go/config"
	"trpc.group/trpc-go/trpc-toolchat-go/log"
	"trpc.group/trpc-go/trpc-toolchat-go/telemetry/metric"
	"trpc.group/trpc-go/trpc-toolchat-go/telemetry/trace"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

// StartTelemetry starts trace and metric export when cfg enables it. The
// returned function flushes both and is never nil.
func StartTelemetry(ctx context.Context, cfg config.TelemetryConfig, service string) (func(), error) {
	if !cfg.Enabled {
		return func() {}, nil
	}
	cleanTrace, err := trace.Start(ctx,
		trace.WithProtocol(cfg.Protocol),
		trace.WithEndpoint(cfg.Endpoint),
		trace.WithServiceName(service),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start trace telemetry: %w", err)
	}
	cleanMetric, err := metric.Start(ctx,
		metric.WithProtocol(cfg.Protocol),
		metric.WithEndpoint(cfg.Endpoint),
		metric.WithServiceName(service),
	)
	if err != nil {
		_ = cleanTrace()
		return nil, fmt.Errorf("failed to start metric telemetry: %w", err)
	}
	log.Infof("telemetry enabled: protocol=%s endpoint=%q", cfg.Protocol, cfg.Endpoint)
	return func() {
		if err := errors.Join(cleanTrace(), cleanMetric()); err != nil {
			log.Warnf("failed to flush telemetry: %v", err)
		}
	}, nil
}

// Report writes err as "<Kind>: <message>" and returns the process exit
// code, 0 for a nil error and 1 otherwise.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "%s: %v\n", tool.Kind(err), err)
	return 1
}
