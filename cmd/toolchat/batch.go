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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-toolchat-go/runner"
	"trpc.group/trpc-go/trpc-toolchat-go/tool"
)

type batchResult struct {
	result *runner.Result
	err    error
}

type batchTask struct {
	idx     int
	ctx     context.Context
	query   string
	app     *app
	results []batchResult
	wg      *sync.WaitGroup
}

var batchTaskPool = &sync.Pool{
	New: func() any { return new(batchTask) },
}

func (t *batchTask) reset() {
	*t = batchTask{}
}

// readQueries returns the non-empty lines of path. Lines starting with # are
// skipped.
func readQueries(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer file.Close()

	var queries []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return queries, nil
}

func newBatchPool(size int) (*ants.PoolWithFunc, error) {
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		task, ok := args.(*batchTask)
		if !ok {
			panic("batch pool args type error")
		}
		wg := task.wg
		defer func() {
			wg.Done()
			task.reset()
			batchTaskPool.Put(task)
		}()
		res, err := task.app.runQuery(task.ctx, task.query)
		task.results[task.idx] = batchResult{result: res, err: err}
	})
	if err != nil {
		return nil, fmt.Errorf("create batch pool: %w", err)
	}
	return pool, nil
}

// runBatch answers every query, batch.concurrency at a time, each on its own
// session, and prints the answers in input order.
func (a *app) runBatch(ctx context.Context, queries []string, w io.Writer) error {
	pool, err := newBatchPool(a.cfg.Batch.Concurrency)
	if err != nil {
		return err
	}
	defer pool.Release()

	results := make([]batchResult, len(queries))
	var wg sync.WaitGroup
	for idx, query := range queries {
		wg.Add(1)
		task := batchTaskPool.Get().(*batchTask)
		task.idx = idx
		task.ctx = ctx
		task.query = query
		task.app = a
		task.results = results
		task.wg = &wg
		if err := pool.Invoke(task); err != nil {
			wg.Done()
			results[idx] = batchResult{err: fmt.Errorf("submit query %d: %w", idx+1, err)}
			task.reset()
			batchTaskPool.Put(task)
		}
	}
	wg.Wait()

	failed := 0
	for idx, r := range results {
		fmt.Fprintf(w, "[%d] %s\n", idx+1, queries[idx])
		if r.err != nil {
			failed++
			fmt.Fprintf(w, "%s: %v\n\n", tool.Kind(r.err), r.err)
			continue
		}
		fmt.Fprintf(w, "%s\n\n", r.result.Answer)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d queries failed", failed, len(queries))
	}
	return nil
}
