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
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-toolchat-go/log"
)

// Network binding defaults.
const (
	DefaultAddress = "0.0.0.0:8050"
	DefaultPath    = "/mcp"

	shutdownTimeout = 5 * time.Second
)

// HTTPServer serves a Host over streamable HTTP.
type HTTPServer struct {
	host   *Host
	addr   string
	path   string
	mcp    *mcp.Server
	router *mux.Router
}

// HTTPOption configures an HTTPServer.
type HTTPOption func(*HTTPServer)

// WithAddress sets the listen address, "0.0.0.0:8050" by default.
func WithAddress(addr string) HTTPOption {
	return func(s *HTTPServer) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithPath sets the streaming endpoint path, "/mcp" by default.
func WithPath(path string) HTTPOption {
	return func(s *HTTPServer) {
		if path != "" {
			s.path = path
		}
	}
}

// NewHTTPServer binds h to a streamable HTTP endpoint. The returned server
// also answers GET /healthz.
func NewHTTPServer(h *Host, opts ...HTTPOption) (*HTTPServer, error) {
	if h == nil {
		return nil, errors.New("host is nil")
	}
	s := &HTTPServer{
		host:   h,
		addr:   DefaultAddress,
		path:   DefaultPath,
		router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(h.Name(), h.Version(),
		mcp.WithServerAddress(s.addr),
		mcp.WithServerPath(s.path),
	)
	bs, err := bindings(h)
	if err != nil {
		return nil, err
	}
	for _, b := range bs {
		s.mcp.RegisterTool(b.tool, b.handler)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type", "Mcp-Session-Id"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s, nil
}

func (s *HTTPServer) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.PathPrefix(s.path).Handler(s.mcp.HTTPHandler())
}

// Handler returns the router serving the MCP endpoint and /healthz.
func (s *HTTPServer) Handler() http.Handler { return s.router }

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string { return s.addr }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *HTTPServer) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("serving %d tools of %s on http://%s%s",
			len(s.host.ListTools()), s.host.Name(), s.addr, s.path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Infof("http server on %s stopped", s.addr)
	return nil
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
