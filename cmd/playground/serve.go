// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/kkrt-labs/kakarot-playground/internal/debug"
	"github.com/kkrt-labs/kakarot-playground/internal/playgroundapi"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Action: serve,
	Name:   "serve",
	Usage:  "Serve the playground JSON-RPC API to the browser UI",
	Flags:  append(append([]cli.Flag{gasLimitFlag}, httpFlags...), networkFlags...),
	Description: `
Starts an HTTP server exposing the playground_* and debug_* JSON-RPC
namespaces on /, and the same API over WebSocket on /ws for the
playground_subscribe("outcomes") feed.`,
}

// httpServer serves the RPC handler over HTTP and WebSocket.
type httpServer struct {
	log      log.Logger
	timeouts rpc.HTTPTimeouts
	mux      http.ServeMux

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener // non-nil when server is running

	endpoint string
}

func newHTTPServer(cfg httpConfig, srv *rpc.Server) *httpServer {
	h := &httpServer{
		log:      log.New("module", "http"),
		timeouts: rpc.DefaultHTTPTimeouts,
		endpoint: net.JoinHostPort(cfg.Addr, fmt.Sprintf("%d", cfg.Port)),
	}
	h.mux.Handle("/", newCorsHandler(srv, cfg.CorsDomains))
	h.mux.Handle("/ws", srv.WebsocketHandler(wsOrigins(cfg.CorsDomains)))
	if cfg.Metrics {
		h.mux.Handle("/debug/metrics", exp.ExpHandler(metrics.DefaultRegistry))
	}
	return h
}

// start binds the listener and serves in the background.
func (h *httpServer) start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listener != nil {
		return nil // already running
	}
	listener, err := net.Listen("tcp", h.endpoint)
	if err != nil {
		return err
	}
	h.listener = listener
	h.server = &http.Server{
		Handler:           &h.mux,
		ReadTimeout:       h.timeouts.ReadTimeout,
		ReadHeaderTimeout: h.timeouts.ReadHeaderTimeout,
		WriteTimeout:      h.timeouts.WriteTimeout,
		IdleTimeout:       h.timeouts.IdleTimeout,
	}
	go h.server.Serve(listener)

	h.log.Info("HTTP server started", "endpoint", fmt.Sprintf("http://%v/", listener.Addr()), "ws", fmt.Sprintf("ws://%v/ws", listener.Addr()))
	return nil
}

// stop shuts the server down, waiting for in-flight requests.
func (h *httpServer) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listener == nil {
		return // not running
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.log.Warn("HTTP server shutdown failed", "err", err)
	}
	h.log.Info("HTTP server stopped", "endpoint", h.listener.Addr())
	h.listener = nil
	h.server = nil
}

func newCorsHandler(srv http.Handler, allowedOrigins []string) http.Handler {
	// disable CORS support if user has not specified a custom CORS configuration
	if len(allowedOrigins) == 0 {
		return srv
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(srv)
}

// wsOrigins mirrors the CORS domains for WebSocket. No domains means local
// clients only.
func wsOrigins(corsDomains []string) []string {
	if len(corsDomains) == 0 {
		return []string{"localhost", "127.0.0.1"}
	}
	return corsDomains
}

// newRPCServer registers the playground and debug namespaces.
func newRPCServer(services *playgroundapi.Services) (*rpc.Server, error) {
	srv := rpc.NewServer()
	apis := append(playgroundapi.GetAPIs(services), rpc.API{
		Namespace: "debug",
		Service:   debug.Handler,
	})
	for _, api := range apis {
		if err := srv.RegisterName(api.Namespace, api.Service); err != nil {
			srv.Stop()
			return nil, err
		}
	}
	return srv, nil
}

func serve(ctx *cli.Context) error {
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.HTTP.Metrics {
		metrics.Enable()
	}
	services, err := makeServices(ctx.Context, &cfg)
	if err != nil {
		return err
	}
	defer closeServices(services)

	srv, err := newRPCServer(services)
	if err != nil {
		return err
	}
	defer srv.Stop()

	httpSrv := newHTTPServer(cfg.HTTP, srv)
	if err := httpSrv.start(); err != nil {
		return err
	}
	defer httpSrv.stop()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case <-sigc:
		log.Info("Got interrupt, shutting down...")
	case <-ctx.Context.Done():
	}
	return nil
}
