// Package api wires the three HTTP/WebSocket edges the orchestrator
// exposes onto a net/http.ServeMux, following the bootstrap shape of a
// dashboard API server generalized down to the handful of routes this
// domain needs.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/logging"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/registry"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/store"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/sync"
)

// AssetGroupIDHeader carries the caller's asset group id on the
// WebSocket upgrade request.
const AssetGroupIDHeader = "pr0t0n-asset-group-id"

// ClientAddressHeader carries the connecting service's own address on
// the WebSocket upgrade request.
const ClientAddressHeader = "pr0t0n-client-address"

// Server is the orchestrator's HTTP/WebSocket edge.
type Server struct {
	gw       store.Gateway
	syncSvc  *sync.Service
	registry *registry.Registry

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	httpServer *http.Server
}

// NewServer builds a Server. Call Start to begin listening.
func NewServer(addr string, gw store.Gateway, syncSvc *sync.Service, reg *registry.Registry, heartbeatInterval, heartbeatTimeout time.Duration) *Server {
	s := &Server{
		gw:                gw,
		syncSvc:           syncSvc,
		registry:          reg,
		heartbeatInterval: heartbeatInterval,
		heartbeatTimeout:  heartbeatTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sync/upload/", s.handleUpload)
	mux.HandleFunc("GET /sync/download/", s.handleDownload)
	mux.HandleFunc("GET /ws/", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start begins listening in a background goroutine.
func (s *Server) Start() {
	logging.InfoCF("api", "server starting", logging.Fields{"addr": s.httpServer.Addr})
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorCF("api", "server error", logging.Fields{"error": err.Error()})
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

