// Command pr0t0n-orchd runs the pipeline orchestrator: it serves the
// sync and WebSocket edges and owns the Session Registry's run loop.
// Driving this process from a command-line tool (submitting systems,
// tailing sessions) is a separate concern this binary does not cover.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/api"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/config"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/domainevent"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/logging"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/registry"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/store/pg"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/sync"
)

func main() {
	cfg, err := config.Load(os.Getenv("PR0T0N_CONFIG_FILE"))
	if err != nil {
		panic(err)
	}

	if err := logging.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBConnectTimeout)
	if err != nil {
		logging.ErrorCF("main", "database unavailable", logging.Fields{"error": err.Error()})
		os.Exit(1)
	}
	defer pool.Close()

	gw := pg.New(pool)
	bus := domainevent.NewInProcessBus()
	bus.SubscribeAll(logEvent)

	reg := registry.New(gw, bus)
	go reg.Run(ctx)

	syncSvc := sync.New(gw, bus)

	server := api.NewServer(cfg.HTTPAddr, gw, syncSvc, reg, cfg.HeartbeatInterval, cfg.HeartbeatTimeout)
	server.Start()

	<-ctx.Done()
	logging.InfoC("main", "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logging.ErrorCF("main", "server shutdown error", logging.Fields{"error": err.Error()})
	}
}

func logEvent(e domainevent.Event) {
	logging.InfoCF("event", string(e.EventType()), logging.Fields{
		"asset_group_id": e.AssetGroupID(),
		"payload":        e.Payload(),
	})
}
