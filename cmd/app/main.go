package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Elloy123/imbalanceengine/internal/app"
	"github.com/Elloy123/imbalanceengine/internal/engine"
	"github.com/Elloy123/imbalanceengine/internal/feed"
	"github.com/Elloy123/imbalanceengine/internal/hub"
	"github.com/Elloy123/imbalanceengine/internal/infra"
	"github.com/Elloy123/imbalanceengine/internal/observability"
)

func main() {
	// 1. System bootstrapping (config + logger)
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	infra.PrintBanner(cfg)

	// 2. Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Default pipeline from config
	orch, err := bootstrap.DefaultOrchestrator()
	if err != nil {
		slog.Error("❌ Engine pipeline failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 4. Hub and ingestor. The hub installs reconfigured pipelines on the
	// ingestor; the ingestor publishes every enriched tick via the hub.
	// The ingestor variable is assigned before Run starts consuming
	// control messages, so the closure never sees it nil.
	var ingestor *feed.Ingestor
	broadcaster := hub.NewHub(func(next *engine.Orchestrator) {
		ingestor.SwapOrchestrator(next)
	}, bootstrap.Logger)

	ingestor = feed.NewIngestor(cfg.Feed.WSURL, cfg.Feed.Symbol, cfg.ReconnectDelay(), orch,
		func(p feed.TradePayload) { broadcaster.Publish(p) })

	go broadcaster.Run(ctx)
	ingestor.Start(ctx)
	defer ingestor.Stop()
	slog.InfoContext(ctx, "✅ Feed ingestor started", slog.String("url", ingestor.GetURL()))

	// 5. Subscriber stream server
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", broadcaster.ServeWS)
	wsServer := &http.Server{Addr: cfg.Server.WSAddr, Handler: wsMux}
	go func() {
		slog.Info("✅ Stream server listening", slog.String("addr", cfg.Server.WSAddr))
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Stream server failed", slog.Any("error", err))
			stop()
		}
	}()

	// 6. Dashboard + metrics server
	httpMux := http.NewServeMux()
	httpMux.Handle("/", http.FileServer(http.Dir(cfg.Server.WebDir)))
	httpMux.Handle("/metrics", observability.Handler())
	httpServer := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: httpMux}
	go func() {
		slog.Info("✅ Dashboard server listening", slog.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Dashboard server failed", slog.Any("error", err))
			stop()
		}
	}()

	slog.InfoContext(ctx, "✨ Imbalance Engine fully operational. Press Ctrl+C to exit.")

	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = wsServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)
}
