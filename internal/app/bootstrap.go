// Package app wires configuration, logging, and the default pipeline
// together at startup.
package app

import (
	"fmt"
	"log/slog"

	"github.com/Elloy123/imbalanceengine/internal/engine"
	"github.com/Elloy123/imbalanceengine/internal/infra"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config *infra.Config
	Logger *slog.Logger
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and installs the process logger.
func (b *Bootstrap) Initialize() error {
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	b.Logger = infra.NewLogger(cfg)
	slog.SetDefault(b.Logger)

	slog.Info("🚀 Bootstrapping Imbalance Engine...",
		"symbol", cfg.Feed.Symbol,
		"engines", cfg.Engines.Active)
	return nil
}

// DefaultOrchestrator builds the pipeline named in config. Bad engine
// IDs in the config file fail startup rather than surfacing later.
func (b *Bootstrap) DefaultOrchestrator() (*engine.Orchestrator, error) {
	orch, err := engine.NewOrchestrator(engine.Config{
		Engines: b.Config.Engines.Active,
		Weights: b.Config.Engines.Weights,
	})
	if err != nil {
		return nil, fmt.Errorf("configured engine pipeline: %w", err)
	}
	return orch, nil
}
