// Package engine implements the volume-weighting pipeline: a closed set
// of stateful scoring engines and the orchestrator composing them into
// one enriched tick per trade.
package engine

import (
	"github.com/Elloy123/imbalanceengine/internal/domain"
)

// Engine IDs. The set is closed: adding an engine means extending the
// registry below, not loading plugins.
const (
	EngineTickVelocity  = "tick_velocity"
	EngineSpreadWeight  = "spread_weight"
	EngineSideInference = "side_inference"
	EngineMicroCluster  = "micro_cluster"
	EngineATRNormalize  = "atr_normalize"
)

// Context is the shared per-tick view handed to every engine. It is
// rebuilt by the orchestrator on each Enrich call and never retained.
type Context struct {
	TickCount  uint64
	RealSide   domain.Side
	RealVolume float64
	Price      float64
	LastPrice  float64 // 0 before the first tick
}

// Engine is one stateful scoring unit. Engines are NOT safe for
// concurrent use: the orchestrator calls each instance once per tick in
// configured order, from a single goroutine.
type Engine interface {
	ID() string
	Description() string

	// EstimateWeight returns a non-negative volume-weight factor for the
	// trade. Rolling state may be updated by the call.
	EstimateWeight(t domain.Trade, ctx Context) float64

	// InferSide returns the engine's side estimate. Engines with no side
	// opinion pass through ctx.RealSide.
	InferSide(t domain.Trade, ctx Context) domain.Side
}

// Info describes one catalog entry for external listing.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description"`
}

// registry maps engine IDs to constructors. Construction order state is
// fresh per instance: reconfiguration always discards rolling history.
var registry = map[string]func() Engine{
	EngineTickVelocity:  func() Engine { return NewVelocityEngine() },
	EngineSpreadWeight:  func() Engine { return NewSpreadWeightEngine() },
	EngineSideInference: func() Engine { return NewSideInferenceEngine() },
	EngineMicroCluster:  func() Engine { return NewMicroClusterEngine() },
	EngineATRNormalize:  func() Engine { return NewATRNormalizeEngine() },
}

// catalog is the static engine list sent to subscribers. It is fixed
// regardless of which engines are currently active.
var catalog = []Info{
	{ID: EngineTickVelocity, Name: "Trade Velocity", Description: "Weights volume by trade arrival speed (fast tape = more volume)"},
	{ID: EngineSideInference, Name: "Side Inference", Description: "Refines the aggressor side using short-term price action"},
	{ID: EngineSpreadWeight, Name: "Volatility Weighting", Description: "Scales volume by recent volatility (synthetic spread)"},
	{ID: EngineMicroCluster, Name: "Micro-Clustering (100ms)", Description: "Groups trades into 100ms windows to detect micro-absorption"},
	{ID: EngineATRNormalize, Name: "ATR Normalization", Description: "Stabilizes volume under high volatility (simplified ATR)"},
}

// Catalog returns a copy of the static engine catalog.
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}
