package engine

import (
	"math"

	"github.com/Elloy123/imbalanceengine/internal/domain"
)

const (
	defaultClusterWindowMs    = 100
	defaultAbsorptionMultiple = 2.0
	absorptionFactor          = 1.8
	clusterFactorCap          = 2.0
)

type clusterTrade struct {
	price     float64
	volume    float64
	side      domain.Side
	timestamp float64 // seconds
}

// cluster is the summary of the last completed window.
type cluster struct {
	buyVolume    float64
	sellVolume   float64
	priceChange  float64
	isAbsorption bool
	// reversal is the side inferred from an absorption: price rising into
	// dominant sell flow anticipates a sell, and vice versa.
	reversal domain.Side
}

// MicroClusterEngine buffers trades into rolling windows measured on
// event timestamps (not wall clock) and flags absorption: dominant
// one-sided volume that fails to move price in its direction. The
// summary of the last completed window also drives InferSide, so the
// side estimate is tie-break state carried across windows, not a live
// per-tick signal.
type MicroClusterEngine struct {
	windowSec float64
	threshold float64

	buffer      []clusterTrade
	windowStart float64
	last        *cluster
}

func NewMicroClusterEngine() *MicroClusterEngine {
	return NewMicroClusterEngineWindow(defaultClusterWindowMs, defaultAbsorptionMultiple)
}

// NewMicroClusterEngineWindow allows a custom window (ms) and absorption
// volume multiple.
func NewMicroClusterEngineWindow(windowMs int, threshold float64) *MicroClusterEngine {
	return &MicroClusterEngine{
		windowSec: float64(windowMs) / 1000.0,
		threshold: threshold,
	}
}

func (e *MicroClusterEngine) ID() string { return EngineMicroCluster }

func (e *MicroClusterEngine) Description() string {
	return "Groups trades into 100ms windows to detect micro-absorption"
}

func (e *MicroClusterEngine) EstimateWeight(t domain.Trade, ctx Context) float64 {
	ts := float64(t.Timestamp) / 1000.0

	if e.windowStart == 0 {
		e.windowStart = ts
	}

	e.buffer = append(e.buffer, clusterTrade{
		price:     t.Price,
		volume:    ctx.RealVolume,
		side:      ctx.RealSide,
		timestamp: ts,
	})

	if ts-e.windowStart < e.windowSec || len(e.buffer) == 0 {
		return 1.0
	}

	// Window complete: summarize and reset.
	var buyVol, sellVol float64
	for _, ct := range e.buffer {
		switch ct.side {
		case domain.SideBuy:
			buyVol += ct.volume
		case domain.SideSell:
			sellVol += ct.volume
		}
	}

	priceChange := e.buffer[len(e.buffer)-1].price - e.buffer[0].price

	result := &cluster{
		buyVolume:   buyVol,
		sellVolume:  sellVol,
		priceChange: priceChange,
	}

	switch {
	case priceChange > 0 && sellVol > buyVol*e.threshold:
		result.isAbsorption = true
		result.reversal = domain.SideSell
	case priceChange < 0 && buyVol > sellVol*e.threshold:
		result.isAbsorption = true
		result.reversal = domain.SideBuy
	}

	e.last = result
	e.buffer = e.buffer[:0]
	e.windowStart = ts

	factor := 1.0
	if result.isAbsorption {
		factor = absorptionFactor
	}
	return math.Min(factor, clusterFactorCap)
}

func (e *MicroClusterEngine) InferSide(t domain.Trade, ctx Context) domain.Side {
	if e.last != nil && e.last.isAbsorption {
		return e.last.reversal
	}
	return ctx.RealSide
}
