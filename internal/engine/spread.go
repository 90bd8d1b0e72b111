package engine

import (
	"math"

	"github.com/Elloy123/imbalanceengine/internal/domain"
	"github.com/Elloy123/imbalanceengine/pkg/mathx"
)

const (
	spreadMaxHistory = 20
	spreadMinSamples = 5
	spreadVolNorm    = 100.0
)

// SpreadWeightEngine scales volume by recent price volatility as a
// synthetic-spread proxy: calm markets keep fuller weight, noisy ones
// are damped.
type SpreadWeightEngine struct {
	prices []float64
}

func NewSpreadWeightEngine() *SpreadWeightEngine {
	return &SpreadWeightEngine{prices: make([]float64, 0, spreadMaxHistory)}
}

func (e *SpreadWeightEngine) ID() string { return EngineSpreadWeight }

func (e *SpreadWeightEngine) Description() string {
	return "Scales volume by recent volatility (synthetic spread)"
}

func (e *SpreadWeightEngine) EstimateWeight(t domain.Trade, ctx Context) float64 {
	e.prices = append(e.prices, t.Price)
	if len(e.prices) > spreadMaxHistory {
		e.prices = e.prices[1:]
	}

	if len(e.prices) < spreadMinSamples {
		return 1.0
	}

	volatility := mathx.StdDev(e.prices)
	normalized := math.Min(volatility/spreadVolNorm, 1.5)
	weight := 1.0 / math.Max(normalized, 0.5)
	return mathx.Clamp(weight*0.8+0.2, 0.3, 1.5)
}

func (e *SpreadWeightEngine) InferSide(t domain.Trade, ctx Context) domain.Side {
	return ctx.RealSide
}
