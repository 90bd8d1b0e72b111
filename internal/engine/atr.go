package engine

import (
	"math"

	"github.com/Elloy123/imbalanceengine/internal/domain"
)

const (
	atrPeriod   = 14
	atrBaseline = 150.0 // price units; tuned for BTC/USDT
)

// ATRNormalizeEngine stabilizes volume under high volatility by dividing
// against a simplified ATR: the mean absolute consecutive-price range
// over the last 14 deltas, relative to a fixed baseline.
type ATRNormalizeEngine struct {
	prices []float64 // holds atrPeriod+1 samples = atrPeriod deltas
}

func NewATRNormalizeEngine() *ATRNormalizeEngine {
	return &ATRNormalizeEngine{prices: make([]float64, 0, atrPeriod+1)}
}

func (e *ATRNormalizeEngine) ID() string { return EngineATRNormalize }

func (e *ATRNormalizeEngine) Description() string {
	return "Stabilizes volume under high volatility (simplified ATR)"
}

func (e *ATRNormalizeEngine) EstimateWeight(t domain.Trade, ctx Context) float64 {
	e.prices = append(e.prices, t.Price)
	if len(e.prices) > atrPeriod+1 {
		e.prices = e.prices[1:]
	}

	if len(e.prices) < atrPeriod+1 {
		return 1.0
	}

	var sum float64
	for i := 1; i < len(e.prices); i++ {
		sum += math.Abs(e.prices[i] - e.prices[i-1])
	}
	atr := sum / atrPeriod

	ratio := atr / atrBaseline
	return math.Min(1.0/math.Max(ratio, 0.5), 2.0)
}

func (e *ATRNormalizeEngine) InferSide(t domain.Trade, ctx Context) domain.Side {
	return ctx.RealSide
}
