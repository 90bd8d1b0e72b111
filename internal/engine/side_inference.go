package engine

import (
	"math"

	"github.com/Elloy123/imbalanceengine/internal/domain"
)

// sideInferenceMinMove is the relative price move (0.05%) past which the
// real aggressor side is overridden by the direction of the move.
const sideInferenceMinMove = 0.0005

// SideInferenceEngine refines the upstream aggressor side using price
// action. It is the only engine the orchestrator consults for side; its
// weight factor is always 1.0 and excluded from averaging.
type SideInferenceEngine struct {
	lastPrice float64
}

func NewSideInferenceEngine() *SideInferenceEngine {
	return &SideInferenceEngine{}
}

func (e *SideInferenceEngine) ID() string { return EngineSideInference }

func (e *SideInferenceEngine) Description() string {
	return "Refines the aggressor side using short-term price action"
}

func (e *SideInferenceEngine) EstimateWeight(t domain.Trade, ctx Context) float64 {
	return 1.0
}

func (e *SideInferenceEngine) InferSide(t domain.Trade, ctx Context) domain.Side {
	side := ctx.RealSide

	if e.lastPrice == 0 {
		e.lastPrice = t.Price
		return side
	}

	change := t.Price - e.lastPrice
	if math.Abs(change)/e.lastPrice > sideInferenceMinMove {
		if change > 0 {
			side = domain.SideBuy
		} else {
			side = domain.SideSell
		}
	}

	e.lastPrice = t.Price
	return side
}
