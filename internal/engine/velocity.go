package engine

import (
	"math"
	"time"

	"github.com/Elloy123/imbalanceengine/internal/domain"
	"github.com/Elloy123/imbalanceengine/pkg/mathx"
)

const (
	velocityMinInterval = time.Millisecond
	velocityCap         = 50.0 // trades per second
	velocityNorm        = 25.0
)

// VelocityEngine rewards tight inter-trade spacing: a fast tape gets
// fuller weight. State is the wall-clock time of the previous call, so
// the factor reflects local processing cadence rather than exchange
// timestamps.
type VelocityEngine struct {
	lastTrade time.Time
	now       func() time.Time // test hook
}

func NewVelocityEngine() *VelocityEngine {
	return &VelocityEngine{
		lastTrade: time.Now(),
		now:       time.Now,
	}
}

func (e *VelocityEngine) ID() string { return EngineTickVelocity }

func (e *VelocityEngine) Description() string {
	return "Weights volume by trade arrival speed (fast tape = more volume)"
}

func (e *VelocityEngine) EstimateWeight(t domain.Trade, ctx Context) float64 {
	now := e.now()
	interval := now.Sub(e.lastTrade)
	if interval < velocityMinInterval {
		interval = velocityMinInterval
	}
	e.lastTrade = now

	velocity := math.Min(1.0/interval.Seconds(), velocityCap)
	return mathx.Clamp(velocity/velocityNorm, 0.1, 1.0)
}

func (e *VelocityEngine) InferSide(t domain.Trade, ctx Context) domain.Side {
	return ctx.RealSide
}
