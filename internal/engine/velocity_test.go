package engine

import (
	"math"
	"testing"
	"time"

	"github.com/Elloy123/imbalanceengine/internal/domain"
)

func newClockedVelocityEngine(start time.Time, clock *time.Time) *VelocityEngine {
	e := NewVelocityEngine()
	e.lastTrade = start
	e.now = func() time.Time { return *clock }
	return e
}

func TestVelocityEngineWeight(t *testing.T) {
	base := time.Unix(1700000000, 0)
	clock := base
	e := newClockedVelocityEngine(base, &clock)

	tr := domain.NewTrade(50000, 1000, domain.SideBuy, 1700000000000, 1)
	ctx := Context{RealSide: domain.SideBuy}

	cases := []struct {
		name     string
		advance  time.Duration
		expected float64
	}{
		// 10ms spacing = 100 tps, capped at 50, /25 = 2, clamped to 1.0
		{"burst", 10 * time.Millisecond, 1.0},
		// 1s spacing = 1 tps, /25 = 0.04, floored at 0.1
		{"quiet tape", time.Second, 0.1},
		// 50ms spacing = 20 tps, /25 = 0.8
		{"steady tape", 50 * time.Millisecond, 0.8},
		// sub-millisecond spacing floors the interval at 1ms
		{"same-millisecond", 100 * time.Microsecond, 1.0},
	}

	for _, tc := range cases {
		clock = clock.Add(tc.advance)
		if got := e.EstimateWeight(tr, ctx); math.Abs(got-tc.expected) > 1e-9 {
			t.Errorf("%s: weight = %v, want %v", tc.name, got, tc.expected)
		}
	}
}

func TestVelocityEngineSidePassthrough(t *testing.T) {
	e := NewVelocityEngine()
	tr := domain.NewTrade(50000, 1000, domain.SideBuy, 0, 1)

	if got := e.InferSide(tr, Context{RealSide: domain.SideSell}); got != domain.SideSell {
		t.Errorf("InferSide = %v, want passthrough of real side", got)
	}
}
