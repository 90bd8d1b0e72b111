package engine

import (
	"math"
	"testing"

	"github.com/Elloy123/imbalanceengine/internal/domain"
)

func spreadTick(e *SpreadWeightEngine, price float64) float64 {
	tr := domain.NewTrade(price, 1000, domain.SideBuy, 0, 1)
	return e.EstimateWeight(tr, Context{RealSide: domain.SideBuy})
}

func TestSpreadWeightWarmup(t *testing.T) {
	e := NewSpreadWeightEngine()

	// Fewer than 5 samples always returns the neutral factor.
	for i := 0; i < 4; i++ {
		if got := spreadTick(e, 50000+float64(i)*500); got != 1.0 {
			t.Fatalf("sample %d: weight = %v, want 1.0 during warmup", i+1, got)
		}
	}
}

func TestSpreadWeightCalmMarket(t *testing.T) {
	e := NewSpreadWeightEngine()

	// Constant prices: zero volatility, weight saturates at the 1.5 cap.
	var got float64
	for i := 0; i < 5; i++ {
		got = spreadTick(e, 50000)
	}
	if got != 1.5 {
		t.Errorf("calm market weight = %v, want 1.5", got)
	}
}

func TestSpreadWeightVolatileMarket(t *testing.T) {
	e := NewSpreadWeightEngine()

	// Alternating +-200 around the mean: stddev 200, normalized capped
	// at 1.5, so weight = (1/1.5)*0.8 + 0.2.
	var got float64
	for i := 0; i < 8; i++ {
		price := 50000.0
		if i%2 == 0 {
			price = 50400.0
		}
		got = spreadTick(e, price)
	}

	expected := (1.0/1.5)*0.8 + 0.2
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("volatile market weight = %v, want %v", got, expected)
	}
}

func TestSpreadWeightSidePassthrough(t *testing.T) {
	e := NewSpreadWeightEngine()
	tr := domain.NewTrade(50000, 1000, domain.SideSell, 0, 1)

	if got := e.InferSide(tr, Context{RealSide: domain.SideBuy}); got != domain.SideBuy {
		t.Errorf("InferSide = %v, want passthrough of real side", got)
	}
}
