package engine

import (
	"testing"

	"github.com/Elloy123/imbalanceengine/internal/domain"
)

func clusterTick(e *MicroClusterEngine, tsMs int64, price, volume float64, side domain.Side) float64 {
	tr := domain.NewTrade(price, volume, side, tsMs, 1)
	return e.EstimateWeight(tr, Context{RealSide: side, RealVolume: volume, Price: price})
}

func TestMicroClusterAbsorption(t *testing.T) {
	e := NewMicroClusterEngine()

	// Five trades inside one 100ms window: rising price while sell volume
	// (300) dominates buy volume (100) past the 2x multiple.
	if got := clusterTick(e, 1000, 50000, 100, domain.SideBuy); got != 1.0 {
		t.Fatalf("open trade weight = %v, want 1.0", got)
	}
	clusterTick(e, 1020, 50010, 80, domain.SideSell)
	clusterTick(e, 1040, 50020, 80, domain.SideSell)
	clusterTick(e, 1060, 50030, 80, domain.SideSell)

	// The fifth trade completes the window and triggers the flush.
	got := clusterTick(e, 1100, 50040, 60, domain.SideSell)
	if got != 1.8 {
		t.Errorf("flush weight = %v, want 1.8 on absorption", got)
	}

	// Price rose into dominant sell flow: the carried side estimate is a
	// sell reversal, overriding the real side.
	tr := domain.NewTrade(50040, 100, domain.SideBuy, 1110, 2)
	if side := e.InferSide(tr, Context{RealSide: domain.SideBuy}); side != domain.SideSell {
		t.Errorf("InferSide after absorption = %v, want sell", side)
	}
}

func TestMicroClusterAbsorptionInverse(t *testing.T) {
	e := NewMicroClusterEngine()

	// Falling price while buy volume dominates: buy reversal expected.
	clusterTick(e, 1000, 50040, 150, domain.SideBuy)
	clusterTick(e, 1030, 50020, 150, domain.SideBuy)
	clusterTick(e, 1060, 50010, 100, domain.SideSell)

	if got := clusterTick(e, 1100, 50000, 150, domain.SideBuy); got != 1.8 {
		t.Errorf("flush weight = %v, want 1.8 on absorption", got)
	}

	tr := domain.NewTrade(50000, 100, domain.SideSell, 1110, 2)
	if side := e.InferSide(tr, Context{RealSide: domain.SideSell}); side != domain.SideBuy {
		t.Errorf("InferSide after absorption = %v, want buy", side)
	}
}

func TestMicroClusterBalancedWindow(t *testing.T) {
	e := NewMicroClusterEngine()

	clusterTick(e, 1000, 50000, 100, domain.SideBuy)
	clusterTick(e, 1050, 50010, 100, domain.SideSell)

	if got := clusterTick(e, 1100, 50020, 100, domain.SideBuy); got != 1.0 {
		t.Errorf("flush weight = %v, want 1.0 without absorption", got)
	}

	tr := domain.NewTrade(50020, 100, domain.SideBuy, 1110, 2)
	if side := e.InferSide(tr, Context{RealSide: domain.SideBuy}); side != domain.SideBuy {
		t.Errorf("InferSide without absorption = %v, want real side", side)
	}
}

func TestMicroClusterSideBeforeFirstWindow(t *testing.T) {
	e := NewMicroClusterEngine()

	tr := domain.NewTrade(50000, 100, domain.SideSell, 1000, 1)
	if side := e.InferSide(tr, Context{RealSide: domain.SideSell}); side != domain.SideSell {
		t.Errorf("InferSide before any window = %v, want real side", side)
	}
}
