package domain

import "testing"

func TestNewTradeSyntheticQuotes(t *testing.T) {
	tr := NewTrade(50000.0, 1234.56, SideBuy, 1700000000000, 42)

	if tr.Bid != 50000.0-HalfSpread {
		t.Errorf("Bid = %v, want %v", tr.Bid, 50000.0-HalfSpread)
	}
	if tr.Ask != 50000.0+HalfSpread {
		t.Errorf("Ask = %v, want %v", tr.Ask, 50000.0+HalfSpread)
	}
	if tr.Side != SideBuy {
		t.Errorf("Side = %v, want buy", tr.Side)
	}
	if tr.Timestamp != 1700000000000 || tr.ID != 42 {
		t.Errorf("bookkeeping fields not carried: %+v", tr)
	}
}
