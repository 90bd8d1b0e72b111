package domain

// Side is the aggressor side of a trade.
type Side string

const (
	SideBuy     Side = "buy"
	SideSell    Side = "sell"
	SideNeutral Side = "neutral"
)

// HalfSpread is the fixed half-spread used to derive synthetic quotes.
// The upstream trade stream carries no book data, so bid/ask are
// display-only approximations around the last price.
const HalfSpread = 0.05

// Trade is one executed trade from the upstream feed, immutable once
// constructed. Volume is quote-currency notional (price * base qty).
type Trade struct {
	Price     float64
	Volume    float64
	Side      Side
	Timestamp int64 // source-assigned, milliseconds
	ID        int64

	// Synthetic quotes, display only. No semantic weight in the pipeline.
	Bid float64
	Ask float64
}

// NewTrade builds a Trade and derives its synthetic quotes.
func NewTrade(price, volume float64, side Side, timestampMs, id int64) Trade {
	return Trade{
		Price:     price,
		Volume:    volume,
		Side:      side,
		Timestamp: timestampMs,
		ID:        id,
		Bid:       price - HalfSpread,
		Ask:       price + HalfSpread,
	}
}
