// Package feed ingests the upstream Binance trade stream, runs each
// trade through the enrichment pipeline, and hands the result to a sink.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/Elloy123/imbalanceengine/internal/domain"
	"github.com/Elloy123/imbalanceengine/internal/engine"
	"github.com/Elloy123/imbalanceengine/internal/infra"
	"github.com/Elloy123/imbalanceengine/internal/observability"
)

// heartbeatEvery throttles the console trade log.
const heartbeatEvery = 50

// binanceTradeMsg is one message of the <symbol>@trade stream.
// Numeric fields arrive as text.
type binanceTradeMsg struct {
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	IsBuyerMaker bool   `json:"m"`
	TradeTime    int64  `json:"T"`
	TradeID      int64  `json:"t"`
}

// DecodeTrade converts a raw upstream message into a domain Trade.
// Quantity is converted to quote-currency notional (price * qty); the
// maker flag maps to the aggressor side (maker=true means the buyer was
// passive, so the trade was sell-initiated).
func DecodeTrade(msg []byte) (domain.Trade, error) {
	var raw binanceTradeMsg
	if err := json.Unmarshal(msg, &raw); err != nil {
		return domain.Trade{}, fmt.Errorf("decode trade: %w", err)
	}

	price, err := decimal.NewFromString(raw.Price)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("decode trade price %q: %w", raw.Price, err)
	}
	qty, err := decimal.NewFromString(raw.Quantity)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("decode trade quantity %q: %w", raw.Quantity, err)
	}

	side := domain.SideBuy
	if raw.IsBuyerMaker {
		side = domain.SideSell
	}

	volume := price.Mul(qty).InexactFloat64()
	return domain.NewTrade(price.InexactFloat64(), volume, side, raw.TradeTime, raw.TradeID), nil
}

// TradePayload is the enriched per-trade message sent to subscribers.
type TradePayload struct {
	Type                string             `json:"type"`
	Symbol              string             `json:"symbol"`
	Price               float64            `json:"price"`
	VolumeRaw           float64            `json:"volume_raw"`
	Volume              float64            `json:"volume"`
	Side                domain.Side        `json:"side"`
	SideReal            domain.Side        `json:"side_real"`
	Timestamp           int64              `json:"timestamp"`
	IsAbsorption        bool               `json:"is_absorption"`
	EngineContributions map[string]float64 `json:"engine_contributions"`
	TradeCount          uint64             `json:"trade_count"`
}

// Sink receives one enriched payload per upstream trade.
type Sink func(TradePayload)

// Ingestor owns the upstream connection. It decodes each message, runs
// it through the active orchestrator, and forwards the enriched payload
// to the sink. The orchestrator reference is swapped atomically on
// reconfiguration; an in-flight enrich completes on the old instance.
type Ingestor struct {
	symbol string
	wsURL  string
	worker *infra.BaseWSWorker
	sink   Sink

	orch atomic.Pointer[engine.Orchestrator]

	// Bookkeeping, touched only by the read goroutine.
	tradeCount uint64
	lastPrice  float64
}

// NewIngestor creates an ingestor for one symbol's trade stream.
func NewIngestor(wsURL, symbol string, reconnectDelay time.Duration, orch *engine.Orchestrator, sink Sink) *Ingestor {
	i := &Ingestor{
		symbol: strings.ToLower(symbol),
		wsURL:  wsURL,
		sink:   sink,
	}
	i.orch.Store(orch)

	i.worker = infra.NewBaseWSWorker(i)
	if reconnectDelay > 0 {
		i.worker.ReconnectDelay = reconnectDelay
	}
	return i
}

func (i *Ingestor) ID() string { return "BINANCE_TRADES" }

func (i *Ingestor) GetURL() string {
	return fmt.Sprintf("%s/%s@trade", i.wsURL, i.symbol)
}

// Start begins the ingest loop. It returns immediately; the loop runs
// until ctx is cancelled or Stop is called.
func (i *Ingestor) Start(ctx context.Context) {
	i.worker.Start(ctx)
}

// Stop ends the ingest loop and closes the upstream connection.
func (i *Ingestor) Stop() {
	i.worker.Stop()
}

// SwapOrchestrator atomically replaces the active pipeline. The next
// trade observes the new configuration; prior rolling state is gone.
func (i *Ingestor) SwapOrchestrator(o *engine.Orchestrator) {
	i.orch.Store(o)
}

// Orchestrator returns the currently active pipeline.
func (i *Ingestor) Orchestrator() *engine.Orchestrator {
	return i.orch.Load()
}

func (i *Ingestor) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	observability.RecordFeedConnect()
	slog.Info("🔌 Upstream feed connected", "symbol", strings.ToUpper(i.symbol))
	return nil
}

// OnPing is unused: the upstream sends protocol-level pings and the
// websocket library answers them during reads.
func (i *Ingestor) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return nil
}

func (i *Ingestor) OnMessage(ctx context.Context, msg []byte) {
	trade, err := DecodeTrade(msg)
	if err != nil {
		observability.RecordDecodeError()
		slog.Warn("skipping malformed upstream message", "err", err)
		return
	}

	i.tradeCount++
	i.lastPrice = trade.Price

	start := time.Now()
	enriched := i.orch.Load().Enrich(trade)
	observability.RecordEnrichLatency(time.Since(start).Seconds())
	observability.RecordTradeIngested()
	if enriched.IsAbsorption {
		observability.RecordAbsorption()
	}

	if i.sink != nil {
		i.sink(TradePayload{
			Type:                "trade",
			Symbol:              strings.ToUpper(i.symbol),
			Price:               trade.Price,
			VolumeRaw:           trade.Volume,
			Volume:              enriched.Volume,
			Side:                enriched.Side,
			SideReal:            trade.Side,
			Timestamp:           trade.Timestamp,
			IsAbsorption:        enriched.IsAbsorption,
			EngineContributions: enriched.Contributions,
			TradeCount:          i.tradeCount,
		})
	}

	if i.tradeCount%heartbeatEvery == 0 {
		slog.Info("trade", "count", i.tradeCount, "price", trade.Price, "volume", enriched.Volume, "side", enriched.Side)
	}
}
