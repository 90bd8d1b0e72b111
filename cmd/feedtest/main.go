// Command feedtest is a standalone upstream connectivity check. It dials
// the Binance trade stream directly, decodes a handful of trades, and
// prints them to the console. Useful for diagnosing feed issues without
// starting the full application.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Elloy123/imbalanceengine/internal/feed"
)

func main() {
	wsURL := flag.String("url", "wss://stream.binance.com:9443/ws", "upstream WebSocket base URL")
	symbol := flag.String("symbol", "btcusdt", "trading pair (lowercase)")
	count := flag.Int("count", 10, "number of trades to print before exiting (0 = until Ctrl+C)")
	flag.Parse()

	streamURL := fmt.Sprintf("%s/%s@trade", *wsURL, strings.ToLower(*symbol))

	fmt.Println("=== Imbalance Engine Feed Check ===")
	fmt.Printf("Connecting to %s ...\n", streamURL)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(streamURL, nil)
	if err != nil {
		fmt.Printf("❌ dial failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Println("✅ Connected. Waiting for trades...")
	fmt.Println()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		conn.Close()
	}()

	seen := 0
	for *count == 0 || seen < *count {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			fmt.Printf("read ended: %v\n", err)
			os.Exit(1)
		}

		trade, err := feed.DecodeTrade(msg)
		if err != nil {
			fmt.Printf("⚠️  undecodable message: %v\n", err)
			continue
		}

		seen++
		arrow := "🟢 BUY "
		if trade.Side == "sell" {
			arrow = "🔴 SELL"
		}
		fmt.Printf("%s  %s  price=%.2f  notional=$%.2f  id=%d\n",
			time.UnixMilli(trade.Timestamp).Format("15:04:05.000"),
			arrow, trade.Price, trade.Volume, trade.ID)
	}

	fmt.Println()
	fmt.Printf("✅ Received %d trades. Feed looks healthy.\n", seen)
}
