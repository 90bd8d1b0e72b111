package infra

import (
	"fmt"
	"strings"
)

// ANSI Color Codes
const (
	ColorReset = "\033[0m"
	ColorGreen = "\033[32m"
	ColorCyan  = "\033[36m"
)

// PrintBanner displays the startup banner.
func PrintBanner(cfg *Config) {
	symbol := strings.ToUpper(cfg.Feed.Symbol)
	color := ColorCyan

	fmt.Println()
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#              🚀 Imbalance Engine                        #%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#   SYMBOL:    %-36s     #%s\n", color, symbol, ColorReset)
	fmt.Printf("%s#   VERSION:   %-36s     #%s\n", color, cfg.App.Version, ColorReset)
	fmt.Printf("%s#   STREAM:    ws://%-31s     #%s\n", color, cfg.Server.WSAddr+"/ws", ColorReset)
	fmt.Printf("%s#   DASHBOARD: http://%-29s     #%s\n", color, cfg.Server.HTTPAddr, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Println()
}
