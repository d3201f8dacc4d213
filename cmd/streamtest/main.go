// streamtest connects to the gateway event stream and prints parsed events
// to console.
// Usage: go run ./cmd/streamtest --url wss://gateway.example.com/v1/stream --board TQBR --seccodes SBER,GAZP
//
// The bearer token is taken from --token or the GATEWAY_TOKEN environment
// variable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tradebridge/internal/model"
	"tradebridge/internal/router"
	"tradebridge/internal/stream"
)

func main() {
	url := flag.String("url", "ws://localhost:8090/v1/stream", "gateway stream endpoint")
	token := flag.String("token", os.Getenv("GATEWAY_TOKEN"), "bearer token")
	board := flag.String("board", "TQBR", "board for orderbook subscriptions")
	seccodes := flag.String("seccodes", "SBER", "comma-separated security codes")
	clientIDs := flag.String("clients", "", "comma-separated client IDs for the order/trade feed")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	// Router with no sink; events are read off the queues by the printers
	rt := router.New(router.DefaultConfig(), nil, logger)

	client, err := stream.New(stream.Config{
		Dialer: stream.NewWebSocketDialer(stream.WSConfig{
			URL:   *url,
			Token: *token,
		}),
		Handler: rt,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to create stream client", "error", err)
		os.Exit(1)
	}

	logger.Info("connecting", "url", *url)
	if err := client.Connect(ctx); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}

	// Subscribe orderbooks
	for _, code := range splitList(*seccodes) {
		if err := client.SubscribeOrderBook(*board, code); err != nil {
			logger.Error("orderbook subscription failed",
				"board", *board,
				"seccode", code,
				"error", err,
			)
			os.Exit(1)
		}
		logger.Info("subscribed", "board", *board, "seccode", code)
	}

	// Subscribe the own order/trade feed when accounts were given
	if ids := splitList(*clientIDs); len(ids) > 0 {
		err := client.SubscribeOrderTrade(stream.OrderTradeRequest{
			ClientIDs:     ids,
			IncludeTrades: true,
			IncludeOrders: true,
		})
		if err != nil {
			logger.Error("order/trade subscription failed", "error", err)
			os.Exit(1)
		}
		logger.Info("subscribed order/trade feed", "client_ids", ids)
	}

	// Status and error printers
	go func() {
		for st := range client.Status() {
			logger.Info("stream status", "state", st.State.String(), "attempt", st.Attempt)
		}
	}()
	go func() {
		for err := range client.Errors() {
			logger.Warn("stream error", "error", err)
		}
	}()

	// Console printers
	go printBooks(ctx, rt.Books(), *verbose)
	go printTrades(ctx, rt.Trades(), *verbose)
	go printOrders(ctx, rt.Orders(), *verbose)

	// Keepalive
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := client.SendKeepAlive(); err != nil {
					logger.Debug("keepalive failed", "error", err)
				}
			}
		}
	}()

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs := client.Stats()
				rs := rt.Stats()
				logger.Info("stats",
					"state", cs.State.String(),
					"subscriptions", cs.Subscriptions,
					"dispatch_queue", cs.Queue.Len,
					"received", rs.Received,
					"routed", rs.Routed,
					"parse_errors", rs.ParseErrors,
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")
	client.Close()
	rt.Close()

	logger.Info("shutdown complete")
}

// splitList parses a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printBooks(ctx context.Context, q *stream.Queue[model.OrderBook], verbose bool) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			book, ok := q.TryPop()
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}

			if verbose {
				data, _ := json.MarshalIndent(book, "", "  ")
				fmt.Printf("[BOOK] %s\n", data)
				continue
			}

			line := fmt.Sprintf("[BOOK] %s bids=%d asks=%d", book.Instrument(), len(book.Bids), len(book.Asks))
			if bid, ok := book.BestBid(); ok {
				line += fmt.Sprintf(" best_bid=%s", bid.Price)
			}
			if ask, ok := book.BestAsk(); ok {
				line += fmt.Sprintf(" best_ask=%s", ask.Price)
			}
			fmt.Println(line)
		}
	}
}

func printTrades(ctx context.Context, q *stream.Queue[model.TradeEvent], verbose bool) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			trade, ok := q.TryPop()
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}

			if verbose {
				data, _ := json.MarshalIndent(trade, "", "  ")
				fmt.Printf("[TRADE] %s\n", data)
			} else {
				fmt.Printf("[TRADE] %s:%s exec=%s side=%s price=%s qty=%d order=%s\n",
					trade.Board, trade.Seccode, trade.ExecID, trade.Side, trade.Price, trade.Quantity, trade.OrderNo)
			}
		}
	}
}

func printOrders(ctx context.Context, q *stream.Queue[model.OrderEvent], verbose bool) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			order, ok := q.TryPop()
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}

			if verbose {
				data, _ := json.MarshalIndent(order, "", "  ")
				fmt.Printf("[ORDER] %s\n", data)
			} else {
				fmt.Printf("[ORDER] %s:%s no=%s status=%s side=%s price=%s qty=%d balance=%d\n",
					order.Board, order.Seccode, order.OrderNo, order.Status, order.Side, order.Price, order.Quantity, order.Balance)
			}
		}
	}
}
