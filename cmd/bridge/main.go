package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"tradebridge/internal/cache"
	"tradebridge/internal/config"
	"tradebridge/internal/database"
	"tradebridge/internal/feed"
	"tradebridge/internal/journal"
	"tradebridge/internal/logging"
	"tradebridge/internal/model"
	"tradebridge/internal/publish"
	"tradebridge/internal/refdata"
	"tradebridge/internal/router"
	"tradebridge/internal/stream"
	"tradebridge/internal/venue"
	"tradebridge/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/bridge.local.yaml", "path to config file")
	flag.Parse()

	// Bootstrap logger until the configured one is built
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting bridge",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = logging.New(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"gateway_rest", cfg.Gateway.RestURL,
		"gateway_ws", cfg.Gateway.WSURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("database connected")

	// Gateway REST client
	rest, err := venue.NewClient(
		cfg.Gateway.RestURL,
		cfg.Gateway.Token,
		venue.WithLogger(logger),
		venue.WithTimeout(cfg.Gateway.Timeout),
	)
	if err != nil {
		logger.Error("failed to create gateway client", "error", err)
		os.Exit(1)
	}

	// Securities catalog
	catalog := refdata.NewCatalog(refdata.Config{
		Boards:            cfg.Refdata.Boards,
		ReconcileInterval: cfg.Refdata.SyncInterval,
	}, rest, logger)

	// Kafka publisher, optional
	var pub *publish.Publisher
	if cfg.Kafka.Enabled {
		pub = publish.New(publish.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, logger)
		logger.Info("event publication enabled",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
	}

	// Redis quote cache, optional
	var quotes *cache.QuoteCache
	if cfg.Redis.Enabled {
		quotes, err = cache.NewQuoteCache(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer quotes.Close()
		logger.Info("quote cache enabled", "addr", cfg.Redis.Addr)
	}

	// Event router; the sink mirrors every routed event to the publisher
	var sink router.Sink
	if pub != nil {
		sink = publishSink{pub: pub}
	}
	rt := router.New(router.Config{
		BookQueueSize:  cfg.Journal.BookQueueSize,
		TradeQueueSize: cfg.Journal.TradeQueueSize,
		OrderQueueSize: cfg.Journal.OrderQueueSize,
	}, sink, logger)

	// Journal writers
	jcfg := journal.Config{
		BatchSize:     cfg.Journal.BatchSize,
		FlushInterval: cfg.Journal.FlushInterval,
	}
	bookWriter := journal.NewBookWriter(jcfg, rt.Books(), db, logger)
	tradeWriter := journal.NewTradeWriter(jcfg, rt.Trades(), db, logger)
	orderWriter := journal.NewOrderWriter(jcfg, rt.Orders(), db, logger)

	// Stream client
	client, err := stream.New(stream.Config{
		Dialer: stream.NewWebSocketDialer(stream.WSConfig{
			URL:              cfg.Gateway.WSURL,
			Token:            cfg.Gateway.Token,
			HandshakeTimeout: cfg.Stream.HandshakeTimeout,
			WriteTimeout:     cfg.Stream.WriteTimeout,
			ReadTimeout:      cfg.Stream.ReadTimeout,
		}),
		Handler:        rt,
		Logger:         logger,
		BackoffBase:    cfg.Stream.BackoffBase,
		BackoffMax:     cfg.Stream.BackoffMax,
		MaxAttempts:    cfg.Stream.MaxAttempts,
		OrderBookDepth: cfg.Stream.OrderBookDepth,
		QueueSize:      cfg.Stream.QueueSize,
	})
	if err != nil {
		logger.Error("failed to create stream client", "error", err)
		os.Exit(1)
	}

	// Start health server early so we can monitor sync progress
	healthServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(components{
			db:      db,
			client:  client,
			catalog: catalog,
			books:   bookWriter,
			trades:  tradeWriter,
			orders:  orderWriter,
			pub:     pub,
			quotes:  quotes,
		}, cfg.Health.Path),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port, "path", cfg.Health.Path)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Start securities catalog (initial sync)
	logger.Info("starting securities catalog (initial sync)...")
	if err := catalog.Start(ctx); err != nil {
		logger.Error("failed to start securities catalog", "error", err)
		os.Exit(1)
	}

	logger.Info("securities catalog started", "securities", catalog.Len())

	// Resolve configured orderbook subscriptions
	books := make([]model.Instrument, 0, len(cfg.Subscriptions.OrderBooks))
	for _, raw := range cfg.Subscriptions.OrderBooks {
		inst, err := model.ParseInstrument(raw)
		if err != nil {
			logger.Error("invalid orderbook subscription", "entry", raw, "error", err)
			os.Exit(1)
		}
		if _, ok := catalog.Get(inst); !ok {
			logger.Warn("subscribing to instrument not in catalog", "instrument", inst.String())
		}
		books = append(books, inst)
	}

	// Start journal writers
	if err := bookWriter.Start(ctx); err != nil {
		logger.Error("failed to start book writer", "error", err)
		os.Exit(1)
	}
	if err := tradeWriter.Start(ctx); err != nil {
		logger.Error("failed to start trade writer", "error", err)
		os.Exit(1)
	}
	if err := orderWriter.Start(ctx); err != nil {
		logger.Error("failed to start order writer", "error", err)
		os.Exit(1)
	}

	// Connect the event stream
	logger.Info("connecting event stream", "url", cfg.Gateway.WSURL)
	if err := client.Connect(ctx); err != nil {
		logger.Error("failed to connect event stream", "error", err)
		os.Exit(1)
	}

	// Subscribe configured resources
	for _, inst := range books {
		if err := client.SubscribeOrderBook(inst.Board, inst.Seccode); err != nil {
			logger.Error("orderbook subscription failed",
				"instrument", inst.String(),
				"error", err,
			)
			os.Exit(1)
		}
	}
	if len(cfg.Subscriptions.ClientIDs) > 0 {
		err := client.SubscribeOrderTrade(stream.OrderTradeRequest{
			ClientIDs:     cfg.Subscriptions.ClientIDs,
			IncludeTrades: cfg.Subscriptions.IncludeTrades,
			IncludeOrders: cfg.Subscriptions.IncludeOrders,
		})
		if err != nil {
			logger.Error("order/trade subscription failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("subscriptions established",
		"orderbooks", len(books),
		"client_ids", len(cfg.Subscriptions.ClientIDs),
	)

	// Background pumps
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for st := range client.Status() {
			logger.Info("stream status",
				"state", st.State.String(),
				"attempt", st.Attempt,
			)
			if st.State == stream.StateFailed {
				logger.Error("stream exhausted reconnect attempts, shutting down")
				cancel()
			}
		}
		return nil
	})

	g.Go(func() error {
		for err := range client.Errors() {
			logger.Warn("stream error", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Stream.KeepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := client.SendKeepAlive(); err != nil {
					logger.Debug("keepalive failed", "error", err)
				}
			}
		}
	})

	if pub != nil {
		g.Go(func() error {
			return pub.Run(gctx)
		})
	}

	// Public quote poller, optional
	var quotePoller *feed.Poller
	if cfg.Feed.Enabled {
		feedClient := feed.NewClient(
			cfg.Feed.URL,
			feed.WithLogger(logger),
			feed.WithTimeout(cfg.Feed.Timeout),
			feed.WithRetries(cfg.Feed.MaxRetries, 500*time.Millisecond),
		)
		handler := feed.QuoteHandlerFunc(func(batch []model.Quote) error {
			hctx, hcancel := context.WithTimeout(context.Background(), cfg.Feed.Timeout)
			defer hcancel()
			for _, q := range batch {
				if quotes != nil {
					if err := quotes.Put(hctx, q); err != nil {
						return err
					}
				}
				if pub != nil {
					pub.Enqueue(publish.QuoteEvent(q))
				}
			}
			return nil
		})
		quotePoller = feed.New(feed.Config{
			Boards:      cfg.Feed.Boards,
			Interval:    cfg.Feed.Interval,
			Concurrency: cfg.Feed.Concurrency,
			Timeout:     cfg.Feed.Timeout,
		}, feedClient, handler, logger)
		if err := quotePoller.Start(ctx); err != nil {
			logger.Error("failed to start quote poller", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("bridge running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if quotePoller != nil {
		quotePoller.Stop(shutdownCtx)
	}

	// Closing the client ends the status and error channels, which lets the
	// pumps drain and the errgroup return. The publisher drains its backlog
	// before returning.
	client.Close()
	if err := g.Wait(); err != nil {
		logger.Warn("background task error", "error", err)
	}

	rt.Close()

	bookWriter.Stop(shutdownCtx)
	tradeWriter.Stop(shutdownCtx)
	orderWriter.Stop(shutdownCtx)

	catalog.Stop(shutdownCtx)

	healthServer.Shutdown(shutdownCtx)

	logger.Info("bridge stopped")
}

// publishSink forwards routed events to the Kafka publisher. It never
// blocks; when the publisher queue is closed the event is dropped.
type publishSink struct {
	pub *publish.Publisher
}

func (s publishSink) OrderBook(book model.OrderBook) {
	s.pub.Enqueue(publish.BookEvent(book))
}

func (s publishSink) Trade(trade model.TradeEvent) {
	s.pub.Enqueue(publish.TradeEvent(trade))
}

func (s publishSink) Order(order model.OrderEvent) {
	s.pub.Enqueue(publish.OrderEvent(order))
}

// components bundles everything the health endpoint reports on.
type components struct {
	db      *pgxpool.Pool
	client  *stream.Client
	catalog *refdata.Catalog
	books   *journal.BookWriter
	trades  *journal.TradeWriter
	orders  *journal.OrderWriter
	pub     *publish.Publisher
	quotes  *cache.QuoteCache
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(c components, path string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		// Check database
		if err := c.db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["database"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["database"] = "connected"
		}

		// Check event stream
		st := c.client.Stats()
		streamInfo := map[string]any{
			"state":         st.State.String(),
			"attempt":       st.Attempt,
			"subscriptions": st.Subscriptions,
			"queued":        st.Queue.Len,
		}
		if !st.LastFailureAt.IsZero() {
			streamInfo["last_failure"] = st.LastFailureAt.Format(time.RFC3339)
		}
		health.Components["stream"] = streamInfo
		if st.State != stream.StateConnected && health.Status == "healthy" {
			health.Status = "degraded"
		}

		// Check securities catalog
		health.Components["catalog"] = map[string]any{
			"securities": c.catalog.Len(),
			"last_sync":  c.catalog.LastSyncAt().Format(time.RFC3339),
		}

		// Journal writer counters
		health.Components["journal"] = map[string]any{
			"books":  c.books.Stats(),
			"trades": c.trades.Stats(),
			"orders": c.orders.Stats(),
		}

		if c.pub != nil {
			ps := c.pub.Stats()
			health.Components["publisher"] = map[string]any{
				"published": ps.Published,
				"errors":    ps.Errors,
				"queued":    ps.Queue.Len,
			}
		}

		if c.quotes != nil {
			if err := c.quotes.Ping(ctx); err != nil {
				health.Components["quote_cache"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
				if health.Status == "healthy" {
					health.Status = "degraded"
				}
			} else {
				health.Components["quote_cache"] = "connected"
			}
		}

		// Set response
		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		keys := c.client.Subscriptions()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count":         len(keys),
			"subscriptions": keys,
		})
	})

	return mux
}
