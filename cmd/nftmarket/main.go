package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/africana/nftmarket/internal/bank"
	"github.com/africana/nftmarket/internal/config"
	"github.com/africana/nftmarket/internal/domain"
	"github.com/africana/nftmarket/internal/engine"
	"github.com/africana/nftmarket/internal/handler"
	"github.com/africana/nftmarket/internal/ledger"
	"github.com/africana/nftmarket/internal/service"
	"github.com/africana/nftmarket/internal/store"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level, optionally teeing to a
	// rotated log file.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	var logOut io.Writer = os.Stdout
	if cfg.LogFile != "" {
		logOut = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Money ledger with the system accounts opened up front. Every escrow
	// and fee transfer settles against these two.
	bk := bank.New()
	if _, err := bk.Open(cfg.EscrowAccount, 0); err != nil {
		logger.Error("failed to open escrow account", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if _, err := bk.Open(cfg.FeeAccount, 0); err != nil {
		logger.Error("failed to open fee account", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Stores and asset ledger.
	itemStore := store.NewItemStore()
	eventLog := store.NewEventLog()
	webhookStore := store.NewWebhookStore()
	ledgers := ledger.NewRegistry()

	// Optional durable event journal.
	var journal *store.Journal
	if cfg.JournalPath != "" {
		journal, err = store.OpenJournal(cfg.JournalPath)
		if err != nil {
			logger.Error("failed to open journal", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("journal opened", slog.String("path", cfg.JournalPath))
	}

	// Settlement engine.
	market := engine.NewMarket(
		domain.FeeConfig{Account: cfg.FeeAccount, Percent: cfg.FeePercent},
		cfg.EscrowAccount,
		itemStore,
		eventLog,
		engine.NewListingIndex(),
		ledgers,
		bk,
	)

	// Services.
	webhookSvc := service.NewWebhookService(webhookStore, bk, cfg.WebhookTimeout)
	accountSvc := service.NewAccountService(bk)
	collectionSvc := service.NewCollectionService(ledgers, bk)
	marketSvc := service.NewMarketService(market, bk, webhookSvc, journal, logger)

	// Router. RATE_LIMIT_RPS of 0 disables throttling.
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	router := handler.NewRouter(accountSvc, collectionSvc, marketSvc, webhookSvc, eventLog, limiter, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("fee_account", cfg.FeeAccount),
			slog.Int64("fee_percent", cfg.FeePercent),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
