package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/quangdle/crypto-signal-bot/internal/config"
	"github.com/quangdle/crypto-signal-bot/internal/exchange/bybit"
	"github.com/quangdle/crypto-signal-bot/internal/logger"
	"github.com/quangdle/crypto-signal-bot/internal/monitoring"
	"github.com/quangdle/crypto-signal-bot/internal/notifications"
	"github.com/quangdle/crypto-signal-bot/internal/orchestrator"
	"github.com/quangdle/crypto-signal-bot/internal/risk"
	signalengine "github.com/quangdle/crypto-signal-bot/internal/signal"
	"github.com/quangdle/crypto-signal-bot/internal/storage"
	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

func main() {
	var (
		configFile = flag.String("config", "", "Strategy configuration file (JSON)")
		envFile    = flag.String("env", ".env", "Environment file path")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: could not load %s (%v), using process environment", *envFile, err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLog, err := logger.New(cfg.LogLevel, cfg.Environment == "development")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLog.Sync()

	fmt.Println("🚀 Signal Bot Starting...")

	if err := run(cfg, zapLog); err != nil {
		zapLog.Fatal("bot exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLog *zap.Logger) error {
	adapter := bybit.NewAdapter(bybit.Config{
		APIKey:    cfg.Exchange.APIKey,
		APISecret: cfg.Exchange.APISecret,
		Testnet:   cfg.Exchange.Testnet,
		Demo:      cfg.Exchange.Demo,
	}, zapLog)

	engine := signalengine.NewEngine(cfg.Signal)

	riskMgr, err := risk.NewManager(cfg.Risk, zapLog)
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	notifier := notifications.NewMultiNotifier(notifications.NewLogNotifier(zapLog))
	health := monitoring.NewHealthChecker()

	bot, err := orchestrator.New(orchestrator.Config{
		Symbols:        cfg.Trading.Symbols,
		Interval:       cfg.Trading.Interval,
		PollInterval:   cfg.PollInterval(),
		RequestTimeout: cfg.RequestTimeout(),
	}, adapter, engine, riskMgr, store, notifier, health, zapLog)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bot.Start(ctx); err != nil {
		return err
	}

	startHTTPServers(cfg, health, zapLog)

	var stream *bybit.TickerStream
	if cfg.Monitoring.EnableStream {
		symbols := make([]string, 0, len(cfg.Trading.Symbols))
		for _, s := range cfg.Trading.Symbols {
			symbols = append(symbols, adapter.NormalizeSymbol(s))
		}
		stream = bybit.NewTickerStream(bybit.Config{
			Testnet: cfg.Exchange.Testnet,
		}, adapter.Catalog(), symbols, func(ticker types.Ticker) {
			monitoring.UpdatePrice(ticker.Symbol, ticker.Price)
		}, zapLog)
		if err := stream.Start(ctx); err != nil {
			zapLog.Warn("ticker stream unavailable, polling only", zap.Error(err))
			stream = nil
		}
	}

	fmt.Printf("✅ Running: %v on Bybit (%s)\n", cfg.Trading.Symbols, environmentName(cfg))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("🛑 Shutting down...")
	if stream != nil {
		stream.Stop()
	}
	bot.Stop()
	cancel()
	return nil
}

func startHTTPServers(cfg *config.Config, health *monitoring.HealthChecker, zapLog *zap.Logger) {
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.NewMetricsHandler())
		server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
		mux := http.NewServeMux()
		mux.Handle("/health", health)
		server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("health server failed", zap.Error(err))
		}
	}()
}

func environmentName(cfg *config.Config) string {
	switch {
	case cfg.Exchange.Demo:
		return "demo"
	case cfg.Exchange.Testnet:
		return "testnet"
	default:
		return "mainnet"
	}
}
