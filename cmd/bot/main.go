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

	"github.com/bryanlew/algocrypto/internal/bot"
	"github.com/bryanlew/algocrypto/internal/config"
	"github.com/bryanlew/algocrypto/internal/exchange/bybit"
	"github.com/bryanlew/algocrypto/internal/logger"
	"github.com/bryanlew/algocrypto/internal/monitoring"
	"github.com/bryanlew/algocrypto/internal/notifications"
)

func main() {
	var (
		configFile     = flag.String("config", "trading_config.json", "Path to trading config file")
		reloadInterval = flag.Duration("reload-interval", 30*time.Second, "Config reload interval")
		checkInterval  = flag.Duration("check-interval", time.Minute, "Trading loop interval")
		journalPath    = flag.String("journal", "results/trades.xlsx", "Trade journal output path")
		healthPort     = flag.Int("health-port", 8080, "Health endpoint port")
		metricsPort    = flag.Int("metrics-port", 9090, "Prometheus metrics port")
		closeOnExit    = flag.Bool("close-on-exit", false, "Flatten all open positions on shutdown")
	)
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env file")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Exchange.APIKey == "" || cfg.Exchange.APISecret == "" {
		log.Fatal("BYBIT_API_KEY and BYBIT_API_SECRET must be set")
	}

	gateway := bybit.NewGateway(bybit.Config{
		APIKey:    cfg.Exchange.APIKey,
		APISecret: cfg.Exchange.APISecret,
		Testnet:   cfg.Exchange.Testnet,
		Demo:      cfg.Exchange.Demo,
	})

	tradingLogger, err := logger.NewLogger("live", cfg.Trading.Interval)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer tradingLogger.Close()

	var notifier *notifications.TelegramNotifier
	if cfg.Notifications.Enabled && cfg.Notifications.TelegramToken != "" {
		notifier = notifications.NewTelegramNotifier(
			cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChat)
	} else {
		log.Println("Telegram notifications disabled")
	}

	healthChecker := monitoring.NewHealthChecker()
	go startMonitoringServers(*healthPort, *metricsPort, healthChecker)

	watcher := config.NewWatcher(*configFile, cfg.Trading, *reloadInterval)
	watcher.OnReload(func(tc config.TradingConfig) {
		tradingLogger.Info("Config reloaded: enabled=%t risk=%.4f assets=%v",
			tc.Enabled, tc.RiskFraction, tc.Assets)
	})

	b := bot.NewLiveBot(gateway, watcher, tradingLogger, bot.Options{
		Notifier:      notifier,
		Health:        healthChecker,
		CheckInterval: *checkInterval,
		Environment:   gateway.Environment(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Config watcher stopped: %v", err)
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- b.Start(ctx)
	}()

	if notifier != nil {
		if err := notifier.SendAlert("info", fmt.Sprintf("Bot started on %s", gateway.Environment())); err != nil {
			log.Printf("Failed to send startup notification: %v", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Received %s, shutting down...", sig)
	case err := <-errChan:
		if err != nil {
			log.Printf("Bot error: %v", err)
		}
	}

	cancel()
	b.Stop()

	if *closeOnExit {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
		closed := b.CloseAllPositions(closeCtx)
		closeCancel()
		log.Printf("Closed %d open position(s) on exit", closed)
	}

	b.PrintStatus()

	if err := b.Shutdown(*journalPath); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	if notifier != nil {
		if err := notifier.SendAlert("info", "Bot stopped"); err != nil {
			log.Printf("Failed to send shutdown notification: %v", err)
		}
	}

	log.Println("Bot stopped successfully")
}

func startMonitoringServers(healthPort, metricsPort int, healthChecker *monitoring.HealthChecker) {
	healthMux := http.NewServeMux()
	healthMux.Handle("/health", healthChecker)

	go func() {
		log.Printf("Starting health server on port %d", healthPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", healthPort), healthMux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	go func() {
		log.Printf("Starting Prometheus server on port %d", metricsPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", metricsPort), monitoring.NewMetricsHandler()); err != nil {
			log.Printf("Prometheus server error: %v", err)
		}
	}()
}
