package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"StockInfo/internal/analysis"
	"StockInfo/internal/calculator"
	"StockInfo/internal/collector"
	"StockInfo/internal/config"
	"StockInfo/internal/dates"
	"StockInfo/internal/metrics"
	"StockInfo/internal/notifier"
	"StockInfo/internal/report"
	"StockInfo/internal/scheduler"
	"StockInfo/internal/server"
	"StockInfo/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StockInfo starting...")

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("[WARN] %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init record source
	var (
		fetcher collector.Fetcher
		roller  scheduler.Roller
	)
	switch cfg.Source.Kind {
	case "alphavantage":
		fetcher = collector.NewAlphaVantageFetcher(cfg.Source.BaseURL, cfg.Source.APIKey, cfg.Source.Proxy)
	case "yahoo":
		fetcher = collector.NewYahooFetcher(cfg.Source.BaseURL, cfg.Source.Proxy)
	default:
		fake := collector.NewFakeFetcher(cfg.Source.HistoryDays, cfg.Source.Seed, time.Now)
		defer fake.Close()
		fetcher, roller = fake, fake
	}
	log.Printf("[INFO] record source: %s", fetcher.Name())

	var cal dates.Calendar = dates.Daily{}
	if cfg.Calendar.Kind == "exchange" {
		cal = dates.NewExchange(cfg.Calendar.MIC)
	}
	log.Printf("[INFO] session calendar: %s", cal.Name())

	// Init metric store
	st, err := store.Open(store.Config{
		Backend:       cfg.Store.Backend,
		SQLitePath:    cfg.Store.SQLitePath,
		PostgresDSN:   cfg.Store.PostgresDSN,
		MySQLDSN:      cfg.Store.MySQLDSN,
		RedisAddr:     cfg.Store.RedisAddr,
		RedisPassword: cfg.Store.RedisPassword,
		RedisDB:       cfg.Store.RedisDB,
	})
	if err != nil {
		log.Fatalf("[FATAL] open metric store: %v", err)
	}
	defer st.Close()

	m := metrics.New(nil)

	builder := calculator.Builder{
		MovingAveragePeriod: cfg.Calculations.MovingAveragePeriod,
		VolatilityPeriod:    cfg.Calculations.VolatilityPeriod,
		MomentumPeriod:      cfg.Calculations.MomentumPeriod,
	}
	rec := analysis.NewReconciler(st, fetcher, builder,
		analysis.WithCalendar(cal),
		analysis.WithLimits(analysis.Limits{
			CompactRecords: cfg.Limits.CompactRecords,
			FullRecords:    cfg.Limits.FullRecords,
		}),
		analysis.WithMetrics(m),
	)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, rec, roller, cfg.Schedule.Watchlist, m)
	if tn := notifier.NewTelegramNotifier(cfg.Telegram.BaseURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Source.Proxy); tn != nil {
		sched.Notifier = tn
		log.Println("[INFO] Telegram warm-up digest enabled")
	}
	if err := sched.RegisterAll(cfg.Schedule.RollCron, cfg.Schedule.WarmupCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: warm the watchlist immediately
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, warming watchlist now")
		go sched.RunWarmupNow()
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	wb := rec.Builder()
	srv := server.New(cfg.Server.Addr, rec, report.Windows{
		MovingAverage: wb.MovingAveragePeriod,
		Volatility:    wb.VolatilityPeriod,
		Momentum:      wb.MomentumPeriod,
	}, m)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] StockInfo is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] StockInfo stopped")
}
