package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"StockInfo/internal/analysis"
	"StockInfo/internal/metrics"
	"StockInfo/internal/notifier"

	"github.com/robfig/cron/v3"
)

// Roller appends the newest daily records to a generated source.
type Roller interface {
	RollDaily(now time.Time) int
}

// Analyzer produces analyses; *analysis.Reconciler satisfies it.
type Analyzer interface {
	ProduceAnalysis(ctx context.Context, req analysis.Request) (analysis.Analysis, error)
}

// Notifier receives the warm-up digest.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Analyzer  Analyzer
	Roller    Roller
	Watchlist []string
	Metrics   *metrics.Metrics
	Notifier  Notifier
	Ctx       context.Context
	now       func() time.Time
}

// NewScheduler creates a new Scheduler running on UTC. roller may be nil
// when the record source is not generated locally.
func NewScheduler(ctx context.Context, an Analyzer, roller Roller, watchlist []string, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		Analyzer:  an,
		Roller:    roller,
		Watchlist: watchlist,
		Metrics:   m,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterAll registers the source roll and the watchlist warm-up.
// An empty warmupCron or watchlist disables the warm-up.
func (s *Scheduler) RegisterAll(rollCron, warmupCron string) error {
	if s.Roller != nil {
		if _, err := s.Cron.AddFunc(rollCron, s.rollTask); err != nil {
			return fmt.Errorf("register roll task: %w", err)
		}
	}
	if warmupCron != "" && len(s.Watchlist) > 0 {
		if _, err := s.Cron.AddFunc(warmupCron, s.warmupTask); err != nil {
			return fmt.Errorf("register warmup task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Printf("[INFO] scheduler started with %d task(s)", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunWarmupNow executes the warm-up immediately (for RUN_ON_START).
func (s *Scheduler) RunWarmupNow() {
	s.warmupTask()
}

func (s *Scheduler) rollTask() {
	added := s.Roller.RollDaily(s.now())
	s.Metrics.ObserveRoll(added)
	log.Printf("[INFO] daily roll appended %d record(s)", added)
}

func (s *Scheduler) warmupTask() {
	log.Printf("[INFO] === warm-up: %d symbol(s) ===", len(s.Watchlist))
	lines := make([]notifier.WarmupLine, 0, len(s.Watchlist))
	ok := 0
	for _, symbol := range s.Watchlist {
		if s.Ctx.Err() != nil {
			log.Println("[WARN] warm-up interrupted by shutdown")
			return
		}
		res, err := s.Analyzer.ProduceAnalysis(s.Ctx, analysis.Request{Symbol: symbol, OutputSize: analysis.Full})
		if err != nil {
			log.Printf("[ERROR] warm-up %s: %v", symbol, err)
			lines = append(lines, notifier.WarmupLine{Symbol: symbol, Err: err})
			continue
		}
		ok++
		log.Printf("[INFO] warm-up %s: %s, %d metric(s)", res.Symbol, res.State, len(res.Metrics))
		lines = append(lines, notifier.WarmupLine{Symbol: res.Symbol, State: string(res.State), Metrics: len(res.Metrics)})
	}
	log.Printf("[INFO] === warm-up done: %d/%d ===", ok, len(s.Watchlist))
	s.trySend(notifier.FormatWarmup(s.now(), lines))
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send warm-up digest: %v", err)
	}
}
