// Package scheduler fires the per-platform controllers at fixed wall-clock
// times, subject to each platform's minimum re-run interval. Platforms run
// concurrently within a tick; one platform's failure never blocks the
// others.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/yunhdeng/job-bot/internal/model"
)

// Runner executes one platform run. The controller satisfies this through a
// small adapter in cmd/main.
type Runner interface {
	Run(ctx context.Context, pairs []model.SearchPair) error
}

// RunnerFunc adapts a closure to the Runner interface.
type RunnerFunc func(ctx context.Context, pairs []model.SearchPair) error

func (f RunnerFunc) Run(ctx context.Context, pairs []model.SearchPair) error {
	return f(ctx, pairs)
}

// entry tracks one registered platform's schedule state. lastRun is updated
// only when the platform actually ran, not when the interval check skipped
// it.
type entry struct {
	runner      Runner
	minInterval time.Duration
	lastRun     time.Time
}

// Scheduler wraps robfig/cron and owns the per-platform schedule entries.
type Scheduler struct {
	cron  *cron.Cron
	specs []string
	pairs []model.SearchPair
	log   *zap.Logger
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a Scheduler firing at the given cron specs, e.g.
// ["0 9 * * *", "0 14 * * *"].
func New(specs []string, pairs []model.SearchPair, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		specs:   specs,
		pairs:   pairs,
		log:     log.Named("scheduler"),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Register adds a platform. minInterval is the smallest allowed gap between
// two runs of that platform.
func (s *Scheduler) Register(name string, minInterval time.Duration, r Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = &entry{runner: r, minInterval: minInterval}
}

// Start registers the cron ticks and begins scheduling. One tick runs
// immediately so the first deliveries do not wait for the next wall-clock
// slot.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, spec := range s.specs {
		if _, err := s.cron.AddFunc(spec, func() { s.runTick(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc(%q): %w", spec, err)
		}
	}

	s.cron.Start()
	s.log.Info("cron started", zap.Strings("specs", s.specs))

	go s.runTick(ctx)
	return nil
}

// Stop halts the cron loop. Controllers already running observe their
// context and unwind at the next suspension point.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("cron stopped")
}

// runTick launches every due platform concurrently and waits for all of
// them before the tick is considered complete.
func (s *Scheduler) runTick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	due := s.duePlatforms()
	if len(due) == 0 {
		s.log.Info("tick: no platforms due")
		return
	}

	s.log.Info("tick started", zap.Int("platforms", len(due)))
	var wg sync.WaitGroup
	for _, name := range due {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s.runPlatform(ctx, name)
		}(name)
	}
	wg.Wait()
	s.log.Info("tick complete")
}

// duePlatforms snapshots the platforms whose interval constraint is
// satisfied and marks them as running now, so a long tick never double
// starts a platform.
func (s *Scheduler) duePlatforms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var due []string
	for name, e := range s.entries {
		if !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.minInterval {
			s.log.Info("platform skipped: interval not elapsed",
				zap.String("platform", name),
				zap.Duration("since_last_run", now.Sub(e.lastRun)),
				zap.Duration("min_interval", e.minInterval))
			continue
		}
		e.lastRun = now
		due = append(due, name)
	}
	return due
}

func (s *Scheduler) runPlatform(ctx context.Context, name string) {
	s.mu.Lock()
	e := s.entries[name]
	s.mu.Unlock()

	if err := e.runner.Run(ctx, s.pairs); err != nil {
		s.log.Error("platform run failed", zap.String("platform", name), zap.Error(err))
	}
}
