// job-bot automates discovery and submission of job applications.
//
// Discovers postings on the enabled recruiting platforms, filters them
// against the user's preferences and blacklist, scores them through the AI
// collaborator, and submits applications under per-platform daily/hourly
// caps. Runs on a cron schedule with a minimum re-run interval per
// platform.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yunhdeng/job-bot/internal/ai"
	"github.com/yunhdeng/job-bot/internal/config"
	"github.com/yunhdeng/job-bot/internal/controller"
	"github.com/yunhdeng/job-bot/internal/db"
	"github.com/yunhdeng/job-bot/internal/ledger"
	"github.com/yunhdeng/job-bot/internal/model"
	"github.com/yunhdeng/job-bot/internal/notify"
	"github.com/yunhdeng/job-bot/internal/platform"
	"github.com/yunhdeng/job-bot/internal/proxy"
	"github.com/yunhdeng/job-bot/internal/retry"
	"github.com/yunhdeng/job-bot/internal/scheduler"
	"github.com/yunhdeng/job-bot/internal/session"
	"github.com/yunhdeng/job-bot/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "job-bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	// ── Config ───────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// ── Logger ───────────────────────────────────────────────────────────
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	log, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Optional infrastructure: Redis event bus, PostgreSQL archive ─────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
	}
	notifier := notify.New(cfg.HookURL, rdb, log)

	var archiver controller.Archiver
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		archiver = store.NewFeedStore(pool)
		log.Info("postgres archive enabled")
	}

	// ── Blacklist and search targets ─────────────────────────────────────
	blacklist, err := config.LoadBlacklist(cfg.BlacklistFile)
	if err != nil {
		return fmt.Errorf("blacklist: %w", err)
	}
	prefs := cfg.Preferences()
	pairs := cfg.Pairs()

	// ── Proxy refresher ──────────────────────────────────────────────────
	var proxyFn platform.ProxyFunc
	if len(cfg.File.Proxy.Candidates) > 0 {
		pool := proxy.New(cfg.File.Proxy.Candidates, cfg.ProxyInterval(), log)
		go pool.Run(ctx)
		proxyFn = pool.ProxyFunc
	}

	// ── Scoring collaborator ─────────────────────────────────────────────
	var scorer controller.Scorer
	if cfg.AIAPIKey != "" {
		scorer = ai.NewClient(cfg.AIAPIBase, cfg.AIAPIKey, cfg.AIModel, cfg.File.AI.Introduce, log)
	} else {
		log.Warn("AI_API_KEY not set, scoring disabled")
	}

	// ── Platforms ────────────────────────────────────────────────────────
	sessions := session.NewFileProvider(cfg.CookiesDir)
	sched := scheduler.New(cfg.File.Scheduler.CronSpecs, pairs, log)

	registered := 0
	for name, pcfg := range cfg.File.Platforms {
		if !pcfg.Enabled {
			continue
		}

		cookie, err := sessions.Token(name)
		if err != nil {
			log.Error("platform disabled: no session", zap.String("platform", name), zap.Error(err))
			continue
		}

		adapter, err := buildAdapter(name, cookie, pcfg, proxyFn, log)
		if err != nil {
			log.Error("platform disabled", zap.String("platform", name), zap.Error(err))
			continue
		}

		led, err := ledger.Open(cfg.LedgerDir, name, pcfg.DailyCap, pcfg.HourlyCap, log)
		if err != nil {
			return fmt.Errorf("ledger for %s: %w", name, err)
		}

		ctrl := controller.New(controller.Params{
			Adapter:   adapter,
			Prefs:     prefs,
			Blacklist: blacklist,
			Ledger:    led,
			Scorer:    scorer,
			Notifier:  notifier,
			Archiver:  archiver,
			Config: controller.Config{
				MaxPerRun:     pcfg.MaxPerRun,
				MinMatchScore: cfg.File.Global.MinMatchScore,
				Greeting:      pcfg.Greeting,
				Retry: retry.Policy{
					MaxAttempts: cfg.File.Global.MaxRetries,
					BaseDelay:   cfg.RetryBase(),
					MaxDelay:    2 * time.Minute,
					Jitter:      0.5,
				},
				DeliverPauseMin: 5 * time.Second,
				DeliverPauseMax: 8 * time.Second,
				PagePauseMin:    3 * time.Second,
				PagePauseMax:    5 * time.Second,
			},
			Logger: log,
		})

		platformLog := log.With(zap.String("platform", name))
		sched.Register(name, time.Duration(pcfg.MinIntervalHours)*time.Hour,
			scheduler.RunnerFunc(func(ctx context.Context, pairs []model.SearchPair) error {
				stats, err := ctrl.Run(ctx, pairs)
				if stats != nil {
					platformLog.Info("delivery report", zap.String("summary", stats.Report()))
				}
				return err
			}))
		registered++
	}

	if registered == 0 {
		return fmt.Errorf("no platform could be started")
	}

	// ── Scheduler ────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	log.Info("job-bot started", zap.Int("platforms", registered), zap.Int("pairs", len(pairs)))

	// ── Graceful shutdown ────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()
	sched.Stop()
	return nil
}

// buildAdapter constructs the adapter for one platform name.
func buildAdapter(name, cookie string, pcfg config.Platform, proxyFn platform.ProxyFunc, log *zap.Logger) (platform.Adapter, error) {
	switch name {
	case "boss":
		return platform.NewBoss(cookie, proxyFn, log), nil
	case "liepin":
		return platform.NewLiepin(cookie, pcfg.ResumeID, proxyFn, log), nil
	case "zhilian":
		return platform.NewZhilian(cookie, pcfg.ResumeID, proxyFn, log), nil
	}
	return nil, fmt.Errorf("unknown platform %q", name)
}
