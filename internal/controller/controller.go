// Package controller drives one platform's search → filter → score →
// deliver loop. A controller owns its platform's rate ledger for the
// duration of a run; the preferences and blacklist it holds are read-only
// and shared across platforms.
package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yunhdeng/job-bot/internal/ai"
	"github.com/yunhdeng/job-bot/internal/filter"
	"github.com/yunhdeng/job-bot/internal/ledger"
	"github.com/yunhdeng/job-bot/internal/model"
	"github.com/yunhdeng/job-bot/internal/platform"
	"github.com/yunhdeng/job-bot/internal/retry"
)

// Scorer is the match-scoring collaborator. Both calls may fail; scoring
// failure degrades to skip-without-penalty, greeting failure to the static
// template.
type Scorer interface {
	Score(ctx context.Context, p model.Posting) (ai.Analysis, error)
	Greeting(ctx context.Context, p model.Posting) (string, error)
}

// Notifier receives delivery outcomes, best effort.
type Notifier interface {
	Delivered(ctx context.Context, platform string, p model.Posting, outcome model.Outcome)
}

// Archiver persists delivered postings for later inspection.
type Archiver interface {
	Archive(ctx context.Context, platform string, p model.Posting, outcome model.Outcome) error
}

// Config carries the per-platform run limits and pacing windows.
type Config struct {
	// MaxPerRun stops the run once this many Delivered outcomes exist.
	MaxPerRun int
	// MinMatchScore skips postings the scorer rates below it.
	MinMatchScore int
	// Greeting is the static fallback template; {company} and {title} are
	// substituted.
	Greeting string
	// Retry is applied to every network call site.
	Retry retry.Policy

	// Pacing windows: a random delay in [min, max] between deliveries and
	// between page fetches.
	DeliverPauseMin, DeliverPauseMax time.Duration
	PagePauseMin, PagePauseMax       time.Duration
}

// Params bundles a controller's collaborators. Scorer, Notifier and
// Archiver are optional.
type Params struct {
	Adapter   platform.Adapter
	Prefs     model.Preferences
	Blacklist model.Blacklist
	Ledger    *ledger.Ledger
	Scorer    Scorer
	Notifier  Notifier
	Archiver  Archiver
	Config    Config
	Logger    *zap.Logger
}

// Controller runs the delivery pipeline for one platform. All work within a
// run is sequential; pacing is a design goal, not a bottleneck.
type Controller struct {
	adapter   platform.Adapter
	prefs     model.Preferences
	blacklist model.Blacklist
	ledger    *ledger.Ledger
	scorer    Scorer
	notifier  Notifier
	archiver  Archiver
	cfg       Config
	log       *zap.Logger

	// pause is swapped out in tests to avoid real sleeps.
	pause func(ctx context.Context, min, max time.Duration) error
}

func New(p Params) *Controller {
	cfg := p.Config
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	cfg.Retry.Retryable = platform.IsRetryable

	return &Controller{
		adapter:   p.Adapter,
		prefs:     p.Prefs,
		blacklist: p.Blacklist,
		ledger:    p.Ledger,
		scorer:    p.Scorer,
		notifier:  p.Notifier,
		archiver:  p.Archiver,
		cfg:       cfg,
		log:       p.Logger.Named("controller").With(zap.String("platform", p.Adapter.Name())),
		pause:     retry.Pause,
	}
}

// Run walks every (keyword, city) pair sequentially. It returns an error
// only for session expiry or cancellation; per-pair failures are absorbed
// and the next pair is attempted. Reaching a delivery cap stops the whole
// run cleanly.
func (c *Controller) Run(ctx context.Context, pairs []model.SearchPair) (*Stats, error) {
	log := c.log.With(zap.String("run", uuid.NewString()[:8]))
	stats := newStats()

	log.Info("run started", zap.Int("pairs", len(pairs)))
	for _, pair := range pairs {
		stop, err := c.runPair(ctx, log, pair, stats)
		if err != nil {
			log.Warn("run aborted", zap.Error(err), zap.String("keyword", pair.Keyword), zap.String("city", pair.City))
			return stats, err
		}
		if stop {
			break
		}
	}

	log.Info("run finished",
		zap.Int("delivered", stats.Delivered),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("filtered", stats.Filtered),
		zap.Int("pages", stats.Pages))
	return stats, nil
}

// runPair pages through one (keyword, city) search until the platform
// reports no more results (Exhausted), too many consecutive failures occur
// (Aborted, absorbed), or a platform-global stop condition fires.
func (c *Controller) runPair(ctx context.Context, log *zap.Logger, pair model.SearchPair, stats *Stats) (stopRun bool, err error) {
	log = log.With(zap.String("keyword", pair.Keyword), zap.String("city", pair.City))

	page := 1
	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		postings, err := c.searchPage(ctx, pair, page)
		switch {
		case err == nil:
			// fall through to delivery
		case errors.Is(err, platform.ErrSessionExpired), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return false, err
		case errors.Is(err, retry.ErrAttemptsExhausted):
			// The per-call retry budget is spent; abandon this pair and
			// move on. Never propagate upward.
			log.Warn("pair aborted after repeated search failures", zap.Int("page", page), zap.Error(err))
			return false, nil
		default:
			// Malformed page: treat as empty-but-not-exhausted and retry
			// the same page after a pause, up to the failure threshold.
			failures++
			log.Warn("search page unreadable", zap.Int("page", page), zap.Int("failures", failures), zap.Error(err))
			if failures >= c.cfg.Retry.MaxAttempts {
				return false, nil
			}
			if err := c.pause(ctx, c.cfg.PagePauseMin, c.cfg.PagePauseMax); err != nil {
				return false, err
			}
			continue
		}

		if len(postings) == 0 {
			log.Info("pair exhausted", zap.Int("pages", page-1))
			return false, nil
		}

		stats.Pages++
		failures = 0

		stop, err := c.deliverPage(ctx, log, postings, stats)
		if err != nil || stop {
			return stop, err
		}

		page++
		if err := c.pause(ctx, c.cfg.PagePauseMin, c.cfg.PagePauseMax); err != nil {
			return false, err
		}
	}
}

// searchPage performs one logical page fetch, retrying transient network
// failures under the configured policy.
func (c *Controller) searchPage(ctx context.Context, pair model.SearchPair, page int) ([]model.Posting, error) {
	var postings []model.Posting
	err := c.cfg.Retry.Do(ctx, func() error {
		var searchErr error
		postings, searchErr = c.adapter.Search(ctx, pair.Keyword, pair.City, page)
		return searchErr
	})
	return postings, err
}

// deliverPage processes one page of postings in order. It reports
// stopRun=true when a delivery cap or the per-run maximum is reached, and a
// non-nil error only for session expiry or cancellation.
func (c *Controller) deliverPage(ctx context.Context, log *zap.Logger, postings []model.Posting, stats *Stats) (stopRun bool, err error) {
	for _, posting := range postings {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if c.ledger.Seen(posting.ID) {
			continue
		}
		if reason := filter.Evaluate(posting, c.prefs, c.blacklist); reason != filter.ReasonNone {
			stats.Filtered++
			log.Debug("posting filtered",
				zap.String("job", posting.Title),
				zap.String("company", posting.CompanyName),
				zap.String("reason", string(reason)))
			continue
		}

		// The caps are platform-global: once either is hit, the entire run
		// for this platform stops, not just this pair.
		if !c.ledger.CanDeliver() {
			log.Warn("delivery cap reached, stopping platform run", zap.Int("recorded", c.ledger.Count()))
			return true, nil
		}

		if skip := c.scoreCheck(ctx, log, posting); skip {
			continue
		}

		outcome, err := c.deliver(ctx, log, posting)
		if recErr := c.ledger.Record(model.DeliveryRecord{
			JobID:       posting.ID,
			CompanyName: posting.CompanyName,
			Outcome:     outcome,
		}); recErr != nil {
			log.Error("ledger write failed", zap.Error(recErr))
		}
		stats.note(posting, outcome)
		if c.notifier != nil {
			c.notifier.Delivered(ctx, c.adapter.Name(), posting, outcome)
		}
		if outcome == model.OutcomeDelivered && c.archiver != nil {
			if archErr := c.archiver.Archive(ctx, c.adapter.Name(), posting, outcome); archErr != nil {
				log.Warn("archive failed", zap.Error(archErr))
			}
		}
		if err != nil {
			return false, err
		}

		if c.cfg.MaxPerRun > 0 && stats.Delivered >= c.cfg.MaxPerRun {
			log.Info("per-run delivery maximum reached", zap.Int("delivered", stats.Delivered))
			return true, nil
		}
		if err := c.pause(ctx, c.cfg.DeliverPauseMin, c.cfg.DeliverPauseMax); err != nil {
			return false, err
		}
	}
	return false, nil
}

// scoreCheck consults the scoring collaborator. Low scores and scorer
// failures both skip the posting without writing a delivery record.
func (c *Controller) scoreCheck(ctx context.Context, log *zap.Logger, posting model.Posting) (skip bool) {
	if c.scorer == nil {
		return false
	}

	analysis, err := c.scorer.Score(ctx, posting)
	if err != nil {
		log.Warn("scoring unavailable, skipping posting without penalty",
			zap.String("job", posting.Title), zap.Error(err))
		return true
	}
	if analysis.MatchScore < c.cfg.MinMatchScore {
		log.Info("match score below threshold",
			zap.String("job", posting.Title),
			zap.Int("score", analysis.MatchScore),
			zap.Int("threshold", c.cfg.MinMatchScore))
		return true
	}
	return false
}

// deliver performs the network delivery, retrying transient failures, and
// maps the result to a ledger outcome. Session expiry is returned to abort
// the platform run; every other failure is absorbed into OutcomeFailed.
func (c *Controller) deliver(ctx context.Context, log *zap.Logger, posting model.Posting) (model.Outcome, error) {
	greeting := c.greeting(ctx, posting)

	var result platform.DeliveryResult
	err := c.cfg.Retry.Do(ctx, func() error {
		var deliverErr error
		result, deliverErr = c.adapter.Deliver(ctx, posting, greeting)
		return deliverErr
	})
	if err != nil {
		if errors.Is(err, platform.ErrSessionExpired) {
			return model.OutcomeFailed, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.OutcomeFailed, err
		}
		log.Warn("delivery failed", zap.String("job", posting.Title), zap.Error(err))
		return model.OutcomeFailed, nil
	}

	switch result.Outcome {
	case platform.Delivered:
		log.Info("delivered", zap.String("job", posting.Title), zap.String("company", posting.CompanyName))
		return model.OutcomeDelivered, nil
	case platform.AlreadyDelivered:
		log.Info("already delivered", zap.String("job", posting.Title))
		return model.OutcomeSkipped, nil
	default:
		log.Warn("delivery rejected", zap.String("job", posting.Title), zap.String("reason", result.Reason))
		return model.OutcomeFailed, nil
	}
}

// greeting asks the scorer for a personalised opener and falls back to the
// static template on any failure.
func (c *Controller) greeting(ctx context.Context, posting model.Posting) string {
	if c.scorer != nil {
		if text, err := c.scorer.Greeting(ctx, posting); err == nil && text != "" {
			return text
		} else if err != nil {
			c.log.Warn("greeting generation failed, using template", zap.Error(err))
		}
	}
	return renderGreeting(c.cfg.Greeting, posting)
}

func renderGreeting(template string, p model.Posting) string {
	if template == "" {
		template = "您好，我对贵司的{title}职位很感兴趣，希望能进一步沟通。"
	}
	out := strings.ReplaceAll(template, "{company}", p.CompanyName)
	return strings.ReplaceAll(out, "{title}", p.Title)
}
