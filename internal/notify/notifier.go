// Package notify pushes delivery outcomes to the outside world: a webhook
// message for the user and a Redis event for downstream services. Both are
// fire-and-forget; failures are logged and never affect the pipeline.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yunhdeng/job-bot/internal/model"
)

// EventChannel is the Redis pub/sub channel delivery events are published
// on.
const EventChannel = "EVENT_JOB_DELIVERED"

// Notifier fans one delivery outcome out to the configured sinks. Either
// sink may be absent: hookURL may be empty and rdb may be nil.
type Notifier struct {
	hookURL string
	rdb     *redis.Client
	client  *http.Client
	log     *zap.Logger
}

func New(hookURL string, rdb *redis.Client, log *zap.Logger) *Notifier {
	return &Notifier{
		hookURL: hookURL,
		rdb:     rdb,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.Named("notify"),
	}
}

type event struct {
	Type        string        `json:"type"`
	Platform    string        `json:"platform"`
	JobID       string        `json:"jobId"`
	Title       string        `json:"title"`
	CompanyName string        `json:"companyName"`
	Outcome     model.Outcome `json:"outcome"`
	At          time.Time     `json:"at"`
}

// Delivered reports one recorded delivery attempt.
func (n *Notifier) Delivered(ctx context.Context, platform string, p model.Posting, outcome model.Outcome) {
	n.publish(ctx, platform, p, outcome)
	n.pushWebhook(ctx, p, outcome)
}

func (n *Notifier) publish(ctx context.Context, platform string, p model.Posting, outcome model.Outcome) {
	if n.rdb == nil {
		return
	}
	payload, _ := json.Marshal(event{
		Type:        EventChannel,
		Platform:    platform,
		JobID:       p.ID,
		Title:       p.Title,
		CompanyName: p.CompanyName,
		Outcome:     outcome,
		At:          time.Now().UTC(),
	})
	if err := n.rdb.Publish(ctx, EventChannel, payload).Err(); err != nil {
		n.log.Warn("publish delivery event failed", zap.Error(err))
	}
}

func (n *Notifier) pushWebhook(ctx context.Context, p model.Posting, outcome model.Outcome) {
	if n.hookURL == "" {
		return
	}

	mark := "✅"
	if outcome != model.OutcomeDelivered {
		mark = "❌"
	}
	text := fmt.Sprintf("%s %s - %s\n薪资: %d-%dk\n城市: %s",
		mark, p.Title, p.CompanyName, p.SalaryMin, p.SalaryMax, p.City)

	payload, _ := json.Marshal(map[string]any{
		"msgtype": "text",
		"text":    map[string]string{"content": text},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.hookURL, bytes.NewReader(payload))
	if err != nil {
		n.log.Warn("build webhook request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn("webhook push failed", zap.Error(err))
		return
	}
	resp.Body.Close()
}
