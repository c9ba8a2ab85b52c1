// Package proxy maintains a validated egress proxy in the background. The
// refresher publishes the most recent working proxy through an atomic
// handle; request paths read the latest value and never block on
// revalidation.
package proxy

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Pool cycles through candidate proxy URLs, keeping the first one that
// passes a liveness probe as the current egress endpoint.
type Pool struct {
	candidates []string
	interval   time.Duration
	probeURL   string

	current atomic.Pointer[url.URL]
	client  *http.Client
	log     *zap.Logger
}

func New(candidates []string, interval time.Duration, log *zap.Logger) *Pool {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Pool{
		candidates: candidates,
		interval:   interval,
		probeURL:   "https://www.zhipin.com",
		client:     &http.Client{Timeout: 5 * time.Second},
		log:        log.Named("proxy"),
	}
}

// Run revalidates candidates until the context is cancelled. Call it in its
// own goroutine; an initial validation pass happens before the first tick.
func (p *Pool) Run(ctx context.Context) {
	if len(p.candidates) == 0 {
		return
	}

	p.refresh(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Pool) refresh(ctx context.Context) {
	for _, candidate := range p.candidates {
		u, err := url.Parse(candidate)
		if err != nil {
			p.log.Warn("invalid proxy candidate", zap.String("proxy", candidate), zap.Error(err))
			continue
		}
		if p.probe(ctx, u) {
			prev := p.current.Swap(u)
			if prev == nil || prev.String() != u.String() {
				p.log.Info("switched egress proxy", zap.String("proxy", u.Host))
			}
			return
		}
	}

	if p.current.Swap(nil) != nil {
		p.log.Warn("no working proxy, falling back to direct connection")
	}
}

func (p *Pool) probe(ctx context.Context, u *url.URL) bool {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(u)
	client := &http.Client{Timeout: p.client.Timeout, Transport: transport}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ProxyFunc returns the latest validated proxy for use in an
// http.Transport. A nil URL means connect directly.
func (p *Pool) ProxyFunc(*http.Request) (*url.URL, error) {
	return p.current.Load(), nil
}
