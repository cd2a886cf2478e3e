// Package netprobe determines online/offline state by probing a reachable URL.
package netprobe

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Prober reports whether the process currently has network reachability.
// A probe failure is not an error: it reads as offline.
type Prober interface {
	Online(ctx context.Context) bool
}

// HTTPProber checks connectivity by issuing a GET against a well-known URL.
type HTTPProber struct {
	client *resty.Client
	url    string
	log    zerolog.Logger
}

// NewHTTPProber builds a prober against url with the given per-attempt timeout.
func NewHTTPProber(url string, timeout time.Duration, log zerolog.Logger) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := resty.New().SetTimeout(timeout)
	return &HTTPProber{client: c, url: url, log: log}
}

// Online returns true only when the probe target answers with a 2xx status.
func (p *HTTPProber) Online(ctx context.Context) bool {
	resp, err := p.client.R().SetContext(ctx).Get(p.url)
	if err != nil {
		p.log.Warn().Err(err).Str("url", p.url).Msg("connectivity probe failed")
		return false
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		p.log.Warn().Int("status", resp.StatusCode()).Str("url", p.url).Msg("connectivity probe non-2xx")
		return false
	}
	return true
}

// Static is a fixed-answer prober for wiring tests and offline-only deployments.
type Static bool

func (s Static) Online(context.Context) bool { return bool(s) }
