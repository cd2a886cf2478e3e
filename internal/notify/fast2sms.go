package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Fast2SMSConfig holds credentials for the Fast2SMS bulk API.
type Fast2SMSConfig struct {
	APIKey string
	// BaseURL overrides the API host, used by tests.
	BaseURL string
}

// Fast2SMSGateway is the secondary SMS gateway.
type Fast2SMSGateway struct {
	cfg    Fast2SMSConfig
	client *resty.Client
	log    zerolog.Logger
}

type fast2smsRequest struct {
	Route    string `json:"route"`
	Message  string `json:"message"`
	Language string `json:"language"`
	Flash    int    `json:"flash"`
	Numbers  string `json:"numbers"`
}

type fast2smsResponse struct {
	Return bool `json:"return"`
}

// NewFast2SMSGateway builds the secondary SMS gateway.
func NewFast2SMSGateway(cfg Fast2SMSConfig, log zerolog.Logger) *Fast2SMSGateway {
	base := cfg.BaseURL
	if base == "" {
		base = "https://www.fast2sms.com"
	}
	c := resty.New().
		SetBaseURL(base).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Fast2SMSGateway{cfg: cfg, client: c, log: log}
}

func (g *Fast2SMSGateway) Name() string { return "fast2sms" }

// Send posts one message. Fast2SMS wants bare numbers without a leading +.
func (g *Fast2SMSGateway) Send(ctx context.Context, phone, message string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", fmt.Errorf("fast2sms API key not configured")
	}

	var out fast2smsResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("authorization", g.cfg.APIKey).
		SetBody(&fast2smsRequest{
			Route:    "q",
			Message:  message,
			Language: "english",
			Flash:    0,
			Numbers:  strings.TrimPrefix(phone, "+"),
		}).
		SetResult(&out).
		Post("/dev/bulkV2")
	if err != nil {
		return "", err
	}
	if resp.IsError() || !out.Return {
		return "", fmt.Errorf("fast2sms send failed: status %d", resp.StatusCode())
	}
	g.log.Info().Str("numbers", phone).Msg("fast2sms SMS sent")
	return "sent_fast2sms", nil
}
