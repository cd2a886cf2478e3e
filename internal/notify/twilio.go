package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// TwilioConfig holds credentials for the Twilio Messages API.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// BaseURL overrides the API host, used by tests.
	BaseURL string
}

// TwilioGateway sends SMS through the Twilio REST API.
type TwilioGateway struct {
	cfg    TwilioConfig
	client *resty.Client
	log    zerolog.Logger
}

type twilioResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// NewTwilioGateway builds the primary SMS gateway.
func NewTwilioGateway(cfg TwilioConfig, log zerolog.Logger) *TwilioGateway {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.twilio.com"
	}
	c := resty.New().
		SetBaseURL(base).
		SetTimeout(10 * time.Second).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken)
	return &TwilioGateway{cfg: cfg, client: c, log: log}
}

func (g *TwilioGateway) Name() string { return "twilio" }

// Send posts one message. Twilio expects E.164 numbers with a leading +.
func (g *TwilioGateway) Send(ctx context.Context, phone, message string) (string, error) {
	if g.cfg.AccountSID == "" || g.cfg.AuthToken == "" || g.cfg.FromNumber == "" {
		return "", fmt.Errorf("twilio not configured")
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	var out twilioResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   phone,
			"From": g.cfg.FromNumber,
			"Body": message,
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", g.cfg.AccountSID))
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("twilio send failed: status %d", resp.StatusCode())
	}
	g.log.Info().Str("sid", out.SID).Str("status", out.Status).Msg("twilio SMS sent")
	return out.Status, nil
}
