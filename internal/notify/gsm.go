package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// GSMGateway is the tertiary fallback: a local modem path that works without
// upstream connectivity. The current build simulates the modem write.
type GSMGateway struct {
	log zerolog.Logger
}

func NewGSMGateway(log zerolog.Logger) *GSMGateway { return &GSMGateway{log: log} }

func (g *GSMGateway) Name() string { return "gsm" }

func (g *GSMGateway) Send(ctx context.Context, phone, message string) (string, error) {
	g.log.Info().Str("phone", phone).Str("message", message).Msg("GSM modem SMS (simulated)")
	return "sent_simulated", nil
}
