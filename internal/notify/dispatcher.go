// Package notify sends individual messages to individual contacts, choosing a
// channel by contact shape and falling through an ordered SMS gateway chain on
// failure.
package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Nagraj23/shieldx-back/internal/metrics"
	"github.com/Nagraj23/shieldx-back/internal/netprobe"
)

// OutcomeKind is the terminal result of one dispatch.
type OutcomeKind string

const (
	OutcomeEmailSimulated OutcomeKind = "email_simulated"
	OutcomeSMSSent        OutcomeKind = "sms_sent"
	OutcomeFailed         OutcomeKind = "failed"
)

// Outcome reports how one contact was (or was not) reached.
type Outcome struct {
	Kind OutcomeKind
	// Channel names the gateway that accepted the message when Kind is sms_sent.
	Channel string
	// Reason explains a failure.
	Reason string
}

// Success reports whether the dispatch reached any channel.
func (o Outcome) Success() bool { return o.Kind != OutcomeFailed }

// Dispatcher fans messages into the configured channels. Channel attempts run
// in fixed priority order; one failing gateway never aborts the chain.
type Dispatcher struct {
	gateways []SMSGateway
	prober   netprobe.Prober
	sounder  AlertSounder
	log      zerolog.Logger
}

// NewDispatcher wires the gateway chain in priority order.
func NewDispatcher(gateways []SMSGateway, prober netprobe.Prober, sounder AlertSounder, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{gateways: gateways, prober: prober, sounder: sounder, log: log}
}

// emergencyMarked reports whether a message body flags an emergency.
func emergencyMarked(message string) bool {
	return strings.Contains(message, "EMERGENCY") || strings.Contains(message, "🚨")
}

// Send delivers one message to one contact. onlineHint, when non-nil, skips
// the connectivity probe; callers doing a fan-out resolve the probe once and
// share the answer.
func (d *Dispatcher) Send(ctx context.Context, contact, message string, onlineHint *bool) Outcome {
	if emergencyMarked(message) && d.sounder != nil {
		go d.sounder.Play(context.WithoutCancel(ctx))
	}

	online := false
	if onlineHint != nil {
		online = *onlineHint
	} else if d.prober != nil {
		online = d.prober.Online(ctx)
	}

	switch ClassifyContact(contact) {
	case ContactEmail:
		// Email delivery is simulated; it always succeeds.
		d.log.Info().Str("contact", contact).Bool("online", online).Msg("email sent (simulated)")
		metrics.NotificationsTotal.WithLabelValues("email", "ok").Inc()
		return Outcome{Kind: OutcomeEmailSimulated}

	case ContactPhone:
		for _, gw := range d.gateways {
			status, err := gw.Send(ctx, contact, message)
			if err != nil {
				d.log.Warn().Err(err).Str("gateway", gw.Name()).Msg("SMS gateway failed, falling through")
				metrics.NotificationsTotal.WithLabelValues(gw.Name(), "error").Inc()
				continue
			}
			if !Delivered(status) {
				d.log.Warn().Str("gateway", gw.Name()).Str("status", status).Msg("SMS gateway returned bad status, falling through")
				metrics.NotificationsTotal.WithLabelValues(gw.Name(), "bad_status").Inc()
				continue
			}
			metrics.NotificationsTotal.WithLabelValues(gw.Name(), "ok").Inc()
			return Outcome{Kind: OutcomeSMSSent, Channel: gw.Name()}
		}
		d.log.Error().Str("contact", contact).Msg("all SMS gateways failed")
		metrics.NotificationsTotal.WithLabelValues("sms", "exhausted").Inc()
		return Outcome{Kind: OutcomeFailed, Reason: "all SMS gateways failed"}

	default:
		d.log.Error().Str("contact", contact).Msg("invalid contact format")
		metrics.NotificationsTotal.WithLabelValues("none", "invalid_contact").Inc()
		return Outcome{Kind: OutcomeFailed, Reason: "invalid contact"}
	}
}
