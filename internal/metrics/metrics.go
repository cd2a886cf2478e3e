// Package metrics registers prometheus counters for the safety engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EscalationsTotal counts SOS escalations by reason.
	EscalationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shieldx_escalations_total",
		Help: "Number of SOS escalations triggered, by reason.",
	}, []string{"reason"})

	// NotificationsTotal counts dispatch attempts by channel and outcome.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shieldx_notifications_total",
		Help: "Number of notification sends, by channel and outcome.",
	}, []string{"channel", "outcome"})

	// ChallengesIssuedTotal counts security-check push challenges issued.
	ChallengesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shieldx_security_challenges_issued_total",
		Help: "Number of security-check push challenges issued.",
	})

	// JourneyScanTicks counts journey monitor scan iterations.
	JourneyScanTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shieldx_journey_scan_ticks_total",
		Help: "Number of journey monitor scan iterations.",
	})
)
