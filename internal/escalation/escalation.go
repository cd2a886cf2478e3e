// Package escalation unifies SOS handling: persist an alert record and fan out
// notifications to emergency contacts. Both monitors and the manual SOS path
// come through here.
package escalation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nagraj23/shieldx-back/internal/metrics"
	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/netprobe"
	"github.com/Nagraj23/shieldx-back/internal/notify"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

// Request describes one escalation.
type Request struct {
	UserID    string
	Latitude  float64
	Longitude float64
	Contacts  []string
	Reason    model.AlertReason
}

// ContactResult reports the dispatch outcome for one attempted contact.
type ContactResult struct {
	Contact string
	Outcome notify.Outcome
}

// Result summarizes an escalation. ContactsNotified echoes the full requested
// contact list regardless of per-channel outcome; PerContact carries the real
// per-attempt results.
type Result struct {
	ContactsNotified []string        `json:"contactsNotified"`
	PerContact       []ContactResult `json:"-"`
	OnlineMode       bool            `json:"onlineMode"`
}

// Escalator is the surface the monitors depend on.
type Escalator interface {
	Trigger(ctx context.Context, req Request) (Result, error)
}

// Sender matches notify.Dispatcher.Send; narrowed for testability.
type Sender interface {
	Send(ctx context.Context, contact, message string, onlineHint *bool) notify.Outcome
}

// Service is the production Escalator.
type Service struct {
	sender  Sender
	prober  netprobe.Prober
	sounder notify.AlertSounder
	alerts  store.Alerts
	log     zerolog.Logger

	persistWG sync.WaitGroup
}

func NewService(sender Sender, prober netprobe.Prober, sounder notify.AlertSounder, alerts store.Alerts, log zerolog.Logger) *Service {
	return &Service{sender: sender, prober: prober, sounder: sounder, alerts: alerts, log: log}
}

// mapLink renders a Google Maps link for a coordinate pair.
func mapLink(lat, lon float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%v,%v", lat, lon)
}

// buildMessage renders the human-readable escalation message.
func buildMessage(userID string, lat, lon float64, reason model.AlertReason) string {
	return fmt.Sprintf("🚨 EMERGENCY (%s): %s needs help! Location: %s", reason, userID, mapLink(lat, lon))
}

// Trigger fans out notifications to every classifiable contact and records the
// alert. Individual contact failures never abort the fan-out; the alert write
// runs in the background and its failure is logged, not returned.
func (s *Service) Trigger(ctx context.Context, req Request) (Result, error) {
	s.log.Warn().
		Str("user", req.UserID).
		Float64("lat", req.Latitude).
		Float64("lon", req.Longitude).
		Str("reason", string(req.Reason)).
		Msg("SOS triggered")
	metrics.EscalationsTotal.WithLabelValues(string(req.Reason)).Inc()

	if s.sounder != nil {
		go s.sounder.Play(context.WithoutCancel(ctx))
	}

	// One probe shared across the whole fan-out for a consistent channel mode.
	online := false
	if s.prober != nil {
		online = s.prober.Online(ctx)
	}
	message := buildMessage(req.UserID, req.Latitude, req.Longitude, req.Reason)

	var (
		mu      sync.Mutex
		results []ContactResult
		wg      sync.WaitGroup
	)
	for _, contact := range req.Contacts {
		if !notify.IsNotifiable(contact) {
			s.log.Warn().Str("contact", contact).Msg("skipping unclassifiable contact")
			continue
		}
		wg.Add(1)
		go func(contact string) {
			defer wg.Done()
			out := s.sender.Send(ctx, contact, message, &online)
			if !out.Success() {
				s.log.Error().Str("contact", contact).Str("reason", out.Reason).Msg("notification failed")
			}
			mu.Lock()
			results = append(results, ContactResult{Contact: contact, Outcome: out})
			mu.Unlock()
		}(contact)
	}
	wg.Wait()

	s.persistAsync(ctx, req)

	return Result{
		ContactsNotified: req.Contacts,
		PerContact:       results,
		OnlineMode:       online,
	}, nil
}

// persistAsync writes the alert record without blocking the caller's response.
func (s *Service) persistAsync(ctx context.Context, req Request) {
	rec := &model.AlertRecord{
		UserID:           req.UserID,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Timestamp:        time.Now().UTC(),
		NotifiedContacts: req.Contacts,
		Status:           model.AlertTriggered,
		Reason:           req.Reason,
	}
	s.persistWG.Add(1)
	bg := context.WithoutCancel(ctx)
	go func() {
		defer s.persistWG.Done()
		writeCtx, cancel := context.WithTimeout(bg, 10*time.Second)
		defer cancel()
		if _, err := s.alerts.Create(writeCtx, rec); err != nil {
			s.log.Error().Stack().Err(err).Str("user", req.UserID).Msg("failed to persist alert record")
			return
		}
		s.log.Info().Str("user", req.UserID).Str("reason", string(req.Reason)).Msg("alert record saved")
	}()
}

// Flush waits for in-flight alert writes; used by shutdown and tests.
func (s *Service) Flush() { s.persistWG.Wait() }
