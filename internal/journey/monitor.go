// Package journey tracks monitored trips and raises inactivity and arrival
// events from a periodic scan over running journeys.
package journey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Nagraj23/shieldx-back/internal/escalation"
	"github.com/Nagraj23/shieldx-back/internal/geo"
	"github.com/Nagraj23/shieldx-back/internal/metrics"
	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/notify"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

// Thresholds are deliberately compile-time constants, not per-journey tuning.
const (
	inactivityThreshold = 1 * time.Minute
	movementWindow      = inactivityThreshold / 2
	movementFloorMeters = 20.0
	arrivalMeters       = 50.0
	notifyCooldown      = 2 * time.Minute
)

// Monitor owns journey lifecycle and the periodic scan.
type Monitor struct {
	store     store.Store
	escalator escalation.Escalator
	sender    escalation.Sender
	log       zerolog.Logger
	now       func() time.Time

	scanWG sync.WaitGroup
}

func NewMonitor(st store.Store, esc escalation.Escalator, sender escalation.Sender, log zerolog.Logger) *Monitor {
	return &Monitor{store: st, escalator: esc, sender: sender, log: log, now: time.Now}
}

// StartJourney registers a new running journey. Only the first supplied
// contact is kept for monitoring; the rest are accepted and dropped, which
// mirrors how journeys have always been stored.
func (m *Monitor) StartJourney(ctx context.Context, userID string, start, end model.Coordinates, contacts []string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("userID is required: %w", model.ErrValidation)
	}
	contact := ""
	if len(contacts) > 0 {
		contact = contacts[0]
	}
	now := m.now().UTC()
	j := &model.Journey{
		JourneyID:        uuid.NewString(),
		UserID:           userID,
		StartPoint:       start,
		EndPoint:         end,
		CurrentPosition:  start,
		PreviousPosition: start,
		LastUpdatedAt:    now,
		EmergencyContact: contact,
		Status:           model.JourneyRunning,
		CreationTime:     now,
	}
	created, err := m.store.Journeys().Create(ctx, j)
	if err != nil {
		return "", fmt.Errorf("create journey: %w", err)
	}
	m.log.Info().Str("journeyId", created.JourneyID).Str("user", userID).Msg("journey tracking started")
	return created.JourneyID, nil
}

// UpdatePosition records a new position sample. The target journey is resolved
// by explicit id when given, otherwise the user's most recent running journey.
// A missing journey is a logged no-op, not an error.
func (m *Monitor) UpdatePosition(ctx context.Context, userID string, lat, lng float64, journeyID string) error {
	if journeyID == "" {
		j, err := m.store.Journeys().LatestRunning(ctx, userID)
		if errors.Is(err, model.ErrNotFound) {
			m.log.Info().Str("user", userID).Msg("no running journey to update, skipping")
			return nil
		}
		if err != nil {
			return err
		}
		journeyID = j.JourneyID
	}

	pos := model.Coordinates{Latitude: lat, Longitude: lng}
	err := m.store.Journeys().UpdatePosition(ctx, journeyID, pos, m.now().UTC())
	if errors.Is(err, model.ErrNotFound) {
		m.log.Info().Str("journeyId", journeyID).Msg("journey not running, position update skipped")
		return nil
	}
	return err
}

// GetJourney returns one journey by id.
func (m *Monitor) GetJourney(ctx context.Context, journeyID string) (*model.Journey, error) {
	return m.store.Journeys().GetByID(ctx, journeyID)
}

// ScanTick evaluates every running journey once. A failure on one journey is
// logged and the scan moves on. Escalations are dispatched in the background
// so one slow contact never stalls the rest of the scan.
func (m *Monitor) ScanTick(ctx context.Context) error {
	metrics.JourneyScanTicks.Inc()
	running, err := m.store.Journeys().ListRunning(ctx)
	if err != nil {
		return fmt.Errorf("list running journeys: %w", err)
	}
	for _, j := range running {
		if err := m.evaluate(ctx, j); err != nil {
			m.log.Error().Stack().Err(err).Str("journeyId", j.JourneyID).Msg("journey evaluation failed")
		}
	}
	return nil
}

func (m *Monitor) evaluate(ctx context.Context, j *model.Journey) error {
	now := m.now().UTC()
	sinceUpdate := now.Sub(j.LastUpdatedAt)

	cooldownOver := true
	if j.LastNotificationAt != nil {
		cooldownOver = now.Sub(*j.LastNotificationAt) > notifyCooldown
	}

	switch {
	case sinceUpdate > inactivityThreshold:
		if cooldownOver {
			m.log.Warn().Str("journeyId", j.JourneyID).Str("user", j.UserID).Msg("no position updates, raising inactivity alert")
			if err := m.raiseInactivity(ctx, j, now); err != nil {
				return err
			}
		} else {
			m.log.Info().Str("journeyId", j.JourneyID).Msg("inactive but inside notification cooldown")
		}
	case sinceUpdate > movementWindow:
		moved := geo.DistanceMeters(j.PreviousPosition, j.CurrentPosition)
		if moved < movementFloorMeters {
			if cooldownOver {
				m.log.Warn().Str("journeyId", j.JourneyID).Str("user", j.UserID).Float64("movedMeters", moved).Msg("no movement, raising inactivity alert")
				if err := m.raiseInactivity(ctx, j, now); err != nil {
					return err
				}
			} else {
				m.log.Info().Str("journeyId", j.JourneyID).Msg("stationary but inside notification cooldown")
			}
		}
	}

	// Arrival is judged on the state the scan read, independent of whether
	// an inactivity alert fired above.
	if geo.DistanceMeters(j.CurrentPosition, j.EndPoint) < arrivalMeters {
		m.notifyArrival(ctx, j)
		if err := m.store.Journeys().SetStatus(ctx, j.JourneyID, model.JourneyCompleted); err != nil {
			return fmt.Errorf("complete journey: %w", err)
		}
		m.log.Info().Str("journeyId", j.JourneyID).Str("user", j.UserID).Msg("journey completed")
	}
	return nil
}

// raiseInactivity moves the journey into the alerted state and fires the
// escalation in the background.
func (m *Monitor) raiseInactivity(ctx context.Context, j *model.Journey, now time.Time) error {
	if err := m.store.Journeys().MarkNotified(ctx, j.JourneyID, model.JourneyInactivityAlert, now); err != nil {
		return fmt.Errorf("mark journey notified: %w", err)
	}
	var contacts []string
	if j.EmergencyContact != "" {
		contacts = []string{j.EmergencyContact}
	}
	req := escalation.Request{
		UserID:    j.UserID,
		Latitude:  j.CurrentPosition.Latitude,
		Longitude: j.CurrentPosition.Longitude,
		Contacts:  contacts,
		Reason:    model.ReasonInactivityAlert,
	}
	m.scanWG.Add(1)
	bg := context.WithoutCancel(ctx)
	go func() {
		defer m.scanWG.Done()
		if _, err := m.escalator.Trigger(bg, req); err != nil {
			m.log.Error().Stack().Err(err).Str("journeyId", j.JourneyID).Msg("inactivity escalation failed")
		}
	}()
	return nil
}

// notifyArrival sends the best-effort arrival message to the journey contact.
func (m *Monitor) notifyArrival(ctx context.Context, j *model.Journey) {
	if !notify.IsNotifiable(j.EmergencyContact) {
		return
	}
	link := fmt.Sprintf("https://www.google.com/maps?q=%v,%v", j.EndPoint.Latitude, j.EndPoint.Longitude)
	message := fmt.Sprintf("✅ %s arrived at destination. Location: %s", j.UserID, link)
	contact := j.EmergencyContact
	m.scanWG.Add(1)
	bg := context.WithoutCancel(ctx)
	go func() {
		defer m.scanWG.Done()
		if out := m.sender.Send(bg, contact, message, nil); !out.Success() {
			m.log.Warn().Str("journeyId", j.JourneyID).Str("contact", contact).Str("reason", out.Reason).Msg("arrival notification failed")
		}
	}()
}

// Flush waits for background notifications spawned by the scan; used by
// shutdown and tests.
func (m *Monitor) Flush() { m.scanWG.Wait() }

// Run scans on a fixed cadence until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	m.log.Info().Dur("interval", interval).Msg("journey monitor started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("journey monitor stopped")
			return
		case <-ticker.C:
			if err := m.ScanTick(ctx); err != nil {
				m.log.Error().Stack().Err(err).Msg("journey scan failed")
			}
		}
	}
}
