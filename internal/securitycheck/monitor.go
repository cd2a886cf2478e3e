// Package securitycheck implements the periodic "are you safe" challenge: a
// push prompt issued on a schedule, a response window, and an escalation when
// the window expires or the submitted code is wrong.
package securitycheck

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nagraj23/shieldx-back/internal/escalation"
	"github.com/Nagraj23/shieldx-back/internal/metrics"
	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/notify"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

const (
	challengeTitle = "🔐 ShieldX Security Check Required"
	challengeBody  = "Enter your code to confirm you're safe. Tap to respond."
)

// Result reports the outcome of a code submission. A wrong code is a reported
// outcome, not an error; the escalation has already fired by the time the
// caller sees OK=false.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Monitor owns the challenge state machine. State is a single global slot:
// issuing challenges to several users leaves only the last one tracked. That
// matches the deployed behavior and is guarded by one mutex.
type Monitor struct {
	store          store.Store
	pusher         notify.PushSender
	escalator      escalation.Escalator
	responseWindow time.Duration
	defaultContact string
	log            zerolog.Logger
	now            func() time.Time

	mu          sync.Mutex
	pending     bool
	issuedAt    time.Time
	subjectUser string
}

// NewMonitor builds a Monitor. responseWindow is how long a challenge may stay
// unanswered before CheckTimeout escalates.
func NewMonitor(st store.Store, pusher notify.PushSender, esc escalation.Escalator, responseWindow time.Duration, defaultContact string, log zerolog.Logger) *Monitor {
	return &Monitor{
		store:          st,
		pusher:         pusher,
		escalator:      esc,
		responseWindow: responseWindow,
		defaultContact: defaultContact,
		log:            log,
		now:            time.Now,
	}
}

// IssueCheck pushes a challenge to every eligible user. No-op while a
// challenge is already pending. Each push overwrites the tracked subject, so
// only the last challenged user is watched for timeout.
func (m *Monitor) IssueCheck(ctx context.Context) error {
	m.mu.Lock()
	if m.pending {
		m.mu.Unlock()
		m.log.Info().Msg("security check already pending, skipping")
		return nil
	}
	m.mu.Unlock()

	users, err := m.store.Users().ListSecurityCheckEnabled(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		m.log.Info().Msg("no eligible users for security check")
		return nil
	}

	for _, u := range users {
		if u.DeviceToken == nil || *u.DeviceToken == "" {
			continue
		}
		checkID := uuid.NewString()

		m.mu.Lock()
		m.pending = true
		m.issuedAt = m.now()
		m.subjectUser = u.Email
		m.mu.Unlock()

		err := m.pusher.SendPush(ctx, *u.DeviceToken, challengeTitle, challengeBody, map[string]string{
			"type":       "security_check",
			"check_id":   checkID,
			"user_email": u.Email,
		})
		if err != nil {
			m.log.Error().Stack().Err(err).Str("user", u.Email).Msg("failed to push security challenge")
			continue
		}
		metrics.ChallengesIssuedTotal.Inc()
		m.log.Info().Str("user", u.Email).Str("checkId", checkID).Msg("security challenge issued")
	}
	return nil
}

// CheckTimeout escalates if the pending challenge has gone unanswered past the
// response window. Called on a short fixed interval.
func (m *Monitor) CheckTimeout(ctx context.Context) error {
	m.mu.Lock()
	if !m.pending || m.now().Sub(m.issuedAt) <= m.responseWindow {
		m.mu.Unlock()
		return nil
	}
	subject := m.subjectUser
	m.reset()
	m.mu.Unlock()

	m.log.Warn().Str("user", subject).Msg("security check timed out, escalating")

	lat, lon := m.lastKnownLocation(ctx, subject)
	contacts := m.contactsFor(ctx, subject, nil)

	_, err := m.escalator.Trigger(ctx, escalation.Request{
		UserID:    subject,
		Latitude:  lat,
		Longitude: lon,
		Contacts:  contacts,
		Reason:    model.ReasonNoResponse,
	})
	return err
}

// SubmitCode validates a response to the pending challenge. A correct code
// clears the challenge. A wrong code escalates and still clears the challenge;
// the caller gets Result{OK: false}, not an error.
func (m *Monitor) SubmitCode(ctx context.Context, code, userEmail string, contactsOverride []string) (Result, error) {
	m.mu.Lock()
	if !m.pending || m.subjectUser != userEmail {
		m.mu.Unlock()
		return Result{}, model.ErrNoActiveChallenge
	}
	m.mu.Unlock()

	user, err := m.store.Users().GetByEmail(ctx, userEmail)
	if err != nil {
		return Result{}, err
	}
	if user.HashedSecurityCode == nil || *user.HashedSecurityCode == "" {
		return Result{}, model.ErrCodeNotConfigured
	}

	if bcrypt.CompareHashAndPassword([]byte(*user.HashedSecurityCode), []byte(code)) == nil {
		m.mu.Lock()
		m.reset()
		m.mu.Unlock()
		m.log.Info().Str("user", userEmail).Msg("security code accepted")
		return Result{OK: true, Message: "✅ Access Granted"}, nil
	}

	m.log.Warn().Str("user", userEmail).Msg("wrong security code, escalating")

	lat, lon := m.lastKnownLocation(ctx, userEmail)
	contacts := m.contactsFor(ctx, userEmail, contactsOverride)

	if _, err := m.escalator.Trigger(ctx, escalation.Request{
		UserID:    userEmail,
		Latitude:  lat,
		Longitude: lon,
		Contacts:  contacts,
		Reason:    model.ReasonNoResponse,
	}); err != nil {
		m.log.Error().Stack().Err(err).Str("user", userEmail).Msg("wrong-code escalation failed")
	}

	m.mu.Lock()
	m.reset()
	m.mu.Unlock()
	return Result{OK: false, Message: "🚨 Wrong Code! SOS Triggered"}, nil
}

// Status returns a snapshot of the challenge state.
func (m *Monitor) Status() model.CheckStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := model.CheckStatus{Pending: m.pending}
	if m.pending {
		issued := m.issuedAt
		subject := m.subjectUser
		st.IssuedAt = &issued
		st.SubjectUser = &subject
	}
	return st
}

// reset clears the challenge slot; callers hold the lock.
func (m *Monitor) reset() {
	m.pending = false
	m.issuedAt = time.Time{}
	m.subjectUser = ""
}

// lastKnownLocation falls back to (0, 0) when no ping is stored.
func (m *Monitor) lastKnownLocation(ctx context.Context, userID string) (float64, float64) {
	ping, err := m.store.Locations().Latest(ctx, userID)
	if err != nil {
		return 0, 0
	}
	return ping.Latitude, ping.Longitude
}

// contactsFor resolves the escalation contact list: explicit override, then
// the user's stored contacts, then the configured default.
func (m *Monitor) contactsFor(ctx context.Context, userEmail string, override []string) []string {
	if len(override) > 0 {
		return override
	}
	if user, err := m.store.Users().GetByEmail(ctx, userEmail); err == nil && len(user.EmergencyContacts) > 0 {
		return user.EmergencyContacts
	}
	return []string{m.defaultContact}
}

// RunTimeoutLoop sweeps for expired challenges until ctx is cancelled.
func (m *Monitor) RunTimeoutLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	m.log.Info().Dur("interval", interval).Msg("security check timeout loop started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("security check timeout loop stopped")
			return
		case <-ticker.C:
			if err := m.CheckTimeout(ctx); err != nil {
				m.log.Error().Stack().Err(err).Msg("security check sweep failed")
			}
		}
	}
}
