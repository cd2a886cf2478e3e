package securitycheck

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nagraj23/shieldx-back/internal/escalation"
	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/store"
	"github.com/Nagraj23/shieldx-back/internal/store/memstore"
)

type fakePusher struct {
	mu    sync.Mutex
	sends []string
	err   error
}

func (p *fakePusher) SendPush(_ context.Context, token, _, _ string, _ map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sends = append(p.sends, token)
	return p.err
}

func (p *fakePusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sends)
}

type fakeEscalator struct {
	mu       sync.Mutex
	requests []escalation.Request
}

func (e *fakeEscalator) Trigger(_ context.Context, req escalation.Request) (escalation.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, req)
	return escalation.Result{ContactsNotified: req.Contacts}, nil
}

func (e *fakeEscalator) triggered() []escalation.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]escalation.Request(nil), e.requests...)
}

const defaultContact = "+917620101655"

func newTestMonitor(t *testing.T, st store.Store) (*Monitor, *fakePusher, *fakeEscalator) {
	t.Helper()
	pusher := &fakePusher{}
	esc := &fakeEscalator{}
	m := NewMonitor(st, pusher, esc, 60*time.Second, defaultContact, zerolog.Nop())
	return m, pusher, esc
}

func seedUser(t *testing.T, st store.Store, email, code string, contacts []string) {
	t.Helper()
	token := "ExponentPushToken[" + email + "]"
	u := &model.User{
		Email:                email,
		DeviceToken:          &token,
		SecurityCheckEnabled: true,
		EmergencyContacts:    contacts,
	}
	if code != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		require.NoError(t, err)
		h := string(hash)
		u.HashedSecurityCode = &h
	}
	_, err := st.Users().Create(context.Background(), u)
	require.NoError(t, err)
}

func TestIssueCheck_TracksSinglePendingChallenge(t *testing.T) {
	st := memstore.New()
	seedUser(t, st, "asha@example.com", "1234", nil)
	m, pusher, _ := newTestMonitor(t, st)

	require.NoError(t, m.IssueCheck(context.Background()))
	status := m.Status()
	assert.True(t, status.Pending)
	require.NotNil(t, status.SubjectUser)
	assert.Equal(t, "asha@example.com", *status.SubjectUser)
	assert.Equal(t, 1, pusher.count())

	// Re-issuing while pending is a no-op.
	require.NoError(t, m.IssueCheck(context.Background()))
	assert.Equal(t, 1, pusher.count())
}

func TestIssueCheck_NoEligibleUsers(t *testing.T) {
	m, pusher, _ := newTestMonitor(t, memstore.New())
	require.NoError(t, m.IssueCheck(context.Background()))
	assert.False(t, m.Status().Pending)
	assert.Zero(t, pusher.count())
}

func TestCheckTimeout_EscalatesAfterWindow(t *testing.T) {
	st := memstore.New()
	seedUser(t, st, "asha@example.com", "1234", []string{"+911234567890"})
	require.NoError(t, st.Locations().Add(context.Background(), &model.LocationPing{
		UserID: "asha@example.com", Latitude: 18.52, Longitude: 73.85, Timestamp: time.Now().UTC(),
	}))
	m, _, esc := newTestMonitor(t, st)

	base := time.Now()
	m.now = func() time.Time { return base }
	require.NoError(t, m.IssueCheck(context.Background()))

	// Inside the window nothing fires.
	m.now = func() time.Time { return base.Add(59 * time.Second) }
	require.NoError(t, m.CheckTimeout(context.Background()))
	assert.Empty(t, esc.triggered())
	assert.True(t, m.Status().Pending)

	// Past the window exactly one escalation fires and the slot resets.
	m.now = func() time.Time { return base.Add(61 * time.Second) }
	require.NoError(t, m.CheckTimeout(context.Background()))
	reqs := esc.triggered()
	require.Len(t, reqs, 1)
	assert.Equal(t, "asha@example.com", reqs[0].UserID)
	assert.Equal(t, model.ReasonNoResponse, reqs[0].Reason)
	assert.Equal(t, []string{"+911234567890"}, reqs[0].Contacts)
	assert.Equal(t, 18.52, reqs[0].Latitude)
	assert.False(t, m.Status().Pending)

	// The sweep stays quiet once reset.
	require.NoError(t, m.CheckTimeout(context.Background()))
	assert.Len(t, esc.triggered(), 1)
}

func TestCheckTimeout_FallsBackToDefaultContactAndOrigin(t *testing.T) {
	st := memstore.New()
	seedUser(t, st, "asha@example.com", "1234", nil)
	m, _, esc := newTestMonitor(t, st)

	base := time.Now()
	m.now = func() time.Time { return base }
	require.NoError(t, m.IssueCheck(context.Background()))

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	require.NoError(t, m.CheckTimeout(context.Background()))
	reqs := esc.triggered()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{defaultContact}, reqs[0].Contacts)
	assert.Zero(t, reqs[0].Latitude)
	assert.Zero(t, reqs[0].Longitude)
}

func TestSubmitCode_CorrectCodeResets(t *testing.T) {
	st := memstore.New()
	seedUser(t, st, "asha@example.com", "1234", nil)
	m, _, esc := newTestMonitor(t, st)
	require.NoError(t, m.IssueCheck(context.Background()))

	res, err := m.SubmitCode(context.Background(), "1234", "asha@example.com", nil)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.False(t, m.Status().Pending)
	assert.Empty(t, esc.triggered())
}

func TestSubmitCode_WrongCodeEscalatesOnce(t *testing.T) {
	st := memstore.New()
	seedUser(t, st, "asha@example.com", "9999", []string{"friend@example.com"})
	m, _, esc := newTestMonitor(t, st)
	require.NoError(t, m.IssueCheck(context.Background()))

	res, err := m.SubmitCode(context.Background(), "1234", "asha@example.com", nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.False(t, m.Status().Pending)
	reqs := esc.triggered()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"friend@example.com"}, reqs[0].Contacts)

	// The failed challenge is gone, so retrying reports no active challenge.
	_, err = m.SubmitCode(context.Background(), "9999", "asha@example.com", nil)
	assert.ErrorIs(t, err, model.ErrNoActiveChallenge)
	assert.Len(t, esc.triggered(), 1)
}

func TestSubmitCode_ContactsOverrideWins(t *testing.T) {
	st := memstore.New()
	seedUser(t, st, "asha@example.com", "9999", []string{"friend@example.com"})
	m, _, esc := newTestMonitor(t, st)
	require.NoError(t, m.IssueCheck(context.Background()))

	res, err := m.SubmitCode(context.Background(), "0000", "asha@example.com", []string{"+919876543210"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	reqs := esc.triggered()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"+919876543210"}, reqs[0].Contacts)
}

func TestSubmitCode_ErrorTaxonomy(t *testing.T) {
	st := memstore.New()
	seedUser(t, st, "asha@example.com", "", nil)
	m, _, _ := newTestMonitor(t, st)

	// No challenge pending at all.
	_, err := m.SubmitCode(context.Background(), "1234", "asha@example.com", nil)
	assert.ErrorIs(t, err, model.ErrNoActiveChallenge)

	require.NoError(t, m.IssueCheck(context.Background()))

	// Pending, but for a different user.
	_, err = m.SubmitCode(context.Background(), "1234", "nobody@example.com", nil)
	assert.ErrorIs(t, err, model.ErrNoActiveChallenge)

	// Pending for the right user, but no code was ever configured.
	_, err = m.SubmitCode(context.Background(), "1234", "asha@example.com", nil)
	assert.ErrorIs(t, err, model.ErrCodeNotConfigured)
}
