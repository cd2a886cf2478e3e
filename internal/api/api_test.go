package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nagraj23/shieldx-back/internal/escalation"
	"github.com/Nagraj23/shieldx-back/internal/journey"
	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/notify"
	"github.com/Nagraj23/shieldx-back/internal/securitycheck"
	"github.com/Nagraj23/shieldx-back/internal/store"
	"github.com/Nagraj23/shieldx-back/internal/store/memstore"
)

type fakeEscalator struct {
	mu       sync.Mutex
	requests []escalation.Request
	store    store.Store
}

func (e *fakeEscalator) Trigger(ctx context.Context, req escalation.Request) (escalation.Result, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	e.mu.Unlock()
	if e.store != nil {
		_, _ = e.store.Alerts().Create(ctx, &model.AlertRecord{
			UserID:           req.UserID,
			Latitude:         req.Latitude,
			Longitude:        req.Longitude,
			Timestamp:        time.Now().UTC(),
			NotifiedContacts: req.Contacts,
			Status:           model.AlertTriggered,
			Reason:           req.Reason,
		})
	}
	return escalation.Result{ContactsNotified: req.Contacts, OnlineMode: true}, nil
}

func (e *fakeEscalator) triggered() []escalation.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]escalation.Request(nil), e.requests...)
}

type fakeSender struct {
	mu    sync.Mutex
	sends []string
}

func (f *fakeSender) Send(_ context.Context, contact, _ string, _ *bool) notify.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, contact)
	return notify.Outcome{Kind: notify.OutcomeSMSSent, Channel: "twilio"}
}

type fakePusher struct{}

func (fakePusher) SendPush(context.Context, string, string, string, map[string]string) error {
	return nil
}

type harness struct {
	srv       *httptest.Server
	store     store.Store
	escalator *fakeEscalator
	sender    *fakeSender
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := memstore.New()
	esc := &fakeEscalator{store: st}
	sender := &fakeSender{}
	journeys := journey.NewMonitor(st, esc, sender, zerolog.Nop())
	checks := securitycheck.NewMonitor(st, fakePusher{}, esc, time.Minute, "+917620101655", zerolog.Nop())

	pinger, _ := st.(HealthPinger)
	router := NewRouter(Deps{
		Store:        st,
		Escalator:    esc,
		Sender:       sender,
		Journeys:     journeys,
		SecurityMon:  checks,
		HealthPinger: pinger,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &harness{srv: srv, store: st, escalator: esc, sender: sender}
}

func (h *harness) postJSON(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(h.srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(h.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestSOSTriggerAndHistory(t *testing.T) {
	h := newHarness(t)

	resp := h.postJSON(t, "/api/sos", map[string]interface{}{
		"userId":    "asha@example.com",
		"latitude":  18.52,
		"longitude": 73.85,
		"contacts":  []string{"+917620101655", "friend@example.com"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Message          string   `json:"message"`
		ContactsNotified []string `json:"contacts_notified"`
		NotificationMode string   `json:"notification_mode"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "SOS triggered successfully!", body.Message)
	assert.Equal(t, []string{"+917620101655", "friend@example.com"}, body.ContactsNotified)
	assert.Equal(t, "Online Mode", body.NotificationMode)

	reqs := h.escalator.triggered()
	require.Len(t, reqs, 1)
	assert.Equal(t, model.ReasonManualSOS, reqs[0].Reason)

	hist := h.get(t, "/api/sos/history/asha@example.com")
	require.Equal(t, http.StatusOK, hist.StatusCode)
	var histBody struct {
		Count  int                  `json:"count"`
		Alerts []*model.AlertRecord `json:"alerts"`
	}
	decode(t, hist, &histBody)
	require.Equal(t, 1, histBody.Count)
	assert.Equal(t, model.ReasonManualSOS, histBody.Alerts[0].Reason)
}

func TestSOSValidation(t *testing.T) {
	h := newHarness(t)

	resp := h.postJSON(t, "/api/sos", map[string]interface{}{"latitude": 1.0, "contacts": []string{"+917620101655"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = h.postJSON(t, "/api/sos", map[string]interface{}{"userId": "asha@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
	assert.Empty(t, h.escalator.triggered())
}

func TestLocationShare(t *testing.T) {
	h := newHarness(t)

	// Plain share persists the ping and messages the contact.
	resp := h.postJSON(t, "/api/location/share", map[string]interface{}{
		"userId":    "asha@example.com",
		"latitude":  18.52,
		"longitude": 73.85,
		"contacts":  []string{"+917620101655"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	ping, err := h.store.Locations().Latest(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, 18.52, ping.Latitude)
	assert.Empty(t, h.escalator.triggered())
	assert.Equal(t, []string{"+917620101655"}, h.sender.sends)

	// Emergency share runs the full escalation instead.
	resp = h.postJSON(t, "/api/location/share", map[string]interface{}{
		"userId":      "asha@example.com",
		"latitude":    18.53,
		"longitude":   73.86,
		"contacts":    []string{"+917620101655"},
		"isEmergency": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	reqs := h.escalator.triggered()
	require.Len(t, reqs, 1)
	assert.Equal(t, model.ReasonLocationAlert, reqs[0].Reason)
}

func TestLocationShareValidation(t *testing.T) {
	h := newHarness(t)
	resp := h.postJSON(t, "/api/location/share", map[string]interface{}{
		"userId": "asha@example.com", "latitude": 91.0, "longitude": 0.0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestJourneyLifecycle(t *testing.T) {
	h := newHarness(t)

	resp := h.postJSON(t, "/api/journeys", map[string]interface{}{
		"userId":            "asha@example.com",
		"startLat":          18.5204,
		"startLng":          73.8567,
		"endLat":            19.0760,
		"endLng":            72.8777,
		"emergencyContacts": []string{"+917620101655"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		JourneyID string `json:"journeyId"`
	}
	decode(t, resp, &created)
	require.NotEmpty(t, created.JourneyID)

	resp = h.postJSON(t, "/api/journeys/position", map[string]interface{}{
		"userId":    "asha@example.com",
		"latitude":  18.6,
		"longitude": 73.8,
		"journeyId": created.JourneyID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = h.get(t, "/api/journeys/"+created.JourneyID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var j model.Journey
	decode(t, resp, &j)
	assert.Equal(t, model.JourneyRunning, j.Status)
	assert.Equal(t, 18.6, j.CurrentPosition.Latitude)
	assert.Equal(t, 18.5204, j.PreviousPosition.Latitude)

	resp = h.get(t, "/api/journeys/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSecurityCheckEndpoints(t *testing.T) {
	h := newHarness(t)

	// Responding with no pending challenge is a 400.
	resp := h.postJSON(t, "/api/security-check/respond", map[string]interface{}{
		"code": "1234", "userEmail": "asha@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	// Seed an opted-in user with a device token and a code, then initiate.
	resp = h.postJSON(t, "/api/users", map[string]interface{}{
		"email": "asha@example.com", "name": "Asha", "securityCheckEnabled": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
	resp = h.postJSON(t, "/api/users/asha@example.com/device-token", map[string]string{"token": "ExponentPushToken[abc]"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	resp = h.postJSON(t, "/api/users/asha@example.com/security-code", map[string]string{"code": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = h.postJSON(t, "/api/security-check/initiate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = h.get(t, "/api/security-check/status")
	var status model.CheckStatus
	decode(t, resp, &status)
	assert.True(t, status.Pending)

	resp = h.postJSON(t, "/api/security-check/respond", map[string]interface{}{
		"code": "1234", "userEmail": "asha@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Status string `json:"status"`
	}
	decode(t, resp, &result)
	assert.Equal(t, "success", result.Status)
	assert.Empty(t, h.escalator.triggered())
}

func TestSecurityCheckWrongCodeIsReportedNotErrored(t *testing.T) {
	h := newHarness(t)

	resp := h.postJSON(t, "/api/users", map[string]interface{}{
		"email": "asha@example.com", "securityCheckEnabled": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
	resp = h.postJSON(t, "/api/users/asha@example.com/device-token", map[string]string{"token": "fcm-token-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	resp = h.postJSON(t, "/api/users/asha@example.com/security-code", map[string]string{"code": "9999"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = h.postJSON(t, "/api/security-check/initiate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = h.postJSON(t, "/api/security-check/respond", map[string]interface{}{
		"code": "1234", "userEmail": "asha@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Status string `json:"status"`
	}
	decode(t, resp, &result)
	assert.Equal(t, "error", result.Status)
	assert.Len(t, h.escalator.triggered(), 1)
}

func TestUserEndpoints(t *testing.T) {
	h := newHarness(t)

	resp := h.postJSON(t, "/api/users", map[string]interface{}{
		"email":             "asha@example.com",
		"name":              "Asha",
		"emergencyContacts": []string{"+917620101655"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	// Duplicate email conflicts.
	resp = h.postJSON(t, "/api/users", map[string]interface{}{"email": "asha@example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Garbage contact is rejected.
	resp = h.postJSON(t, "/api/users", map[string]interface{}{
		"email": "ravi@example.com", "emergencyContacts": []string{"nope"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = h.get(t, "/api/users/asha@example.com")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u model.User
	decode(t, resp, &u)
	assert.Equal(t, "Asha", u.Name)

	// Token updates against an unknown user report not found.
	resp = h.postJSON(t, "/api/users/nobody@example.com/device-token", map[string]string{"token": "t"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = h.get(t, "/api/health/db")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = h.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}
