package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePushSender struct{ tokens []string }

func (f *fakePushSender) SendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	f.tokens = append(f.tokens, token)
	return nil
}

func TestPushRouter_RoutesByTokenShape(t *testing.T) {
	expo := &fakePushSender{}
	fcm := &fakePushSender{}
	r := NewPushRouter(expo, fcm)

	require.NoError(t, r.SendPush(context.Background(), "ExponentPushToken[abc]", "t", "b", nil))
	require.NoError(t, r.SendPush(context.Background(), "fcm-device-token", "t", "b", nil))

	assert.Equal(t, []string{"ExponentPushToken[abc]"}, expo.tokens)
	assert.Equal(t, []string{"fcm-device-token"}, fcm.tokens)
}

func TestExpoPush_SendsExpoEnvelope(t *testing.T) {
	var got expoMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewExpoPush(srv.URL, zerolog.Nop())
	err := p.SendPush(context.Background(), "ExponentPushToken[abc]", "Security Check", "Enter your code", map[string]string{"type": "security_check"})
	require.NoError(t, err)

	assert.Equal(t, "ExponentPushToken[abc]", got.To)
	assert.Equal(t, "default", got.Sound)
	assert.Equal(t, "Security Check", got.Title)
	assert.Equal(t, "security_check", got.Data["type"])
}

func TestExpoPush_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewExpoPush(srv.URL, zerolog.Nop())
	err := p.SendPush(context.Background(), "ExponentPushToken[abc]", "t", "b", nil)
	assert.Error(t, err)
}

func TestFCMPush_RequiresServerKey(t *testing.T) {
	p := NewFCMPush("https://fcm.example", "", zerolog.Nop())
	err := p.SendPush(context.Background(), "tok", "t", "b", nil)
	assert.Error(t, err)
}

func TestFCMPush_SendsAuthorizedRequest(t *testing.T) {
	var gotAuth string
	var got fcmMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewFCMPush(srv.URL, "server-key", zerolog.Nop())
	err := p.SendPush(context.Background(), "device-token", "Title", "Body", nil)
	require.NoError(t, err)

	assert.Equal(t, "key=server-key", gotAuth)
	assert.Equal(t, "device-token", got.To)
	assert.Equal(t, "Title", got.Notification.Title)
}
