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

func TestTwilioGateway_SendNormalizesNumberAndParsesStatus(t *testing.T) {
	var gotTo, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotTo = r.PostFormValue("To")
		_, _, ok := r.BasicAuth()
		if ok {
			gotAuth = "basic"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"sid": "SM123", "status": "queued"})
	}))
	defer srv.Close()

	g := NewTwilioGateway(TwilioConfig{
		AccountSID: "AC-test", AuthToken: "secret", FromNumber: "+10000000000", BaseURL: srv.URL,
	}, zerolog.Nop())

	status, err := g.Send(context.Background(), "917620101655", "hello")
	require.NoError(t, err)
	assert.Equal(t, "queued", status)
	assert.Equal(t, "+917620101655", gotTo, "bare numbers get a leading +")
	assert.Equal(t, "basic", gotAuth)
}

func TestTwilioGateway_UnconfiguredFailsFast(t *testing.T) {
	g := NewTwilioGateway(TwilioConfig{}, zerolog.Nop())
	_, err := g.Send(context.Background(), "+917620101655", "hello")
	assert.Error(t, err)
}

func TestFast2SMSGateway_SendStripsPlusAndChecksReturn(t *testing.T) {
	var gotNumbers string
	ok := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req fast2smsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotNumbers = req.Numbers
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"return": ok})
	}))
	defer srv.Close()

	g := NewFast2SMSGateway(Fast2SMSConfig{APIKey: "key", BaseURL: srv.URL}, zerolog.Nop())

	status, err := g.Send(context.Background(), "+917620101655", "hello")
	require.NoError(t, err)
	assert.Equal(t, "sent_fast2sms", status)
	assert.Equal(t, "917620101655", gotNumbers, "fast2sms wants bare numbers")

	ok = false
	_, err = g.Send(context.Background(), "+917620101655", "hello")
	assert.Error(t, err, "return=false must read as failure")
}

func TestGSMGateway_AlwaysSimulates(t *testing.T) {
	g := NewGSMGateway(zerolog.Nop())
	status, err := g.Send(context.Background(), "+917620101655", "hello")
	require.NoError(t, err)
	assert.Equal(t, "sent_simulated", status)
}
