package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// PushSender delivers one push notification to one device token.
type PushSender interface {
	SendPush(ctx context.Context, token, title, body string, data map[string]string) error
}

// expoTokenPrefix marks Expo-issued tokens; everything else routes to FCM.
const expoTokenPrefix = "ExponentPushToken"

// PushRouter routes a token to the provider that issued it, transparently to
// the caller.
type PushRouter struct {
	expo PushSender
	fcm  PushSender
}

func NewPushRouter(expo, fcm PushSender) *PushRouter {
	return &PushRouter{expo: expo, fcm: fcm}
}

func (r *PushRouter) SendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	if strings.HasPrefix(token, expoTokenPrefix) {
		return r.expo.SendPush(ctx, token, title, body, data)
	}
	return r.fcm.SendPush(ctx, token, title, body, data)
}

// --- Expo ---

// ExpoPush sends through the Expo push HTTP API.
type ExpoPush struct {
	client *resty.Client
	url    string
	log    zerolog.Logger
}

type expoMessage struct {
	To    string            `json:"to"`
	Sound string            `json:"sound"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

func NewExpoPush(url string, log zerolog.Logger) *ExpoPush {
	c := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &ExpoPush{client: c, url: url, log: log}
}

func (p *ExpoPush) SendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	if data == nil {
		data = map[string]string{}
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&expoMessage{To: token, Sound: "default", Title: title, Body: body, Data: data}).
		Post(p.url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("expo push failed: status %d", resp.StatusCode())
	}
	p.log.Info().Str("title", title).Msg("expo push sent")
	return nil
}

// --- FCM ---

// FCMPush sends through the Firebase Cloud Messaging HTTP API.
type FCMPush struct {
	client    *resty.Client
	endpoint  string
	serverKey string
	log       zerolog.Logger
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func NewFCMPush(endpoint, serverKey string, log zerolog.Logger) *FCMPush {
	c := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &FCMPush{client: c, endpoint: endpoint, serverKey: serverKey, log: log}
}

func (p *FCMPush) SendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	if p.serverKey == "" {
		return fmt.Errorf("FCM server key not configured")
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "key="+p.serverKey).
		SetBody(&fcmMessage{To: token, Notification: fcmNotification{Title: title, Body: body}, Data: data}).
		Post(p.endpoint)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("fcm push failed: status %d", resp.StatusCode())
	}
	p.log.Info().Str("title", title).Msg("fcm push sent")
	return nil
}
