// Package storetest holds a compliance suite shared by all store drivers.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	email := "u-" + uuid.New().String() + "@example.test"
	token := "ExponentPushToken[" + uuid.New().String() + "]"

	// Users
	u := &model.User{Email: email, Name: "Test User", SecurityCheckEnabled: true, EmergencyContacts: []string{"+911234567890"}}
	created, err := s.Users().Create(ctx, u)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.UserID == "" {
		t.Fatalf("CreateUser: empty user id")
	}
	got, err := s.Users().GetByEmail(ctx, email)
	if err != nil || got.Email != email || len(got.EmergencyContacts) != 1 {
		t.Fatalf("GetByEmail: got=%+v err=%v", got, err)
	}
	if _, err := s.Users().GetByEmail(ctx, "missing@example.test"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByEmail missing: want ErrNotFound, got %v", err)
	}

	// No device token yet: user is not eligible for security checks.
	if lst, err := s.Users().ListSecurityCheckEnabled(ctx); err != nil {
		t.Fatalf("ListSecurityCheckEnabled: %v", err)
	} else {
		for _, m := range lst {
			if m.Email == email {
				t.Fatalf("user without device token should not be eligible")
			}
		}
	}

	if err := s.Users().SetDeviceToken(ctx, email, token); err != nil {
		t.Fatalf("SetDeviceToken: %v", err)
	}
	if err := s.Users().SetSecurityCode(ctx, email, "$2a$10$fakehash"); err != nil {
		t.Fatalf("SetSecurityCode: %v", err)
	}
	if err := s.Users().SetDeviceToken(ctx, "missing@example.test", token); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("SetDeviceToken missing: want ErrNotFound, got %v", err)
	}

	found := false
	lst, err := s.Users().ListSecurityCheckEnabled(ctx)
	if err != nil {
		t.Fatalf("ListSecurityCheckEnabled: %v", err)
	}
	for _, m := range lst {
		if m.Email == email {
			found = true
			if m.DeviceToken == nil || *m.DeviceToken != token {
				t.Fatalf("eligible user missing device token: %+v", m)
			}
			if m.HashedSecurityCode == nil {
				t.Fatalf("eligible user missing security code hash")
			}
		}
	}
	if !found {
		t.Fatalf("user with token and opt-in not listed as eligible")
	}

	// Journeys
	now := time.Now().UTC().Truncate(time.Second)
	j := &model.Journey{
		UserID:           created.UserID,
		StartPoint:       model.Coordinates{Latitude: 18.52, Longitude: 73.85},
		EndPoint:         model.Coordinates{Latitude: 18.53, Longitude: 73.86},
		CurrentPosition:  model.Coordinates{Latitude: 18.52, Longitude: 73.85},
		PreviousPosition: model.Coordinates{Latitude: 18.52, Longitude: 73.85},
		LastUpdatedAt:    now,
		EmergencyContact: "+911234567890",
		Status:           model.JourneyRunning,
	}
	cj, err := s.Journeys().Create(ctx, j)
	if err != nil {
		t.Fatalf("CreateJourney: %v", err)
	}
	if cj.JourneyID == "" {
		t.Fatalf("CreateJourney: empty journey id")
	}

	if got, err := s.Journeys().GetByID(ctx, cj.JourneyID); err != nil || got.Status != model.JourneyRunning {
		t.Fatalf("GetJourney: got=%+v err=%v", got, err)
	}
	if _, err := s.Journeys().GetByID(ctx, uuid.New().String()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetJourney missing: want ErrNotFound, got %v", err)
	}

	latest, err := s.Journeys().LatestRunning(ctx, created.UserID)
	if err != nil || latest.JourneyID != cj.JourneyID {
		t.Fatalf("LatestRunning: got=%+v err=%v", latest, err)
	}

	// UpdatePosition shifts current into previous.
	newPos := model.Coordinates{Latitude: 18.525, Longitude: 73.855}
	if err := s.Journeys().UpdatePosition(ctx, cj.JourneyID, newPos, now.Add(10*time.Second)); err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}
	moved, err := s.Journeys().GetByID(ctx, cj.JourneyID)
	if err != nil {
		t.Fatalf("GetJourney after move: %v", err)
	}
	if moved.CurrentPosition != newPos {
		t.Fatalf("UpdatePosition current: got %+v", moved.CurrentPosition)
	}
	if moved.PreviousPosition != j.CurrentPosition {
		t.Fatalf("UpdatePosition previous not shifted: got %+v", moved.PreviousPosition)
	}
	if !moved.LastUpdatedAt.After(now.Add(5 * time.Second)) {
		t.Fatalf("UpdatePosition lastUpdatedAt not advanced: %v", moved.LastUpdatedAt)
	}

	running, err := s.Journeys().ListRunning(ctx)
	if err != nil || len(running) == 0 {
		t.Fatalf("ListRunning: n=%d err=%v", len(running), err)
	}

	// MarkNotified moves status and the cooldown stamp together.
	notifyAt := now.Add(time.Minute)
	if err := s.Journeys().MarkNotified(ctx, cj.JourneyID, model.JourneyInactivityAlert, notifyAt); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}
	alerted, err := s.Journeys().GetByID(ctx, cj.JourneyID)
	if err != nil || alerted.Status != model.JourneyInactivityAlert || alerted.LastNotificationAt == nil {
		t.Fatalf("MarkNotified state: got=%+v err=%v", alerted, err)
	}

	// A non-running journey no longer accepts position updates.
	if err := s.Journeys().UpdatePosition(ctx, cj.JourneyID, newPos, now.Add(time.Hour)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdatePosition on alerted journey: want ErrNotFound, got %v", err)
	}

	if err := s.Journeys().SetStatus(ctx, cj.JourneyID, model.JourneyCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	// Alerts keep the full requested contact list and the exact reason.
	contacts := []string{"+911234567890", "friend@example.test", "not-a-contact"}
	rec, err := s.Alerts().Create(ctx, &model.AlertRecord{
		UserID:           created.UserID,
		Latitude:         18.52,
		Longitude:        73.85,
		NotifiedContacts: contacts,
		Status:           model.AlertTriggered,
		Reason:           model.ReasonInactivityAlert,
	})
	if err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}
	if rec.AlertID == "" || rec.Timestamp.IsZero() {
		t.Fatalf("CreateAlert: missing id or timestamp: %+v", rec)
	}
	hist, err := s.Alerts().ListByUser(ctx, created.UserID)
	if err != nil || len(hist) != 1 {
		t.Fatalf("ListByUser: n=%d err=%v", len(hist), err)
	}
	if hist[0].Reason != model.ReasonInactivityAlert || len(hist[0].NotifiedContacts) != 3 {
		t.Fatalf("alert round-trip lost data: %+v", hist[0])
	}

	// Locations: Latest returns the most recent ping.
	if _, err := s.Locations().Latest(ctx, created.UserID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Latest with no pings: want ErrNotFound, got %v", err)
	}
	if err := s.Locations().Add(ctx, &model.LocationPing{UserID: created.UserID, Latitude: 1, Longitude: 1, Timestamp: now}); err != nil {
		t.Fatalf("AddLocation: %v", err)
	}
	if err := s.Locations().Add(ctx, &model.LocationPing{UserID: created.UserID, Latitude: 2, Longitude: 2, Timestamp: now.Add(time.Minute)}); err != nil {
		t.Fatalf("AddLocation: %v", err)
	}
	ping, err := s.Locations().Latest(ctx, created.UserID)
	if err != nil || ping.Latitude != 2 {
		t.Fatalf("Latest: got=%+v err=%v", ping, err)
	}
}
