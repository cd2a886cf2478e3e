package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Nagraj23/shieldx-back/internal/api/respond"
	"github.com/Nagraj23/shieldx-back/internal/escalation"
	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/notify"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

// LocationHandler persists location pings and optionally notifies contacts.
type LocationHandler struct {
	store     store.Store
	sender    escalation.Sender
	escalator escalation.Escalator
}

func NewLocationHandler(st store.Store, sender escalation.Sender, esc escalation.Escalator) *LocationHandler {
	return &LocationHandler{store: st, sender: sender, escalator: esc}
}

// shareMessage renders the live-location message; the emergency variant
// carries the marker the dispatcher keys its alert sound on.
func shareMessage(username string, lat, lng float64, emergency bool) string {
	link := fmt.Sprintf("https://www.google.com/maps?q=%v,%v", lat, lng)
	if emergency {
		return fmt.Sprintf("🚨 EMERGENCY: %s needs help! Location: %s", username, link)
	}
	return fmt.Sprintf("📍 %s's location: %s", username, link)
}

// Share POST /api/location/share
func (h *LocationHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string   `json:"userId"`
		Username    string   `json:"username"`
		Latitude    float64  `json:"latitude"`
		Longitude   float64  `json:"longitude"`
		Contacts    []string `json:"contacts"`
		IsEmergency bool     `json:"isEmergency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.UserID == "" {
		respond.WriteBadRequest(w, "userId is required")
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		respond.WriteBadRequest(w, "latitude must be between -90 and 90")
		return
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		respond.WriteBadRequest(w, "longitude must be between -180 and 180")
		return
	}

	ping := &model.LocationPing{
		UserID:    req.UserID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Timestamp: time.Now().UTC(),
	}
	if err := h.store.Locations().Add(r.Context(), ping); err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}

	if len(req.Contacts) == 0 {
		respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "success",
			"message": "Location saved successfully",
		})
		return
	}

	// An emergency share is an SOS in disguise: full escalation with its
	// alert record. A plain share just messages the contacts.
	if req.IsEmergency {
		res, err := h.escalator.Trigger(r.Context(), escalation.Request{
			UserID:    req.UserID,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Contacts:  req.Contacts,
			Reason:    model.ReasonLocationAlert,
		})
		if err != nil {
			respond.WriteInternalError(w, err.Error())
			return
		}
		respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":            "success",
			"message":           "Location saved and emergency notifications sent",
			"notification_mode": modeLabel(res.OnlineMode),
		})
		return
	}

	message := shareMessage(h.username(r, req.UserID, req.Username), req.Latitude, req.Longitude, false)
	var wg sync.WaitGroup
	for _, contact := range req.Contacts {
		if !notify.IsNotifiable(contact) {
			continue
		}
		wg.Add(1)
		go func(contact string) {
			defer wg.Done()
			h.sender.Send(r.Context(), contact, message, nil)
		}(contact)
	}
	wg.Wait()

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Location saved and notifications sent",
	})
}

// username prefers the explicit request value, then the stored profile name,
// then the raw user id.
func (h *LocationHandler) username(r *http.Request, userID, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if user, err := h.store.Users().GetByEmail(r.Context(), userID); err == nil && user.Name != "" {
		return user.Name
	}
	return userID
}

func modeLabel(online bool) string {
	if online {
		return "Online Mode"
	}
	return "Offline Mode"
}
