package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Nagraj23/shieldx-back/internal/api/respond"
	"github.com/Nagraj23/shieldx-back/internal/escalation"
	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

// SOSHandler exposes manual SOS triggering and alert history.
type SOSHandler struct {
	escalator escalation.Escalator
	alerts    store.Alerts
}

func NewSOSHandler(esc escalation.Escalator, alerts store.Alerts) *SOSHandler {
	return &SOSHandler{escalator: esc, alerts: alerts}
}

// Trigger POST /api/sos
func (h *SOSHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string   `json:"userId"`
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Contacts  []string `json:"contacts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.UserID == "" {
		respond.WriteBadRequest(w, "userId is required")
		return
	}
	if len(req.Contacts) == 0 {
		respond.WriteBadRequest(w, "at least one contact is required")
		return
	}

	res, err := h.escalator.Trigger(r.Context(), escalation.Request{
		UserID:    req.UserID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Contacts:  req.Contacts,
		Reason:    model.ReasonManualSOS,
	})
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}

	mode := "Offline Mode"
	if res.OnlineMode {
		mode = "Online Mode"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":           "SOS triggered successfully!",
		"contacts_notified": res.ContactsNotified,
		"notification_mode": mode,
	})
}

// History GET /api/sos/history/{userId}
func (h *SOSHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	records, err := h.alerts.ListByUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "no alerts for user")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": records,
		"count":  len(records),
	})
}
