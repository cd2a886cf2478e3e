package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Nagraj23/shieldx-back/internal/api/respond"
	"github.com/Nagraj23/shieldx-back/internal/journey"
	"github.com/Nagraj23/shieldx-back/internal/model"
)

// JourneyHandler exposes journey tracking over HTTP.
type JourneyHandler struct {
	monitor *journey.Monitor
}

func NewJourneyHandler(m *journey.Monitor) *JourneyHandler { return &JourneyHandler{monitor: m} }

// Start POST /api/journeys
func (h *JourneyHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID            string   `json:"userId"`
		StartLat          float64  `json:"startLat"`
		StartLng          float64  `json:"startLng"`
		EndLat            float64  `json:"endLat"`
		EndLng            float64  `json:"endLng"`
		EmergencyContacts []string `json:"emergencyContacts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	id, err := h.monitor.StartJourney(r.Context(), req.UserID,
		model.Coordinates{Latitude: req.StartLat, Longitude: req.StartLng},
		model.Coordinates{Latitude: req.EndLat, Longitude: req.EndLng},
		req.EmergencyContacts)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]string{
		"journeyId": id,
		"status":    "Tracking initialized",
	})
}

// UpdatePosition POST /api/journeys/position
func (h *JourneyHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string  `json:"userId"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		JourneyID string  `json:"journeyId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.UserID == "" {
		respond.WriteBadRequest(w, "userId is required")
		return
	}
	if err := h.monitor.UpdatePosition(r.Context(), req.UserID, req.Latitude, req.Longitude, req.JourneyID); err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "Location updated successfully."})
}

// Get GET /api/journeys/{journeyId}
func (h *JourneyHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.monitor.GetJourney(r.Context(), mux.Vars(r)["journeyId"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "journey not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, j)
}
