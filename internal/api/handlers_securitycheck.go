package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Nagraj23/shieldx-back/internal/api/respond"
	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/securitycheck"
)

// SecurityCheckHandler exposes the challenge lifecycle over HTTP.
type SecurityCheckHandler struct {
	monitor *securitycheck.Monitor
}

func NewSecurityCheckHandler(m *securitycheck.Monitor) *SecurityCheckHandler {
	return &SecurityCheckHandler{monitor: m}
}

// Initiate POST /api/security-check/initiate
func (h *SecurityCheckHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.IssueCheck(r.Context()); err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "security check initiated"})
}

// Respond POST /api/security-check/respond
func (h *SecurityCheckHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code              string   `json:"code"`
		UserEmail         string   `json:"userEmail"`
		EmergencyContacts []string `json:"emergencyContacts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Code == "" || req.UserEmail == "" {
		respond.WriteBadRequest(w, "code and userEmail are required")
		return
	}

	res, err := h.monitor.SubmitCode(r.Context(), req.Code, req.UserEmail, req.EmergencyContacts)
	switch {
	case errors.Is(err, model.ErrNoActiveChallenge):
		respond.WriteBadRequest(w, "No active check for this user.")
		return
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "User not found.")
		return
	case errors.Is(err, model.ErrCodeNotConfigured):
		respond.WriteBadRequest(w, "Security code not set for this user.")
		return
	case err != nil:
		respond.WriteInternalError(w, err.Error())
		return
	}

	// A wrong code is a 200 with an error status; the escalation already ran.
	status := "success"
	if !res.OK {
		status = "error"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"message": res.Message,
	})
}

// Status GET /api/security-check/status
func (h *SecurityCheckHandler) Status(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.monitor.Status())
}
