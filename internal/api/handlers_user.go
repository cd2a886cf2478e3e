package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nagraj23/shieldx-back/internal/api/respond"
	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/notify"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

// UserHandler manages accounts, device tokens and security codes.
type UserHandler struct {
	users store.Users
}

func NewUserHandler(users store.Users) *UserHandler { return &UserHandler{users: users} }

// Create POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email                string   `json:"email"`
		Name                 string   `json:"name"`
		SecurityCheckEnabled bool     `json:"securityCheckEnabled"`
		EmergencyContacts    []string `json:"emergencyContacts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if notify.ClassifyContact(req.Email) != notify.ContactEmail {
		respond.WriteBadRequest(w, "a valid email is required")
		return
	}
	for _, c := range req.EmergencyContacts {
		if !notify.IsNotifiable(c) {
			respond.WriteBadRequest(w, "emergency contact must be a phone number or email: "+c)
			return
		}
	}

	out, err := h.users.Create(r.Context(), &model.User{
		Email:                req.Email,
		Name:                 req.Name,
		SecurityCheckEnabled: req.SecurityCheckEnabled,
		EmergencyContacts:    req.EmergencyContacts,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			respond.WriteError(w, http.StatusConflict, "user already exists")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// Get GET /api/users/{userId}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByEmail(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "user not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// SetDeviceToken POST /api/users/{userId}/device-token
func (h *UserHandler) SetDeviceToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Token == "" {
		respond.WriteBadRequest(w, "token is required")
		return
	}

	email := mux.Vars(r)["userId"]
	if err := h.users.SetDeviceToken(r.Context(), email, req.Token); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "user not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "device token saved"})
}

// SetSecurityCode POST /api/users/{userId}/security-code
func (h *UserHandler) SetSecurityCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if len(req.Code) < 4 {
		respond.WriteBadRequest(w, "code must be at least 4 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Code), bcrypt.DefaultCost)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}

	email := mux.Vars(r)["userId"]
	if err := h.users.SetSecurityCode(r.Context(), email, string(hash)); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "user not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "security code saved"})
}
