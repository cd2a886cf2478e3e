package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nagraj23/shieldx-back/internal/api/recovery"
	"github.com/Nagraj23/shieldx-back/internal/escalation"
	"github.com/Nagraj23/shieldx-back/internal/journey"
	"github.com/Nagraj23/shieldx-back/internal/securitycheck"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

// Deps bundles everything the router needs.
type Deps struct {
	Store        store.Store
	Escalator    escalation.Escalator
	Sender       escalation.Sender
	Journeys     *journey.Monitor
	SecurityMon  *securitycheck.Monitor
	HealthPinger HealthPinger
}

// NewRouter wires every route behind the recovery middleware.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	sos := NewSOSHandler(d.Escalator, d.Store.Alerts())
	location := NewLocationHandler(d.Store, d.Sender, d.Escalator)
	journeys := NewJourneyHandler(d.Journeys)
	check := NewSecurityCheckHandler(d.SecurityMon)
	users := NewUserHandler(d.Store.Users())
	health := NewHealthHandler(d.HealthPinger)

	r.HandleFunc("/api/sos", sos.Trigger).Methods(http.MethodPost)
	r.HandleFunc("/api/sos/history/{userId}", sos.History).Methods(http.MethodGet)

	r.HandleFunc("/api/location/share", location.Share).Methods(http.MethodPost)

	r.HandleFunc("/api/journeys", journeys.Start).Methods(http.MethodPost)
	r.HandleFunc("/api/journeys/position", journeys.UpdatePosition).Methods(http.MethodPost)
	r.HandleFunc("/api/journeys/{journeyId}", journeys.Get).Methods(http.MethodGet)

	r.HandleFunc("/api/security-check/initiate", check.Initiate).Methods(http.MethodPost)
	r.HandleFunc("/api/security-check/respond", check.Respond).Methods(http.MethodPost)
	r.HandleFunc("/api/security-check/status", check.Status).Methods(http.MethodGet)

	r.HandleFunc("/api/users", users.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{userId}", users.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{userId}/device-token", users.SetDeviceToken).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{userId}/security-code", users.SetSecurityCode).Methods(http.MethodPost)

	r.HandleFunc("/api/health", health.Live).Methods(http.MethodGet)
	r.HandleFunc("/api/health/db", health.Database).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return recovery.Middleware(r)
}
