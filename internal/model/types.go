package model

import "time"

// Coordinates is a WGS84 lat/lon pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// User represents an account in the system.
type User struct {
	UserID               string    `json:"userId"`
	Email                string    `json:"email"`
	Name                 string    `json:"name"`
	DeviceToken          *string   `json:"deviceToken,omitempty"`
	SecurityCheckEnabled bool      `json:"securityCheckEnabled"`
	HashedSecurityCode   *string   `json:"-"`
	EmergencyContacts    []string  `json:"emergencyContacts,omitempty"`
	CreationTime         time.Time `json:"creationTime"`
}

// LocationPing is an append-only location sample for a user.
type LocationPing struct {
	UserID    string    `json:"userId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// JourneyStatus enumerates journey lifecycle states.
type JourneyStatus string

const (
	JourneyRunning         JourneyStatus = "running"
	JourneyCompleted       JourneyStatus = "completed"
	JourneyInactivityAlert JourneyStatus = "inactivity_alert"
	JourneyPaused          JourneyStatus = "paused"
)

// Journey is a tracked trip between a start and end coordinate.
// PreviousPosition trails CurrentPosition by exactly one position update so the
// monitor can measure movement between consecutive samples.
type Journey struct {
	JourneyID          string        `json:"journeyId"`
	UserID             string        `json:"userId"`
	StartPoint         Coordinates   `json:"startPoint"`
	EndPoint           Coordinates   `json:"endPoint"`
	CurrentPosition    Coordinates   `json:"currentPosition"`
	PreviousPosition   Coordinates   `json:"previousPosition"`
	LastUpdatedAt      time.Time     `json:"lastUpdatedAt"`
	EmergencyContact   string        `json:"emergencyContact"`
	Status             JourneyStatus `json:"status"`
	LastNotificationAt *time.Time    `json:"lastNotificationAt,omitempty"`
	CreationTime       time.Time     `json:"creationTime"`
}

// AlertStatus enumerates alert lifecycle states.
type AlertStatus string

const (
	AlertTriggered AlertStatus = "triggered"
	AlertResolved  AlertStatus = "resolved"
	AlertCancelled AlertStatus = "cancelled"
)

// AlertReason identifies what raised an alert.
type AlertReason string

const (
	ReasonManualSOS       AlertReason = "Manual SOS"
	ReasonInactivityAlert AlertReason = "Inactivity Alert"
	ReasonRouteMonitor    AlertReason = "Route Monitor Alert"
	ReasonNoResponse      AlertReason = "No Response"
	ReasonLocationAlert   AlertReason = "Location Alert"
)

// AlertRecord is an append-only log entry created once per escalation.
// NotifiedContacts holds the full requested contact list, not only the
// contacts that were actually reachable.
type AlertRecord struct {
	AlertID          string      `json:"alertId"`
	UserID           string      `json:"userId"`
	Latitude         float64     `json:"latitude"`
	Longitude        float64     `json:"longitude"`
	Timestamp        time.Time   `json:"timestamp"`
	NotifiedContacts []string    `json:"notifiedContacts"`
	Status           AlertStatus `json:"status"`
	Reason           AlertReason `json:"reason"`
}

// CheckStatus is a read-only snapshot of the security-check state machine.
type CheckStatus struct {
	Pending     bool       `json:"pending"`
	IssuedAt    *time.Time `json:"issuedAt,omitempty"`
	SubjectUser *string    `json:"subjectUser,omitempty"`
}
