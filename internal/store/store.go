package store

import (
	"context"
	"time"

	"github.com/Nagraj23/shieldx-back/internal/model"
)

// Store exposes persistence operations required by the monitors and the API.
// Implementations live under internal/store/<driver>/ (postgres, sqlite, memstore).
// Lookups return model.ErrNotFound when no row matches.
type Store interface {
	Users() Users
	Journeys() Journeys
	Alerts() Alerts
	Locations() Locations
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListSecurityCheckEnabled(ctx context.Context) ([]*model.User, error)
	SetDeviceToken(ctx context.Context, email, token string) error
	SetSecurityCode(ctx context.Context, email, hashedCode string) error
}

type Journeys interface {
	Create(ctx context.Context, j *model.Journey) (*model.Journey, error)
	GetByID(ctx context.Context, journeyID string) (*model.Journey, error)
	// LatestRunning returns the most-recently-updated running journey for a user.
	LatestRunning(ctx context.Context, userID string) (*model.Journey, error)
	ListRunning(ctx context.Context) ([]*model.Journey, error)
	// UpdatePosition shifts the current position into the previous slot and
	// records the new sample in a single write; only running journeys match.
	UpdatePosition(ctx context.Context, journeyID string, pos model.Coordinates, at time.Time) error
	SetStatus(ctx context.Context, journeyID string, status model.JourneyStatus) error
	// MarkNotified records an inactivity escalation: status and cooldown stamp
	// move together in one write.
	MarkNotified(ctx context.Context, journeyID string, status model.JourneyStatus, at time.Time) error
}

type Alerts interface {
	Create(ctx context.Context, a *model.AlertRecord) (*model.AlertRecord, error)
	ListByUser(ctx context.Context, userID string) ([]*model.AlertRecord, error)
}

type Locations interface {
	Add(ctx context.Context, p *model.LocationPing) error
	Latest(ctx context.Context, userID string) (*model.LocationPing, error)
}
