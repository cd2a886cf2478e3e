// Package memstore holds an in-memory store used by unit tests and the
// "memory" DB driver. All operations are guarded by one mutex; copies go in
// and out so callers never share struct memory with the store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

type memStore struct {
	mu        sync.Mutex
	users     map[string]*model.User    // by email
	journeys  map[string]*model.Journey // by journeyID
	alerts    []*model.AlertRecord
	locations []*model.LocationPing
}

// New returns an empty in-memory store.
func New() store.Store {
	return &memStore{
		users:    make(map[string]*model.User),
		journeys: make(map[string]*model.Journey),
	}
}

func (s *memStore) Users() store.Users         { return &users{s} }
func (s *memStore) Journeys() store.Journeys   { return &journeys{s} }
func (s *memStore) Alerts() store.Alerts       { return &alerts{s} }
func (s *memStore) Locations() store.Locations { return &locations{s} }

// HealthPing always succeeds for the in-memory store.
func (s *memStore) HealthPing(ctx context.Context) error { return nil }

func copyUser(u *model.User) *model.User {
	out := *u
	out.EmergencyContacts = append([]string(nil), u.EmergencyContacts...)
	return &out
}

func copyJourney(j *model.Journey) *model.Journey {
	out := *j
	if j.LastNotificationAt != nil {
		t := *j.LastNotificationAt
		out.LastNotificationAt = &t
	}
	return &out
}

// --- Users ---
type users struct{ p *memStore }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	u.p.mu.Lock()
	defer u.p.mu.Unlock()
	if _, ok := u.p.users[m.Email]; ok {
		return nil, model.ErrConflict
	}
	out := copyUser(m)
	if out.UserID == "" {
		out.UserID = uuid.New().String()
	}
	out.CreationTime = time.Now().UTC()
	u.p.users[out.Email] = out
	return copyUser(out), nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u.p.mu.Lock()
	defer u.p.mu.Unlock()
	m, ok := u.p.users[email]
	if !ok {
		return nil, model.ErrNotFound
	}
	return copyUser(m), nil
}

func (u *users) ListSecurityCheckEnabled(ctx context.Context) ([]*model.User, error) {
	u.p.mu.Lock()
	defer u.p.mu.Unlock()
	var res []*model.User
	for _, m := range u.p.users {
		if m.SecurityCheckEnabled && m.DeviceToken != nil {
			res = append(res, copyUser(m))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Email < res[j].Email })
	return res, nil
}

func (u *users) SetDeviceToken(ctx context.Context, email, token string) error {
	u.p.mu.Lock()
	defer u.p.mu.Unlock()
	m, ok := u.p.users[email]
	if !ok {
		return model.ErrNotFound
	}
	m.DeviceToken = &token
	return nil
}

func (u *users) SetSecurityCode(ctx context.Context, email, hashedCode string) error {
	u.p.mu.Lock()
	defer u.p.mu.Unlock()
	m, ok := u.p.users[email]
	if !ok {
		return model.ErrNotFound
	}
	m.HashedSecurityCode = &hashedCode
	return nil
}

// --- Journeys ---
type journeys struct{ p *memStore }

func (r *journeys) Create(ctx context.Context, j *model.Journey) (*model.Journey, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	out := copyJourney(j)
	if out.JourneyID == "" {
		out.JourneyID = uuid.New().String()
	}
	out.CreationTime = time.Now().UTC()
	r.p.journeys[out.JourneyID] = out
	return copyJourney(out), nil
}

func (r *journeys) GetByID(ctx context.Context, journeyID string) (*model.Journey, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	j, ok := r.p.journeys[journeyID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return copyJourney(j), nil
}

func (r *journeys) LatestRunning(ctx context.Context, userID string) (*model.Journey, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	var latest *model.Journey
	for _, j := range r.p.journeys {
		if j.UserID != userID || j.Status != model.JourneyRunning {
			continue
		}
		if latest == nil || j.LastUpdatedAt.After(latest.LastUpdatedAt) {
			latest = j
		}
	}
	if latest == nil {
		return nil, model.ErrNotFound
	}
	return copyJourney(latest), nil
}

func (r *journeys) ListRunning(ctx context.Context) ([]*model.Journey, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	var res []*model.Journey
	for _, j := range r.p.journeys {
		if j.Status == model.JourneyRunning {
			res = append(res, copyJourney(j))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreationTime.Before(res[j].CreationTime) })
	return res, nil
}

func (r *journeys) UpdatePosition(ctx context.Context, journeyID string, pos model.Coordinates, at time.Time) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	j, ok := r.p.journeys[journeyID]
	if !ok || j.Status != model.JourneyRunning {
		return model.ErrNotFound
	}
	j.PreviousPosition = j.CurrentPosition
	j.CurrentPosition = pos
	j.LastUpdatedAt = at
	return nil
}

func (r *journeys) SetStatus(ctx context.Context, journeyID string, status model.JourneyStatus) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	j, ok := r.p.journeys[journeyID]
	if !ok {
		return model.ErrNotFound
	}
	j.Status = status
	return nil
}

func (r *journeys) MarkNotified(ctx context.Context, journeyID string, status model.JourneyStatus, at time.Time) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	j, ok := r.p.journeys[journeyID]
	if !ok {
		return model.ErrNotFound
	}
	j.Status = status
	t := at
	j.LastNotificationAt = &t
	return nil
}

// --- Alerts ---
type alerts struct{ p *memStore }

func (a *alerts) Create(ctx context.Context, rec *model.AlertRecord) (*model.AlertRecord, error) {
	a.p.mu.Lock()
	defer a.p.mu.Unlock()
	out := *rec
	out.NotifiedContacts = append([]string(nil), rec.NotifiedContacts...)
	if out.AlertID == "" {
		out.AlertID = uuid.New().String()
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	a.p.alerts = append(a.p.alerts, &out)
	cp := out
	return &cp, nil
}

func (a *alerts) ListByUser(ctx context.Context, userID string) ([]*model.AlertRecord, error) {
	a.p.mu.Lock()
	defer a.p.mu.Unlock()
	var res []*model.AlertRecord
	for _, rec := range a.p.alerts {
		if rec.UserID == userID {
			cp := *rec
			cp.NotifiedContacts = append([]string(nil), rec.NotifiedContacts...)
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Timestamp.After(res[j].Timestamp) })
	return res, nil
}

// --- Locations ---
type locations struct{ p *memStore }

func (l *locations) Add(ctx context.Context, p *model.LocationPing) error {
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	cp := *p
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now().UTC()
	}
	l.p.locations = append(l.p.locations, &cp)
	return nil
}

func (l *locations) Latest(ctx context.Context, userID string) (*model.LocationPing, error) {
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	var latest *model.LocationPing
	for _, ping := range l.p.locations {
		if ping.UserID != userID {
			continue
		}
		if latest == nil || !ping.Timestamp.Before(latest.Timestamp) {
			latest = ping
		}
	}
	if latest == nil {
		return nil, model.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}
