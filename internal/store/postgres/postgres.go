package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema applies the embedded DDL. All statements are idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users         { return &users{db: s.db} }
func (s *pgStore) Journeys() store.Journeys   { return &journeys{db: s.db} }
func (s *pgStore) Alerts() store.Alerts       { return &alerts{db: s.db} }
func (s *pgStore) Locations() store.Locations { return &locations{db: s.db} }

// HealthPing reports whether the backing database is reachable.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Users ---
type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	id := m.UserID
	if id == "" {
		id = uuid.New().String()
	}
	contacts, err := json.Marshal(m.EmergencyContacts)
	if err != nil {
		return nil, err
	}
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (email, user_id, name, device_token, security_check_enabled, hashed_security_code, emergency_contacts)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING creation_time
    `, m.Email, id, m.Name, m.DeviceToken, m.SecurityCheckEnabled, m.HashedSecurityCode, contacts)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.UserID = id
	out.CreationTime = created
	return &out, nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var out model.User
	var contacts []byte
	row := u.db.QueryRowContext(ctx, `
        SELECT email, user_id, name, device_token, security_check_enabled, hashed_security_code, emergency_contacts, creation_time
        FROM users WHERE email=$1
    `, email)
	if err := row.Scan(&out.Email, &out.UserID, &out.Name, &out.DeviceToken, &out.SecurityCheckEnabled, &out.HashedSecurityCode, &contacts, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(contacts, &out.EmergencyContacts); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *users) ListSecurityCheckEnabled(ctx context.Context) ([]*model.User, error) {
	rows, err := u.db.QueryContext(ctx, `
        SELECT email, user_id, name, device_token, security_check_enabled, hashed_security_code, emergency_contacts, creation_time
        FROM users
        WHERE security_check_enabled AND device_token IS NOT NULL
        ORDER BY email ASC
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.User
	for rows.Next() {
		var m model.User
		var contacts []byte
		if err := rows.Scan(&m.Email, &m.UserID, &m.Name, &m.DeviceToken, &m.SecurityCheckEnabled, &m.HashedSecurityCode, &contacts, &m.CreationTime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(contacts, &m.EmergencyContacts); err != nil {
			return nil, err
		}
		res = append(res, &m)
	}
	return res, rows.Err()
}

func (u *users) SetDeviceToken(ctx context.Context, email, token string) error {
	return execOne(ctx, u.db, `UPDATE users SET device_token=$2 WHERE email=$1`, email, token)
}

func (u *users) SetSecurityCode(ctx context.Context, email, hashedCode string) error {
	return execOne(ctx, u.db, `UPDATE users SET hashed_security_code=$2 WHERE email=$1`, email, hashedCode)
}

// --- Journeys ---
type journeys struct{ db *sql.DB }

const journeyColumns = `journey_id, user_id, start_lat, start_lon, end_lat, end_lon,
cur_lat, cur_lon, prev_lat, prev_lon, last_updated_at, emergency_contact, status,
last_notification_at, creation_time`

func scanJourney(row interface{ Scan(...any) error }) (*model.Journey, error) {
	var j model.Journey
	var status string
	if err := row.Scan(&j.JourneyID, &j.UserID,
		&j.StartPoint.Latitude, &j.StartPoint.Longitude,
		&j.EndPoint.Latitude, &j.EndPoint.Longitude,
		&j.CurrentPosition.Latitude, &j.CurrentPosition.Longitude,
		&j.PreviousPosition.Latitude, &j.PreviousPosition.Longitude,
		&j.LastUpdatedAt, &j.EmergencyContact, &status,
		&j.LastNotificationAt, &j.CreationTime); err != nil {
		return nil, err
	}
	j.Status = model.JourneyStatus(status)
	return &j, nil
}

func (r *journeys) Create(ctx context.Context, j *model.Journey) (*model.Journey, error) {
	id := j.JourneyID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO journeys (journey_id, user_id, start_lat, start_lon, end_lat, end_lon,
            cur_lat, cur_lon, prev_lat, prev_lon, last_updated_at, emergency_contact, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING creation_time
    `, id, j.UserID,
		j.StartPoint.Latitude, j.StartPoint.Longitude,
		j.EndPoint.Latitude, j.EndPoint.Longitude,
		j.CurrentPosition.Latitude, j.CurrentPosition.Longitude,
		j.PreviousPosition.Latitude, j.PreviousPosition.Longitude,
		j.LastUpdatedAt, j.EmergencyContact, string(j.Status))
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *j
	out.JourneyID = id
	out.CreationTime = created
	return &out, nil
}

func (r *journeys) GetByID(ctx context.Context, journeyID string) (*model.Journey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+journeyColumns+` FROM journeys WHERE journey_id=$1`, journeyID)
	j, err := scanJourney(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return j, err
}

func (r *journeys) LatestRunning(ctx context.Context, userID string) (*model.Journey, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+journeyColumns+` FROM journeys
        WHERE user_id=$1 AND status=$2
        ORDER BY last_updated_at DESC LIMIT 1
    `, userID, string(model.JourneyRunning))
	j, err := scanJourney(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return j, err
}

func (r *journeys) ListRunning(ctx context.Context) ([]*model.Journey, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+journeyColumns+` FROM journeys WHERE status=$1 ORDER BY creation_time ASC
    `, string(model.JourneyRunning))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, j)
	}
	return res, rows.Err()
}

func (r *journeys) UpdatePosition(ctx context.Context, journeyID string, pos model.Coordinates, at time.Time) error {
	// Single UPDATE keeps shift-and-set atomic per journey.
	return execOne(ctx, r.db, `
        UPDATE journeys
        SET prev_lat=cur_lat, prev_lon=cur_lon, cur_lat=$2, cur_lon=$3, last_updated_at=$4
        WHERE journey_id=$1 AND status=$5
    `, journeyID, pos.Latitude, pos.Longitude, at, string(model.JourneyRunning))
}

func (r *journeys) SetStatus(ctx context.Context, journeyID string, status model.JourneyStatus) error {
	return execOne(ctx, r.db, `UPDATE journeys SET status=$2 WHERE journey_id=$1`, journeyID, string(status))
}

func (r *journeys) MarkNotified(ctx context.Context, journeyID string, status model.JourneyStatus, at time.Time) error {
	return execOne(ctx, r.db, `
        UPDATE journeys SET status=$2, last_notification_at=$3 WHERE journey_id=$1
    `, journeyID, string(status), at)
}

// --- Alerts ---
type alerts struct{ db *sql.DB }

func (a *alerts) Create(ctx context.Context, rec *model.AlertRecord) (*model.AlertRecord, error) {
	id := rec.AlertID
	if id == "" {
		id = uuid.New().String()
	}
	contacts, err := json.Marshal(rec.NotifiedContacts)
	if err != nil {
		return nil, err
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err = a.db.ExecContext(ctx, `
        INSERT INTO alerts (alert_id, user_id, latitude, longitude, ts, notified_contacts, status, reason)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, id, rec.UserID, rec.Latitude, rec.Longitude, ts, contacts, string(rec.Status), string(rec.Reason))
	if err != nil {
		return nil, err
	}
	out := *rec
	out.AlertID = id
	out.Timestamp = ts
	return &out, nil
}

func (a *alerts) ListByUser(ctx context.Context, userID string) ([]*model.AlertRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT alert_id, user_id, latitude, longitude, ts, notified_contacts, status, reason
        FROM alerts WHERE user_id=$1 ORDER BY ts DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.AlertRecord
	for rows.Next() {
		var rec model.AlertRecord
		var contacts []byte
		var status, reason string
		if err := rows.Scan(&rec.AlertID, &rec.UserID, &rec.Latitude, &rec.Longitude, &rec.Timestamp, &contacts, &status, &reason); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(contacts, &rec.NotifiedContacts); err != nil {
			return nil, err
		}
		rec.Status = model.AlertStatus(status)
		rec.Reason = model.AlertReason(reason)
		res = append(res, &rec)
	}
	return res, rows.Err()
}

// --- Locations ---
type locations struct{ db *sql.DB }

func (l *locations) Add(ctx context.Context, p *model.LocationPing) error {
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, `
        INSERT INTO locations (user_id, latitude, longitude, ts) VALUES ($1,$2,$3,$4)
    `, p.UserID, p.Latitude, p.Longitude, ts)
	return err
}

func (l *locations) Latest(ctx context.Context, userID string) (*model.LocationPing, error) {
	var out model.LocationPing
	row := l.db.QueryRowContext(ctx, `
        SELECT user_id, latitude, longitude, ts FROM locations
        WHERE user_id=$1 ORDER BY ts DESC LIMIT 1
    `, userID)
	if err := row.Scan(&out.UserID, &out.Latitude, &out.Longitude, &out.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// execOne runs an UPDATE-style statement and maps zero affected rows to ErrNotFound.
func execOne(ctx context.Context, db *sql.DB, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
