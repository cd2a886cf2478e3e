// Package sqlite implements the store against a local SQLite database.
// It backs the "local" build target where no Postgres is available.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Nagraj23/shieldx-back/internal/model"
	"github.com/Nagraj23/shieldx-back/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    email                  TEXT PRIMARY KEY,
    user_id                TEXT NOT NULL,
    name                   TEXT NOT NULL DEFAULT '',
    device_token           TEXT,
    security_check_enabled INTEGER NOT NULL DEFAULT 0,
    hashed_security_code   TEXT,
    emergency_contacts     TEXT NOT NULL DEFAULT '[]',
    creation_time          TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS journeys (
    journey_id           TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    start_lat            REAL NOT NULL,
    start_lon            REAL NOT NULL,
    end_lat              REAL NOT NULL,
    end_lon              REAL NOT NULL,
    cur_lat              REAL NOT NULL,
    cur_lon              REAL NOT NULL,
    prev_lat             REAL NOT NULL,
    prev_lon             REAL NOT NULL,
    last_updated_at      TIMESTAMP NOT NULL,
    emergency_contact    TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'running',
    last_notification_at TIMESTAMP,
    creation_time        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journeys_user_status ON journeys (user_id, status);
CREATE TABLE IF NOT EXISTS alerts (
    alert_id          TEXT PRIMARY KEY,
    user_id           TEXT NOT NULL,
    latitude          REAL NOT NULL,
    longitude         REAL NOT NULL,
    ts                TIMESTAMP NOT NULL,
    notified_contacts TEXT NOT NULL DEFAULT '[]',
    status            TEXT NOT NULL DEFAULT 'triggered',
    reason            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_user ON alerts (user_id, ts);
CREATE TABLE IF NOT EXISTS locations (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id   TEXT NOT NULL,
    latitude  REAL NOT NULL,
    longitude REAL NOT NULL,
    ts        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_locations_user_ts ON locations (user_id, ts);
`

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. The parent directory is created if missing.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB ensures the schema and returns a Store over an existing connection.
func NewWithDB(db *sql.DB) (store.Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return &sqlStore{db: db}, nil
}

type sqlStore struct{ db *sql.DB }

func (s *sqlStore) Users() store.Users         { return &users{db: s.db} }
func (s *sqlStore) Journeys() store.Journeys   { return &journeys{db: s.db} }
func (s *sqlStore) Alerts() store.Alerts       { return &alerts{db: s.db} }
func (s *sqlStore) Locations() store.Locations { return &locations{db: s.db} }

// HealthPing reports whether the backing database is reachable.
func (s *sqlStore) HealthPing(ctx context.Context) error {
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
	created := time.Now().UTC()
	_, err = u.db.ExecContext(ctx, `
        INSERT INTO users (email, user_id, name, device_token, security_check_enabled, hashed_security_code, emergency_contacts, creation_time)
        VALUES (?,?,?,?,?,?,?,?)
    `, m.Email, id, m.Name, m.DeviceToken, m.SecurityCheckEnabled, m.HashedSecurityCode, string(contacts), created)
	if err != nil {
		return nil, err
	}
	out := *m
	out.UserID = id
	out.CreationTime = created
	return &out, nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT email, user_id, name, device_token, security_check_enabled, hashed_security_code, emergency_contacts, creation_time
        FROM users WHERE email=?
    `, email)
	return scanUser(row)
}

func (u *users) ListSecurityCheckEnabled(ctx context.Context) ([]*model.User, error) {
	rows, err := u.db.QueryContext(ctx, `
        SELECT email, user_id, name, device_token, security_check_enabled, hashed_security_code, emergency_contacts, creation_time
        FROM users WHERE security_check_enabled=1 AND device_token IS NOT NULL
        ORDER BY email ASC
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.User
	for rows.Next() {
		m, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var m model.User
	var contacts string
	if err := row.Scan(&m.Email, &m.UserID, &m.Name, &m.DeviceToken, &m.SecurityCheckEnabled, &m.HashedSecurityCode, &contacts, &m.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(contacts), &m.EmergencyContacts); err != nil {
		return nil, err
	}
	return &m, nil
}

func (u *users) SetDeviceToken(ctx context.Context, email, token string) error {
	return execOne(ctx, u.db, `UPDATE users SET device_token=? WHERE email=?`, token, email)
}

func (u *users) SetSecurityCode(ctx context.Context, email, hashedCode string) error {
	return execOne(ctx, u.db, `UPDATE users SET hashed_security_code=? WHERE email=?`, hashedCode, email)
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
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
	created := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO journeys (journey_id, user_id, start_lat, start_lon, end_lat, end_lon,
            cur_lat, cur_lon, prev_lat, prev_lon, last_updated_at, emergency_contact, status, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
    `, id, j.UserID,
		j.StartPoint.Latitude, j.StartPoint.Longitude,
		j.EndPoint.Latitude, j.EndPoint.Longitude,
		j.CurrentPosition.Latitude, j.CurrentPosition.Longitude,
		j.PreviousPosition.Latitude, j.PreviousPosition.Longitude,
		j.LastUpdatedAt, j.EmergencyContact, string(j.Status), created)
	if err != nil {
		return nil, err
	}
	out := *j
	out.JourneyID = id
	out.CreationTime = created
	return &out, nil
}

func (r *journeys) GetByID(ctx context.Context, journeyID string) (*model.Journey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+journeyColumns+` FROM journeys WHERE journey_id=?`, journeyID)
	return scanJourney(row)
}

func (r *journeys) LatestRunning(ctx context.Context, userID string) (*model.Journey, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+journeyColumns+` FROM journeys
        WHERE user_id=? AND status=?
        ORDER BY last_updated_at DESC LIMIT 1
    `, userID, string(model.JourneyRunning))
	return scanJourney(row)
}

func (r *journeys) ListRunning(ctx context.Context) ([]*model.Journey, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+journeyColumns+` FROM journeys WHERE status=? ORDER BY creation_time ASC
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
	return execOne(ctx, r.db, `
        UPDATE journeys
        SET prev_lat=cur_lat, prev_lon=cur_lon, cur_lat=?, cur_lon=?, last_updated_at=?
        WHERE journey_id=? AND status=?
    `, pos.Latitude, pos.Longitude, at, journeyID, string(model.JourneyRunning))
}

func (r *journeys) SetStatus(ctx context.Context, journeyID string, status model.JourneyStatus) error {
	return execOne(ctx, r.db, `UPDATE journeys SET status=? WHERE journey_id=?`, string(status), journeyID)
}

func (r *journeys) MarkNotified(ctx context.Context, journeyID string, status model.JourneyStatus, at time.Time) error {
	return execOne(ctx, r.db, `
        UPDATE journeys SET status=?, last_notification_at=? WHERE journey_id=?
    `, string(status), at, journeyID)
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
        VALUES (?,?,?,?,?,?,?,?)
    `, id, rec.UserID, rec.Latitude, rec.Longitude, ts, string(contacts), string(rec.Status), string(rec.Reason))
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
        FROM alerts WHERE user_id=? ORDER BY ts DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.AlertRecord
	for rows.Next() {
		var rec model.AlertRecord
		var contacts, status, reason string
		if err := rows.Scan(&rec.AlertID, &rec.UserID, &rec.Latitude, &rec.Longitude, &rec.Timestamp, &contacts, &status, &reason); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(contacts), &rec.NotifiedContacts); err != nil {
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
        INSERT INTO locations (user_id, latitude, longitude, ts) VALUES (?,?,?,?)
    `, p.UserID, p.Latitude, p.Longitude, ts)
	return err
}

func (l *locations) Latest(ctx context.Context, userID string) (*model.LocationPing, error) {
	var out model.LocationPing
	row := l.db.QueryRowContext(ctx, `
        SELECT user_id, latitude, longitude, ts FROM locations
        WHERE user_id=? ORDER BY ts DESC LIMIT 1
    `, userID)
	if err := row.Scan(&out.UserID, &out.Latitude, &out.Longitude, &out.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

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
