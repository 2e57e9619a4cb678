package profile

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no profile exists for a session id.
var ErrNotFound = errors.New("session not found")

// Store persists one profile per interview session in SQLite. The
// profile is stored as a JSON document keyed by session id; the schema
// churns too much during an interview for per-field columns to pay off.
//
// Serialization: the store hands out one mutex per session id via
// [Store.LockSession]. The turn engine holds it for the duration of a
// turn, so concurrent turns against the same session serialize while
// different sessions proceed in parallel.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a profile store using the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, locks: make(map[string]*sync.Mutex)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// NewStoreWithDB creates a profile store using an existing database
// connection.
func NewStoreWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db, locks: make(map[string]*sync.Mutex)}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			session_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LockSession acquires the per-session mutex and returns the unlock
// function. The advisor holds this across a whole turn so that intent
// classification, probe resolution and the store writes they produce
// are serialized per session.
func (s *Store) LockSession(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// CreateSession inserts an empty profile and returns the new session
// id.
func (s *Store) CreateSession() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(&Profile{ConversationPhase: "discovery"})
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO profiles (session_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, id.String(), string(data), now, now)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	return id.String(), nil
}

// Get loads the profile for a session.
func (s *Store) Get(sessionID string) (*Profile, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM profiles WHERE session_id = ?`, sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %s: %w", sessionID, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", sessionID, err)
	}
	return &p, nil
}

// Mutate loads the profile, runs fn on it, and persists the result if
// fn succeeds. If fn returns an error nothing is written. Mutate does
// not take the session lock itself: every write path runs inside the
// advisor's turn, which holds the lock via LockSession for the whole
// read-decide-write cycle.
func (s *Store) Mutate(sessionID string, fn func(*Profile) error) (*Profile, error) {
	p, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`
		UPDATE profiles SET data = ?, updated_at = ? WHERE session_id = ?
	`, string(data), now, sessionID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("profile %s: %w", sessionID, ErrNotFound)
	}

	return p, nil
}

// Apply merges a partial update into the stored profile and records
// answered field states for each carried field.
func (s *Store) Apply(sessionID string, u *Update) (*Profile, error) {
	return s.Mutate(sessionID, func(p *Profile) error {
		applyUpdate(p, u)
		return nil
	})
}

func applyUpdate(p *Profile, u *Update) {
	Merge(p, u)
	for _, field := range u.Fields() {
		v, _ := u.Value(field)
		setFieldState(p, field, StateAnswered, v)
	}
}

func setFieldState(p *Profile, field string, state FieldState, value any) {
	if p.FieldStates == nil {
		p.FieldStates = make(map[string]FieldStateRecord)
	}
	p.FieldStates[field] = FieldStateRecord{State: state, Value: value}
}

// SetFieldState records how a field was resolved without changing its
// value (skip and not-provided markers).
func (s *Store) SetFieldState(sessionID, field string, state FieldState) (*Profile, error) {
	return s.Mutate(sessionID, func(p *Profile) error {
		setFieldState(p, field, state, nil)
		return nil
	})
}

// AddStatedGoal appends a goal the user voiced. Stated goals are
// append-only; duplicates are dropped.
func (s *Store) AddStatedGoal(sessionID, goal string) (*Profile, error) {
	return s.Mutate(sessionID, func(p *Profile) error {
		for _, g := range p.StatedGoals {
			if g == goal {
				return nil
			}
		}
		p.StatedGoals = append(p.StatedGoals, goal)
		return nil
	})
}
