// Package conversation provides per-session interview history with a
// bounded window, prompt formatting for the oracle, and profile
// summary rendering.
package conversation

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxStoredTurns bounds history per session. Older turns are pruned
	// on append; the interview only ever looks a few turns back.
	MaxStoredTurns = 10

	// PromptWindow is how many recent turns are supplied to the oracle.
	PromptWindow = 6

	// maxTurnLen truncates pathological inputs before storage.
	maxTurnLen = 500
)

// Turn is one utterance in the interview.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists conversation history in SQLite. Like the profile
// store, it assumes the caller serializes writes per session.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store using the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// NewStoreWithDB creates a history store using an existing database
// connection.
func NewStoreWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records a turn, truncating oversized content and pruning the
// session's history down to MaxStoredTurns.
func (s *Store) Append(sessionID, role, content string) error {
	if len(content) > maxTurnLen {
		cut := maxTurnLen
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(`
		INSERT INTO turns (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, role, content, now)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM turns WHERE session_id = ? AND id NOT IN (
			SELECT id FROM turns WHERE session_id = ?
			ORDER BY id DESC LIMIT ?
		)
	`, sessionID, sessionID, MaxStoredTurns)
	if err != nil {
		return fmt.Errorf("prune turns: %w", err)
	}

	return nil
}

// Recent returns up to n most recent turns, oldest first.
func (s *Store) Recent(sessionID string, n int) ([]Turn, error) {
	rows, err := s.db.Query(`
		SELECT role, content, created_at FROM turns
		WHERE session_id = ? ORDER BY id DESC LIMIT ?
	`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var created string
		if err := rows.Scan(&t.Role, &t.Content, &created); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// LastQuestion returns the content of the most recent assistant turn,
// or "" when the agent has not spoken yet.
func (s *Store) LastQuestion(sessionID string) (string, error) {
	var content string
	err := s.db.QueryRow(`
		SELECT content FROM turns
		WHERE session_id = ? AND role = 'assistant'
		ORDER BY id DESC LIMIT 1
	`, sessionID).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("query last question: %w", err)
	}
	return content, nil
}

// FormatForPrompt renders turns as a transcript block for oracle
// prompts.
func FormatForPrompt(turns []Turn) string {
	if len(turns) == 0 {
		return "(no prior conversation)"
	}
	var b strings.Builder
	for _, t := range turns {
		label := "User"
		if t.Role == "assistant" {
			label = "Agent"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, t.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
