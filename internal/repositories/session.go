package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/shared"
)

// Well-known keys of the durable session.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// SessionRepository mirrors the in-memory session to the session_state table.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load reads the persisted session.
//
// Returns [shared.ErrSessionNotFound] when either key is absent and [shared.ErrSessionMalformed]
// when the stored values cannot form a valid session.
func (r *SessionRepository) Load() (*models.Session, error) {
	rows, err := r.db.Query("SELECT key, value FROM session_state WHERE key IN (?, ?)", KeyToken, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to query session state: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan session state: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	token, hasToken := values[KeyToken]
	rawUser, hasUser := values[KeyUser]
	if !hasToken || !hasUser {
		return nil, shared.ErrSessionNotFound
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, fmt.Errorf("%w: user: %v", shared.ErrSessionMalformed, err)
	}

	session := &models.Session{User: user, Token: token}
	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Save writes both keys in one transaction; on failure neither key changes.
func (r *SessionRepository) Save(session models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	rawUser, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
		INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	for _, kv := range [][2]string{{KeyToken, session.Token}, {KeyUser, string(rawUser)}} {
		if _, err := tx.Exec(query, kv[0], kv[1], now); err != nil {
			return fmt.Errorf("failed to write %s: %w", kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}

	return nil
}

// Clear removes every persisted session key, including keys this build does not know about.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM session_state"); err != nil {
		return fmt.Errorf("failed to clear session state: %w", err)
	}
	return nil
}

// Exists reports whether any session key is persisted.
func (r *SessionRepository) Exists() (bool, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM session_state").Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to count session state: %w", err)
	}
	return n > 0, nil
}
