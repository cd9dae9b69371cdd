package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// credentialsKey is the fixed session_state key the credential record lives
// under, mirroring the single localStorage key the web client used.
const credentialsKey = "auth"

// Credentials is the persisted session record. Token and identity are
// written as one row so they can never be observed half-set.
type Credentials struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// SaveCredentials upserts the credential record in a single statement.
func (db *DB) SaveCredentials(c *Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO session_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		credentialsKey, string(data), time.Now().UnixMilli())
	return err
}

// LoadCredentials returns the persisted credential record, or nil if no
// session is stored.
func (db *DB) LoadCredentials() (*Credentials, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM session_state WHERE key = ?`, credentialsKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var c Credentials
	if err := json.Unmarshal([]byte(value), &c); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return &c, nil
}

// DeleteCredentials removes the credential record. Deleting an absent row is
// not an error.
func (db *DB) DeleteCredentials() error {
	_, err := db.Exec(`DELETE FROM session_state WHERE key = ?`, credentialsKey)
	return err
}
