package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cortex-sentinel/internal/types"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store persists named session snapshots in sqlite. Bundled demo sessions
// are compiled-in constants and never touch the database.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date DATETIME NOT NULL,
		description TEXT,
		log_count INTEGER NOT NULL,
		max_severity TEXT NOT NULL,
		logs TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);`
	if _, err := db.Exec(query); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// MaxSeverity returns the highest severity present across the logs,
// checking CRITICAL > HIGH > MEDIUM > LOW in that order (first match wins).
// An empty list is LOW.
func MaxSeverity(logs []types.LogEntry) types.ThreatLevel {
	for _, level := range []types.ThreatLevel{types.ThreatCritical, types.ThreatHigh, types.ThreatMedium, types.ThreatLow} {
		for _, entry := range logs {
			if entry.ThreatLevel == level {
				return level
			}
		}
	}
	return types.ThreatLow
}

// Save snapshots the log list under a fresh id. No size cap, no dedup:
// saving the same list twice yields two sessions with distinct ids.
func (s *Store) Save(name, description string, logs []types.LogEntry) (*types.SavedSession, error) {
	sess := &types.SavedSession{
		ID:          uuid.NewString(),
		Name:        name,
		Date:        time.Now().UTC().Format(time.RFC3339),
		Description: description,
		LogCount:    len(logs),
		MaxSeverity: MaxSeverity(logs),
		Logs:        logs,
	}

	logsJSON, err := json.Marshal(sess.Logs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session logs: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (id, name, date, description, log_count, max_severity, logs)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Name, sess.Date, sess.Description, sess.LogCount, string(sess.MaxSeverity), string(logsJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	log.Printf("[SESSION] Saved %q (%d entries, max %s)", sess.Name, sess.LogCount, sess.MaxSeverity)
	return sess, nil
}

// List returns user sessions newest first, followed by the bundled demo
// sessions. Listed sessions omit their log bodies; Load fetches them.
func (s *Store) List() ([]types.SavedSession, error) {
	rows, err := s.db.Query(`
		SELECT id, name, date, description, log_count, max_severity
		FROM sessions ORDER BY date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []types.SavedSession
	for rows.Next() {
		var sess types.SavedSession
		var severity string
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.Date, &sess.Description, &sess.LogCount, &severity); err != nil {
			continue
		}
		sess.MaxSeverity = types.ThreatLevel(severity)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sample := range BundledSessions() {
		sample.Logs = nil
		sessions = append(sessions, sample)
	}
	return sessions, nil
}

// Load returns the log list of a stored or bundled session.
func (s *Store) Load(id string) ([]types.LogEntry, error) {
	var logsJSON string
	err := s.db.QueryRow(`SELECT logs FROM sessions WHERE id = ?`, id).Scan(&logsJSON)
	if err == nil {
		var logs []types.LogEntry
		if err := json.Unmarshal([]byte(logsJSON), &logs); err != nil {
			return nil, fmt.Errorf("failed to decode session logs: %w", err)
		}
		return logs, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	for _, sample := range BundledSessions() {
		if sample.ID == id {
			return sample.Logs, nil
		}
	}
	return nil, fmt.Errorf("session %s not found", id)
}

// Clear removes every user session. Bundled sessions are unaffected.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	log.Printf("[SESSION] Cleared user sessions")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
