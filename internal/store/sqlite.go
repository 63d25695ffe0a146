package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS user_profiles (
        user_id TEXT PRIMARY KEY,
        profile_data TEXT,
        career_goals TEXT,
        preferences TEXT,
        created_at DATETIME,
        updated_at DATETIME,
        last_active DATETIME
    );

    CREATE TABLE IF NOT EXISTS user_interactions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT,
        session_id TEXT DEFAULT 'default',
        interaction_type TEXT,
        query TEXT,
        response TEXT,
        agent_used TEXT,
        timestamp DATETIME,
        context_data TEXT,
        FOREIGN KEY (user_id) REFERENCES user_profiles (user_id)
    );

    CREATE TABLE IF NOT EXISTS user_sessions (
        session_id TEXT PRIMARY KEY,
        user_id TEXT,
        session_data TEXT,
        created_at DATETIME,
        last_activity DATETIME,
        is_active BOOLEAN DEFAULT 1,
        FOREIGN KEY (user_id) REFERENCES user_profiles (user_id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// marshalNullable JSON-encodes v for a nullable TEXT column. A nil pointer,
// nil map or nil slice is stored as SQL NULL.
func marshalNullable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case *ProfileData:
		if t == nil {
			return nil, nil
		}
	case *ContextData:
		if t == nil {
			return nil, nil
		}
	case *SessionData:
		if t == nil {
			return nil, nil
		}
	case []string:
		if t == nil {
			return nil, nil
		}
	case map[string]string:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal column value: %w", err)
	}
	return string(b), nil
}

// Profile methods

// SaveUserProfile inserts or replaces the profile row for userID. The
// original created_at survives the replace via the COALESCE subselect;
// updated_at and last_active always advance to the write time.
func (s *SQLiteStore) SaveUserProfile(userID string, profile *ProfileData, careerGoals []string, preferences map[string]string) error {
	profileJSON, err := marshalNullable(profile)
	if err != nil {
		return err
	}
	goalsJSON, err := marshalNullable(careerGoals)
	if err != nil {
		return err
	}
	prefsJSON, err := marshalNullable(preferences)
	if err != nil {
		return err
	}

	stmt, err := s.db.Prepare(`
        INSERT OR REPLACE INTO user_profiles
        (user_id, profile_data, career_goals, preferences, created_at, updated_at, last_active)
        VALUES (?, ?, ?, ?, COALESCE((SELECT created_at FROM user_profiles WHERE user_id = ?), ?), ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare profile upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	_, err = stmt.Exec(userID, profileJSON, goalsJSON, prefsJSON, userID, now, now, now)
	if err != nil {
		return fmt.Errorf("failed to execute profile upsert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadUserProfile(userID string) (*UserProfile, error) {
	var (
		profile     UserProfile
		profileJSON sql.NullString
		goalsJSON   sql.NullString
		prefsJSON   sql.NullString
	)
	err := s.db.QueryRow(`
        SELECT user_id, profile_data, career_goals, preferences, created_at, updated_at, last_active
        FROM user_profiles
        WHERE user_id = ?
    `, userID).Scan(&profile.UserID, &profileJSON, &goalsJSON, &prefsJSON,
		&profile.CreatedAt, &profile.UpdatedAt, &profile.LastActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Profile not found
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	if profileJSON.Valid {
		var pd ProfileData
		if err := json.Unmarshal([]byte(profileJSON.String), &pd); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile data for user %s: %w", userID, err)
		}
		profile.ProfileData = &pd
	}
	profile.CareerGoals = []string{}
	if goalsJSON.Valid {
		if err := json.Unmarshal([]byte(goalsJSON.String), &profile.CareerGoals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal career goals for user %s: %w", userID, err)
		}
	}
	profile.Preferences = map[string]string{}
	if prefsJSON.Valid {
		if err := json.Unmarshal([]byte(prefsJSON.String), &profile.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences for user %s: %w", userID, err)
		}
	}
	return &profile, nil
}

// Interaction methods

// SaveInteraction appends one interaction row and bumps the owning profile's
// last_active inside a single transaction. Interaction rows are never
// mutated after this write.
func (s *SQLiteStore) SaveInteraction(interaction *Interaction) error {
	if interaction.SessionID == "" {
		interaction.SessionID = DefaultSessionID
	}
	if interaction.InteractionType == "" {
		interaction.InteractionType = "chat"
	}
	interaction.Timestamp = time.Now()

	contextJSON, err := marshalNullable(interaction.ContextData)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin interaction transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
        INSERT INTO user_interactions (user_id, session_id, interaction_type, query, response, agent_used, timestamp, context_data)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, interaction.UserID, interaction.SessionID, interaction.InteractionType,
		interaction.Query, interaction.Response, interaction.AgentUsed,
		interaction.Timestamp, contextJSON)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	_, err = tx.Exec("UPDATE user_profiles SET last_active = ? WHERE user_id = ?",
		interaction.Timestamp, interaction.UserID)
	if err != nil {
		return fmt.Errorf("failed to update last_active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit interaction: %w", err)
	}
	interaction.ID, _ = res.LastInsertId()
	return nil
}

// GetUserInteractionHistory returns up to limit interactions newer than
// daysBack days, newest first. Rowid ordering breaks timestamp ties so
// repeated reads stay stable.
func (s *SQLiteStore) GetUserInteractionHistory(userID string, limit int, daysBack int) ([]Interaction, error) {
	cutoff := time.Now().AddDate(0, 0, -daysBack)

	rows, err := s.db.Query(`
        SELECT id, user_id, session_id, interaction_type, query, response, agent_used, timestamp, context_data
        FROM user_interactions
        WHERE user_id = ? AND timestamp > ?
        ORDER BY timestamp DESC, id DESC
        LIMIT ?
    `, userID, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var interactions []Interaction
	for rows.Next() {
		var (
			in          Interaction
			sessionID   sql.NullString
			contextJSON sql.NullString
		)
		if err := rows.Scan(&in.ID, &in.UserID, &sessionID, &in.InteractionType,
			&in.Query, &in.Response, &in.AgentUsed, &in.Timestamp, &contextJSON); err != nil {
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}
		in.SessionID = DefaultSessionID
		if sessionID.Valid && sessionID.String != "" {
			in.SessionID = sessionID.String
		}
		if contextJSON.Valid && contextJSON.String != "" {
			var cd ContextData
			if err := json.Unmarshal([]byte(contextJSON.String), &cd); err != nil {
				return nil, fmt.Errorf("failed to unmarshal context data for interaction %d: %w", in.ID, err)
			}
			in.ContextData = &cd
		}
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}

// Session methods

// SaveSessionData upserts a session snapshot, preserving created_at the same
// way SaveUserProfile does and re-marking the session active.
func (s *SQLiteStore) SaveSessionData(sessionID string, userID string, data *SessionData) error {
	dataJSON, err := marshalNullable(data)
	if err != nil {
		return err
	}

	stmt, err := s.db.Prepare(`
        INSERT OR REPLACE INTO user_sessions
        (session_id, user_id, session_data, created_at, last_activity, is_active)
        VALUES (?, ?, ?, COALESCE((SELECT created_at FROM user_sessions WHERE session_id = ?), ?), ?, 1)
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare session upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	_, err = stmt.Exec(sessionID, userID, dataJSON, sessionID, now, now)
	if err != nil {
		return fmt.Errorf("failed to execute session upsert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadSessionData(sessionID string) (*SessionData, error) {
	var dataJSON sql.NullString
	err := s.db.QueryRow(`
        SELECT session_data FROM user_sessions
        WHERE session_id = ? AND is_active = 1
    `, sessionID).Scan(&dataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No active session
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if !dataJSON.Valid || dataJSON.String == "" {
		return nil, nil
	}
	var data SessionData
	if err := json.Unmarshal([]byte(dataJSON.String), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data for session %s: %w", sessionID, err)
	}
	return &data, nil
}

func (s *SQLiteStore) GetActiveSessionsForUser(userID string, limit int) ([]Session, error) {
	rows, err := s.db.Query(`
        SELECT session_id, user_id, created_at, last_activity, is_active
        FROM user_sessions
        WHERE user_id = ? AND is_active = 1
        ORDER BY last_activity DESC
        LIMIT ?
    `, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.SessionID, &sess.UserID, &sess.CreatedAt,
			&sess.LastActivity, &sess.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Retention and erasure

// ClearUserData deletes every interaction, profile and session row for the
// user. The cascade is manual; there is no coming back from this.
func (s *SQLiteStore) ClearUserData(userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin erasure transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM user_interactions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete interactions: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM user_profiles WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM user_sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return tx.Commit()
}

// CleanupOldSessions soft-deactivates sessions whose last_activity is older
// than daysOld days. No rows are deleted, and the operation is idempotent.
// Returns the number of sessions deactivated by this call.
func (s *SQLiteStore) CleanupOldSessions(daysOld int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -daysOld)

	res, err := s.db.Exec(`
        UPDATE user_sessions SET is_active = 0
        WHERE last_activity < ? AND is_active = 1
    `, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate old sessions: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
