package store

import "time"

// DefaultSessionID marks interactions recorded without an explicit session.
const DefaultSessionID = "default"

type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

type Education struct {
	School  string `json:"school"`
	Degree  string `json:"degree"`
	Year    string `json:"year"`
	Details string `json:"details"`
}

type Skill struct {
	Name         string `json:"name"`
	Endorsements int    `json:"endorsements"`
}

// ProfileData is the structured LinkedIn profile a user supplies.
type ProfileData struct {
	FullName   string       `json:"fullName"`
	Headline   string       `json:"headline"`
	Location   string       `json:"location"`
	Summary    string       `json:"summary"`
	Experience []Experience `json:"experience,omitempty"`
	Education  []Education  `json:"education,omitempty"`
	Skills     []Skill      `json:"skills,omitempty"`
}

type UserProfile struct {
	UserID      string            `json:"user_id"`
	ProfileData *ProfileData      `json:"profile_data"` // Nullable
	CareerGoals []string          `json:"career_goals"`
	Preferences map[string]string `json:"preferences"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	LastActive  time.Time         `json:"last_active"`
}

// ContextData is the snapshot captured alongside an interaction. Immutable
// once written.
type ContextData struct {
	AgentID          string            `json:"agent_id"`
	CareerGoals      []string          `json:"career_goals"`
	UserPreferences  map[string]string `json:"user_preferences"`
	ProfileAvailable bool              `json:"profile_available"`
}

type Interaction struct {
	ID              int64        `json:"id"`
	UserID          string       `json:"user_id"`
	SessionID       string       `json:"session_id"`
	InteractionType string       `json:"interaction_type"`
	Query           string       `json:"query"`
	Response        string       `json:"response"`
	AgentUsed       string       `json:"agent_used"`
	Timestamp       time.Time    `json:"timestamp"`
	ContextData     *ContextData `json:"context_data,omitempty"`
}

// SessionData is the per-session counter snapshot written after each
// completed exchange.
type SessionData struct {
	ChatHistoryLength    int       `json:"chat_history_length"`
	ProfileDataAvailable bool      `json:"profile_data_available"`
	CareerGoalsCount     int       `json:"career_goals_count"`
	LastActivity         time.Time `json:"last_activity"`
}

type Session struct {
	SessionID    string       `json:"session_id"`
	UserID       string       `json:"user_id"`
	SessionData  *SessionData `json:"session_data,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActivity time.Time    `json:"last_activity"`
	IsActive     bool         `json:"is_active"`
}
