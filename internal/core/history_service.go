package core

import (
	"fmt"

	"github.com/learntube/careercoach/internal/store"
)

// Defaults for history retrieval and session retention.
const (
	RestoreHistoryLimit  = 20 // interactions rehydrated into chat turns
	DefaultHistoryLimit  = 10 // interactions per history listing
	DefaultHistoryDays   = 30 // listing window in days
	SessionListLimit     = 5  // sessions per listing
	SessionRetentionDays = 30 // inactivity threshold for cleanup
)

// HistoryService exposes time- and count-bounded reads of a user's past
// interactions and sessions.
type HistoryService struct {
	dbStore *store.SQLiteStore
}

func NewHistoryService(db *store.SQLiteStore) *HistoryService {
	return &HistoryService{dbStore: db}
}

// RecentInteractions returns up to limit interactions from the last daysBack
// days, newest first. Non-positive arguments fall back to the defaults.
func (s *HistoryService) RecentInteractions(userID string, limit int, daysBack int) ([]store.Interaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if daysBack <= 0 {
		daysBack = DefaultHistoryDays
	}
	return s.dbStore.GetUserInteractionHistory(userID, limit, daysBack)
}

// RecentSessions returns a user's active sessions ordered by last activity,
// newest first.
func (s *HistoryService) RecentSessions(userID string, limit int) ([]store.Session, error) {
	if limit <= 0 {
		limit = SessionListLimit
	}
	return s.dbStore.GetActiveSessionsForUser(userID, limit)
}

// ChatTurn is one restored turn of a past conversation, ready for display or
// for feeding back into Process as chat history.
type ChatTurn struct {
	Role         string `json:"role"`
	Content      string `json:"content"`
	Agent        string `json:"agent,omitempty"`
	AgentDisplay string `json:"agent_display,omitempty"`
}

// RestoreChatHistory converts persisted interactions back into alternating
// user/assistant turns, oldest first, so a returning user resumes where they
// left off. Assistant turns carry the display name of the agent that
// produced them.
func (s *HistoryService) RestoreChatHistory(userID string, limit int) ([]ChatTurn, error) {
	if limit <= 0 {
		limit = RestoreHistoryLimit
	}
	interactions, err := s.dbStore.GetUserInteractionHistory(userID, limit, DefaultHistoryDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load interactions for restore: %w", err)
	}

	turns := make([]ChatTurn, 0, len(interactions)*2)
	for i := len(interactions) - 1; i >= 0; i-- {
		interaction := interactions[i]
		turns = append(turns, ChatTurn{
			Role:    RoleUser,
			Content: interaction.Query,
		})
		turns = append(turns, ChatTurn{
			Role:         RoleAssistant,
			Content:      interaction.Response,
			Agent:        interaction.AgentUsed,
			AgentDisplay: IntentByID(interaction.AgentUsed).Display(),
		})
	}
	return turns, nil
}
