package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/learntube/careercoach/internal/auth"
	"github.com/learntube/careercoach/internal/core"
	"github.com/learntube/careercoach/internal/store"
)

type APIHandler struct {
	conversation *core.ConversationService
	history      *core.HistoryService
	dbStore      *store.SQLiteStore
}

func NewAPIHandler(cs *core.ConversationService, hs *core.HistoryService, db *store.SQLiteStore) *APIHandler {
	return &APIHandler{conversation: cs, history: hs, dbStore: db}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type LoginRequest struct {
	UserID string `json:"user_id"`
}

// LoginHandler issues a bearer token for a user ID. Identity is declared,
// not verified: the service inherits the demo identity model of the original
// coach, where the profile itself is the only thing worth protecting.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	token, err := auth.GenerateJWT(req.UserID)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	profile, err := h.dbStore.LoadUserProfile(userID)
	if err != nil {
		log.Printf("Error loading profile for user %s: %v", userID, err)
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(profile)
}

type PutProfileRequest struct {
	ProfileData *store.ProfileData `json:"profile_data"`
	CareerGoals []string           `json:"career_goals"`
	Preferences map[string]string  `json:"preferences"`
}

func (h *APIHandler) PutProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	var req PutProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.dbStore.SaveUserProfile(userID, req.ProfileData, req.CareerGoals, req.Preferences); err != nil {
		log.Printf("Error saving profile for user %s: %v", userID, err)
		http.Error(w, "Failed to save profile", http.StatusInternalServerError)
		return
	}

	profile, err := h.dbStore.LoadUserProfile(userID)
	if err != nil {
		log.Printf("Error reloading profile for user %s: %v", userID, err)
		http.Error(w, "Failed to reload profile", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(profile)
}

type PostMessageRequest struct {
	Content   string `json:"content"`
	SessionID string `json:"session_id,omitempty"`
}

type AgentInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Display string `json:"display"`
}

type PostMessageResponse struct {
	Response  string    `json:"response"`
	Agent     AgentInfo `json:"agent"`
	SessionID string    `json:"session_id"`
	Persisted bool      `json:"persisted"`
}

// PostMessageHandler runs one full exchange. Chat history is rehydrated from
// the store rather than kept in server memory, so any instance can serve any
// turn of a conversation.
func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "Message content cannot be empty", http.StatusBadRequest)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString() // first contact mints the session
	}

	var (
		profileData *store.ProfileData
		careerGoals []string
		preferences map[string]string
	)
	profile, err := h.dbStore.LoadUserProfile(userID)
	if err != nil {
		log.Printf("Error loading profile for user %s: %v", userID, err)
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	if profile != nil {
		profileData = profile.ProfileData
		careerGoals = profile.CareerGoals
		preferences = profile.Preferences
	}

	turns, err := h.history.RestoreChatHistory(userID, core.RestoreHistoryLimit)
	if err != nil {
		log.Printf("Error restoring chat history for user %s, continuing without it: %v", userID, err)
		turns = nil
	}
	chatHistory := make([]core.ChatMessage, 0, len(turns))
	for _, turn := range turns {
		chatHistory = append(chatHistory, core.ChatMessage{Role: turn.Role, Content: turn.Content})
	}

	out, err := h.conversation.Process(r.Context(), core.ProcessInput{
		Message:     req.Content,
		ChatHistory: chatHistory,
		UserID:      userID,
		SessionID:   sessionID,
		Profile:     profileData,
		CareerGoals: careerGoals,
		Preferences: preferences,
	})
	if err != nil {
		log.Printf("Error processing message for user %s: %v", userID, err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(PostMessageResponse{
		Response: out.Response,
		Agent: AgentInfo{
			ID:      out.Intent.ID,
			Name:    out.Intent.Name,
			Display: out.Intent.Display(),
		},
		SessionID: sessionID,
		Persisted: out.PersistErr == nil,
	})
}

func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	limit := queryInt(r, "limit", core.DefaultHistoryLimit)
	days := queryInt(r, "days", core.DefaultHistoryDays)

	interactions, err := h.history.RecentInteractions(userID, limit, days)
	if err != nil {
		log.Printf("Error listing history for user %s: %v", userID, err)
		http.Error(w, "Failed to list history", http.StatusInternalServerError)
		return
	}
	if interactions == nil {
		interactions = []store.Interaction{}
	}
	json.NewEncoder(w).Encode(interactions)
}

func (h *APIHandler) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	limit := queryInt(r, "limit", core.RestoreHistoryLimit)

	turns, err := h.history.RestoreChatHistory(userID, limit)
	if err != nil {
		log.Printf("Error restoring chat history for user %s: %v", userID, err)
		http.Error(w, "Failed to restore chat history", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(turns)
}

func (h *APIHandler) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	limit := queryInt(r, "limit", core.SessionListLimit)

	sessions, err := h.history.RecentSessions(userID, limit)
	if err != nil {
		log.Printf("Error listing sessions for user %s: %v", userID, err)
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	json.NewEncoder(w).Encode(sessions)
}

// DeleteUserDataHandler erases every record the service holds for the
// caller. Irreversible.
func (h *APIHandler) DeleteUserDataHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	if err := h.dbStore.ClearUserData(userID); err != nil {
		log.Printf("Error clearing data for user %s: %v", userID, err)
		http.Error(w, "Failed to clear user data", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
