package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/learntube/careercoach/internal/api"
	"github.com/learntube/careercoach/internal/config"
	"github.com/learntube/careercoach/internal/core"
	"github.com/learntube/careercoach/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	config.AppConfig = config.Config{JWTSecret: "test-secret"}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	dbStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { dbStore.Close() })

	generator := core.NewStandinGenerator()
	contextBuilder := core.NewContextBuilder(dbStore)
	conversationService := core.NewConversationService(dbStore, generator, contextBuilder)
	historyService := core.NewHistoryService(dbStore)

	return api.NewRouter(api.NewAPIHandler(conversationService, historyService, dbStore))
}

func login(t *testing.T, srv http.Handler, userID string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"user_id": userID})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d, body=%s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return resp["token"]
}

func authedRequest(t *testing.T, srv http.Handler, method, path, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "user-1")

	// No profile yet.
	if w := authedRequest(t, srv, http.MethodGet, "/api/profile", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before save, got %d", w.Code)
	}

	body := []byte(`{
        "profile_data": {"fullName": "Ada Lovelace", "headline": "Engineer"},
        "career_goals": ["lead a team"],
        "preferences": {"experience_level": "Senior"}
    }`)
	if w := authedRequest(t, srv, http.MethodPut, "/api/profile", token, body); w.Code != http.StatusOK {
		t.Fatalf("profile save failed: %d, body=%s", w.Code, w.Body.String())
	}

	w := authedRequest(t, srv, http.MethodGet, "/api/profile", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("profile load failed: %d", w.Code)
	}
	var profile store.UserProfile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if profile.ProfileData == nil || profile.ProfileData.FullName != "Ada Lovelace" {
		t.Errorf("profile did not round-trip: %+v", profile.ProfileData)
	}
	if len(profile.CareerGoals) != 1 || profile.Preferences["experience_level"] != "Senior" {
		t.Errorf("goals/preferences did not round-trip: %+v", profile)
	}
}

func TestPostMessageFlow(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "user-1")

	body := []byte(`{"content": "How do I improve my profile?"}`)
	w := authedRequest(t, srv, http.MethodPost, "/api/messages", token, body)
	if w.Code != http.StatusOK {
		t.Fatalf("message post failed: %d, body=%s", w.Code, w.Body.String())
	}

	var resp api.PostMessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Response == "" {
		t.Error("expected a non-empty response")
	}
	if resp.Agent.ID != "profile_analysis" || resp.Agent.Display != "📊 Profile Optimizer" {
		t.Errorf("agent metadata wrong: %+v", resp.Agent)
	}
	if resp.SessionID == "" {
		t.Error("expected a minted session id on first contact")
	}
	if !resp.Persisted {
		t.Error("exchange should have been persisted")
	}

	// The exchange shows up in history.
	w = authedRequest(t, srv, http.MethodGet, "/api/history", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history failed: %d", w.Code)
	}
	var interactions []store.Interaction
	if err := json.Unmarshal(w.Body.Bytes(), &interactions); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(interactions) != 1 || interactions[0].Query != "How do I improve my profile?" {
		t.Errorf("interaction not recorded: %+v", interactions)
	}

	// And as restorable chat turns.
	w = authedRequest(t, srv, http.MethodGet, "/api/history/chat", token, nil)
	var turns []core.ChatTurn
	if err := json.Unmarshal(w.Body.Bytes(), &turns); err != nil {
		t.Fatalf("failed to decode chat history: %v", err)
	}
	if len(turns) != 2 || turns[0].Role != "user" || turns[1].Role != "assistant" {
		t.Errorf("chat turns wrong: %+v", turns)
	}

	// Session listing includes the minted session.
	w = authedRequest(t, srv, http.MethodGet, "/api/sessions", token, nil)
	var sessions []store.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("failed to decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != resp.SessionID {
		t.Errorf("session not recorded: %+v", sessions)
	}
}

func TestPostMessageEmptyContent(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "user-1")

	w := authedRequest(t, srv, http.MethodPost, "/api/messages", token, []byte(`{"content": ""}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d", w.Code)
	}
}

func TestDeleteUserData(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "user-1")

	body := []byte(`{"profile_data": {"fullName": "Ada Lovelace"}}`)
	if w := authedRequest(t, srv, http.MethodPut, "/api/profile", token, body); w.Code != http.StatusOK {
		t.Fatalf("profile save failed: %d", w.Code)
	}
	if w := authedRequest(t, srv, http.MethodPost, "/api/messages", token, []byte(`{"content": "hi, improve my profile"}`)); w.Code != http.StatusOK {
		t.Fatalf("message post failed: %d", w.Code)
	}

	if w := authedRequest(t, srv, http.MethodDelete, "/api/me", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("erasure failed: %d", w.Code)
	}

	if w := authedRequest(t, srv, http.MethodGet, "/api/profile", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("profile survived erasure: %d", w.Code)
	}
	w := authedRequest(t, srv, http.MethodGet, "/api/history", token, nil)
	var interactions []store.Interaction
	if err := json.Unmarshal(w.Body.Bytes(), &interactions); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(interactions) != 0 {
		t.Errorf("interactions survived erasure: %+v", interactions)
	}
}
