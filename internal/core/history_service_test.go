package core

import (
	"testing"

	"github.com/learntube/careercoach/internal/store"
)

func TestRecentInteractionsAppliesLimit(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewHistoryService(dbStore)

	for _, q := range []string{"a", "b", "c", "d"} {
		if err := dbStore.SaveInteraction(&store.Interaction{
			UserID: "user-1", Query: q, Response: "ok", AgentUsed: "profile_analysis",
		}); err != nil {
			t.Fatalf("seed interaction failed: %v", err)
		}
	}

	interactions, err := svc.RecentInteractions("user-1", 2, 7)
	if err != nil {
		t.Fatalf("RecentInteractions failed: %v", err)
	}
	if len(interactions) != 2 {
		t.Fatalf("expected 2 interactions, got %d", len(interactions))
	}
	if interactions[0].Query != "d" || interactions[1].Query != "c" {
		t.Errorf("not newest-first: %s, %s", interactions[0].Query, interactions[1].Query)
	}
}

func TestRecentInteractionsDefaults(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewHistoryService(dbStore)

	if _, err := svc.RecentInteractions("user-1", 0, 0); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
}

func TestRestoreChatHistory(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewHistoryService(dbStore)

	exchanges := []struct {
		query, response, agent string
	}{
		{"improve my profile", "add a summary", "profile_analysis"},
		{"rewrite my headline", "try this one", "content_enhancement"},
	}
	for _, e := range exchanges {
		if err := dbStore.SaveInteraction(&store.Interaction{
			UserID: "user-1", Query: e.query, Response: e.response, AgentUsed: e.agent,
		}); err != nil {
			t.Fatalf("seed interaction failed: %v", err)
		}
	}

	turns, err := svc.RestoreChatHistory("user-1", 20)
	if err != nil {
		t.Fatalf("RestoreChatHistory failed: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}

	// Oldest exchange first, user turn before assistant turn.
	if turns[0].Role != RoleUser || turns[0].Content != "improve my profile" {
		t.Errorf("turn 0 wrong: %+v", turns[0])
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != "add a summary" {
		t.Errorf("turn 1 wrong: %+v", turns[1])
	}
	if turns[1].Agent != "profile_analysis" || turns[1].AgentDisplay != "📊 Profile Optimizer" {
		t.Errorf("turn 1 agent metadata wrong: %+v", turns[1])
	}
	if turns[3].AgentDisplay != "✍️ Content Writer" {
		t.Errorf("turn 3 agent metadata wrong: %+v", turns[3])
	}
}

func TestRestoreChatHistoryEmpty(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewHistoryService(dbStore)

	turns, err := svc.RestoreChatHistory("nobody", 20)
	if err != nil {
		t.Fatalf("RestoreChatHistory failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected no turns for unknown user, got %d", len(turns))
	}
}

func TestRecentSessions(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewHistoryService(dbStore)

	for _, id := range []string{"sess-1", "sess-2"} {
		if err := dbStore.SaveSessionData(id, "user-1", &store.SessionData{}); err != nil {
			t.Fatalf("seed session failed: %v", err)
		}
	}

	sessions, err := svc.RecentSessions("user-1", 0)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sessions))
	}
}
