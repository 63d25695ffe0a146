package core

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/learntube/careercoach/internal/store"
)

// Window limits for context assembly. Each call site keeps its own named
// constant; the source material used different numbers in different places
// and they are deliberately not unified.
const (
	historyFetchLimit = 20  // interactions pulled from storage per build
	historyWindowDays = 7   // how far back the storage window reaches
	recentTopicsLimit = 5   // summarized queries embedded in the preamble
	topicCharBudget   = 100 // characters kept per summarized query
)

// ContextBuilder assembles the contextual preamble that precedes every LLM
// exchange: profile identity, goals, preferences, and a summary of recent
// interactions pulled from the store.
type ContextBuilder struct {
	dbStore *store.SQLiteStore
}

func NewContextBuilder(db *store.SQLiteStore) *ContextBuilder {
	return &ContextBuilder{dbStore: db}
}

// Build produces the preamble text for one exchange. A history read failure
// is non-fatal: the preamble degrades to "no previous conversations" and the
// error is logged.
func (b *ContextBuilder) Build(userID string, profile *store.ProfileData, careerGoals []string, preferences map[string]string) string {
	history, err := b.dbStore.GetUserInteractionHistory(userID, historyFetchLimit, historyWindowDays)
	if err != nil {
		log.Printf("Failed to read interaction history for user %s, building context without it: %v", userID, err)
		history = nil
	}

	var recentTopics []string
	for i, interaction := range history {
		if i >= recentTopicsLimit {
			break
		}
		recentTopics = append(recentTopics, "User asked: "+truncate(interaction.Query, topicCharBudget))
	}

	name := "No profile data"
	headline := "No headline"
	if profile != nil {
		name = valueOr(profile.FullName, "Not provided")
		headline = valueOr(profile.Headline, "Not provided")
	}

	goals := "None specified"
	if len(careerGoals) > 0 {
		goals = strings.Join(careerGoals, ", ")
	}
	experienceLevel := preferences["experience_level"]
	if experienceLevel == "" {
		experienceLevel = "Mid Level"
	}
	focusAreas := valueOr(preferences["focus_areas"], "None specified")

	topics := "No previous conversations"
	if len(recentTopics) > 0 {
		topics = strings.Join(recentTopics, "\n")
	}

	profileDump := "No profile data available"
	if profile != nil {
		if dump, err := json.MarshalIndent(profile, "", "  "); err == nil {
			profileDump = string(dump)
		}
	}

	return fmt.Sprintf(`You are LearnTube's AI Career Coach with access to the user's LinkedIn profile and conversation history.

USER PROFILE:
- Name: %s
- Headline: %s
- Career Goals: %s
- Experience Level: %s
- Focus Areas: %s

RECENT CONVERSATION HISTORY:
%s

MEMORY CONTEXT:
- Total interactions: %d
- User has been active over multiple sessions
- Maintain continuity with previous conversations

PROFILE DATA:
%s

Provide personalized, actionable advice. Reference previous conversations when relevant to show continuity.`,
		name, headline, goals, experienceLevel, focusAreas, topics, len(history), profileDump)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func truncate(text string, budget int) string {
	runes := []rune(text)
	if len(runes) <= budget {
		return text + "..."
	}
	return string(runes[:budget]) + "..."
}
