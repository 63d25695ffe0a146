package core

import "strings"

// Intent identifies one of the three specialist responders a message can be
// routed to.
type Intent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// Display returns the user-facing label, e.g. "📊 Profile Optimizer".
func (i Intent) Display() string {
	return i.Emoji + " " + i.Name
}

var (
	IntentProfileAnalysis    = Intent{ID: "profile_analysis", Name: "Profile Optimizer", Emoji: "📊"}
	IntentJobFitAnalysis     = Intent{ID: "job_fit_analysis", Name: "Career Advisor", Emoji: "🎯"}
	IntentContentEnhancement = Intent{ID: "content_enhancement", Name: "Content Writer", Emoji: "✍️"}
)

// Keyword sets are checked in declaration order and the first set with any
// match wins, so profile keywords shadow job keywords which shadow content
// keywords. The word lists are load-bearing: stored interactions are tagged
// with the resulting intent IDs.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentProfileAnalysis, []string{"optimize", "improve", "profile", "completeness", "gaps", "missing"}},
	{IntentJobFitAnalysis, []string{"job", "fit", "role", "career", "match", "alignment", "position"}},
	{IntentContentEnhancement, []string{"content", "headline", "summary", "writing", "enhance", "description", "rewrite"}},
}

// Classify routes a user message to a specialist intent by case-insensitive
// substring matching. Messages matching nothing fall back to profile
// analysis. Stateless and side-effect free.
func Classify(message string) Intent {
	lower := strings.ToLower(message)
	for _, set := range intentKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.intent
			}
		}
	}
	return IntentProfileAnalysis
}

// IntentByID resolves a stored agent_used ID back to its intent. Unknown IDs
// (e.g. rows written by an older build) get a generic label.
func IntentByID(id string) Intent {
	for _, set := range intentKeywords {
		if set.intent.ID == id {
			return set.intent
		}
	}
	return Intent{ID: id, Name: "AI Agent", Emoji: "🤖"}
}
