package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/learntube/careercoach/internal/store"
)

// chatHistoryTurns bounds how many caller-supplied turns travel with each
// exchange.
const chatHistoryTurns = 10

// Failure classes the orchestrator distinguishes. Generation failures abort
// the exchange with nothing persisted; persistence failures after a good
// generation are reported alongside the response instead of replacing it.
var (
	ErrGeneration  = errors.New("generation failed")
	ErrPersistence = errors.New("persistence failed")
)

// ConversationService composes the router, context builder, generator and
// store into one request/response cycle.
type ConversationService struct {
	dbStore        *store.SQLiteStore
	generator      Generator
	contextBuilder *ContextBuilder
}

func NewConversationService(db *store.SQLiteStore, generator Generator, contextBuilder *ContextBuilder) *ConversationService {
	return &ConversationService{
		dbStore:        db,
		generator:      generator,
		contextBuilder: contextBuilder,
	}
}

type ProcessInput struct {
	Message     string
	ChatHistory []ChatMessage
	UserID      string
	SessionID   string
	Profile     *store.ProfileData
	CareerGoals []string
	Preferences map[string]string
}

type ProcessOutput struct {
	Response string
	Intent   Intent
	// PersistErr is set when the exchange succeeded but could not be
	// recorded. The caller still gets the response; durability is best
	// effort at that point.
	PersistErr error
}

// Process runs one full exchange: classify the message, build the context
// preamble, assemble the bounded message sequence, invoke the generator, and
// record the interaction plus a session snapshot. A generation failure
// aborts the exchange with zero writes.
func (s *ConversationService) Process(ctx context.Context, input ProcessInput) (*ProcessOutput, error) {
	intent := Classify(input.Message)

	contextText := s.contextBuilder.Build(input.UserID, input.Profile, input.CareerGoals, input.Preferences)

	// The generator accepts only a flat message sequence, so the preamble
	// rides along as a leading assistant turn rather than a separate
	// system channel.
	messages := []ChatMessage{{Role: RoleAssistant, Content: contextText}}
	history := input.ChatHistory
	if len(history) > chatHistoryTurns {
		history = history[len(history)-chatHistoryTurns:]
	}
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: RoleUser, Content: input.Message})

	response, err := s.generator.Generate(ctx, SpecialistInstruction(intent), messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	out := &ProcessOutput{Response: response, Intent: intent}
	if err := s.record(input, intent, response); err != nil {
		log.Printf("Exchange for user %s succeeded but was not recorded: %v", input.UserID, err)
		out.PersistErr = fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return out, nil
}

// record writes the interaction and the session snapshot for a completed
// exchange.
func (s *ConversationService) record(input ProcessInput, intent Intent, response string) error {
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}

	interaction := &store.Interaction{
		UserID:    input.UserID,
		SessionID: sessionID,
		Query:     input.Message,
		Response:  response,
		AgentUsed: intent.ID,
		ContextData: &store.ContextData{
			AgentID:          intent.ID,
			CareerGoals:      input.CareerGoals,
			UserPreferences:  input.Preferences,
			ProfileAvailable: input.Profile != nil,
		},
	}
	if err := s.dbStore.SaveInteraction(interaction); err != nil {
		return err
	}

	sessionData := &store.SessionData{
		ChatHistoryLength:    len(input.ChatHistory) + 2, // this exchange included
		ProfileDataAvailable: input.Profile != nil,
		CareerGoalsCount:     len(input.CareerGoals),
		LastActivity:         time.Now(),
	}
	return s.dbStore.SaveSessionData(sessionID, input.UserID, sessionData)
}
