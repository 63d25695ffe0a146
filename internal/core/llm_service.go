package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/learntube/careercoach/internal/config"
)

const defaultChatModelName = "gemini-1.5-flash-latest"

// Chat roles as supplied by the presentation layer.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a flat, ordered conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator is the external LLM capability: it turns an instruction plus an
// ordered message sequence into a single reply, or fails. Implementations
// must never substitute canned text for a runtime failure.
type Generator interface {
	Generate(ctx context.Context, systemInstruction string, messages []ChatMessage) (string, error)
}

// Specialist instruction texts, one per intent. Selection is driven by the
// same Classify result that tags the stored interaction.
var specialistInstructions = map[string]string{
	IntentProfileAnalysis.ID: "You are a LinkedIn profile optimization expert. Analyze the provided LinkedIn profile data and provide specific, actionable feedback for improvement. Focus on:\n\n" +
		"1. **Profile Completeness**: Missing sections, incomplete information\n" +
		"2. **Professional Branding**: Headline, summary, photo quality\n" +
		"3. **Experience Section**: Job descriptions, achievements, keywords\n" +
		"4. **Skills & Endorsements**: Relevant skills, skill gaps\n" +
		"5. **Network & Engagement**: Connection strategy, content sharing\n\n" +
		"Provide specific recommendations with examples where possible.",
	IntentJobFitAnalysis.ID: "You are a career advisor specializing in job-profile matching. Analyze the LinkedIn profile in context of job requirements. Focus on:\n\n" +
		"1. **Skills Alignment**: Match between profile skills and job requirements\n" +
		"2. **Experience Relevance**: How well past experience fits the target role\n" +
		"3. **Industry Knowledge**: Relevant industry experience and knowledge gaps\n" +
		"4. **Career Progression**: Logical career path and growth trajectory\n" +
		"5. **Missing Elements**: What's needed to be competitive for target roles\n\n" +
		"Provide a detailed analysis with improvement suggestions to better align with desired positions.",
	IntentContentEnhancement.ID: "You are a professional content writer specializing in LinkedIn optimization. Help enhance profile content for maximum impact. Focus on:\n\n" +
		"1. **Headline Optimization**: Compelling, keyword-rich headlines\n" +
		"2. **Summary/About Section**: Engaging professional narrative\n" +
		"3. **Experience Descriptions**: Achievement-focused bullet points with metrics\n" +
		"4. **Skills Presentation**: Strategic skill selection and ordering\n" +
		"5. **Content Strategy**: Post ideas, article topics, engagement tactics\n\n" +
		"Provide specific content suggestions, rewrites, and examples that will increase profile visibility and engagement.",
}

// SpecialistInstruction returns the instruction text for an intent, falling
// back to the profile analyst for unknown IDs.
func SpecialistInstruction(intent Intent) string {
	if instr, ok := specialistInstructions[intent.ID]; ok {
		return instr
	}
	return specialistInstructions[IntentProfileAnalysis.ID]
}

// LLMService implements Generator on top of the Gemini API.
type LLMService struct {
	client *genai.Client
}

func NewLLMService() (*LLMService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

// Generate sends the message sequence to the chat model. All turns except
// the final user message become chat history; assistant turns (including the
// context preamble) map to the model role.
func (s *LLMService) Generate(ctx context.Context, systemInstruction string, messages []ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("message sequence is empty")
	}
	last := messages[len(messages)-1]
	if last.Role != RoleUser {
		return "", fmt.Errorf("last message in sequence is not from %q, cannot generate", RoleUser)
	}

	model := s.client.GenerativeModel(defaultChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	var history []*genai.Content
	for _, msg := range messages[:len(messages)-1] {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	chatSession := model.StartChat()
	chatSession.History = history

	resp, err := chatSession.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}
	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini returned a non-text or empty response")
	}
	return responseText.String(), nil
}
