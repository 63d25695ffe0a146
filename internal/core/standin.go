package core

import "context"

const standinReply = "I'm here to help optimize your LinkedIn profile! Ask me about profile improvements, career advice, or content writing."

// StandinGenerator is the degraded-mode responder used when the LLM
// capability is unavailable at startup (no API key). It always answers with
// the same canned text, which makes the degradation obvious in any
// conversation. It is never used to paper over runtime failures.
type StandinGenerator struct{}

func NewStandinGenerator() *StandinGenerator {
	return &StandinGenerator{}
}

func (g *StandinGenerator) Generate(ctx context.Context, systemInstruction string, messages []ChatMessage) (string, error) {
	return standinReply, nil
}
