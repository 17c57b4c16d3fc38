package flashcards

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codetrack/ai-gateway/services"
	"github.com/codetrack/ai-gateway/services/providers"
	"github.com/codetrack/ai-gateway/services/router"
	"github.com/codetrack/ai-gateway/services/usage"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

// Router routes AI requests through the provider chain
type Router interface {
	Route(ctx context.Context, req *providers.Request) *router.Response
}

// Card is a single generated flashcard
type Card struct {
	Question          string `json:"question"`
	Answer            string `json:"answer"`
	Difficulty        string `json:"difficulty"`
	RevisionFrequency string `json:"revision_frequency"`
}

// Deck is the parsed payload of a flashcard-generation response
type Deck struct {
	Cards                  []Card `json:"flashcards"`
	TotalCards             int    `json:"total_cards"`
	SuggestedStudySchedule string `json:"suggested_study_schedule"`
}

// Result pairs a generated deck with routing metadata
type Result struct {
	Deck         *Deck  `json:"deck"`
	Provider     string `json:"provider"`
	FromFallback bool   `json:"from_fallback"`
}

// Service generates study flashcards through the AI router
type Service struct {
	router   Router
	recorder usage.Recorder
	logger   *zap.Logger
}

// NewService creates a new flashcard service
func NewService(r Router, rec usage.Recorder, logger *zap.Logger) *Service {
	return &Service{
		router:   r,
		recorder: rec,
		logger:   logger,
	}
}

// Generate creates a flashcard deck for a topic. The model's JSON payload is
// repaired before decoding since LLMs routinely emit slightly broken JSON.
func (s *Service) Generate(ctx context.Context, topic, difficulty string) (*Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "topic")
	}
	if difficulty == "" {
		difficulty = "intermediate"
	}

	req := &providers.Request{
		Kind:   providers.TaskFlashcards,
		Prompt: buildPrompt(topic, difficulty),
		Format: providers.FormatJSON,
		Params: map[string]string{
			"topic":      topic,
			"difficulty": difficulty,
		},
	}

	resp := s.router.Route(ctx, req)
	// Every router invocation is recorded, rejections included
	s.recorder.RecordResponse(req, resp)

	if !resp.Success {
		return nil, services.NewDomainError(services.ErrorTypeValidation, resp.FailureReason, nil)
	}

	deck, err := parseDeck(resp.Text)
	if err != nil {
		s.logger.Warn("unparseable flashcard payload",
			zap.String("provider", resp.Provider),
			zap.Error(err))
		return nil, services.WrapExternal("provider returned unparseable flashcards", err)
	}

	if deck.TotalCards == 0 {
		deck.TotalCards = len(deck.Cards)
	}

	s.logger.Info("flashcards generated",
		zap.String("topic", topic),
		zap.String("provider", resp.Provider),
		zap.Int("cards", len(deck.Cards)),
		zap.Bool("fallback", resp.FromFallback()))

	return &Result{
		Deck:         deck,
		Provider:     resp.Provider,
		FromFallback: resp.FromFallback(),
	}, nil
}

// parseDeck decodes the model's JSON, repairing it first when a strict decode fails
func parseDeck(text string) (*Deck, error) {
	var deck Deck
	if err := json.Unmarshal([]byte(text), &deck); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(text)
		if repairErr != nil {
			return nil, fmt.Errorf("repair failed: %w", repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &deck); err != nil {
			return nil, fmt.Errorf("decode failed after repair: %w", err)
		}
	}

	if len(deck.Cards) == 0 {
		return nil, fmt.Errorf("payload contains no flashcards")
	}

	return &deck, nil
}

// buildPrompt mirrors the flashcard prompt shape the tutoring product uses
func buildPrompt(topic, difficulty string) string {
	return fmt.Sprintf(`Create educational flashcards for the topic: %q

Requirements:
- Generate 5-15 flashcards based on topic complexity
- Include fundamental concepts, key terms, practical examples, and problem-solving questions
- Make questions clear and concise
- Provide comprehensive but not overwhelming answers
- Difficulty level: %s
- Include a mix of: definitions, explanations, examples, and application questions

Return a JSON object with this structure:
{
  "flashcards": [
    {
      "question": "Clear, specific question",
      "answer": "Comprehensive answer with examples if needed",
      "difficulty": "easy|medium|hard",
      "revision_frequency": "weekly|biweekly|monthly"
    }
  ],
  "total_cards": number,
  "suggested_study_schedule": "weekly|biweekly|monthly"
}

Make sure each flashcard is educational and helps with understanding the topic.`, topic, difficulty)
}
