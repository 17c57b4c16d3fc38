package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/codetrack/ai-gateway/services/flashcards"
	"github.com/codetrack/ai-gateway/services/tutor"
	"github.com/codetrack/ai-gateway/utils"
	"go.uber.org/zap"
)

// FlashcardService generates study flashcards
type FlashcardService interface {
	Generate(ctx context.Context, topic, difficulty string) (*flashcards.Result, error)
}

// TutorService provides explanations and study plans
type TutorService interface {
	Explain(ctx context.Context, question, studentContext string) (*tutor.Explanation, error)
	StudyPlan(ctx context.Context, studentContext, requirements string) (*tutor.PlanResult, error)
}

// StudyHandler handles study feature HTTP requests
type StudyHandler struct {
	flashcards FlashcardService
	tutor      TutorService
	logger     *zap.Logger
}

// NewStudyHandler creates a new StudyHandler
func NewStudyHandler(fc FlashcardService, tu TutorService, logger *zap.Logger) *StudyHandler {
	return &StudyHandler{
		flashcards: fc,
		tutor:      tu,
		logger:     logger,
	}
}

// FlashcardsRequest is the request body for POST /api/v1/flashcards
type FlashcardsRequest struct {
	Topic      string `json:"topic" validate:"required,max=200"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy intermediate hard"`
}

// HandleFlashcards handles POST /api/v1/flashcards
func (h *StudyHandler) HandleFlashcards(w http.ResponseWriter, r *http.Request) {
	var body FlashcardsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
		return
	}

	if err := utils.ValidateStruct(&body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.flashcards.Generate(r.Context(), body.Topic, body.Difficulty)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

// ExplainRequest is the request body for POST /api/v1/tutor/explain
type ExplainRequest struct {
	Question string `json:"question" validate:"required"`
	Context  string `json:"context"`
}

// HandleExplain handles POST /api/v1/tutor/explain
func (h *StudyHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	var body ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
		return
	}

	if err := utils.ValidateStruct(&body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.tutor.Explain(r.Context(), body.Question, body.Context)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

// StudyPlanRequest is the request body for POST /api/v1/tutor/study-plan
type StudyPlanRequest struct {
	Context      string `json:"context" validate:"required"`
	Requirements string `json:"requirements"`
}

// HandleStudyPlan handles POST /api/v1/tutor/study-plan
func (h *StudyHandler) HandleStudyPlan(w http.ResponseWriter, r *http.Request) {
	var body StudyPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
		return
	}

	if err := utils.ValidateStruct(&body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.tutor.StudyPlan(r.Context(), body.Context, body.Requirements)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}
