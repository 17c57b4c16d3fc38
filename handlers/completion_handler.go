package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/codetrack/ai-gateway/services/providers"
	"github.com/codetrack/ai-gateway/services/router"
	"github.com/codetrack/ai-gateway/services/usage"
	"github.com/codetrack/ai-gateway/utils"
	"go.uber.org/zap"
)

// RouterService routes AI requests through the provider chain
type RouterService interface {
	Route(ctx context.Context, req *providers.Request) *router.Response
	Providers() []router.ProviderStatus
}

// CompletionHandler handles generic completion HTTP requests
type CompletionHandler struct {
	router   RouterService
	recorder usage.Recorder
	logger   *zap.Logger
}

// NewCompletionHandler creates a new CompletionHandler
func NewCompletionHandler(router RouterService, recorder usage.Recorder, logger *zap.Logger) *CompletionHandler {
	return &CompletionHandler{
		router:   router,
		recorder: recorder,
		logger:   logger,
	}
}

// CompletionRequest is the request body for POST /api/v1/completions
type CompletionRequest struct {
	Prompt   string `json:"prompt" validate:"required"`
	TaskKind string `json:"task_kind" validate:"omitempty,oneof=flashcard-generation tutoring-explanation study-plan generic-completion"`
	Format   string `json:"format" validate:"omitempty,oneof=text json"`
}

// attemptView is the wire shape of one provider attempt
type attemptView struct {
	Provider  string `json:"provider"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// CompletionResponse is the response body for a routed completion
type CompletionResponse struct {
	ID           string        `json:"id"`
	Provider     string        `json:"provider"`
	Text         string        `json:"text"`
	FromFallback bool          `json:"from_fallback"`
	LatencyMs    int64         `json:"latency_ms"`
	Attempts     []attemptView `json:"attempts,omitempty"`
}

// HandleCompletion handles POST /api/v1/completions
func (h *CompletionHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	var body CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = utils.WriteBadRequest(w, "invalid JSON body", nil)
		return
	}

	if err := utils.ValidateStruct(&body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	kind := providers.TaskKind(body.TaskKind)
	if body.TaskKind == "" {
		kind = providers.TaskCompletion
	}

	format := providers.FormatText
	if body.Format == string(providers.FormatJSON) {
		format = providers.FormatJSON
	}

	req := &providers.Request{
		Kind:   kind,
		Prompt: body.Prompt,
		Format: format,
	}

	resp := h.router.Route(r.Context(), req)
	h.recorder.RecordResponse(req, resp)

	if !resp.Success {
		_ = utils.WriteBadRequest(w, resp.FailureReason, nil)
		return
	}

	_ = utils.WriteOK(w, toCompletionResponse(resp))
}

// HandleProviders handles GET /api/v1/providers
func (h *CompletionHandler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, map[string]interface{}{
		"providers": h.router.Providers(),
		"fallback":  true,
	})
}

func toCompletionResponse(resp *router.Response) CompletionResponse {
	attempts := make([]attemptView, 0, len(resp.Attempts))
	for _, a := range resp.Attempts {
		attempts = append(attempts, attemptView{
			Provider:  a.Provider,
			Outcome:   string(a.Outcome),
			Reason:    a.Reason,
			LatencyMs: a.Latency.Milliseconds(),
		})
	}

	return CompletionResponse{
		ID:           resp.ID.String(),
		Provider:     resp.Provider,
		Text:         resp.Text,
		FromFallback: resp.FromFallback(),
		LatencyMs:    resp.Latency.Milliseconds(),
		Attempts:     attempts,
	}
}
