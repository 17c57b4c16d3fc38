package providers

import (
	"context"
	"time"
)

// TaskKind identifies the kind of AI task a request represents
type TaskKind string

const (
	// TaskFlashcards generates study flashcards for a topic
	TaskFlashcards TaskKind = "flashcard-generation"

	// TaskTutorExplanation explains a programming concept to a student
	TaskTutorExplanation TaskKind = "tutoring-explanation"

	// TaskStudyPlan generates a multi-week study plan
	TaskStudyPlan TaskKind = "study-plan"

	// TaskCompletion is a generic free-form completion
	TaskCompletion TaskKind = "generic-completion"
)

// Valid reports whether the task kind is one of the known kinds
func (k TaskKind) Valid() bool {
	switch k {
	case TaskFlashcards, TaskTutorExplanation, TaskStudyPlan, TaskCompletion:
		return true
	}
	return false
}

// Capability returns the capability tag preferred for this task kind.
// Flashcard generation leans on code-oriented models; the rest are general.
func (k TaskKind) Capability() Capability {
	switch k {
	case TaskFlashcards:
		return CapabilityCode
	default:
		return CapabilityGeneral
	}
}

// Capability is a coarse hint used to reorder (never filter) candidate providers
type Capability string

const (
	CapabilityCode    Capability = "code"
	CapabilityGeneral Capability = "general"
)

// ResponseFormat selects the payload shape requested from the provider
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// Request is a task description routed to an upstream AI provider
type Request struct {
	// Kind of task (flashcards, tutoring, study plan, completion)
	Kind TaskKind `json:"kind"`

	// Prompt is the free-text task content. Must be non-empty.
	Prompt string `json:"prompt"`

	// Format requests plain text or a JSON payload
	Format ResponseFormat `json:"format,omitempty"`

	// Params carries optional structured parameters (topic, difficulty, weeks)
	Params map[string]string `json:"params,omitempty"`
}

// Provider represents one upstream AI completion service
type Provider interface {
	// Name returns the provider name (e.g., "openai", "deepseek", "gemini")
	Name() string

	// Complete sends the prompt upstream and returns the response text.
	// A non-nil error is always a *ProviderError or a context error.
	Complete(ctx context.Context, req *Request) (string, error)
}

// ProviderError represents an error reported by (or on behalf of) a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Provider error codes
const (
	CodeAuthFailed        = "AUTH_FAILED"
	CodeQuotaExceeded     = "QUOTA_EXCEEDED"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodeEmptyResponse     = "EMPTY_RESPONSE"
	CodeHTTPError         = "HTTP_ERROR"
	CodeRequestError      = "REQUEST_ERROR"
)

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// CodeForStatus maps an HTTP status code to a provider error code
func CodeForStatus(status int) string {
	switch status {
	case 401, 403:
		return CodeAuthFailed
	case 402, 429:
		return CodeQuotaExceeded
	default:
		return CodeHTTPError
	}
}

// HTTPTimeout is the default per-call timeout when a candidate carries none
const HTTPTimeout = 30 * time.Second
