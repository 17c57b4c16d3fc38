package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codetrack/ai-gateway/services/providers"
)

// Config holds configuration for an OpenAI-compatible endpoint
type Config struct {
	// Name identifies the provider ("openai", "deepseek", "openrouter")
	Name string

	// APIKey for the bearer credential header
	APIKey string

	// BaseURL of the API (e.g., "https://api.deepseek.com/v1")
	BaseURL string

	// Model to request
	Model string

	// Timeout for the HTTP client. The router additionally bounds each call
	// with a per-candidate context deadline.
	Timeout time.Duration
}

// Adapter implements providers.Provider for OpenAI-compatible chat APIs.
// DeepSeek and OpenRouter expose the same wire format as OpenAI, so one
// adapter serves all three with different base URLs and models.
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// New creates a new OpenAI-compatible adapter
func New(config Config) *Adapter {
	if config.Timeout == 0 {
		config.Timeout = providers.HTTPTimeout
	}

	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return a.config.Name
}

// chatRequest is the provider wire request
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the provider wire response
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Complete performs a chat completion request
func (a *Adapter) Complete(ctx context.Context, req *providers.Request) (string, error) {
	body := chatRequest{
		Model:       a.config.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   2000,
		Temperature: 0.7,
	}
	if req.Format == providers.FormatJSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeRequestError, "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeRequestError, "failed to create request", 0, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			// Let the router classify context deadline/cancellation
			return "", ctx.Err()
		}
		return "", providers.NewProviderError(a.Name(), providers.CodeHTTPError, "HTTP request failed", 0, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeHTTPError, "failed to read response", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeMalformedResponse, "failed to unmarshal response", httpResp.StatusCode, err)
	}

	if len(resp.Choices) == 0 {
		return "", providers.NewProviderError(a.Name(), providers.CodeMalformedResponse, "response contains no choices", httpResp.StatusCode, nil)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", providers.NewProviderError(a.Name(), providers.CodeEmptyResponse, "response payload is empty", httpResp.StatusCode, nil)
	}

	return text, nil
}

// handleErrorResponse converts a non-2xx response into a ProviderError
func (a *Adapter) handleErrorResponse(status int, body []byte) *providers.ProviderError {
	var resp chatResponse
	message := fmt.Sprintf("upstream returned status %d", status)
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil && resp.Error.Message != "" {
		message = resp.Error.Message
	}

	return providers.NewProviderError(a.Name(), providers.CodeForStatus(status), message, status, nil)
}
