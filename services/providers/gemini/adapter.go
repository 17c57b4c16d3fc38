package gemini

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

// Config holds configuration for the Gemini REST API
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Adapter implements providers.Provider for the Google Gemini generateContent API
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Gemini adapter
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
	return "gemini"
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Complete performs a generateContent request
func (a *Adapter) Complete(ctx context.Context, req *providers.Request) (string, error) {
	prompt := req.Prompt
	if req.Format == providers.FormatJSON {
		// Gemini has no response_format knob on this endpoint; ask in the prompt
		prompt += "\n\nPlease respond with valid JSON format."
	}

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeRequestError, "failed to marshal request", 0, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", a.config.BaseURL, a.config.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeRequestError, "failed to create request", 0, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", a.config.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
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
		var resp generateResponse
		message := fmt.Sprintf("upstream returned status %d", httpResp.StatusCode)
		if err := json.Unmarshal(respBody, &resp); err == nil && resp.Error != nil && resp.Error.Message != "" {
			message = resp.Error.Message
		}
		return "", providers.NewProviderError(a.Name(), providers.CodeForStatus(httpResp.StatusCode), message, httpResp.StatusCode, nil)
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeMalformedResponse, "failed to unmarshal response", httpResp.StatusCode, err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", providers.NewProviderError(a.Name(), providers.CodeMalformedResponse, "response contains no candidates", httpResp.StatusCode, nil)
	}

	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", providers.NewProviderError(a.Name(), providers.CodeEmptyResponse, "response payload is empty", httpResp.StatusCode, nil)
	}

	return text, nil
}
