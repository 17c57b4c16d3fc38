package huggingface

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

// Config holds configuration for the Hugging Face inference API
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Adapter implements providers.Provider for the Hugging Face inference API
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Hugging Face adapter
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
	return "huggingface"
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxLength      int     `json:"max_length"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

// Complete performs an inference request.
// The API returns a JSON array of generations; the first one wins.
func (a *Adapter) Complete(ctx context.Context, req *providers.Request) (string, error) {
	body := inferenceRequest{
		Inputs: req.Prompt,
		Parameters: inferenceParameters{
			MaxLength:      500,
			Temperature:    0.7,
			ReturnFullText: false,
		},
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeRequestError, "failed to marshal request", 0, err)
	}

	url := fmt.Sprintf("%s/%s", a.config.BaseURL, a.config.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeRequestError, "failed to create request", 0, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

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
		message := fmt.Sprintf("upstream returned status %d", httpResp.StatusCode)
		return "", providers.NewProviderError(a.Name(), providers.CodeForStatus(httpResp.StatusCode), message, httpResp.StatusCode, nil)
	}

	var generations []generation
	if err := json.Unmarshal(respBody, &generations); err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeMalformedResponse, "failed to unmarshal response", httpResp.StatusCode, err)
	}

	if len(generations) == 0 {
		return "", providers.NewProviderError(a.Name(), providers.CodeMalformedResponse, "response contains no generations", httpResp.StatusCode, nil)
	}

	text := strings.TrimSpace(generations[0].GeneratedText)
	if text == "" {
		return "", providers.NewProviderError(a.Name(), providers.CodeEmptyResponse, "response payload is empty", httpResp.StatusCode, nil)
	}

	return text, nil
}
