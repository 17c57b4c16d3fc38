package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codetrack/ai-gateway/services/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(serverURL string) *Adapter {
	return New(Config{
		APIKey:  "hf-key",
		BaseURL: serverURL,
		Model:   "microsoft/DialoGPT-medium",
		Timeout: time.Second,
	})
}

func TestComplete(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq inferenceRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_, _ = w.Write([]byte(`[{"generated_text":" keep practicing every day "}]`))
	}))
	defer server.Close()

	a := newAdapter(server.URL)
	text, err := a.Complete(context.Background(), &providers.Request{
		Kind:   providers.TaskCompletion,
		Prompt: "any advice?",
	})
	require.NoError(t, err)

	assert.Equal(t, "keep practicing every day", text)
	assert.Equal(t, "/microsoft/DialoGPT-medium", gotPath)
	assert.Equal(t, "Bearer hf-key", gotAuth)
	assert.Equal(t, "any advice?", gotReq.Inputs)
	assert.Equal(t, 500, gotReq.Parameters.MaxLength)
	assert.False(t, gotReq.Parameters.ReturnFullText)
}

func TestCompleteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer server.Close()

	a := newAdapter(server.URL)
	_, err := a.Complete(context.Background(), &providers.Request{Prompt: "x"})

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, providers.CodeAuthFailed, provErr.Code)
	assert.Equal(t, "huggingface", provErr.Provider)
}

func TestCompleteNonArrayResponse(t *testing.T) {
	// Model-loading responses come back as an object, not an array
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"estimated_time":20.0}`))
	}))
	defer server.Close()

	a := newAdapter(server.URL)
	_, err := a.Complete(context.Background(), &providers.Request{Prompt: "x"})

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, providers.CodeMalformedResponse, provErr.Code)
}

func TestCompleteEmptyGenerations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	a := newAdapter(server.URL)
	_, err := a.Complete(context.Background(), &providers.Request{Prompt: "x"})

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, providers.CodeMalformedResponse, provErr.Code)
}

func TestCompleteEmptyGeneratedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"generated_text":"   "}]`))
	}))
	defer server.Close()

	a := newAdapter(server.URL)
	_, err := a.Complete(context.Background(), &providers.Request{Prompt: "x"})

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, providers.CodeEmptyResponse, provErr.Code)
}
