package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusTeapot, map[string]string{"hello": "world"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "world", body["hello"])
}

func TestWriteJSONNilBody(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusOK, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteOK(w, map[string]string{"provider": "openai"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "openai", data["provider"])
}

func TestWriteBadRequest(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteBadRequest(w, "topic is required", map[string]interface{}{"field": "topic"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, "topic is required", resp.Message)
	assert.Equal(t, "topic", resp.Details["field"])
}

func TestWriteUnauthorizedDefaultMessage(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteUnauthorized(w, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unauthorized", resp.Error)
	assert.Equal(t, "Authentication required", resp.Message)
}

func TestWriteServiceUnavailable(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteServiceUnavailable(w, SuccessResponse{Data: map[string]string{"status": "unhealthy"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "unhealthy", data["status"])
}

func TestWriteErrorTypes(t *testing.T) {
	tests := []struct {
		status   int
		wantType string
	}{
		{http.StatusBadRequest, "bad_request"},
		{http.StatusUnauthorized, "unauthorized"},
		{http.StatusNotFound, "not_found"},
		{http.StatusBadGateway, "upstream_error"},
		{http.StatusGatewayTimeout, "upstream_timeout"},
		{http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		require.NoError(t, WriteError(w, tt.status, "boom", nil))
		assert.Equal(t, tt.status, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, tt.wantType, resp.Error)
	}
}
