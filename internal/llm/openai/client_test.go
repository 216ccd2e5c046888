package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradebatch/internal/llm"
)

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{APIKey: "   "})
	assert.Error(t, err)

	c, err := NewClient(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.model)

	c, err = NewClient(Config{APIKey: "sk-test", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.model)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)
	return c
}

func TestGradeSubmission_ReturnsRawPayload(t *testing.T) {
	var gotReq map[string]any
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"total_score\":\"9/10\",\"breakdown\":[{\"feedback\":\"solid\"}]}"}}]}`))
	})

	raw, err := c.GradeSubmission(context.Background(), llm.GradeInput{
		Policy:         "p",
		AssignmentText: "a",
		RubricText:     "r",
		SubmissionText: "s",
		FileName:       "alice.txt",
	})
	require.NoError(t, err)

	out, err := llm.DecodeGradeOutput(raw)
	require.NoError(t, err)
	assert.Equal(t, "9/10", out.TotalScore)

	// the request must carry the enforced response schema and both messages
	rf, ok := gotReq["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", rf["type"])
	messages, ok := gotReq["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestGradeSubmission_SurfacesProviderStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})

	_, err := c.GradeSubmission(context.Background(), llm.GradeInput{FileName: "bob.txt"})
	require.Error(t, err)

	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.HTTPStatusCode)
}

func TestGradeSubmission_NoChoices(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.GradeSubmission(context.Background(), llm.GradeInput{FileName: "carol.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
