package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewGeminiClient(Config{
		APIKey:   "test-key",
		Endpoint: server.URL,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewGeminiClientRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(Config{}, zap.NewNop())
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestAnalyzeReturnsModelText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "analyze this", req.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateResponse{
			Candidates: []candidate{{Content: content{Parts: []part{{Text: "the analysis"}}}}},
		})
	})

	text, err := c.Analyze(context.Background(), "analyze this")

	require.NoError(t, err)
	assert.Equal(t, "the analysis", text)
}

func TestAnalyzeImageSendsInlineData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents[0].Parts, 2)

		data := req.Contents[0].Parts[1].InlineData
		require.NotNil(t, data)
		assert.Equal(t, "image/jpeg", data.MimeType)
		assert.NotEmpty(t, data.Data)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateResponse{
			Candidates: []candidate{{Content: content{Parts: []part{{Text: "image analysis"}}}}},
		})
	})

	text, err := c.AnalyzeImage(context.Background(), "look at this", []byte{0xFF, 0xD8}, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "image analysis", text)
}

func TestAnalyzeMapsRateLimitError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "message": "quota exceeded"},
		})
	})

	_, err := c.Analyze(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestAnalyzeMapsBlockedPrompt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateResponse{
			PromptFeedback: &promptFeedback{BlockReason: "SAFETY"},
		})
	})

	_, err := c.Analyze(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrBlocked)
}

func TestAnalyzeEmptyCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{})
	})

	_, err := c.Analyze(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrEmptyResponse)
}
