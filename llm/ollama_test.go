package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"chess-scout/config"
)

func testClient(t *testing.T, url string, timeout time.Duration) *Client {
	cfg := &config.Config{OllamaURL: url, OllamaModel: "llama3.1:8b", OllamaTimeout: timeout}
	return NewClient(cfg, zaptest.NewLogger(t))
}

func TestChatSendsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1:8b", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[1].Content)
		assert.Equal(t, 0.1, req.Options["temperature"])
		assert.Equal(t, float64(8192), req.Options["num_ctx"])
		assert.Equal(t, "chess-scout/1.0", r.Header.Get("User-Agent"))

		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  [1,2]\n"}}`))
	}))
	defer srv.Close()

	out, err := testClient(t, srv.URL, 5*time.Second).Chat(context.Background(), "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", out)
}

func TestChatStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, 5*time.Second).Chat(context.Background(), "sys", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestChatTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, 20*time.Millisecond).Chat(context.Background(), "sys", "x")
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestChatUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testClient(t, url, time.Second).Chat(context.Background(), "sys", "x")
	assert.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
}
