package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"chess-scout/config"
)

var (
	// ErrUnavailable bedeutet, dass Ollama nicht erreichbar ist.
	ErrUnavailable = errors.New("could not connect to ollama")
	// ErrTimeout bedeutet, dass Ollama nicht rechtzeitig geantwortet hat.
	ErrTimeout = errors.New("ollama request timed out")
)

// CustomTransport fügt jeder Anfrage einen User-Agent-Header hinzu.
type CustomTransport struct {
	Transport http.RoundTripper
}

func (t *CustomTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "chess-scout/1.0")
	return t.Transport.RoundTrip(req)
}

// Message ist eine Chat-Nachricht im Ollama-Format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Error   string  `json:"error,omitempty"`
}

// Client spricht mit dem /api/chat-Endpunkt von Ollama.
type Client struct {
	URL    string
	Model  string
	HTTP   *http.Client
	Logger *zap.Logger
}

// NewClient erstellt einen Client aus der Konfiguration.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		URL:   cfg.OllamaURL,
		Model: cfg.OllamaModel,
		HTTP: &http.Client{
			Timeout:   cfg.OllamaTimeout,
			Transport: &CustomTransport{Transport: http.DefaultTransport},
		},
		Logger: logger,
	}
}

// Chat sendet System- und Nutzer-Prompt ohne Streaming und gibt den Antworttext zurück.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model: c.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
		Options: map[string]any{
			"temperature": 0.1,
			"top_p":       0.9,
			"num_ctx":     8192,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	c.Logger.Debug("Ollama-Antwort erhalten",
		zap.String("model", c.Model),
		zap.Int("chars", len(out.Message.Content)),
		zap.Duration("duration", time.Since(start)))
	return strings.TrimSpace(out.Message.Content), nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
