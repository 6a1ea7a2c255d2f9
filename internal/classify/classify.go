// Package classify asks a hosted vision model to suggest item fields for a
// clothing photo.
package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/erazemk/omara/internal/model"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultBaseURL   = "https://api.anthropic.com"
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 1.0 // requests per second
	defaultBurst     = 3
	apiVersion       = "2023-06-01"
	maxTokens        = 300
	maxResponseSize  = 1 << 20
)

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("image classification is not configured")

	// ErrNoSuggestion is returned when the model's answer cannot be used.
	ErrNoSuggestion = errors.New("model returned no usable suggestion")
)

// Suggestion holds the fields proposed for a photo. It is never stored
// without the user confirming it.
type Suggestion struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Material string `json:"material"`
}

// Config configures a Client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client talks to an Anthropic Messages compatible endpoint.
type Client struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a client. A client without an API key is valid but every call
// returns ErrDisabled.
func New(cfg Config) *Client {
	m := cfg.Model
	if m == "" {
		m = defaultModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		model:      m,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func prompt() string {
	return "Identify the single clothing item in this photo. Reply with only a JSON object " +
		`with the keys "name", "category", "color" and "material". ` +
		"category must be one of: " + strings.Join(model.Categories, ", ") + ". " +
		"material should preferably be one of: " + strings.Join(model.Materials, ", ") + "."
}

// Classify sends the image to the model and parses its suggestion.
func (c *Client) Classify(ctx context.Context, image []byte, mimeType string) (Suggestion, error) {
	if !c.Enabled() {
		return Suggestion{}, ErrDisabled
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Suggestion{}, fmt.Errorf("rate limiter: %w", err)
	}

	req := messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{Type: "image", Source: &imageSource{
					Type:      "base64",
					MediaType: mimeType,
					Data:      base64.StdEncoding.EncodeToString(image),
				}},
				{Type: "text", Text: prompt()},
			},
		}},
	}

	text, err := c.doRequest(ctx, req)
	if err != nil {
		return Suggestion{}, err
	}

	s, err := parseSuggestion(text)
	if err != nil {
		slog.Warn("unusable classification answer", "error", err)
		return Suggestion{}, ErrNoSuggestion
	}
	return s, nil
}

func (c *Client) doRequest(ctx context.Context, req messagesRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("classification request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("API error (%d)", resp.StatusCode)
	}

	var mr messagesResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrNoSuggestion, err)
	}
	for _, block := range mr.Content {
		if block.Type == "text" || block.Type == "" {
			return block.Text, nil
		}
	}
	return "", ErrNoSuggestion
}

// parseSuggestion decodes the model's reply, tolerating a surrounding
// Markdown code fence. An unknown category is cleared.
func parseSuggestion(text string) (Suggestion, error) {
	text = stripFence(text)

	var s Suggestion
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return Suggestion{}, fmt.Errorf("decoding suggestion: %w", err)
	}

	s.Name = strings.TrimSpace(s.Name)
	s.Category = strings.ToLower(strings.TrimSpace(s.Category))
	s.Color = strings.TrimSpace(s.Color)
	s.Material = strings.ToLower(strings.TrimSpace(s.Material))
	if !model.ValidCategory(s.Category) {
		s.Category = ""
	}
	if s == (Suggestion{}) {
		return Suggestion{}, errors.New("empty suggestion")
	}
	return s, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Drop the language tag, if any, up to the first newline.
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
