package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/roasbeef/scrutiny/internal/config"
)

const (
	defaultAnthropicURL   = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion   = "2023-06-01"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
)

// anthropicTransport calls the Anthropic messages API directly over HTTP.
type anthropicTransport struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

func newAnthropicTransport(ai config.AIConfig) (transport, string, error) {
	if ai.APIKey == "" {
		return nil, "", fmt.Errorf(
			"%w: anthropic api key not set", ErrAuth,
		)
	}

	model := ai.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	baseURL := ai.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}

	return &anthropicTransport{
		apiKey:    ai.APIKey,
		model:     model,
		baseURL:   baseURL,
		maxTokens: ai.MaxTokens,
		client:    &http.Client{},
	}, model, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (t *anthropicTransport) complete(ctx context.Context, system,
	user string) (string, error) {

	payload, err := json.Marshal(anthropicRequest{
		Model:     t.model,
		MaxTokens: t.maxTokens,
		System:    system,
		Messages: []anthropicMessage{
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, t.baseURL, bytes.NewReader(payload),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", t.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v",
			ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited

	case resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden:

		return "", fmt.Errorf("%w: status %d", ErrAuth,
			resp.StatusCode)

	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable,
			resp.StatusCode)

	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("anthropic api error (status %d): %s",
			resp.StatusCode, body)
	}

	var result anthropicResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var text string
	for _, block := range result.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return text, nil
}
