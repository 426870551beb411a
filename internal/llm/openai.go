package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/roasbeef/scrutiny/internal/config"
)

const (
	defaultOpenAIModel = "gpt-4o"
	defaultOllamaURL   = "http://localhost:11434/v1"
	defaultOllamaModel = "llama3.1"
)

// openaiTransport calls any OpenAI-compatible chat completion endpoint.
// Both the openai provider and the local ollama provider ride on it; ollama
// exposes the same API surface without authentication.
type openaiTransport struct {
	client    *openai.Client
	model     string
	maxTokens int

	// jsonMode requests the structured-output response format. Disabled
	// for ollama, which not every local model supports.
	jsonMode bool
}

func newOpenAITransport(ai config.AIConfig) (transport, string, error) {
	if ai.APIKey == "" {
		return nil, "", fmt.Errorf(
			"%w: openai api key not set", ErrAuth,
		)
	}

	model := ai.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	clientCfg := openai.DefaultConfig(ai.APIKey)
	if ai.BaseURL != "" {
		clientCfg.BaseURL = ai.BaseURL
	}

	return &openaiTransport{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: ai.MaxTokens,
		jsonMode:  true,
	}, model, nil
}

func newOllamaTransport(ai config.AIConfig) (transport, string, error) {
	model := ai.Model
	if model == "" {
		model = defaultOllamaModel
	}
	baseURL := ai.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	// Ollama ignores the key but the client requires one.
	clientCfg := openai.DefaultConfig("ollama")
	clientCfg.BaseURL = baseURL

	return &openaiTransport{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: ai.MaxTokens,
	}, model, nil
}

func (t *openaiTransport) complete(ctx context.Context, system,
	user string) (string, error) {

	req := openai.ChatCompletionRequest{
		Model:     t.model,
		MaxTokens: t.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
	}
	if t.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices",
			ErrMalformedResponse)
	}

	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError maps client errors onto the package sentinels so the
// retry loop can tell transient failures from fatal ones.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case apiErr.HTTPStatusCode == 401 ||
			apiErr.HTTPStatusCode == 403:

			return fmt.Errorf("%w: %v", ErrAuth, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	// Non-API errors are transport failures (connection refused,
	// timeouts) and worth a retry.
	if strings.Contains(err.Error(), "context canceled") ||
		strings.Contains(err.Error(), "context deadline") {

		return err
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
