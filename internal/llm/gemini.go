package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/roasbeef/scrutiny/internal/config"
)

const defaultGeminiModel = "gemini-2.0-flash"

// geminiTransport calls the Gemini API through the official genai client.
type geminiTransport struct {
	apiKey    string
	model     string
	maxTokens int
}

func newGeminiTransport(ai config.AIConfig) (transport, string, error) {
	if ai.APIKey == "" {
		return nil, "", fmt.Errorf(
			"%w: gemini api key not set", ErrAuth,
		)
	}

	model := ai.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &geminiTransport{
		apiKey:    ai.APIKey,
		model:     model,
		maxTokens: ai.MaxTokens,
	}, model, nil
}

func (t *geminiTransport) complete(ctx context.Context, system,
	user string) (string, error) {

	// The genai client is cheap to construct and carries the context, so
	// it is created per call rather than cached.
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: t.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(
			system, genai.RoleUser,
		),
		ResponseMIMEType: "application/json",
	}
	if t.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(t.maxTokens)
	}

	result, err := client.Models.GenerateContent(
		ctx, t.model, genai.Text(user), cfg,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response",
			ErrMalformedResponse)
	}

	return text, nil
}
