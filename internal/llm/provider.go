package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roasbeef/scrutiny/internal/analysis"
	"github.com/roasbeef/scrutiny/internal/config"
	"github.com/roasbeef/scrutiny/internal/redact"
)

// Reviewer is the boundary contract the review pipeline consumes: one call
// turns a source unit plus its analysis context into a validated AIReview.
type Reviewer interface {
	// Review runs one AI review. The implementation owns redaction,
	// prompt assembly, timeout, retries, and response parsing.
	Review(ctx context.Context, unit analysis.SourceUnit,
		contextText string) (AIReview, error)

	// Name returns the provider name for logging and persistence.
	Name() string

	// Model returns the model identifier in use.
	Model() string
}

// transport is the provider-specific half of a Reviewer: given assembled
// prompts, produce the raw model output.
type transport interface {
	complete(ctx context.Context, system, user string) (string, error)
}

// Client implements Reviewer over a concrete provider transport, adding the
// provider-independent behavior: secret redaction, prompt assembly, bounded
// timeout, retry with backoff, and response parsing.
type Client struct {
	transport transport
	provider  string
	model     string
	timeout   time.Duration

	log *slog.Logger
}

// New builds a Reviewer from configuration. Returns ErrNoProvider when no
// provider is configured, which callers treat as quick-path-only operation.
func New(cfg config.Config) (*Client, error) {
	ai := cfg.AI

	var (
		t     transport
		model string
		err   error
	)

	switch ai.Provider {
	case "":
		return nil, ErrNoProvider

	case "anthropic":
		t, model, err = newAnthropicTransport(ai)

	case "openai":
		t, model, err = newOpenAITransport(ai)

	case "ollama":
		t, model, err = newOllamaTransport(ai)

	case "gemini":
		t, model, err = newGeminiTransport(ai)

	default:
		return nil, fmt.Errorf("unknown ai provider %q", ai.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &Client{
		transport: t,
		provider:  ai.Provider,
		model:     model,
		timeout:   ai.Timeout(),
		log: slog.With(
			"component", "llm", "provider", ai.Provider,
		),
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return c.provider }

// Model returns the model identifier.
func (c *Client) Model() string { return c.model }

// Review implements Reviewer.
func (c *Client) Review(ctx context.Context, unit analysis.SourceUnit,
	contextText string) (AIReview, error) {

	// Secrets never leave the process: the model reviews redacted text.
	// Redaction preserves line counts, so issue line numbers in the
	// response still map onto the original source.
	source := redact.Secrets(unit.Text)
	user := buildUserPrompt(unit, contextText, source)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	var raw string
	err := retryWithBackoff(ctx, func() error {
		var callErr error
		raw, callErr = c.transport.complete(ctx, systemPrompt, user)
		return callErr
	})
	if err != nil {
		c.log.WarnContext(ctx, "AI review call failed",
			"file", unit.FileName, "err", err)
		return AIReview{}, err
	}

	review, status := ParseReview(raw)
	if status == ParseFailed {
		return AIReview{}, fmt.Errorf(
			"%w: no usable fields in response",
			ErrMalformedResponse,
		)
	}

	review.Provider = c.provider
	review.Model = c.model

	c.log.InfoContext(ctx, "AI review completed",
		"file", unit.FileName,
		"parse_status", status.String(),
		"new_findings", len(review.NewFindings),
		"false_positives", len(review.FalsePositives),
		"elapsed", time.Since(start))

	return review, nil
}
