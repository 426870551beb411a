// Package config loads and validates the daemon configuration. Settings
// merge in a fixed order: built-in defaults, then the YAML config file, then
// SCRUTINY_* environment variables. The resulting Config is an immutable
// snapshot passed by value into each component at construction; nothing
// reads configuration from ambient state after startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for every tunable. Missing keys in the config file fall back to
// these; unrecognized keys are ignored by the YAML decoder.
const (
	DefaultComplexityThreshold   = 10
	DefaultLongLineThreshold     = 120
	DefaultLongFunctionThreshold = 50
	DefaultIssueDisplayCap       = 20
	DefaultMaxFileSize           = 5 * 1024 * 1024
	DefaultAITimeoutSeconds      = 60
	DefaultAIMaxTokens           = 4096
	DefaultPoolSize              = 4
)

// Default score weights: points deducted per issue by severity.
const (
	DefaultCriticalWeight = 15
	DefaultMediumWeight   = 5
	DefaultLowWeight      = 1
)

// ScoreWeights are the per-severity deductions used to compute the quality
// score.
type ScoreWeights struct {
	Critical int `yaml:"critical"`
	Medium   int `yaml:"medium"`
	Low      int `yaml:"low"`
}

// AIConfig configures the LLM provider transport.
type AIConfig struct {
	// Provider selects the transport: anthropic, openai, gemini, or
	// ollama. Empty disables AI review (quick path only).
	Provider string `yaml:"provider"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model"`

	// APIKey authenticates with the provider. Usually set via env.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider endpoint (used by ollama and
	// openai-compatible servers).
	BaseURL string `yaml:"base_url"`

	// TimeoutSeconds bounds one review call end to end, retries
	// included.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MaxTokens caps the response size requested from the provider.
	MaxTokens int `yaml:"max_tokens"`
}

// Timeout returns the AI call timeout as a duration.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Config is the full daemon configuration snapshot.
type Config struct {
	// Analysis thresholds.
	ComplexityThreshold   int `yaml:"complexity_threshold"`
	LongLineThreshold     int `yaml:"long_line_threshold"`
	LongFunctionThreshold int `yaml:"long_function_threshold"`

	// IssueDisplayCap bounds how many issues the prompt context lists.
	IssueDisplayCap int `yaml:"issue_display_cap"`

	// MaxFileSize is the largest accepted source file in bytes.
	MaxFileSize int `yaml:"max_file_size"`

	// PoolSize is the number of concurrent review pipeline workers.
	PoolSize int `yaml:"pool_size"`

	// Weights are the score deductions per severity.
	Weights ScoreWeights `yaml:"score_weights"`

	// AI configures the LLM provider.
	AI AIConfig `yaml:"ai"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ComplexityThreshold:   DefaultComplexityThreshold,
		LongLineThreshold:     DefaultLongLineThreshold,
		LongFunctionThreshold: DefaultLongFunctionThreshold,
		IssueDisplayCap:       DefaultIssueDisplayCap,
		MaxFileSize:           DefaultMaxFileSize,
		PoolSize:              DefaultPoolSize,
		Weights: ScoreWeights{
			Critical: DefaultCriticalWeight,
			Medium:   DefaultMediumWeight,
			Low:      DefaultLowWeight,
		},
		AI: AIConfig{
			TimeoutSeconds: DefaultAITimeoutSeconds,
			MaxTokens:      DefaultAIMaxTokens,
		},
	}
}

// Load builds the configuration snapshot: defaults, overridden by the YAML
// file at path (if non-empty), overridden by environment variables. The
// returned config is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf(
				"failed to read config file: %w", err,
			)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf(
				"failed to parse config file: %w", err,
			)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyEnv overlays SCRUTINY_* environment variables onto the config.
func applyEnv(cfg *Config) {
	envString("SCRUTINY_AI_PROVIDER", &cfg.AI.Provider)
	envString("SCRUTINY_AI_MODEL", &cfg.AI.Model)
	envString("SCRUTINY_AI_API_KEY", &cfg.AI.APIKey)
	envString("SCRUTINY_AI_BASE_URL", &cfg.AI.BaseURL)
	envInt("SCRUTINY_AI_TIMEOUT_SECONDS", &cfg.AI.TimeoutSeconds)
	envInt("SCRUTINY_AI_MAX_TOKENS", &cfg.AI.MaxTokens)

	envInt("SCRUTINY_COMPLEXITY_THRESHOLD", &cfg.ComplexityThreshold)
	envInt("SCRUTINY_LONG_LINE_THRESHOLD", &cfg.LongLineThreshold)
	envInt("SCRUTINY_LONG_FUNCTION_THRESHOLD", &cfg.LongFunctionThreshold)
	envInt("SCRUTINY_ISSUE_DISPLAY_CAP", &cfg.IssueDisplayCap)
	envInt("SCRUTINY_MAX_FILE_SIZE", &cfg.MaxFileSize)
	envInt("SCRUTINY_POOL_SIZE", &cfg.PoolSize)

	// Provider API keys also resolve from the conventional variables so
	// users do not have to duplicate them.
	if cfg.AI.APIKey == "" {
		switch cfg.AI.Provider {
		case "anthropic":
			cfg.AI.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// envString overlays a string env var when set and non-empty.
func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// envInt overlays an integer env var when set and parseable.
func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

// Validate checks the configuration for values the pipeline cannot operate
// with.
func (c Config) Validate() error {
	if c.ComplexityThreshold <= 0 {
		return fmt.Errorf("complexity_threshold must be positive, "+
			"got %d", c.ComplexityThreshold)
	}
	if c.LongLineThreshold <= 0 {
		return fmt.Errorf("long_line_threshold must be positive, "+
			"got %d", c.LongLineThreshold)
	}
	if c.LongFunctionThreshold <= 0 {
		return fmt.Errorf("long_function_threshold must be "+
			"positive, got %d", c.LongFunctionThreshold)
	}
	if c.IssueDisplayCap <= 0 {
		return fmt.Errorf("issue_display_cap must be positive, "+
			"got %d", c.IssueDisplayCap)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d",
			c.MaxFileSize)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be positive, got %d",
			c.PoolSize)
	}
	if c.Weights.Critical < 0 || c.Weights.Medium < 0 ||
		c.Weights.Low < 0 {

		return fmt.Errorf("score weights must be non-negative")
	}
	if c.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("ai.timeout_seconds must be positive, "+
			"got %d", c.AI.TimeoutSeconds)
	}

	switch c.AI.Provider {
	case "", "anthropic", "openai", "gemini", "ollama":
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}

	return nil
}
