package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLoadDefaults verifies loading with no file and no env yields the
// documented defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, DefaultComplexityThreshold, cfg.ComplexityThreshold)
	require.Equal(t, DefaultIssueDisplayCap, cfg.IssueDisplayCap)
	require.Equal(t, DefaultCriticalWeight, cfg.Weights.Critical)
	require.Equal(t, DefaultAITimeoutSeconds, cfg.AI.TimeoutSeconds)
	require.Empty(t, cfg.AI.Provider)
}

// TestLoadFileOverridesDefaults verifies YAML values win over defaults
// while unspecified and unrecognized keys are handled.
func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrutiny.yaml")
	content := []byte(`
complexity_threshold: 15
issue_display_cap: 5
score_weights:
  critical: 20
ai:
  provider: ollama
  model: llama3
not_a_real_key: ignored
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 15, cfg.ComplexityThreshold)
	require.Equal(t, 5, cfg.IssueDisplayCap)
	require.Equal(t, 20, cfg.Weights.Critical)
	require.Equal(t, "ollama", cfg.AI.Provider)
	require.Equal(t, "llama3", cfg.AI.Model)

	// Keys absent from the file keep their defaults.
	require.Equal(t, DefaultLongLineThreshold, cfg.LongLineThreshold)
}

// TestLoadEnvOverridesFile verifies env variables win over the file.
func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrutiny.yaml")
	require.NoError(t, os.WriteFile(
		path, []byte("complexity_threshold: 15\n"), 0600,
	))

	t.Setenv("SCRUTINY_COMPLEXITY_THRESHOLD", "25")
	t.Setenv("SCRUTINY_AI_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 25, cfg.ComplexityThreshold)
	require.Equal(t, "anthropic", cfg.AI.Provider)
	require.Equal(t, "test-key", cfg.AI.APIKey)
}

// TestValidateRejectsBadValues verifies validation failures.
func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero complexity", func(c *Config) {
			c.ComplexityThreshold = 0
		}},
		{"negative weight", func(c *Config) {
			c.Weights.Low = -1
		}},
		{"zero timeout", func(c *Config) {
			c.AI.TimeoutSeconds = 0
		}},
		{"unknown provider", func(c *Config) {
			c.AI.Provider = "skynet"
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
