// Package redact scrubs secret-shaped values from source text before it is
// sent to an external LLM provider. Detection is heuristic: the goal is to
// keep obvious credentials from leaving the process, not to guarantee
// exhaustive coverage.
package redact

import "regexp"

// Placeholder replaces detected secret values.
const Placeholder = "[REDACTED]"

// secretValuePatterns match secret values by their own shape, independent of
// surrounding context.
var secretValuePatterns = []*regexp.Regexp{
	// AWS access key IDs.
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),

	// JWTs: three base64url segments separated by dots.
	regexp.MustCompile(
		`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),

	// GitHub tokens.
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),

	// Slack tokens.
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),

	// Anthropic then OpenAI API keys; order matters, the sk-ant prefix
	// must match before the generic sk- form.
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),

	// Bearer tokens in headers.
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),

	// Private key blocks (the marker line is enough to flag the blob).
	regexp.MustCompile(`-----BEGIN\s+(?:RSA\s+)?PRIVATE KEY-----`),
}

// assignmentPattern matches quoted values assigned to secret-smelling names.
// Only the quoted value (group 2) is replaced so line numbers and the shape
// of the code survive for the reviewer.
var assignmentPattern = regexp.MustCompile(
	`(?i)(api[_-]?key|apikey|secret|token|password|passwd|credential` +
		`|private[_-]?key)(\s*[:=]\s*)["']([^"']{8,})["']`)

// Secrets returns text with every detected secret value replaced by the
// placeholder.
func Secrets(text string) string {
	result := assignmentPattern.ReplaceAllString(
		text, `$1$2"`+Placeholder+`"`,
	)

	for _, pat := range secretValuePatterns {
		result = pat.ReplaceAllString(result, Placeholder)
	}

	return result
}
