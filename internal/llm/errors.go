package llm

import "errors"

var (
	// ErrAuth indicates the provider rejected our credentials. Never
	// retried.
	ErrAuth = errors.New("provider authentication failed")

	// ErrRateLimited indicates the provider throttled the request.
	// Retried with backoff.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrUnavailable indicates a transport-level failure: timeout,
	// connection refused, or a 5xx from the provider. Retried with
	// backoff.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrMalformedResponse indicates the provider answered but nothing
	// usable could be parsed from the response.
	ErrMalformedResponse = errors.New("provider response malformed")

	// ErrNoProvider indicates no AI provider is configured.
	ErrNoProvider = errors.New("no ai provider configured")
)

// retryable reports whether an error is worth retrying: rate limits and
// transient transport failures are, auth and parse failures are not.
func retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
