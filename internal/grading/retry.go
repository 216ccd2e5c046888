package grading

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultMaxRetries bounds grading attempts per submission.
	DefaultMaxRetries = 5

	backoffUnit = time.Second
	jitterBound = time.Second
)

// isRetryable reports whether a failed attempt may be retried: provider
// rate limiting (429), transient unavailability (503), or a schema
// violation. Everything else fails fast rather than burning the retry
// budget.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSchemaViolation) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode == http.StatusServiceUnavailable
	}
	return false
}

// backoffDelay returns the pause before retry attempt k: 2^k seconds plus
// full jitter so concurrent retries within a batch desynchronize.
func backoffDelay(attempt int, jitter func() time.Duration) time.Duration {
	return time.Duration(1<<uint(attempt))*backoffUnit + jitter()
}

func defaultJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(jitterBound)))
}

// sleepContext pauses for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
