package inventree

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	domainerrors "github.com/vsinha/mrp/internal/domain/errors"
)

// retryTransport wraps an http.RoundTripper with the retry policy of
// spec §7: 3 attempts, base 500ms backoff, ±20% jitter, retrying on
// network errors and 5xx responses. No ecosystem HTTP-retry library
// was found anywhere in the retrieved pack (see DESIGN.md), so this is
// hand-rolled, matching the rest of the module's plain net/http usage.
type retryTransport struct {
	next     http.RoundTripper
	attempts int
	base     time.Duration
}

func newRetryTransport(next http.RoundTripper) *retryTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &retryTransport{next: next, attempts: 3, base: 500 * time.Millisecond}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < t.attempts; attempt++ {
		if attempt > 0 {
			if err := sleepWithJitter(req.Context(), t.base*time.Duration(1<<uint(attempt-1))); err != nil {
				return nil, err
			}
		}

		resp, err := t.next.RoundTrip(req)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("server error: %s", resp.Status)
			resp.Body.Close()
		}
	}
	return nil, &domainerrors.TransportError{Op: req.URL.Path, Err: lastErr}
}

// sleepWithJitter sleeps for base ± 20%, or returns the context's
// cancellation/deadline error if it fires first.
func sleepWithJitter(ctx context.Context, base time.Duration) error {
	jitter := time.Duration(float64(base) * (0.8 + 0.4*rand.Float64()))
	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newRetryTransport(nil),
	}
}
