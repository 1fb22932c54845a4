package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giftwell/edgegate/internal/core"
)

// maxVerifyBody caps how much of an upstream response is read.
const maxVerifyBody = 1 << 20

type verifyPayload struct {
	App string `json:"app"`
}

// Verify asks the upstream whether the session token is currently valid
// and classifies the answer. Network-level failures (including per-attempt
// timeouts) are retried with linear backoff; an HTTP response of any
// status is an answer and is never retried. When all attempts fail the
// error is returned and the caller must treat the outcome as unavailable,
// never as authenticated or denied.
func (c *Client) Verify(ctx context.Context, token string) (core.Decision, error) {
	status, body, err := c.RawVerify(ctx, token)
	if err != nil {
		return core.Decision{}, err
	}
	return core.ClassifyVerification(status, body), nil
}

// RawVerify performs the verification call and returns the raw status and
// body. Useful for debugging tooling that wants the unclassified response.
func (c *Client) RawVerify(ctx context.Context, token string) (int, []byte, error) {
	payload, err := json.Marshal(verifyPayload{App: c.app})
	if err != nil {
		return 0, nil, fmt.Errorf("marshaling payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		status, body, err := c.verifyOnce(ctx, token, payload)
		if err == nil {
			return status, body, nil
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}
		// linear backoff, bounded by the parent context
		select {
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		default:
		}
		c.sleep(time.Duration(attempt) * c.backoff)
	}

	return 0, nil, fmt.Errorf("verification failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) verifyOnce(ctx context.Context, token string, payload []byte) (int, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+VerifyRoute, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("connection failed: %w", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVerifyBody))
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}

	return resp.StatusCode, body, nil
}
