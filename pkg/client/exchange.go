package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrExchangeRejected is returned when the upstream refuses a code,
// typically because it was already used or has expired.
var ErrExchangeRejected = errors.New("authorization code rejected")

type exchangePayload struct {
	Code string `json:"code"`
	App  string `json:"app"`
}

type exchangeResponse struct {
	Token string `json:"token"`
}

// Exchange swaps a one-time authorization code for a session token.
// Codes are consumed on first use upstream, so a failed exchange is not
// retried; the browser is sent back through re-authentication instead.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	payload, err := json.Marshal(exchangePayload{Code: code, App: c.app})
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+ExchangeRoute, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("connection failed: %w", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w (status %d)", ErrExchangeRejected, resp.StatusCode)
	}

	var out exchangeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxVerifyBody)).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("exchange response missing token")
	}

	return out.Token, nil
}
