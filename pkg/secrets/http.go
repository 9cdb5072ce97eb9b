package secrets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxSecretResponseSize = 1 << 20

type elevatedTokenKey struct{}

// HTTPStore reads secrets from a platform secrets REST API:
//
//	GET {BaseURL}/secrets/{name}  ->  {"value": "..."}
//
// Transient transport failures and 5xx, 408 and 429 answers are retried with
// exponential backoff inside a single GetSecretValue call.
type HTTPStore struct {
	BaseURL        string
	Token          string
	ElevatedToken  string
	Client         *http.Client
	MaxElapsedTime time.Duration
}

func NewHTTPStore(baseURL, token, elevatedToken string) *HTTPStore {
	return &HTTPStore{
		BaseURL:       strings.TrimSuffix(baseURL, "/"),
		Token:         token,
		ElevatedToken: elevatedToken,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxElapsedTime: 30 * time.Second,
	}
}

// Elevator returns the capability that makes wrapped calls authenticate with
// ElevatedToken instead of Token.
func (h *HTTPStore) Elevator() Elevator {
	token := h.ElevatedToken
	return func(next GetValueFunc) GetValueFunc {
		return func(ctx context.Context, name string) (string, error) {
			if token == "" {
				return next(ctx, name)
			}
			return next(context.WithValue(ctx, elevatedTokenKey{}, token), name)
		}
	}
}

type secretResponse struct {
	Value *string `json:"value"`
}

func (h *HTTPStore) GetSecretValue(ctx context.Context, name string) (string, error) {
	u := h.BaseURL + "/secrets/" + url.PathEscape(name)

	token := h.Token
	if t, ok := ctx.Value(elevatedTokenKey{}).(string); ok {
		token = t
	}

	resp, err := h.executeWithRetry(ctx, http.MethodGet, u, token)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get secret %s: %s", name, resp.Status)
	}

	var body secretResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSecretResponseSize)).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response for %s: %w", name, err)
	}
	if body.Value == nil {
		return "", nil
	}
	return *body.Value, nil
}

func (h *HTTPStore) executeWithRetry(ctx context.Context, method, target, token string) (*http.Response, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = h.MaxElapsedTime

	var attempt int
	var resp *http.Response

	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Accept", "application/json")

		resp, err = h.Client.Do(req)
		if err != nil {
			if isRetryableError(err) {
				logger.Debugf("Retrying %s %s, attempt %d, error: %v", method, target, attempt, err)
				return err
			}
			return backoff.Permanent(err)
		}

		if isRetryableStatus(resp.StatusCode) {
			logger.Debugf("Retrying %s %s, attempt %d, status: %d", method, target, attempt, resp.StatusCode)
			resp.Body.Close()
			return fmt.Errorf("server error: %d", resp.StatusCode)
		}

		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx))
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func isRetryableError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset") ||
		strings.Contains(err.Error(), "EOF") {
		return true
	}
	return false
}

func isRetryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}
