// Package api is the client-side service layer: a thin typed wrapper over
// the server's REST surface with transparent access-token refresh, plus the
// realtime status listener.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/avolkov/paperstand/internal/logging"
	"golang.org/x/sync/singleflight"
)

// APIError carries the server's failure envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

// Client talks to the server. It holds the token pair and refreshes the
// access token once, behind singleflight, when a request comes back 401;
// the original request is then retried a single time.
type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	mu           sync.RWMutex
	accessToken  string
	refreshToken string

	refreshGroup singleflight.Group

	// onAuthRequired fires when the session cannot be recovered and the
	// user has to sign in again.
	onAuthRequired func()
}

func NewClient(baseURL string, log logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		log:     log,
	}
}

// SetAuthRequiredHandler registers the callback invoked when refresh fails.
func (c *Client) SetAuthRequiredHandler(fn func()) {
	c.onAuthRequired = fn
}

// SetTokens installs a token pair, e.g. after login or from saved state.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// Tokens returns the current pair.
func (c *Client) Tokens() (access, refresh string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.refreshToken
}

func (c *Client) clearTokens() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.refreshToken = ""
}

func (c *Client) authRequired() {
	if c.onAuthRequired != nil {
		c.onAuthRequired()
	}
}

// do performs one API call. When authed is set, the bearer token is attached
// and a 401 triggers one refresh-and-retry cycle.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	status, raw, err := c.roundTrip(ctx, method, path, body, authed)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && authed && credentialFailure(raw) {
		if err := c.refreshAccessToken(ctx); err != nil {
			c.authRequired()
			return err
		}
		status, raw, err = c.roundTrip(ctx, method, path, body, authed)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			c.clearTokens()
			c.authRequired()
			return common.ErrUnauthorized
		}
	}

	if status >= 400 {
		return &APIError{Status: status, Message: failureMessage(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, authed bool) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		access, _ := c.Tokens()
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

// refreshAccessToken exchanges the refresh token for a new access token.
// Concurrent callers share one exchange through singleflight.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		_, refresh := c.Tokens()
		if refresh == "" {
			return nil, common.ErrUnauthorized
		}

		status, raw, err := c.roundTrip(ctx, http.MethodPost, "/api/auth/refresh",
			map[string]string{"refreshToken": refresh}, false)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			c.clearTokens()
			return nil, common.ErrRefreshTokenExpired
		}

		var body struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decoding refresh response: %w", err)
		}

		c.mu.Lock()
		c.accessToken = body.AccessToken
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

// credentialFailure reports whether a 401 envelope blames the bearer token
// rather than a business rule. Only token failures are worth a refresh; a
// business 401 (say, a wrong current password on a password change) must
// surface as-is instead of burning the session.
func credentialFailure(raw []byte) bool {
	msg := strings.ToLower(failureMessage(raw))
	return strings.Contains(msg, "token") || strings.Contains(msg, "auth")
}

func failureMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return "request failed"
	}
	return body.Message
}
