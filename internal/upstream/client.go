package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/medmarket-admin/internal/config"
	"github.com/spec-kit/medmarket-admin/internal/domain"
	"github.com/spec-kit/medmarket-admin/internal/session"
)

// ErrSessionExpired is returned by Do when the upstream API rejects the
// credential; the local copy has already been cleared by then.
var ErrSessionExpired = errors.New("upstream rejected credential")

// Client talks to the marketplace REST API: the login/logout transports
// consumed by the session manager, and the authenticated request helper
// used by the dashboard proxy.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a client for the configured upstream.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success  bool                `json:"success"`
	Token    string              `json:"token"`
	User     domain.UserIdentity `json:"user"`
	Subadmin bool                `json:"subadmin"`
	Error    string              `json:"error"`
}

// Login delegates credentials to the upstream API.
func (c *Client) Login(ctx context.Context, email, password string) (*session.LoginReply, error) {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/login", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}

	return &session.LoginReply{
		Success:  decoded.Success,
		Token:    decoded.Token,
		User:     decoded.User,
		Subadmin: decoded.Subadmin,
		Error:    decoded.Error,
	}, nil
}

// Logout notifies the upstream API. Fire-and-forget: the caller swallows
// any error.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("logout: upstream status %d", resp.StatusCode)
	}
	return nil
}

// Do performs an authenticated request against the upstream API, attaching
// the bearer header when a credential exists. An upstream 401 clears the
// stored credential and returns ErrSessionExpired; together with the local
// expiry check this is the second enforcement point for dead sessions.
// The caller owns the response body on success.
func (c *Client) Do(ctx context.Context, store session.Store, method, path, query string, body io.Reader, contentType string) (*http.Response, error) {
	target := c.baseURL + path
	if query != "" {
		target += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	token, err := store.Token(ctx)
	if err != nil {
		c.logger.Warn("credential read failed", zap.Error(err))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := store.ClearToken(ctx); err != nil {
			c.logger.Warn("clear credential after 401 failed", zap.Error(err))
		}
		return nil, ErrSessionExpired
	}
	return resp, nil
}
