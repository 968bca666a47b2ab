// Package apiclient is a typed client for the lead automation REST backend.
// Requests carry the stored bearer token; a 401 triggers one token refresh
// and one retry.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matthewbaird/leadpilot/internal/settings"
)

// Client talks to the backend.
type Client struct {
	baseURL  string
	http     *http.Client
	settings *settings.Service
	logger   *zap.Logger

	refreshMu sync.Mutex
}

// Options configures New.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Settings   *settings.Service
	Logger     *zap.Logger
}

// New creates a Client. Tokens are read from and written to opts.Settings.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	svc := opts.Settings
	if svc == nil {
		svc = settings.NewService(settings.NewMemoryStore(), nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     httpClient,
		settings: svc,
		logger:   logger.Named("apiclient"),
	}
}

// requestBody is either JSON or form-encoded.
type requestBody struct {
	json any
	form url.Values
}

func jsonBody(v any) *requestBody { return &requestBody{json: v} }

func (b *requestBody) encode() (io.Reader, string, error) {
	if b == nil {
		return nil, "", nil
	}
	if b.form != nil {
		return strings.NewReader(b.form.Encode()), "application/x-www-form-urlencoded", nil
	}
	data, err := json.Marshal(b.json)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// do sends one request and decodes a 2xx JSON response into out (when out is
// non-nil). Auth endpoints are never retried.
func (c *Client) do(ctx context.Context, method, path string, body *requestBody, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !strings.HasPrefix(path, "/auth/") {
		resp.Body.Close()
		if err := c.refresh(ctx); err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, body)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Body: data}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body *requestBody) (*http.Response, error) {
	reader, contentType, err := body.encode()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token, _ := c.settings.GetOr(ctx, settings.KeyAccessToken, ""); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	return resp, nil
}

// refresh exchanges the stored refresh token for a new pair. Any failure
// clears both tokens and returns ErrSessionExpired.
func (c *Client) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	fail := func(cause error) error {
		c.logger.Info("token refresh failed", zap.Error(cause))
		if err := c.settings.ClearTokens(ctx); err != nil {
			c.logger.Warn("clearing tokens", zap.Error(err))
		}
		return fmt.Errorf("%w: %v", ErrSessionExpired, cause)
	}

	refreshToken, err := c.settings.GetOr(ctx, settings.KeyRefreshToken, "")
	if err != nil {
		return fail(err)
	}
	if refreshToken == "" {
		return fail(errors.New("no refresh token"))
	}

	var tok Token
	err = c.do(ctx, http.MethodPost, "/auth/refresh", jsonBody(map[string]string{"refresh_token": refreshToken}), &tok)
	if err != nil {
		return fail(err)
	}
	if tok.AccessToken == "" {
		return fail(errors.New("refresh returned no access token"))
	}
	if err := c.storeTokens(ctx, tok); err != nil {
		return fail(err)
	}
	return nil
}

func (c *Client) storeTokens(ctx context.Context, tok Token) error {
	if err := c.settings.Set(ctx, settings.KeyAccessToken, tok.AccessToken); err != nil {
		return err
	}
	if tok.RefreshToken != "" {
		return c.settings.Set(ctx, settings.KeyRefreshToken, tok.RefreshToken)
	}
	return nil
}
