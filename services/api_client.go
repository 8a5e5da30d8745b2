// services/api_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lashapp-notifier/models"
	"lashapp-notifier/utils"
)

const (
	defaultAPITimeout = 15 * time.Second
	maxResponseBytes  = 1 << 20
	maxErrorBody      = 256
)

// APIClient talks to the salon backend: login, logout, agenda reads and the keep-alive ping.
// Every call gets its own timeout on top of the caller's context.
type APIClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	now     func() time.Time
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: transport},
		timeout: timeout,
		now:     time.Now,
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges credentials for a bearer token.
func (c *APIClient) Authenticate(ctx context.Context, creds models.Credentials) (models.AuthToken, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", nil, "", creds, &resp); err != nil {
		return "", &AuthenticationError{Err: err}
	}

	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return "", &AuthenticationError{Err: errors.New("login response has no token")}
	}
	if exp, ok := utils.TokenExpiry(token); ok && !exp.After(c.now()) {
		return "", &AuthenticationError{Err: fmt.Errorf("token already expired at %s", exp.Format(time.RFC3339))}
	}
	return models.AuthToken(token), nil
}

// Logout invalidates token. Failures come back as *CleanupWarning.
func (c *APIClient) Logout(ctx context.Context, token models.AuthToken) error {
	if err := c.do(ctx, http.MethodGet, "/logout", nil, token, nil, nil); err != nil {
		return &CleanupWarning{Err: err}
	}
	return nil
}

// Ping hits the unauthenticated keep-alive endpoint.
func (c *APIClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/get", nil, "", nil, nil)
}

// getJSON performs an authenticated GET and decodes the body into out.
func (c *APIClient) getJSON(ctx context.Context, token models.AuthToken, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, token, nil, out)
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, token models.AuthToken, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+string(token))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
