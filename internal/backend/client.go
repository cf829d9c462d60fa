// Package backend is a client for the hosted backend's auth, RPC and
// function endpoints. Account creation and sign-in are delegated entirely
// to it.
package backend

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
	"time"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "charterdesk/1.0"
)

var (
	// ErrUnauthorized indicates the API key or credentials were rejected.
	ErrUnauthorized = errors.New("backend: unauthorized (invalid key or credentials)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("backend: rate limited")
	// ErrAlreadyRegistered indicates the email already has an account.
	ErrAlreadyRegistered = errors.New("backend: user already registered")
)

// APIError is a non-2xx response not covered by the sentinels.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

// Client calls the hosted backend's HTTP APIs.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for baseURL authenticated with apiKey.
// Returns nil if either is empty or the URL is not absolute.
func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" || apiKey == "" {
		return nil
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

// SignUp registers a new account. Metadata (name, phone, ...) is stored on
// the auth user.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*User, error) {
	var resp signUpResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken != "" && resp.Inner != nil {
		return resp.Inner, nil
	}
	u := resp.User
	return &u, nil
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RPC calls a stored procedure by name. out may be nil.
func (c *Client) RPC(ctx context.Context, fn string, params, out any) error {
	if params == nil {
		params = map[string]any{}
	}
	return c.do(ctx, http.MethodPost, "/rest/v1/rpc/"+url.PathEscape(fn), "", params, out)
}

// Invoke calls a deployed function by name, forwarding the caller's access
// token when one is given. out may be nil.
func (c *Client) Invoke(ctx context.Context, name, accessToken string, payload, out any) error {
	return c.do(ctx, http.MethodPost, "/functions/v1/"+url.PathEscape(name), accessToken, payload, out)
}

// Check probes the auth and REST endpoints. Partial results are returned
// even if one probe fails.
func (c *Client) Check(ctx context.Context) *Status {
	st := &Status{CheckedAt: time.Now()}

	authErr := c.do(ctx, http.MethodGet, "/auth/v1/health", "", nil, nil)
	st.AuthOK = authErr == nil

	restErr := c.do(ctx, http.MethodGet, "/rest/v1/", "", nil, nil)
	st.RestOK = restErr == nil

	if authErr != nil {
		st.Error = authErr
	} else if restErr != nil {
		st.Error = restErr
	}
	return st
}

// do performs an authenticated JSON request and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: creating request: %w", err)
	}

	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req) //nolint:gosec // URL is built from configured base URL
	if err != nil {
		return fmt.Errorf("backend: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("backend: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("backend: parsing response: %w", err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	msg := ae.text()

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		if strings.Contains(strings.ToLower(msg), "already registered") {
			return ErrAlreadyRegistered
		}
	}
	return &APIError{Status: status, Message: msg}
}
