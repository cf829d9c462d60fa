package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	requestTimeout = 15 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	sessionsPath   = "/v1/checkout/sessions"
)

// ErrProviderRejected indicates the provider refused to create a session.
var ErrProviderRejected = errors.New("payment: provider rejected request")

// SessionRequest describes a one-off hosted checkout for a single amount.
type SessionRequest struct {
	Amount        float64
	Currency      string
	Description   string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
}

// Session is the provider's hosted checkout session.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Provider creates hosted checkout sessions.
type Provider struct {
	baseURL string
	http    *http.Client
}

// NewProvider returns a provider client rooted at baseURL.
func NewProvider(baseURL string) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// MinorUnits converts a major-unit amount (12.50) to minor units (1250).
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateSession opens a hosted checkout session authenticated with secret.
func (p *Provider) CreateSession(ctx context.Context, secret string, req SessionRequest) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(req.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(MinorUnits(req.Amount), 10))
	form.Set("line_items[0][price_data][product_data][name]", req.Description)
	if req.CustomerEmail != "" {
		form.Set("customer_email", req.CustomerEmail)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+sessionsPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payment: creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+secret)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(httpReq) //nolint:gosec // URL is the configured provider
	if err != nil {
		return nil, fmt.Errorf("payment: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("payment: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var pe providerError
		_ = json.Unmarshal(body, &pe)
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderRejected, resp.StatusCode, pe.Error.Message)
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("payment: parsing response: %w", err)
	}
	if s.URL == "" {
		return nil, fmt.Errorf("%w: session %q has no url", ErrProviderRejected, s.ID)
	}
	return &s, nil
}
