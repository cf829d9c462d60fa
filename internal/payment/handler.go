// Package payment implements the checkout function: it validates a payment
// request, reads the provider secret from backend settings, and returns the
// URL of a hosted checkout session.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/theirongolddev/charterdesk/internal/store"
	"github.com/theirongolddev/charterdesk/internal/validate"
)

const maxRequestSize = 64 << 10

var currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

// SecretSource reads backend-stored settings.
type SecretSource interface {
	GetSetting(ctx context.Context, key string) (string, error)
}

// Request is the checkout payload.
type Request struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Description   string  `json:"description"`
	SuccessURL    string  `json:"success_url"`
	CancelURL     string  `json:"cancel_url"`
	CustomerEmail string  `json:"customer_email,omitempty"`
}

// Response is returned on success.
type Response struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Config wires a Handler.
type Config struct {
	Settings   SecretSource
	SecretKey  string        // app_settings key holding the provider secret
	Fallback   func() string // consulted only when the settings row is missing
	Provider   *Provider
	Logger     *zap.Logger
	SuccessURL string // used when the request omits success_url
	CancelURL  string
}

// Handler serves the checkout function.
type Handler struct {
	cfg Config
	log *zap.Logger
}

// NewHandler creates a checkout handler.
func NewHandler(cfg Config) *Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{cfg: cfg, log: log.Named("checkout")}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: GenericMessage})
		return
	}

	resp, err := h.Checkout(r.Context(), r.Body)
	if err != nil {
		var pe *Error
		if !errors.As(err, &pe) {
			pe = categorized(CategoryConfiguration, err)
		}
		h.log.Error("checkout failed",
			zap.String("category", string(pe.Category)),
			zap.Error(pe.Err))
		writeJSON(w, pe.Status(), errorResponse{Error: GenericMessage})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Checkout runs one checkout from a raw JSON body.
func (h *Handler) Checkout(ctx context.Context, body io.Reader) (*Response, error) {
	req, err := decodeRequest(body)
	if err != nil {
		return nil, err
	}
	if req.SuccessURL == "" {
		req.SuccessURL = h.cfg.SuccessURL
	}
	if req.CancelURL == "" {
		req.CancelURL = h.cfg.CancelURL
	}
	if err := req.Validate(); err != nil {
		return nil, categorized(CategoryValidation, err)
	}

	secret, err := h.secret(ctx)
	if err != nil {
		return nil, categorized(CategoryConfiguration, err)
	}
	if h.cfg.Provider == nil {
		return nil, categorized(CategoryConfiguration, errors.New("no payment provider configured"))
	}

	sess, err := h.cfg.Provider.CreateSession(ctx, secret, SessionRequest{
		Amount:        req.Amount,
		Currency:      req.Currency,
		Description:   req.Description,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		return nil, categorized(CategoryProvider, err)
	}

	h.log.Info("checkout session created",
		zap.String("session", sess.ID),
		zap.String("currency", strings.ToUpper(req.Currency)),
		zap.Int64("amount_minor", MinorUnits(req.Amount)))
	return &Response{URL: sess.URL}, nil
}

// secret is read on every request so a rotated key takes effect without a restart.
func (h *Handler) secret(ctx context.Context) (string, error) {
	if h.cfg.Settings != nil && h.cfg.SecretKey != "" {
		v, err := h.cfg.Settings.GetSetting(ctx, h.cfg.SecretKey)
		switch {
		case err == nil && strings.TrimSpace(v) != "":
			return strings.TrimSpace(v), nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return "", fmt.Errorf("reading setting %q: %w", h.cfg.SecretKey, err)
		}
	}
	if h.cfg.Fallback != nil {
		if v := strings.TrimSpace(h.cfg.Fallback()); v != "" {
			return v, nil
		}
	}
	return "", errors.New("payment secret is not configured")
}

func decodeRequest(body io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(io.LimitReader(body, maxRequestSize))
	if err := dec.Decode(&req); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			return req, categorized(CategoryType, fmt.Errorf("field %q: expected %s", typeErr.Field, typeErr.Type))
		case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return req, categorized(CategoryType, fmt.Errorf("body is not a JSON object: %w", err))
		default:
			return req, categorized(CategoryType, err)
		}
	}
	return req, nil
}

// Validate checks the payload shape.
func (r Request) Validate() error {
	errs := validate.FieldErrors{}
	if r.Amount <= 0 {
		errs["amount"] = "must be greater than zero"
	} else if MinorUnits(r.Amount) < 1 {
		errs["amount"] = "is below the smallest currency unit"
	}
	if !currencyPattern.MatchString(r.Currency) {
		errs["currency"] = "must be a three-letter code"
	}
	if strings.TrimSpace(r.Description) == "" {
		errs["description"] = "is required"
	}
	if !absoluteURL(r.SuccessURL) {
		errs["success_url"] = "must be an absolute http(s) URL"
	}
	if !absoluteURL(r.CancelURL) {
		errs["cancel_url"] = "must be an absolute http(s) URL"
	}
	if r.CustomerEmail != "" {
		if !validate.Email(r.CustomerEmail) {
			errs["customer_email"] = "is not a valid email address"
		}
	}
	return errs.Err()
}

func absoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
