package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/kerbaras/mangasync/pkg/data"
)

const (
	DefaultRate    = 2.0
	DefaultTimeout = 10 * time.Second
)

// API is a small JSON client shared by the remote services. Every request
// waits on a per-client rate limiter.
type API struct {
	client    *http.Client
	baseURL   string
	token     string
	userAgent string
	limiter   *rate.Limiter
}

type APIOption func(*API)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) APIOption {
	return func(a *API) { a.token = token }
}

// WithRate limits the client to rps requests per second. rps <= 0 disables the limit.
func WithRate(rps float64) APIOption {
	return func(a *API) {
		if rps <= 0 {
			a.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func WithTimeout(d time.Duration) APIOption {
	return func(a *API) { a.client = &http.Client{Timeout: d} }
}

func WithHTTPClient(c *http.Client) APIOption {
	return func(a *API) { a.client = c }
}

func WithUserAgent(ua string) APIOption {
	return func(a *API) { a.userAgent = ua }
}

func NewAPI(baseURL string, opts ...APIOption) *API {
	a := &API{
		client:    &http.Client{Timeout: DefaultTimeout},
		baseURL:   baseURL,
		userAgent: "mangasync",
		limiter:   rate.NewLimiter(rate.Limit(DefaultRate), 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HasToken reports whether requests are authenticated.
func (a *API) HasToken() bool {
	return a.token != ""
}

func (a *API) Get(ctx context.Context, path string, params url.Values, v any) (data.Outcome, error) {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return a.Do(ctx, http.MethodGet, path, nil, v)
}

func (a *API) Post(ctx context.Context, path string, body, v any) (data.Outcome, error) {
	return a.Do(ctx, http.MethodPost, path, body, v)
}

func (a *API) Delete(ctx context.Context, path string, v any) (data.Outcome, error) {
	return a.Do(ctx, http.MethodDelete, path, nil, v)
}

// Do sends body as JSON and decodes the response into v when v is not nil.
// The returned Outcome classifies the response status; transport failures
// are OutcomeFail. Any non-2xx response is also returned as an
// *data.OutcomeError.
func (a *API) Do(ctx context.Context, method, path string, body, v any) (data.Outcome, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return data.OutcomeFail, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return data.OutcomeFail, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return data.OutcomeFail, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", a.userAgent)
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return data.OutcomeFail, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	outcome := ClassifyStatus(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return outcome, &data.OutcomeError{
			Outcome: outcome,
			Err:     fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg)),
		}
	}
	if v == nil || resp.StatusCode == http.StatusNoContent {
		return outcome, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return data.OutcomeFail, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return outcome, nil
}

// ClassifyStatus maps an HTTP status code to an Outcome.
func ClassifyStatus(code int) data.Outcome {
	switch {
	case code == http.StatusCreated:
		return data.OutcomeCreated
	case code >= 200 && code <= 299:
		return data.OutcomeSuccess
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return data.OutcomeMissingToken
	case code == http.StatusNotFound || code == http.StatusGone:
		return data.OutcomeNotFound
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity || code == http.StatusConflict:
		return data.OutcomeBadRequest
	case code == http.StatusTooManyRequests || code >= 500:
		return data.OutcomeServerError
	default:
		return data.OutcomeFail
	}
}
