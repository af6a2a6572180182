// Package backend is the HTTP client for the media backend REST API.
//
// The backend authenticates with cookies. A browser attaches them
// implicitly; here they travel explicitly as domain.Credentials: every call
// sends the visitor's cookies and merges any Set-Cookie the backend returns
// back into the same map.
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
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/metrics"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultRefreshTimeout = 5 * time.Second
	maxResponseBytes      = 4 << 20
)

// Config captures the settings needed to reach the backend.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RefreshTimeout time.Duration
	// HTTPClient is optional; a client without its own timeout is used by
	// default since every call carries a context deadline.
	HTTPClient *http.Client
}

// Client talks to the media backend.
type Client struct {
	base           *url.URL
	http           *http.Client
	timeout        time.Duration
	refreshTimeout time.Duration
	log            zerolog.Logger
	now            func() time.Time
}

// New validates cfg and returns a Client.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url: unsupported scheme %q", base.Scheme)
	}

	c := &Client{
		base:           base,
		http:           cfg.HTTPClient,
		timeout:        cfg.Timeout,
		refreshTimeout: cfg.RefreshTimeout,
		log:            log.With().Str("component", "backend").Logger(),
		now:            time.Now,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.refreshTimeout <= 0 {
		c.refreshTimeout = defaultRefreshTimeout
	}
	return c, nil
}

// envelope is the {status, message, data} shape shared by backend responses.
type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// request describes one backend call.
type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	json    any
	body    io.Reader
	ctype   string
	timeout time.Duration
}

// do executes req with creds and decodes a 2xx body into out (when non-nil).
// Any failure is returned as *domain.APIError.
func (c *Client) do(ctx context.Context, req request, creds domain.Credentials, out any) error {
	timeout := req.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body := req.body
	ctype := req.ctype
	if req.json != nil {
		raw, err := json.Marshal(req.json)
		if err != nil {
			return &domain.APIError{Status: "error", Message: fmt.Sprintf("encode request: %v", err)}
		}
		body = bytes.NewReader(raw)
		ctype = "application/json"
	}

	u := *c.base
	u.Path = c.base.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return &domain.APIError{Status: "error", Message: fmt.Sprintf("build request: %v", err)}
	}
	if ctype != "" {
		httpReq.Header.Set("Content-Type", ctype)
	}
	httpReq.Header.Set("Accept", "application/json")
	for name, value := range creds {
		httpReq.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(req.op, "error").Observe(time.Since(start).Seconds())
		c.log.Debug().Err(err).Str("op", req.op).Msg("backend request failed")
		return &domain.APIError{Status: "error", Message: transportMessage(err)}
	}
	defer resp.Body.Close()
	metrics.BackendRequestDuration.WithLabelValues(req.op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if creds != nil {
		creds.Merge(c.now(), cookieUpdates(resp.Cookies())...)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &domain.APIError{Status: "error", Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.APIError{Status: "error", Message: fmt.Sprintf("decode %s response: %v", req.op, err)}
	}
	return nil
}

// decodeError builds the typed error for a non-2xx response.
func decodeError(code int, raw []byte) *domain.APIError {
	apiErr := &domain.APIError{Code: code, Status: "error"}
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Status != "" {
			apiErr.Status = env.Status
		}
		apiErr.Message = env.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.ToLower(http.StatusText(code))
	}
	return apiErr
}

func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "backend did not respond in time"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	default:
		return "backend unreachable"
	}
}

func cookieUpdates(cookies []*http.Cookie) []domain.CookieUpdate {
	out := make([]domain.CookieUpdate, 0, len(cookies))
	for _, ck := range cookies {
		out = append(out, domain.CookieUpdate{
			Name:    ck.Name,
			Value:   ck.Value,
			MaxAge:  ck.MaxAge,
			Expires: ck.Expires,
		})
	}
	return out
}

// Ping reports whether the backend answers HTTP at all. Any status code
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend ping: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

// URL returns the absolute backend URL for path, used for links handed to
// the browser (file and video streaming).
func (c *Client) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
