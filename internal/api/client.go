package api

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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-projects/internal/observability"
)

// Collaborator endpoints, relative to the API base URL.
const (
	PathLogin             = "/auth/login"
	PathRegister          = "/auth/register"
	PathCourses           = "/course"
	PathProjectSubmit     = "/project/submit"
	PathProjectEvaluation = "/project/evaluation"
	PathProjectDashboard  = "/project/dashboard"
	PathProjectList       = "/project/submissions"
	PathProjectEvaluate   = "/project/evaluate"
)

const maxErrorBody = 64 << 10

// TokenSource yields the bearer token to attach, or "" for none.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always yields the same token.
type StaticToken string

// Token returns the token itself.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// UnauthorizedHandler runs when an authenticated request comes back 401.
type UnauthorizedHandler func(ctx context.Context)

// Client talks to the REST collaborator.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
	logger         zerolog.Logger
	tracer         trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero keeps requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

// WithUnauthorizedHandler sets the session invalidation hook.
func WithUnauthorizedHandler(fn UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "api_client").Logger()
	}
}

// New builds a Client for the API rooted at baseURL (for example http://localhost:5000/api).
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("api base url must not be empty")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api base url must be absolute: %q", baseURL)
	}

	c := &Client{
		baseURL: parsed,
		http:    &http.Client{},
		tokens:  StaticToken(""),
		logger:  zerolog.Nop(),
		tracer:  observability.Tracer("internal/api"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type call struct {
	op            string
	method        string
	path          string
	query         url.Values
	body          io.Reader
	contentType   string
	authenticated bool
	fallback      string
	// lenient treats an undecodable 2xx body as success.
	lenient bool
	// errorFirst reads the body's error field before its message.
	errorFirst bool
	// statusSuffix appends the HTTP status text to the fallback.
	statusSuffix bool
}

func jsonBody(v interface{}) (io.Reader, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(payload), nil
}

// do sends the call and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) do(ctx context.Context, rc call, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "collaborator."+rc.op, trace.WithAttributes(
		attribute.String("http.method", rc.method),
		attribute.String("http.route", rc.path),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.CollaboratorLatency().WithLabelValues(rc.op).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, rc.method, c.endpoint(rc.path, rc.query), rc.body)
	if err != nil {
		observability.Fail(span, err, "build_request")
		return &NetworkError{Op: rc.op, Err: err}
	}

	if rc.contentType != "" {
		req.Header.Set("Content-Type", rc.contentType)
	}
	req.Header.Set("Accept", "application/json")

	bearer := false
	if rc.authenticated {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Str("operation", rc.op).Msg("failed to read session token")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			bearer = true
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		observability.CollaboratorFailures().WithLabelValues(rc.op, "network").Inc()
		observability.Fail(span, err, "network")
		c.logger.Debug().Err(err).Str("operation", rc.op).Msg("collaborator unreachable")
		return &NetworkError{Op: rc.op, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	observability.CollaboratorRequests().WithLabelValues(rc.op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			Op:            rc.op,
			Status:        resp.StatusCode,
			Message:       resolveMessage(body, resp.StatusCode, rc),
			authenticated: rc.authenticated,
		}

		kind := "rejected"
		if errors.Is(apiErr, ErrUnauthorized) {
			kind = "unauthorized"
			c.logger.Info().Str("operation", rc.op).Bool("bearer", bearer).Msg("collaborator rejected session")
			if c.onUnauthorized != nil {
				c.onUnauthorized(ctx)
			}
		}
		observability.CollaboratorFailures().WithLabelValues(rc.op, kind).Inc()
		observability.Fail(span, apiErr, kind)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if rc.lenient {
			c.logger.Debug().Err(err).Str("operation", rc.op).Msg("ignoring undecodable response body")
			return nil
		}
		observability.CollaboratorFailures().WithLabelValues(rc.op, "decode").Inc()
		observability.Fail(span, err, "decode")
		return fmt.Errorf("%s: decode response: %w", rc.op, err)
	}

	return nil
}
