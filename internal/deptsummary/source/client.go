package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/deptsummary/internal/deptsummary/config"
	"github.com/yungbote/deptsummary/internal/deptsummary/domain"
	"github.com/yungbote/deptsummary/internal/observability"
	"github.com/yungbote/deptsummary/internal/platform/logger"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 8 << 20

	initialBackoff = 250 * time.Millisecond
)

// Fetcher is what the rest of the program needs from a data source.
type Fetcher interface {
	FetchUsers(ctx context.Context) ([]domain.User, error)
}

type Options struct {
	URL    string
	APIKey string
	// Query is merged into the URL query string, e.g. {"limit": "0"}.
	Query map[string]string

	Timeout      time.Duration
	MaxRetries   int
	MaxBodyBytes int64

	HTTPClient *http.Client
	Log        *logger.Logger
}

type Client struct {
	url          string
	apiKey       string
	timeout      time.Duration
	maxRetries   int
	maxBodyBytes int64

	httpClient *http.Client
	log        *logger.Logger
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.URL)
	if raw == "" {
		return nil, ErrURLRequired
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("source url must be http(s), got %q", raw)
	}
	if len(opts.Query) > 0 {
		q := u.Query()
		for k, v := range opts.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		url:          u.String(),
		apiKey:       strings.TrimSpace(opts.APIKey),
		timeout:      timeout,
		maxRetries:   maxRetries,
		maxBodyBytes: maxBody,
		httpClient:   hc,
		log:          log.With("component", "source"),
	}, nil
}

func NewFromConfig(cfg config.SourceConfig, log *logger.Logger) (*Client, error) {
	return New(Options{
		URL:          cfg.URL,
		APIKey:       cfg.APIKey,
		Query:        cfg.Query,
		Timeout:      cfg.Timeout.Duration,
		MaxRetries:   cfg.MaxRetries,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Log:          log,
	})
}

func (c *Client) URL() string { return c.url }

type usersResponse struct {
	Users []domain.User `json:"users"`
	Total int           `json:"total"`
	Skip  int           `json:"skip"`
	Limit int           `json:"limit"`
}

// FetchUsers retrieves the whole collection. On failure it returns a
// *FetchError and no users.
func (c *Client) FetchUsers(ctx context.Context) ([]domain.User, error) {
	ctx, span := observability.Tracer().Start(ctx, "source.FetchUsers")
	defer span.End()
	span.SetAttributes(attribute.String("source.url", c.url))

	var resp usersResponse
	if err := c.getJSON(ctx, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp.Users == nil {
		err := &FetchError{Op: OpDecode, URL: c.url, Err: ErrMissingUsers}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("source.users", len(resp.Users)))
	c.log.Debug("users fetched", "count", len(resp.Users), "total", resp.Total)
	return resp.Users, nil
}

func (c *Client) getJSON(ctx context.Context, out any) error {
	ctx2 := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx2, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var lastErr *FetchError
	backoff := initialBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx2.Err(); err != nil {
			return &FetchError{Op: OpRequest, URL: c.url, Err: err}
		}

		raw, ferr := c.get(ctx2)
		if ferr == nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return &FetchError{Op: OpDecode, URL: c.url, Err: err}
			}
			return nil
		}
		lastErr = ferr
		if !retryable(ferr) || attempt == c.maxRetries {
			break
		}

		c.log.Warn("fetch attempt failed, retrying", "attempt", attempt+1, "backoff", backoff.String(), "error", ferr)
		select {
		case <-ctx2.Done():
			return &FetchError{Op: OpRequest, URL: c.url, Err: ctx2.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = &FetchError{Op: OpRequest, URL: c.url, Err: errors.New("request failed")}
	}
	return lastErr
}

func (c *Client) get(ctx context.Context) ([]byte, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{Op: OpRequest, URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: OpRequest, URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{Op: OpRead, URL: c.url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Op: OpStatus, URL: c.url, Err: parseHTTPError(resp.StatusCode, raw)}
	}
	if int64(len(raw)) > c.maxBodyBytes {
		return nil, &FetchError{Op: OpRead, URL: c.url, Err: fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, c.maxBodyBytes)}
	}
	return raw, nil
}

func retryable(e *FetchError) bool {
	switch e.Op {
	case OpRequest:
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	case OpStatus:
		var herr *HTTPError
		return errors.As(e.Err, &herr) && herr.Retryable()
	default:
		return false
	}
}
