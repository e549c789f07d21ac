package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "fetchcards"
)

// Logger records attempt activity. It matches logbook.Logbook's methods.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

// Client issues GET requests and decodes JSON bodies.
type Client struct {
	http      *http.Client
	userAgent string
	logger    Logger
	newID     func() string
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAttemptIDs lets tests control attempt identifiers.
func WithAttemptIDs(next func() string) Option {
	return func(c *Client) {
		if next != nil {
			c.newID = next
		}
	}
}

// NewClient returns a client with a bounded default timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		logger:    nopLogger{},
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get fetches rawURL and decodes the JSON body into T. Failures are always
// returned as *Error.
func Get[T any](ctx context.Context, c *Client, rawURL string) (T, error) {
	var out T
	if c == nil {
		c = NewClient()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	id := c.newID()
	started := time.Now()
	c.logger.Info("fetch %s: GET %s", shortID(id), rawURL)

	body, err := c.do(ctx, rawURL)
	if err != nil {
		c.logger.Warn("fetch %s: %s failure after %s: %s", shortID(id), AsError(err).Kind, since(started), MessageOf(err))
		return out, err
	}
	defer body.Close()

	if err := decodeBody(body, &out); err != nil {
		ferr := &Error{Kind: KindDecode, URL: rawURL, Err: err}
		c.logger.Warn("fetch %s: decode failure after %s: %s", shortID(id), since(started), ferr.Message())
		return out, ferr
	}
	c.logger.Info("fetch %s: ok in %s", shortID(id), since(started))
	return out, nil
}

func (c *Client) do(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &Error{Kind: KindHTTPStatus, URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

var (
	errTrailingData = errors.New("unexpected data after JSON value")
	errNullBody     = errors.New("response body is null")
)

// decodeBody requires the body to hold exactly one non-null JSON value.
func decodeBody(r io.Reader, out any) error {
	dec := json.NewDecoder(r)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errTrailingData
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errNullBody
	}
	return json.Unmarshal(raw, out)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func since(t time.Time) time.Duration {
	return time.Since(t).Round(time.Millisecond)
}
