// Package client implements the explorer's remote ports over the REST API.
// Calls are made once; failures are returned to the caller as-is.
package client

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
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fruitsalade/explorer/internal/logging"
	"github.com/fruitsalade/explorer/internal/metrics"
	"github.com/fruitsalade/explorer/pkg/ports"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

// Client talks to the explorer REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	mu       sync.RWMutex
	online   bool
	lastSeen time.Time
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient replaces the default transport when set.
	HTTPClient *http.Client
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		log:        logging.Named("client"),
		online:     true,
	}
}

// Remote returns the client as the three port surfaces.
func (c *Client) Remote() ports.Remote {
	return ports.Remote{
		Folders:   c.Folders(),
		Files:     c.Files(),
		Favorites: c.Favorites(),
	}
}

// IsOnline returns true if the last call reached the server.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// LastSeen is when the server last answered.
func (c *Client) LastSeen() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSeen
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.online != online {
		if online {
			c.log.Info("server is back online", zap.String("url", c.baseURL))
		} else {
			c.log.Warn("server is offline", zap.String("url", c.baseURL))
		}
	}
	c.online = online
	if online {
		c.lastSeen = time.Now()
	}
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setOnline(false)
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	c.setOnline(true)
	return nil
}

// ErrNotFound matches any APIError with status 404.
var ErrNotFound = ports.ErrNotFound

// APIError is returned when the server answers with an error status or an
// envelope whose success flag is false.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// AsAPIError checks if an error is an APIError and returns it.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type envelope interface {
	OK() bool
	Reason() string
}

// do performs one request and decodes the envelope into out.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out envelope) (err error) {
	start := time.Now()
	defer func() { metrics.RecordPortCall(op, time.Since(start), err == nil) }()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	requestID := logging.NewRequestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(logging.RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	c.setOnline(resp.StatusCode < 500)

	c.log.Debug("port call",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 400 {
		var errResp protocol.Response[json.RawMessage]
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil {
			return &APIError{Op: op, Status: resp.StatusCode, Message: errResp.Reason()}
		}
		return &APIError{Op: op, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if !out.OK() {
		return &APIError{Op: op, Status: resp.StatusCode, Message: out.Reason()}
	}
	return nil
}

func call[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any) (T, error) {
	var resp protocol.Response[T]
	if err := c.do(ctx, op, method, path, query, body, &resp); err != nil {
		var zero T
		return zero, err
	}
	return resp.Data, nil
}

func callPage[T any](ctx context.Context, c *Client, op, path string, params protocol.ListParams) (*protocol.Page[T], error) {
	var resp protocol.PaginatedResponse[T]
	if err := c.do(ctx, op, http.MethodGet, path, params.Values(), nil, &resp); err != nil {
		return nil, err
	}
	return protocol.PageOf(resp), nil
}
