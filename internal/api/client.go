package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	pkgerrors "mikrodesk/pkg/errors"
)

// Client talks to the hotspot REST backend. It is safe for concurrent use.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	log       logrus.FieldLogger
}

// Config represents client configuration
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:           "http://localhost:3001/api",
		Timeout:           15 * time.Second,
		RequestsPerSecond: 20,
		Burst:             10,
		UserAgent:         "Mikrodesk/1.0",
	}
}

// New creates a backend client. A nil logger discards log output.
func New(cfg Config, log logrus.FieldLogger) *Client {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultConfig().UserAgent
	}

	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: userAgent,
		limiter:   rate.NewLimiter(limit, burst),
		log:       log,
	}
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs one request and decodes the envelope. When out is non-nil the
// envelope's data member is decoded into it.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("backend unreachable")
		return nil, &pkgerrors.NetworkError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &pkgerrors.NetworkError{URL: target, Err: err}
	}
	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	})

	env := &envelope{}
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &pkgerrors.APIError{Method: method, Path: path, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
		}
		log.WithField("message", apiErr.Message).Warn("backend returned an error status")
		return nil, apiErr
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, pkgerrors.ErrEmptyResponse
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", method, path, decodeErr)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "Request was not successful"
		}
		log.WithField("message", msg).Warn("backend rejected request")
		return nil, &pkgerrors.APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode %s %s data: %w", method, path, err)
		}
	}

	log.Debug("backend request ok")
	return env, nil
}

// scoped builds a path under /router/:connectionId. An empty id never
// reaches the network.
func scoped(connID, suffix string) (string, error) {
	if connID == "" {
		return "", pkgerrors.ErrNoConnection
	}
	return "/router/" + url.PathEscape(connID) + suffix, nil
}
