// Package api is the HTTP client for the board service. Every response is
// wrapped in a {status, message, data} envelope; non-2xx responses become
// *Error values.
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
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// DefaultTimeout bounds a request when the config leaves Timeout unset.
const DefaultTimeout = 10 * time.Second

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the API root including the version prefix,
	// e.g. "http://localhost:8080/api/v1".
	BaseURL string
	// Token is sent as a bearer token; empty sends no Authorization header.
	Token string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	// HTTPClient is used for all requests. If nil, a client with Timeout is built.
	HTTPClient *http.Client
	// Logger receives one entry per request. If nil, logrus.StandardLogger() is used.
	Logger *logrus.Logger
}

// Client talks to the board API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient validates config and builds a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// do sends one request and decodes the envelope's data into out (when out
// is non-nil).
func (c *Client) do(ctx context.Context, method, path string, requestBody, out any) error {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("api: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("api: failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	request.Header.Set(RequestIDHeader, requestID)
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	entry := c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
	})

	started := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		entry.WithError(err).Warn("request failed")
		return fmt.Errorf("api: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("api: failed to read response body: %w", err)
	}
	entry = entry.WithFields(logrus.Fields{"status": response.StatusCode, "elapsed": time.Since(started)})

	var env envelope
	decodeErr := json.Unmarshal(responseBody, &env)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		apiErr := &Error{StatusCode: response.StatusCode, Method: method, Path: path, RequestID: requestID}
		if decodeErr == nil {
			apiErr.Message = env.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(responseBody))
		}
		entry.WithField("message", apiErr.Message).Warn("request rejected")
		return apiErr
	}
	entry.Debug("request ok")

	if out == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("api: failed to parse response from %s %s: %w", method, path, decodeErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("api: failed to parse data from %s %s: %w", method, path, err)
	}
	return nil
}

func boardPath(boardID string, parts ...string) string {
	segs := append([]string{"boards", url.PathEscape(boardID)}, parts...)
	return "/" + strings.Join(segs, "/")
}

func esc(s string) string {
	return url.PathEscape(s)
}
