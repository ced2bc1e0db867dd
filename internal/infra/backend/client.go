// Package backend is the REST adapter for the bookstore backend API. It owns
// the wire format, the endpoint-variance fallbacks, and the mapping from raw
// payloads to normalized cart entities. All business rules (discount math,
// order state, refund eligibility) live server-side; this adapter only
// invokes them.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bookbay/storefront/internal/pkg/clientmeta"
)

// userAgent identifies this client to the backend.
const userAgent = "bookbay-storefront/1.0"

const defaultTimeout = 15 * time.Second

type Config struct {
	// BaseURL is the backend API root, e.g. "https://api.bookbay.vn/api/v1".
	BaseURL string

	// Timeout bounds each request. Zero means defaultTimeout. Individual
	// operations never retry transient faults; the only cascades are the
	// endpoint-variant fallbacks for bulk remove and clear.
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

// doJSON executes one request against the backend and returns the raw
// response body. Failures are logged with their status, code and message for
// diagnostics and then returned unchanged — the unwrap never swallows or
// reclassifies an error; callers decide what to do with it.
func (c *Client) doJSON(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if auth := clientmeta.Authorization(ctx); auth != "" {
		req.Header.Set(clientmeta.HeaderAuthorization, auth)
	}
	if session := clientmeta.SessionID(ctx); session != "" {
		req.Header.Set(clientmeta.HeaderXSessionID, session)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		if resp.StatusCode >= 500 {
			slog.ErrorContext(ctx, "backend returned server error",
				"method", method, "path", path,
				"status", apiErr.Status, "code", apiErr.Code, "message", apiErr.Message)
		} else {
			// 4xx are expected outcomes (validation, business rules);
			// keep them out of the error noise.
			slog.DebugContext(ctx, "backend rejected request",
				"method", method, "path", path,
				"status", apiErr.Status, "code", apiErr.Code, "message", apiErr.Message)
		}
		return nil, apiErr
	}

	return respBody, nil
}
