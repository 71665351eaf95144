// Package backend implements the HTTP transport client for the external
// statistics backend (the R integration service). The client is the single
// choke-point for outbound calls: it injects the bearer token, classifies
// network failures, and normalizes every call into the uniform
// success/error envelope. Methods never surface transport failures as Go
// errors; callers branch on the envelope's Success flag.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"ncsresearch/domain/analysis"
	"ncsresearch/internal"
	"ncsresearch/internal/errors"
	"ncsresearch/internal/locale"
	"ncsresearch/ports"
)

// TokenSource supplies the bearer credential, when one is present
type TokenSource interface {
	Token() string
}

// Client talks to the statistics backend over HTTP
type Client struct {
	baseURL          string
	httpClient       *http.Client
	preflightTimeout time.Duration
	tokens           TokenSource
	translator       locale.Localizer
	log              *internal.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used in tests)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPreflightTimeout overrides the upload preflight probe budget
func WithPreflightTimeout(d time.Duration) Option {
	return func(c *Client) { c.preflightTimeout = d }
}

// WithRequestTimeout overrides the overall per-request budget. Analysis
// batches can run for minutes on large datasets, so the default is generous.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithTokenSource wires the bearer credential source
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient creates a transport client for the given backend origin
func NewClient(baseURL string, translator locale.Localizer, opts ...Option) *Client {
	c := &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		httpClient:       &http.Client{Timeout: 120 * time.Second},
		preflightTimeout: 3 * time.Second,
		translator:       translator,
		log:              internal.DefaultLogger.Named("backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend origin
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request performs one HTTP call and folds every failure mode into the
// envelope. The backend's JSON body is decoded verbatim; the shape of Data
// is never validated here, the backend owns its schema.
func request[T any](c *Client, ctx context.Context, method, endpoint string, contentType string, body io.Reader) ports.Response[T] {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return ports.Fail[T](errors.CodeInternalError, fmt.Sprintf("failed to build request: %v", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("%s %s failed: %v", method, endpoint, err)
		return ports.Fail[T](errors.CodeBackendUnreachable,
			c.translator.Sprintf(locale.MsgBackendUnreachable, c.baseURL))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Fail[T](errors.CodeBackendUnreachable,
			c.translator.Sprintf(locale.MsgBackendUnreachable, c.baseURL))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Intentionally verbose: status plus raw body aids debugging against
		// a pre-production backend.
		return ports.Fail[T](errors.CodeHTTPStatus,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(raw)))
	}

	var envelope ports.Response[T]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ports.Fail[T](errors.CodeInternalError,
			fmt.Sprintf("invalid backend response: %v", err))
	}
	return envelope
}

// Health probes the backend's health endpoint
func (c *Client) Health(ctx context.Context) ports.Response[json.RawMessage] {
	return request[json.RawMessage](c, ctx, http.MethodGet, "/api/health", "", nil)
}

// healthy runs a bounded health probe and reports whether the backend
// answered in time
func (c *Client) healthy(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.preflightTimeout)
	defer cancel()
	resp := c.Health(probeCtx)
	return resp.Success
}

// UploadDataFile posts the dataset as multipart form data under field "file".
// Multipart uploads are expensive and slow to fail against a dead backend, so
// a cheap bounded health probe runs first; on probe failure or timeout the
// POST is never issued.
func (c *Client) UploadDataFile(ctx context.Context, filename string, file io.Reader) ports.Response[ports.UploadPayload] {
	if !c.healthy(ctx) {
		c.log.Warn("upload aborted, preflight probe failed for %s", c.baseURL)
		return ports.Fail[ports.UploadPayload](errors.CodeBackendUnhealthy,
			c.translator.Sprintf(locale.MsgBackendUnhealthy, c.baseURL))
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return ports.Fail[ports.UploadPayload](errors.CodeInternalError,
			c.translator.Sprintf(locale.MsgUploadFailed, err.Error()))
	}
	if _, err := io.Copy(part, file); err != nil {
		return ports.Fail[ports.UploadPayload](errors.CodeInternalError,
			c.translator.Sprintf(locale.MsgUploadFailed, err.Error()))
	}
	if err := writer.Close(); err != nil {
		return ports.Fail[ports.UploadPayload](errors.CodeInternalError,
			c.translator.Sprintf(locale.MsgUploadFailed, err.Error()))
	}

	return request[ports.UploadPayload](c, ctx, http.MethodPost,
		"/api/data-analysis/upload", writer.FormDataContentType(), &buf)
}

// RunAnalysis submits the batched analysis request as JSON. Results whose
// top-level fields are missing get them backfilled from the raw payload, so
// downstream code never re-probes the JSON.
func (c *Client) RunAnalysis(ctx context.Context, req ports.AnalysisRequest) ports.Response[ports.AnalysisPayload] {
	body, err := json.Marshal(req)
	if err != nil {
		return ports.Fail[ports.AnalysisPayload](errors.CodeInternalError,
			fmt.Sprintf("failed to encode analysis request: %v", err))
	}
	env := request[ports.AnalysisPayload](c, ctx, http.MethodPost,
		"/api/data-analysis/run-analysis", "application/json", bytes.NewReader(body))
	if env.Success {
		for i := range env.Data.Results {
			res := &env.Data.Results[i]
			if !res.Significance {
				if sig, ok := SignificanceFromPayload(res.Data); ok {
					res.Significance = sig
				}
			}
			if res.RLibrary == "" {
				res.RLibrary = RLibraryFromPayload(res.Data)
			}
		}
	}
	return env
}

// ExportResults asks the backend to render the results as a spreadsheet.
// This is the blob path: the response body is raw bytes, not the JSON
// envelope, but failures are classified identically.
func (c *Client) ExportResults(ctx context.Context, results []analysis.Result) ports.Response[[]byte] {
	body, err := json.Marshal(map[string]interface{}{"results": results})
	if err != nil {
		return ports.Fail[[]byte](errors.CodeInternalError,
			fmt.Sprintf("failed to encode export request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/data-analysis/export", bytes.NewReader(body))
	if err != nil {
		return ports.Fail[[]byte](errors.CodeInternalError, fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.Fail[[]byte](errors.CodeBackendUnreachable,
			c.translator.Sprintf(locale.MsgBackendUnreachable, c.baseURL))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Fail[[]byte](errors.CodeBackendUnreachable,
			c.translator.Sprintf(locale.MsgBackendUnreachable, c.baseURL))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ports.Fail[[]byte](errors.CodeHTTPStatus,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(raw)))
	}

	return ports.Response[[]byte]{Success: true, Data: raw}
}
