package ports

import (
	"context"
	"encoding/json"
	"io"

	"ncsresearch/domain/analysis"
	"ncsresearch/domain/model"
	"ncsresearch/domain/variable"
)

// Response is the uniform envelope every statistics-backend call resolves to.
// Transport methods never return a Go error for HTTP-layer failures: network
// problems, bad statuses, and preflight timeouts are all classified into
// Success=false with an operator-facing Error string. Callers branch on
// Success only.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	// ErrorCode carries the transport classification (BACKEND_UNREACHABLE,
	// BACKEND_UNHEALTHY, HTTP_STATUS, ...) for callers that need more than
	// the display string.
	ErrorCode string `json:"error_code,omitempty"`
}

// Fail builds a failed envelope
func Fail[T any](code, message string) Response[T] {
	return Response[T]{Success: false, Error: message, ErrorCode: code}
}

// UploadPayload is the backend's answer to a dataset upload: the health
// report, the inferred variable list, and optionally its own grouping.
type UploadPayload struct {
	HealthCheck *analysis.HealthCheck `json:"healthCheck,omitempty"`
	Variables   []variable.Variable   `json:"variables,omitempty"`
	// Groups maps group name to member variable names. The backend may omit
	// it entirely or cover only part of the variables; the caller merges it
	// with the client-side auto-grouper.
	Groups map[string][]string `json:"groups,omitempty"`
}

// AnalysisRequest is the single batched submission: the full working set,
// the research model, and the selected analysis kinds. The batch is atomic
// from the caller's perspective; a partial failure fails the whole batch.
type AnalysisRequest struct {
	Variables []variable.Variable `json:"variables"`
	Model     model.ResearchModel `json:"model"`
	Analyses  []analysis.Kind     `json:"analyses"`
}

// AnalysisPayload carries the batch results
type AnalysisPayload struct {
	Results []analysis.Result `json:"results"`
}

// StatsBackend is the transport port to the external R integration service.
// Every method takes a context so navigation-away can abort in-flight work.
type StatsBackend interface {
	// Health probes GET /api/health; Success reports the backend online.
	Health(ctx context.Context) Response[json.RawMessage]

	// UploadDataFile posts the dataset as multipart form data. A bounded
	// preflight health probe runs first; when it fails or times out the
	// multipart POST is never issued.
	UploadDataFile(ctx context.Context, filename string, file io.Reader) Response[UploadPayload]

	// RunAnalysis submits the batched analysis request.
	RunAnalysis(ctx context.Context, req AnalysisRequest) Response[AnalysisPayload]

	// ExportResults asks the backend to render results as a spreadsheet and
	// returns the raw blob.
	ExportResults(ctx context.Context, results []analysis.Result) Response[[]byte]
}
