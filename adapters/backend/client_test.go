package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncsresearch/domain/analysis"
	"ncsresearch/internal/errors"
	"ncsresearch/internal/locale"
	"ncsresearch/ports"
)

type refusingTransport struct{}

func (refusingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, fmt.Errorf("dial tcp 127.0.0.1:8000: connect: connection refused")
}

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestClient(t *testing.T, serverURL string, opts ...Option) *Client {
	t.Helper()
	return NewClient(serverURL, locale.NewTranslator("en"), opts...)
}

func TestRequestClassifiesNetworkUnreachable(t *testing.T) {
	client := NewClient("http://localhost:8000", locale.NewTranslator("en"),
		WithHTTPClient(&http.Client{Transport: refusingTransport{}}))

	resp := client.Health(context.Background())

	assert.False(t, resp.Success)
	assert.Equal(t, errors.CodeBackendUnreachable, resp.ErrorCode)
	// Fixed, operator-actionable message naming the backend origin, never a
	// raw transport error.
	assert.Contains(t, resp.Error, "localhost:8000")
	assert.NotContains(t, resp.Error, "dial tcp")
}

func TestRequestClassifiesNetworkUnreachableVietnamese(t *testing.T) {
	client := NewClient("http://localhost:8000", locale.NewTranslator("vi"),
		WithHTTPClient(&http.Client{Transport: refusingTransport{}}))

	resp := client.Health(context.Background())

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "localhost:8000")
	assert.Contains(t, resp.Error, "Không thể kết nối")
}

func TestRequestEmbedsStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp := client.Health(context.Background())

	assert.False(t, resp.Success)
	assert.Equal(t, errors.CodeHTTPStatus, resp.ErrorCode)
	assert.Contains(t, resp.Error, "500")
	assert.Contains(t, resp.Error, "boom")
}

func TestRequestPassesEnvelopeThroughVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"error":"file has no numeric columns"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp := client.Health(context.Background())

	// Backend-reported business errors pass through untouched.
	assert.False(t, resp.Success)
	assert.Equal(t, "file has no numeric columns", resp.Error)
	assert.Empty(t, resp.ErrorCode)
}

func TestRequestInjectsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithTokenSource(staticTokens("tok-123")))
	resp := client.Health(context.Background())

	require.True(t, resp.Success)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestUploadPreflightShortCircuit(t *testing.T) {
	var uploads atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		// Stall past the preflight budget.
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"success":true}`)
	})
	mux.HandleFunc("/api/data-analysis/upload", func(w http.ResponseWriter, r *http.Request) {
		uploads.Add(1)
		fmt.Fprint(w, `{"success":true}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL, WithPreflightTimeout(30*time.Millisecond))
	resp := client.UploadDataFile(context.Background(), "data.csv", strings.NewReader("a,b\n1,2\n"))

	assert.False(t, resp.Success)
	assert.Equal(t, errors.CodeBackendUnhealthy, resp.ErrorCode)
	assert.Contains(t, resp.Error, server.URL)
	assert.Equal(t, int32(0), uploads.Load(), "multipart POST must never be issued after a failed preflight")
}

func TestUploadPostsMultipartAfterHealthyPreflight(t *testing.T) {
	var uploads atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true}`)
	})
	mux.HandleFunc("/api/data-analysis/upload", func(w http.ResponseWriter, r *http.Request) {
		uploads.Add(1)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "data.csv", header.Filename)
		fmt.Fprint(w, `{"success":true,"data":{"healthCheck":{"total_rows":1,"total_columns":2,"data_quality_score":100},"variables":[{"id":"v1","name":"EM1","type":"continuous"}]}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp := client.UploadDataFile(context.Background(), "data.csv", strings.NewReader("a,b\n1,2\n"))

	require.True(t, resp.Success, "upload failed: %s", resp.Error)
	assert.Equal(t, int32(1), uploads.Load())
	require.NotNil(t, resp.Data.HealthCheck)
	assert.Equal(t, 1, resp.Data.HealthCheck.TotalRows)
	require.Len(t, resp.Data.Variables, 1)
	assert.Equal(t, "EM1", resp.Data.Variables[0].Name)
}

func TestRunAnalysisSubmitsBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/data-analysis/run-analysis", r.URL.Path)
		var req ports.AnalysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Analyses, 2)
		fmt.Fprint(w, `{"success":true,"data":{"results":[{"id":"r1","type":"descriptive","name":"Descriptive Statistics","data":{"mean":3.2},"r_library":"psych","significance":false}]}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp := client.RunAnalysis(context.Background(), ports.AnalysisRequest{
		Analyses: []analysis.Kind{analysis.KindDescriptive, analysis.KindReliability},
	})

	require.True(t, resp.Success)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, "psych", resp.Data.Results[0].RLibrary)
}

func TestExportResultsReturnsBlob(t *testing.T) {
	blob := []byte{0x50, 0x4b, 0x03, 0x04} // xlsx magic
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/data-analysis/export", r.URL.Path)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write(blob)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp := client.ExportResults(context.Background(), nil)

	require.True(t, resp.Success)
	assert.Equal(t, blob, resp.Data)
}

func TestSignificanceFromPayload(t *testing.T) {
	tests := []struct {
		payload   string
		want      bool
		wantFound bool
	}{
		{`{"significant":true}`, true, true},
		{`{"significant":false}`, false, true},
		{`{"p_value":0.01}`, true, true},
		{`{"p_value":0.2}`, false, true},
		{`{"mean":1.5}`, false, false},
		{``, false, false},
	}
	for _, tt := range tests {
		got, found := SignificanceFromPayload(json.RawMessage(tt.payload))
		assert.Equal(t, tt.wantFound, found, "payload %s", tt.payload)
		assert.Equal(t, tt.want, got, "payload %s", tt.payload)
	}
}
