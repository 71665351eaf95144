package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncsresearch/domain/analysis"
	"ncsresearch/domain/core"
	"ncsresearch/ports"
)

func sampleResults() []analysis.Result {
	return []analysis.Result{
		{
			ID:             core.NewResultID(),
			Type:           analysis.KindReliability,
			Name:           "Cronbach Alpha",
			Data:           json.RawMessage(`{"alpha":0.81,"items":["CX1","CX2"]}`),
			RLibrary:       "psych",
			Interpretation: "Thang đo đạt **độ tin cậy** tốt.",
			Significance:   true,
			CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:        core.NewResultID(),
			Type:      analysis.KindDescriptive,
			Name:      "Descriptives",
			Data:      json.RawMessage(`{"n":220}`),
			CreatedAt: time.Date(2026, 3, 1, 10, 1, 0, 0, time.UTC),
		},
	}
}

func TestExportJSONLosslessRoundTrip(t *testing.T) {
	svc := NewExportService(&stubBackend{})
	original := sampleResults()

	blob, err := svc.ExportJSON(original)
	require.NoError(t, err)

	var restored []analysis.Result
	require.NoError(t, json.Unmarshal(blob, &restored))
	require.Len(t, restored, 2)

	assert.Equal(t, original[0].ID, restored[0].ID)
	assert.Equal(t, original[0].Interpretation, restored[0].Interpretation)
	assert.True(t, original[0].CreatedAt.Equal(restored[0].CreatedAt))
	assert.JSONEq(t, string(original[0].Data), string(restored[0].Data))
	assert.Equal(t, original[1].Name, restored[1].Name)
}

func TestExportHTMLRendersMarkdownInterpretation(t *testing.T) {
	svc := NewExportService(&stubBackend{})

	blob, err := svc.ExportHTML(sampleResults())
	require.NoError(t, err)

	html := string(blob)
	assert.Contains(t, html, "Cronbach Alpha")
	assert.Contains(t, html, "<strong>độ tin cậy</strong>")
	// The payload block is template-escaped, so the quotes render as entities.
	assert.Contains(t, html, "&#34;alpha&#34;: 0.81")
	assert.Contains(t, html, "significant")
}

func TestExportWorkbookRemoteFallsBackLocally(t *testing.T) {
	// The stub backend always fails exports, so the local excelize path runs.
	svc := NewExportService(&stubBackend{})

	blob, err := svc.ExportWorkbookRemote(context.Background(), sampleResults())
	require.NoError(t, err)
	assert.NotEmpty(t, blob)
	// XLSX containers are zip archives.
	assert.Equal(t, byte('P'), blob[0])
	assert.Equal(t, byte('K'), blob[1])
}

func TestExportWorkbookRemotePrefersBackendBlob(t *testing.T) {
	backend := &blobBackend{blob: []byte("remote-bytes")}
	svc := NewExportService(backend)

	blob, err := svc.ExportWorkbookRemote(context.Background(), sampleResults())
	require.NoError(t, err)
	assert.Equal(t, []byte("remote-bytes"), blob)
}

type blobBackend struct {
	stubBackend
	blob []byte
}

func (b *blobBackend) ExportResults(context.Context, []analysis.Result) ports.Response[[]byte] {
	return ports.Response[[]byte]{Success: true, Data: b.blob}
}
