package app

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"ncsresearch/adapters/excel"
	"ncsresearch/domain/analysis"
	"ncsresearch/internal"
	"ncsresearch/internal/errors"
	"ncsresearch/ports"
)

// ExportService renders accumulated analysis results as downloadable
// artifacts. Workbook export prefers the backend's renderer when it is
// reachable and falls back to local generation.
type ExportService struct {
	backend ports.StatsBackend
	log     *internal.Logger
}

// NewExportService creates the exporter
func NewExportService(backend ports.StatsBackend) *ExportService {
	return &ExportService{
		backend: backend,
		log:     internal.DefaultLogger.Named("export"),
	}
}

// ExportJSON serializes the results losslessly: every stored field survives
// a round trip, including the raw backend payloads.
func (s *ExportService) ExportJSON(results []analysis.Result) ([]byte, error) {
	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize results")
	}
	return out, nil
}

// ExportWorkbook renders the results as an Excel workbook locally
func (s *ExportService) ExportWorkbook(results []analysis.Result) ([]byte, error) {
	return excel.WriteResultsWorkbook("results", results)
}

// ExportWorkbookRemote asks the statistics backend to render the workbook
// and falls back to local generation when the backend is unavailable.
func (s *ExportService) ExportWorkbookRemote(ctx context.Context, results []analysis.Result) ([]byte, error) {
	env := s.backend.ExportResults(ctx, results)
	if env.Success && len(env.Data) > 0 {
		return env.Data, nil
	}
	s.log.Warn("backend export unavailable (%s), generating workbook locally", env.ErrorCode)
	return s.ExportWorkbook(results)
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="vi">
<head>
<meta charset="utf-8">
<title>Analysis Results</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; color: #1f2933; }
section { border: 1px solid #d9e2ec; border-radius: 8px; padding: 1rem 1.5rem; margin-bottom: 1.5rem; }
h2 { margin-top: 0; }
.meta { color: #52606d; font-size: 0.9rem; }
.significant { color: #0f7b3f; font-weight: 600; }
pre { background: #f5f7fa; padding: 1rem; border-radius: 6px; overflow-x: auto; }
</style>
</head>
<body>
<h1>Analysis Results</h1>
{{range .}}
<section>
<h2>{{.Name}}</h2>
<p class="meta">{{.Type}}{{if .RLibrary}} · {{.RLibrary}}{{end}}{{if .Significance}} · <span class="significant">significant</span>{{end}}</p>
{{if .Interpretation}}<div>{{.Interpretation}}</div>{{end}}
{{if .Payload}}<pre>{{.Payload}}</pre>{{end}}
</section>
{{end}}
</body>
</html>
`))

type reportSection struct {
	Name           string
	Type           string
	RLibrary       string
	Significance   bool
	Interpretation template.HTML
	Payload        string
}

// ExportHTML renders a standalone report. Interpretations are markdown as
// written by the backend's R pipeline and are rendered to HTML here.
func (s *ExportService) ExportHTML(results []analysis.Result) ([]byte, error) {
	sections := make([]reportSection, 0, len(results))
	for _, res := range results {
		sections = append(sections, reportSection{
			Name:           res.Name,
			Type:           string(res.Type),
			RLibrary:       res.RLibrary,
			Significance:   res.Significance,
			Interpretation: renderMarkdown(res.Interpretation),
			Payload:        prettyJSON(res.Data),
		})
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, sections); err != nil {
		return nil, errors.Wrap(err, "failed to render report")
	}
	return buf.Bytes(), nil
}

func renderMarkdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return template.HTML(markdown.ToHTML([]byte(src), p, renderer))
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
