// Command rbackend is a stand-in for the R statistics service used in local
// development. It speaks the same API shape: the JSON envelope, the multipart
// upload endpoint, the batched analysis run, and the workbook export. Numbers
// it returns are synthesized, not real statistics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ncsresearch/adapters/excel"
	"ncsresearch/domain/analysis"
	"ncsresearch/domain/core"
	"ncsresearch/internal/profiling"
	"ncsresearch/ports"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/api/health", handleHealth)
	r.Post("/api/data-analysis/upload", handleUpload)
	r.Post("/api/data-analysis/run-analysis", handleRunAnalysis)
	r.Post("/api/data-analysis/export", handleExport)

	log.Printf("mock statistics backend listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, r))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeFail(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ports.Fail[json.RawMessage](code, message))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ports.Response[map[string]string]{
		Success: true,
		Data: map[string]string{
			"status":    "healthy",
			"r_version": "4.3.2",
		},
	})
}

func handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeFail(w, http.StatusBadRequest, "INVALID_INPUT", "expected multipart form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeFail(w, http.StatusBadRequest, "INVALID_INPUT", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	table, err := excel.ReadTable(header.Filename, file)
	if err != nil {
		writeFail(w, http.StatusUnprocessableEntity, "INVALID_INPUT", err.Error())
		return
	}

	report, err := profiling.NewProfiler().Profile(r.Context(), table.Headers, table.Rows)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ports.Response[ports.UploadPayload]{
		Success: true,
		Data:    ports.UploadPayload{HealthCheck: report},
	})
}

func handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req ports.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "INVALID_INPUT", "invalid analysis request")
		return
	}
	if len(req.Analyses) == 0 {
		writeFail(w, http.StatusBadRequest, "VALIDATION_ERROR", "no analyses selected")
		return
	}

	results := make([]analysis.Result, 0, len(req.Analyses))
	for _, kind := range req.Analyses {
		results = append(results, synthesize(kind, len(req.Variables)))
	}

	writeJSON(w, http.StatusOK, ports.Response[ports.AnalysisPayload]{
		Success: true,
		Data:    ports.AnalysisPayload{Results: results},
	})
}

// synthesize fabricates a plausible result payload for one analysis kind
func synthesize(kind analysis.Kind, nVars int) analysis.Result {
	var data map[string]interface{}
	var name, library, interp string

	switch kind {
	case analysis.KindReliability:
		name, library = "Cronbach's Alpha", "psych"
		data = map[string]interface{}{"alpha": 0.82, "items": nVars, "significant": true}
		interp = "Thang đo đạt **độ tin cậy** chấp nhận được (α > 0.7)."
	case analysis.KindCorrelation:
		name, library = "Correlation Matrix", "stats"
		data = map[string]interface{}{"method": "pearson", "p_value": 0.003}
		interp = "Các biến có tương quan **dương** có ý nghĩa thống kê."
	case analysis.KindEFA:
		name, library = "Exploratory Factor Analysis", "psych"
		data = map[string]interface{}{"kmo": 0.84, "factors": 3, "p_value": 0.001}
		interp = "Dữ liệu phù hợp để phân tích nhân tố (KMO > 0.8)."
	case analysis.KindCFA:
		name, library = "Confirmatory Factor Analysis", "lavaan"
		data = map[string]interface{}{"cfi": 0.95, "rmsea": 0.048, "significant": true}
	case analysis.KindRegression:
		name, library = "Multiple Regression", "stats"
		data = map[string]interface{}{"r_squared": 0.41, "p_value": 0.0008}
	case analysis.KindSEM:
		name, library = "Structural Equation Model", "lavaan"
		data = map[string]interface{}{"cfi": 0.93, "srmr": 0.05, "p_value": 0.012}
	case analysis.KindTTest:
		name, library = "Independent Samples T-Test", "stats"
		data = map[string]interface{}{"t": 2.31, "p_value": 0.022}
	case analysis.KindANOVA:
		name, library = "One-Way ANOVA", "stats"
		data = map[string]interface{}{"f": 4.87, "p_value": 0.009}
	default:
		name, library = "Descriptive Statistics", "stats"
		data = map[string]interface{}{"variables": nVars}
		interp = "Thống kê mô tả cho toàn bộ biến trong mô hình."
	}

	raw, _ := json.Marshal(data)
	return analysis.Result{
		ID:             core.NewResultID(),
		Type:           kind,
		Name:           name,
		Data:           raw,
		RLibrary:       library,
		Interpretation: interp,
		CreatedAt:      time.Now(),
	}
}

func handleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Results []analysis.Result `json:"results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "INVALID_INPUT", "invalid export request")
		return
	}

	blob, err := excel.WriteResultsWorkbook("results", req.Results)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "results.xlsx"))
	w.Write(blob)
}
