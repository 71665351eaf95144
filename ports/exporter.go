package ports

import (
	"ncsresearch/domain/analysis"
)

// ResultExporter serializes accumulated analysis results into downloadable
// artifacts. JSON export must be lossless field for field.
type ResultExporter interface {
	ExportJSON(results []analysis.Result) ([]byte, error)
	ExportWorkbook(results []analysis.Result) ([]byte, error)
	ExportHTML(results []analysis.Result) ([]byte, error)
}
