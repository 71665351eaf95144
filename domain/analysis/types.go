// Package analysis defines the fixed analysis catalog, the per-run result
// record, and the upload-time data health report.
package analysis

import (
	"encoding/json"
	"time"

	"ncsresearch/domain/core"
)

// Kind is a key into the fixed analysis catalog. The actual statistical
// computation is delegated to the external R integration backend; these keys
// select which procedures the batched request asks for.
type Kind string

const (
	KindDescriptive Kind = "descriptive"
	KindReliability Kind = "reliability"
	KindCorrelation Kind = "correlation"
	KindEFA         Kind = "efa"
	KindCFA         Kind = "cfa"
	KindRegression  Kind = "regression"
	KindTTest       Kind = "ttest"
	KindANOVA       Kind = "anova"
	KindSEM         Kind = "sem"
)

// Catalog lists every selectable analysis kind in display order
func Catalog() []Kind {
	return []Kind{
		KindDescriptive,
		KindReliability,
		KindCorrelation,
		KindEFA,
		KindCFA,
		KindRegression,
		KindTTest,
		KindANOVA,
		KindSEM,
	}
}

// IsValid reports whether k is a catalog entry
func (k Kind) IsValid() bool {
	for _, known := range Catalog() {
		if k == known {
			return true
		}
	}
	return false
}

// Result is one completed analysis run. Data is the backend payload kept
// opaque: the client never validates its shape, the backend owns the schema.
// Results accumulate append-only for the session and are only cleared when
// the wizard cycles back to the upload step.
type Result struct {
	ID             core.ResultID   `json:"id"`
	Type           Kind            `json:"type"`
	Name           string          `json:"name"`
	Data           json.RawMessage `json:"data"`
	RLibrary       string          `json:"r_library,omitempty"`
	Interpretation string          `json:"interpretation,omitempty"`
	Significance   bool            `json:"significance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// HealthCheck is the upload-time data quality report. Produced once per
// upload and immutable thereafter; a re-upload replaces it wholesale.
type HealthCheck struct {
	TotalRows        int      `json:"total_rows"`
	TotalColumns     int      `json:"total_columns"`
	MissingValues    int      `json:"missing_values"`
	DuplicateRows    int      `json:"duplicate_rows"`
	DataQualityScore float64  `json:"data_quality_score"`
	Issues           []string `json:"issues"`
	Recommendations  []string `json:"recommendations"`
}
