// Package profiling computes a local data health check over an uploaded
// dataset, used when the statistics backend is unavailable or returns no
// health summary of its own.
package profiling

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"ncsresearch/domain/analysis"
	"ncsresearch/internal"
)

// maxConcurrentColumns bounds per-column statistical work so wide survey
// files do not fan out unbounded goroutines.
const maxConcurrentColumns = 8

// Profiler computes dataset-level health checks from raw tabular data.
type Profiler struct {
	sem *semaphore.Weighted
	log *internal.Logger
}

// NewProfiler creates a profiler with bounded column concurrency.
func NewProfiler() *Profiler {
	return &Profiler{
		sem: semaphore.NewWeighted(maxConcurrentColumns),
		log: internal.DefaultLogger.Named("profiling"),
	}
}

// Profile computes a health check over the parsed table. Column profiling
// runs concurrently under the profiler's semaphore; ctx cancellation aborts
// the remaining columns.
func (p *Profiler) Profile(ctx context.Context, headers []string, rows [][]string) (*analysis.HealthCheck, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("cannot profile a dataset with no columns")
	}

	columns := make([][]string, len(headers))
	for i := range headers {
		col := make([]string, 0, len(rows))
		for _, row := range rows {
			if i < len(row) {
				col = append(col, row[i])
			} else {
				col = append(col, "")
			}
		}
		columns[i] = col
	}

	profiles := make([]ColumnProfile, len(headers))
	var wg sync.WaitGroup
	for i := range headers {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer p.sem.Release(1)
			profiles[i] = profileColumn(headers[i], columns[i])
		}(i)
	}
	wg.Wait()

	hc := p.aggregate(headers, rows, profiles)
	p.log.Debug("local health check: %d rows, %d columns, quality %.1f",
		hc.TotalRows, hc.TotalColumns, hc.DataQualityScore)
	return hc, nil
}

func (p *Profiler) aggregate(headers []string, rows [][]string, profiles []ColumnProfile) *analysis.HealthCheck {
	hc := &analysis.HealthCheck{
		TotalRows:    len(rows),
		TotalColumns: len(headers),
	}

	for _, prof := range profiles {
		hc.MissingValues += prof.MissingCount
	}
	hc.DuplicateRows = countDuplicateRows(rows)

	totalCells := len(rows) * len(headers)
	missingRatio := 0.0
	if totalCells > 0 {
		missingRatio = float64(hc.MissingValues) / float64(totalCells)
	}
	duplicateRatio := 0.0
	if len(rows) > 0 {
		duplicateRatio = float64(hc.DuplicateRows) / float64(len(rows))
	}

	score := 100.0
	score -= missingRatio * 40
	score -= duplicateRatio * 30

	if missingRatio > 0 {
		hc.Issues = append(hc.Issues, fmt.Sprintf("%d missing values (%.1f%% of cells)",
			hc.MissingValues, missingRatio*100))
		hc.Recommendations = append(hc.Recommendations,
			"Review missing values; consider imputation or listwise deletion before analysis")
	}
	if hc.DuplicateRows > 0 {
		hc.Issues = append(hc.Issues, fmt.Sprintf("%d duplicate rows", hc.DuplicateRows))
		hc.Recommendations = append(hc.Recommendations,
			"Remove duplicate responses to avoid inflating sample size")
	}

	var constant, nonNormal []string
	for _, prof := range profiles {
		if prof.Constant {
			constant = append(constant, prof.Name)
		}
		if prof.Numeric && !prof.Constant && prof.NormalityP > 0 && !prof.IsNormal {
			nonNormal = append(nonNormal, prof.Name)
		}
	}
	if len(constant) > 0 {
		sort.Strings(constant)
		score -= 5 * float64(len(constant))
		hc.Issues = append(hc.Issues,
			fmt.Sprintf("constant columns with no variance: %s", strings.Join(constant, ", ")))
		hc.Recommendations = append(hc.Recommendations,
			"Exclude zero-variance columns from the measurement model")
	}
	if len(nonNormal) > 0 {
		sort.Strings(nonNormal)
		hc.Recommendations = append(hc.Recommendations,
			fmt.Sprintf("Columns deviating from normality (%s): prefer robust or non-parametric methods",
				strings.Join(nonNormal, ", ")))
	}
	if hc.TotalRows < 30 {
		score -= 10
		hc.Issues = append(hc.Issues,
			fmt.Sprintf("small sample: %d rows", hc.TotalRows))
		hc.Recommendations = append(hc.Recommendations,
			"Sample sizes under 30 limit the reliability of most statistical tests")
	}

	hc.DataQualityScore = math.Round(math.Max(0, math.Min(100, score))*10) / 10
	return hc
}

// countDuplicateRows counts rows identical to an earlier row.
func countDuplicateRows(rows [][]string) int {
	seen := make(map[string]struct{}, len(rows))
	dupes := 0
	for _, row := range rows {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			dupes++
			continue
		}
		seen[key] = struct{}{}
	}
	return dupes
}
