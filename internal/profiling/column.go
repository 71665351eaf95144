package profiling

import (
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// ColumnProfile holds the per-column quality markers the health check
// aggregates over.
type ColumnProfile struct {
	Name         string
	Numeric      bool
	MissingCount int
	Mean         float64
	StdDev       float64
	Min          float64
	Max          float64
	Skewness     float64
	Kurtosis     float64
	IsNormal     bool
	NormalityP   float64
	Constant     bool
}

// profileColumn computes descriptives and a normality screen for one column.
// Non-numeric columns only contribute missing-value counts.
func profileColumn(name string, values []string) ColumnProfile {
	profile := ColumnProfile{Name: name, NormalityP: 1.0}

	numeric := make([]float64, 0, len(values))
	parsedAll := true
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			profile.MissingCount++
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			parsedAll = false
			continue
		}
		numeric = append(numeric, f)
	}

	profile.Numeric = parsedAll && len(numeric) > 0
	if !profile.Numeric || len(numeric) == 0 {
		return profile
	}

	profile.Mean, _ = stats.Mean(numeric)
	profile.StdDev, _ = stats.StandardDeviation(numeric)
	profile.Min, _ = stats.Min(numeric)
	profile.Max, _ = stats.Max(numeric)
	profile.Constant = profile.StdDev == 0 && len(numeric) > 1

	if len(numeric) >= 3 && profile.StdDev > 0 {
		profile.Skewness = sampleSkewness(numeric, profile.Mean, profile.StdDev)
		profile.Kurtosis = sampleKurtosis(numeric, profile.Mean, profile.StdDev)
		profile.IsNormal, profile.NormalityP = normalityScreen(profile.Skewness, profile.Kurtosis)
	}
	return profile
}

// sampleSkewness computes the adjusted Fisher-Pearson coefficient
func sampleSkewness(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	if n < 3 {
		return 0
	}
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return (sum / n) * math.Sqrt(n*(n-1)) / (n - 2)
}

// sampleKurtosis computes sample excess kurtosis
func sampleKurtosis(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	if n < 4 {
		return 0
	}
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d * d
	}
	return sum/n - 3
}

// normalityScreen is a Jarque-Bera style screen: the combined
// skewness/kurtosis statistic approximately follows chi-squared with two
// degrees of freedom under normality.
func normalityScreen(skewness, kurtosis float64) (bool, float64) {
	testStat := math.Abs(skewness) + math.Abs(kurtosis)/2
	chi := distuv.ChiSquared{K: 2}
	p := 1 - chi.CDF(testStat*testStat)
	return p > 0.05, p
}
