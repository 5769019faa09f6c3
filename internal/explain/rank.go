package explain

import (
	"math"
	"sort"

	"nidsboard/pkg/models"
)

const (
	// DefaultThreshold is the attribution magnitude at or below which a
	// feature is treated as noise.
	DefaultThreshold = 0.001
	// SummaryTopN bounds the features quoted in the narrative.
	SummaryTopN = 3
	// TableTopN bounds the rows in the attribution table.
	TableTopN = 8
)

// Rank keeps attributions with |attribution| > threshold, orders them by
// magnitude descending (ties keep input order) and truncates to topN.
// topN <= 0 means no truncation. The input slice is not modified.
func Rank(attrs []models.FeatureAttribution, threshold float64, topN int) []models.FeatureAttribution {
	out := make([]models.FeatureAttribution, 0, len(attrs))
	for _, a := range attrs {
		if math.Abs(a.Attribution) > threshold {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Attribution) > math.Abs(out[j].Attribution)
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Significant reports whether any attribution clears the threshold.
func Significant(attrs []models.FeatureAttribution, threshold float64) bool {
	for _, a := range attrs {
		if math.Abs(a.Attribution) > threshold {
			return true
		}
	}
	return false
}

// MaxMagnitude returns the largest |attribution|, or 0 for an empty list.
func MaxMagnitude(attrs []models.FeatureAttribution) float64 {
	maxAbs := 0.0
	for _, a := range attrs {
		if v := math.Abs(a.Attribution); v > maxAbs {
			maxAbs = v
		}
	}
	return maxAbs
}

// StrengthLabel buckets an attribution by its share of the largest magnitude.
func StrengthLabel(a, maxAbs float64) string {
	if maxAbs <= 0 {
		return "Weak"
	}
	share := math.Abs(a) / maxAbs * 100
	switch {
	case share > 80:
		return "Very Strong"
	case share > 50:
		return "Strong"
	case share > 25:
		return "Moderate"
	default:
		return "Weak"
	}
}
