package explain

import (
	"fmt"
	"math"
	"strings"
)

// FormatValue renders a normalized feature value. Values in [-1, 1] are
// shown as a percentage with one decimal, anything else with two decimals.
func FormatValue(v float64) string {
	if v >= -1 && v <= 1 {
		return fmt.Sprintf("%.1f%%", v*100)
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatSignedValue renders the table's value column: the magnitude of
// FormatValue, prefixed with "+" when the feature pushed toward attack.
func FormatSignedValue(v float64, pushesAttack bool) string {
	s := strings.Replace(FormatValue(v), "-", "", 1)
	if pushesAttack {
		return "+" + s
	}
	return s
}

// FormatImpact renders a signed attribution with four decimals.
func FormatImpact(a float64) string {
	if a > 0 {
		return fmt.Sprintf("+%.4f", a)
	}
	return fmt.Sprintf("%.4f", a)
}

// percent is the whole-number percentage used inside analyzer sentences.
func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%d", int64(math.Round(v*100)))
}
