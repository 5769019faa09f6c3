package explain

import (
	"math"
	"reflect"
	"testing"

	"nidsboard/pkg/models"
)

func attrs(pairs ...interface{}) []models.FeatureAttribution {
	out := make([]models.FeatureAttribution, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.FeatureAttribution{Feature: pairs[i].(string), Attribution: pairs[i+1].(float64)})
	}
	return out
}

func TestRankScenarioPreservesOrder(t *testing.T) {
	in := []models.FeatureAttribution{
		{Feature: "serror_rate", Value: 0.85, Attribution: 0.22},
		{Feature: "count", Value: 0.9, Attribution: 0.15},
	}
	got := Rank(in, DefaultThreshold, SummaryTopN)
	if len(got) != 2 || got[0].Feature != "serror_rate" || got[1].Feature != "count" {
		t.Fatalf("unexpected ranking: %+v", got)
	}
}

func TestRankAllBelowThresholdIsEmpty(t *testing.T) {
	got := Rank(attrs("a", 0.0005, "b", -0.0005, "c", 0.001), DefaultThreshold, SummaryTopN)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRankProperties(t *testing.T) {
	lists := [][]models.FeatureAttribution{
		attrs("a", 0.3, "b", -0.5, "c", 0.0002, "d", 0.1, "e", -0.1, "f", 0.7),
		attrs("x", -0.02, "y", 0.02, "z", 0.02),
		attrs("n", math.NaN(), "p", 0.4),
		nil,
	}
	for _, xs := range lists {
		for _, n := range []int{1, 2, 3, 8} {
			got := Rank(xs, DefaultThreshold, n)
			if len(got) > n {
				t.Fatalf("len %d exceeds topN %d", len(got), n)
			}
			for i, a := range got {
				if !(math.Abs(a.Attribution) > DefaultThreshold) {
					t.Fatalf("element %d below threshold: %+v", i, a)
				}
				if i > 0 && math.Abs(got[i-1].Attribution) < math.Abs(a.Attribution) {
					t.Fatalf("not sorted at %d: %+v", i, got)
				}
			}
			again := Rank(got, DefaultThreshold, n)
			if !reflect.DeepEqual(again, got) {
				t.Fatalf("rank not idempotent: %+v vs %+v", got, again)
			}
		}
	}
}

func TestRankStableOnTies(t *testing.T) {
	got := Rank(attrs("x", -0.02, "y", 0.02, "z", 0.02), DefaultThreshold, 0)
	if got[0].Feature != "x" || got[1].Feature != "y" || got[2].Feature != "z" {
		t.Fatalf("ties should keep input order: %+v", got)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := attrs("a", 0.1, "b", 0.5)
	Rank(in, DefaultThreshold, 1)
	if in[0].Feature != "a" || in[1].Feature != "b" {
		t.Fatalf("input mutated: %+v", in)
	}
}

func TestStrengthLabel(t *testing.T) {
	cases := []struct {
		a, max float64
		want   string
	}{
		{0.9, 1, "Very Strong"},
		{-0.6, 1, "Strong"},
		{0.3, 1, "Moderate"},
		{0.25, 1, "Weak"},
		{0.1, 0, "Weak"},
	}
	for _, tc := range cases {
		if got := StrengthLabel(tc.a, tc.max); got != tc.want {
			t.Fatalf("StrengthLabel(%v, %v) = %q, want %q", tc.a, tc.max, got, tc.want)
		}
	}
	if MaxMagnitude(attrs("a", -0.4, "b", 0.2)) != 0.4 {
		t.Fatalf("unexpected max magnitude")
	}
}
