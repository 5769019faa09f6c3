package explain

import (
	"math"
	"strings"
	"testing"
)

func TestAnalyzeRootShellIgnoresDirection(t *testing.T) {
	for _, push := range []bool{true, false} {
		got := Analyze("root_shell", 1, push)
		if got != rootShellDetectedSentence {
			t.Fatalf("pushesAttack=%v: unexpected sentence %q", push, got)
		}
		if !strings.Contains(strings.ToLower(got), "root shell access detected") {
			t.Fatalf("missing fixed phrase: %q", got)
		}
	}
	if got := Analyze("root_shell", 0, true); strings.Contains(got, "detected.") {
		t.Fatalf("zero root_shell should not report detection: %q", got)
	}
}

func TestAnalyzeLandAndFragmentsIgnoreDirection(t *testing.T) {
	if Analyze("land", 1, false) != landDetectedSentence {
		t.Fatalf("land should be fixed sentence")
	}
	a := Analyze("wrong_fragment", 0.5, false)
	b := Analyze("wrong_fragment", 0.5, true)
	if a != b || !strings.Contains(a, "Malformed packet fragments detected (50%)") {
		t.Fatalf("wrong_fragment above threshold should ignore sign: %q / %q", a, b)
	}
}

func TestAnalyzeFeatureBranches(t *testing.T) {
	cases := []struct {
		key   string
		value float64
		push  bool
		want  string
	}{
		{"serror_rate", 0.85, true, "85% SYN error rate is extremely high"},
		{"serror_rate", -0.8, false, "Very low SYN error rate (-80%)"},
		{"serror_rate", 0.2, true, "is elevated above"},
		{"count", 0.9, true, "significantly higher than normal traffic"},
		{"count", -0.5, false, "Low connection count (-50%)"},
		{"count", 0.1, false, "aligns with legitimate usage"},
		{"duration", 0.7, true, "Very long connections"},
		{"duration", -0.7, true, "Very short connections"},
		{"same_srv_rate", 0.9, true, "extreme focus"},
		{"same_srv_rate", 0.1, false, "typical of human browsing"},
		{"diff_srv_rate", -0.6, true, "suggests automated tools"},
		{"logged_in", 1, false, "normal indicator of legitimate access"},
		{"logged_in", 0, true, "unauthorized access attempts"},
		{"num_failed_logins", 0.4, true, "brute-force"},
		{"dst_host_serror_rate", 0.7, true, "being scanned or attacked"},
		{"hot", 0.5, true, "/etc/passwd"},
	}
	for _, tc := range cases {
		got := Analyze(tc.key, tc.value, tc.push)
		if !strings.Contains(got, tc.want) {
			t.Fatalf("Analyze(%s, %v, %v) = %q, want substring %q", tc.key, tc.value, tc.push, got, tc.want)
		}
	}
}

func TestAnalyzeGenericFallback(t *testing.T) {
	got := Analyze("mystery_metric", 0.42, true)
	if !strings.Contains(got, "(42%) is higher than typical for normal traffic") {
		t.Fatalf("unexpected generic attack sentence: %q", got)
	}
	got = Analyze("mystery_metric", -0.42, false)
	if !strings.Contains(got, "(-42%) is lower than attack patterns") {
		t.Fatalf("unexpected generic normal sentence: %q", got)
	}
}

func TestAnalyzeNeverPanicsOrReturnsEmpty(t *testing.T) {
	keys := []string{"", "duration", "src_bytes", "dst_bytes", "count", "srv_count", "same_srv_rate",
		"diff_srv_rate", "serror_rate", "dst_host_serror_rate", "logged_in", "num_failed_logins",
		"root_shell", "num_root", "num_file_creations", "hot", "num_shells", "wrong_fragment",
		"urgent", "land", "unknown_feature", "\x00weird key"}
	values := []float64{-1e9, -1, -0.5, 0, 0.5, 1, 1e9, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, k := range keys {
		for _, v := range values {
			for _, push := range []bool{true, false} {
				if got := Analyze(k, v, push); got == "" {
					t.Fatalf("Analyze(%q, %v, %v) returned empty", k, v, push)
				}
			}
		}
	}
}
