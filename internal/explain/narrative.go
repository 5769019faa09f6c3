package explain

import (
	"fmt"
	"html"
	"strings"

	"nidsboard/pkg/models"
)

type clauseRule struct {
	substrings []string
	text       string
}

// classTemplate holds the class-keyed text and its ordered clause bank.
type classTemplate struct {
	intro      string
	confidence string // %s is the lower-cased top feature name
	rules      []clauseRule
	fallback   string
	caveat     string
	opposing   string
	critical   string
}

var templates = map[models.PredictedClass]classTemplate{
	models.ClassDoS: {
		intro:      "The model detected this as a DoS (Denial of Service) attack because the pattern of features matches what it learned from thousands of real DoS attacks during training. The strongest indicators were:",
		confidence: "The model reached its confidence by identifying %s combined with other attack patterns. DoS attacks typically flood networks with requests, causing high error rates and connection counts, which is exactly what the model found here.",
		rules: []clauseRule{
			{[]string{"error", "serror"}, "High error rates are the signature of DoS floods overwhelming the target"},
			{[]string{"count"}, "Massive connection counts indicate flooding behavior"},
			{[]string{"same_srv", "srv_count"}, "Repeatedly hammering the same service is typical DoS behavior"},
		},
		fallback: "This pattern matches DoS attacks seen in training",
		caveat:   "Some features suggested it might be normal traffic, but the DoS indicators above were much stronger.",
		opposing: "Pointed toward normal traffic, but was outweighed by the DoS indicators",
	},
	models.ClassProbe: {
		intro:      "The model detected this as a Probe/Scanning attack because the traffic pattern matches reconnaissance behavior it learned during training. The key indicators were:",
		confidence: "The model's confidence comes from recognizing %s patterns typical of attackers scanning networks for vulnerabilities. Port scans create many failed connections and unusual port usage, signature patterns the model learned to identify.",
		rules: []clauseRule{
			{[]string{"error", "serror"}, "High errors from trying many ports and services that don't exist"},
			{[]string{"same_src_port", "dst_host"}, "Systematic scanning pattern across multiple targets"},
			{[]string{"count"}, "Rapid connection attempts typical of port and service scanning"},
		},
		fallback: "Matches reconnaissance attack patterns",
		caveat:   "Some features suggested it might be normal traffic, but the scanning indicators above were much stronger.",
		opposing: "Pointed toward normal traffic, but was outweighed by the scanning indicators",
	},
	models.ClassU2R: {
		intro:      "The model detected this as a U2R (User-to-Root) privilege escalation attack because it found patterns indicating attempts to gain administrator access. Critical indicators were:",
		confidence: "The model reached its confidence by detecting %s and other privilege escalation signatures. U2R attacks involve gaining root or admin access through exploits, and the model learned these patterns are the strongest indicators of system compromise.",
		rules: []clauseRule{
			{[]string{"root_shell"}, "ROOT SHELL ACCESS is the strongest possible U2R indicator"},
			{[]string{"num_root", "su_attempted"}, "Attempting to gain administrator privileges"},
			{[]string{"hot", "num_file_creations"}, "Accessing sensitive files or creating backdoors"},
			{[]string{"num_shells"}, "Gaining shell access to escalate privileges"},
		},
		fallback: "Suspicious privilege escalation behavior",
		opposing: "Pointed toward normal traffic, but was outweighed by the escalation indicators",
		critical: "U2R attacks are CRITICAL: the attacker is trying to gain root/admin access to fully compromise the system.",
	},
	models.ClassR2L: {
		intro:      "The model detected this as an R2L (Remote-to-Local) attack because the pattern suggests unauthorized remote access attempts. Key indicators were:",
		confidence: "The model's confidence stems from identifying %s combined with access attempt patterns. R2L attacks involve gaining unauthorized access from remote locations, typically through password attacks or exploits the model learned to recognize.",
		rules: []clauseRule{
			{[]string{"failed_login", "num_failed"}, "Multiple failed logins indicate brute-force password attacks"},
			{[]string{"logged_in"}, ""}, // value dependent, see clauseText
			{[]string{"hot", "num_compromised"}, "Signs of system compromise or sensitive file access"},
		},
		fallback: "Unauthorized remote access pattern",
		caveat:   "Some features suggested it might be normal traffic, but the remote access indicators above were much stronger.",
		opposing: "Pointed toward normal traffic, but was outweighed by the remote access indicators",
	},
	models.ClassNormal: {
		intro:      "The model classified this as normal, legitimate traffic because the feature patterns match benign network behavior from its training data. The key indicators were:",
		confidence: "The model is confident this is legitimate traffic because %s and other features show normal patterns. Low error rates, proper authentication and natural service usage are hallmarks of genuine users the model learned during training.",
		rules: []clauseRule{
			{[]string{"error"}, "Low error rates indicate clean, successful connections"},
			{[]string{"logged_in"}, "Proper authentication suggests a legitimate user"},
			{[]string{"same_srv", "diff_srv"}, "Natural service usage patterns, not automated attacks"},
		},
		fallback: "Matches normal traffic behavior",
		caveat:   "A few features looked slightly suspicious, but overall the traffic pattern is clearly legitimate.",
		opposing: "Looked slightly suspicious, but was outweighed by the legitimate pattern",
	},
}

func templateFor(class models.PredictedClass) classTemplate {
	if t, ok := templates[class]; ok {
		return t
	}
	return classTemplate{
		intro:      fmt.Sprintf("The model classified this as %s. The key indicators were:", class),
		confidence: "The model's confidence comes mainly from %s together with the other features listed.",
		fallback:   fmt.Sprintf("Contributed to the %s classification", class),
		opposing:   "Pointed the other way, but was outweighed by the indicators above",
	}
}

// Compose assembles the narrative for a prediction from ranked
// attributions. top names the feature quoted in the confidence rationale;
// when its Feature is empty the first ranked entry is used. An empty
// ranking yields a single fallback sentence.
func Compose(class models.PredictedClass, ranked []models.FeatureAttribution, top models.FeatureAttribution) models.Narrative {
	if len(ranked) == 0 {
		return models.Narrative{
			Reasoning: fmt.Sprintf("The model classified this as %s based on patterns it learned from training data.", displayClass(class)),
			Fallback:  true,
		}
	}
	if top.Feature == "" {
		top = ranked[0]
	}

	tmpl := templateFor(class)
	n := models.Narrative{
		Reasoning:           tmpl.intro,
		ConfidenceRationale: fmt.Sprintf(tmpl.confidence, strings.ToLower(Describe(top.Feature).DisplayName)),
		Closing:             closingRemark(class),
	}

	limit := len(ranked)
	if limit > SummaryTopN {
		limit = SummaryTopN
	}
	for _, a := range ranked[:limit] {
		d := Describe(a.Feature)
		n.Clauses = append(n.Clauses, models.Clause{
			Feature:     a.Feature,
			DisplayName: d.DisplayName,
			Value:       FormatValue(a.Value),
			Attribution: a.Attribution,
			Direction:   direction(a),
			Text:        clauseText(class, tmpl, a),
		})
	}

	if hasOpposing(class, ranked) {
		n.Caveat = tmpl.caveat
	}
	if tmpl.critical != "" {
		if n.Caveat != "" {
			n.Caveat += " "
		}
		n.Caveat += tmpl.critical
	}
	return n
}

func clauseText(class models.PredictedClass, tmpl classTemplate, a models.FeatureAttribution) string {
	if opposes(class, a) {
		return tmpl.opposing
	}
	for _, r := range tmpl.rules {
		if !containsAny(a.Feature, r.substrings) {
			continue
		}
		if class == models.ClassR2L && r.text == "" {
			if a.Value > 0 {
				return "Successful unauthorized access after attempts"
			}
			return "Attempting to gain unauthorized access"
		}
		return r.text
	}
	return tmpl.fallback
}

// opposes reports whether an attribution points away from the predicted side.
func opposes(class models.PredictedClass, a models.FeatureAttribution) bool {
	if class == models.ClassNormal {
		return a.Attribution > 0
	}
	return a.Attribution < 0
}

func hasOpposing(class models.PredictedClass, ranked []models.FeatureAttribution) bool {
	for _, a := range ranked {
		if opposes(class, a) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func direction(a models.FeatureAttribution) string {
	if a.PushesAttack() {
		return "attack"
	}
	return "normal"
}

func displayClass(class models.PredictedClass) string {
	if class == "" {
		return "this category"
	}
	return string(class)
}

func closingRemark(class models.PredictedClass) string {
	signature := "attack"
	if class == models.ClassNormal {
		signature = "legitimate"
	}
	return fmt.Sprintf("The model does not judge features in isolation; it analyzes the entire pattern of features together. Even if one value seems ordinary by itself, the combination reveals the %s signature.", signature)
}

// NarrativeText flattens a narrative into plain text, one part per line.
func NarrativeText(n models.Narrative) string {
	var b strings.Builder
	b.WriteString(n.Reasoning)
	for _, c := range n.Clauses {
		fmt.Fprintf(&b, "\n- %s: %s (pushed toward %s). %s", c.DisplayName, c.Value, c.Direction, c.Text)
	}
	for _, part := range []string{n.Caveat, n.ConfidenceRationale, n.Closing} {
		if part != "" {
			b.WriteString("\n")
			b.WriteString(part)
		}
	}
	return b.String()
}

// FeatureListHTML renders the narrative's clauses as an escaped list.
func FeatureListHTML(n models.Narrative) string {
	if len(n.Clauses) == 0 {
		return ""
	}
	esc := html.EscapeString
	var b strings.Builder
	b.WriteString(`<ul class="reasoning-list">`)
	for _, c := range n.Clauses {
		fmt.Fprintf(&b, `<li class="reasoning-%s"><strong>%s:</strong> %s (pushed toward %s). %s</li>`,
			esc(c.Direction), esc(c.DisplayName), esc(c.Value), esc(c.Direction), esc(c.Text))
	}
	b.WriteString(`</ul>`)
	return b.String()
}
