package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"nidsboard/internal/explain"
	"nidsboard/internal/metrics"
	"nidsboard/pkg/models"
)

// Renderer turns artifact data and explanations into HTML fragments.
type Renderer struct {
	artifact  *models.Artifact
	explainer *explain.Explainer
}

// NewRenderer builds a renderer over a loaded artifact.
func NewRenderer(a *models.Artifact, e *explain.Explainer) *Renderer {
	if e == nil {
		e = explain.NewExplainer(explain.Options{}, nil)
	}
	return &Renderer{artifact: a, explainer: e}
}

// Artifact returns the artifact being rendered.
func (r *Renderer) Artifact() *models.Artifact {
	return r.artifact
}

// AttributionModel is the model whose attributions are narrated.
func (r *Renderer) AttributionModel() string {
	return r.explainer.AttributionModel()
}

func observe(view string, start time.Time) {
	metrics.RenderTotal.WithLabelValues(view).Inc()
	metrics.RenderDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}

// PerformanceCards renders one accuracy card per model in display order.
func (r *Renderer) PerformanceCards() string {
	defer observe("performance", time.Now())
	esc := html.EscapeString

	var b strings.Builder
	b.WriteString(`<div class="performance-grid">`)
	for _, key := range orderedKeys(r.artifact.Performance) {
		perf := r.artifact.Performance[key]
		fmt.Fprintf(&b, `<div class="stat-card" data-model="%s"><h3>%s</h3><div class="stat-value">%.1f%%</div><div class="stat-label">Overall Accuracy</div></div>`,
			esc(key), esc(models.ModelDisplayName(key)), perf.Accuracy*100)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// FilterBar renders the class filter buttons with active highlighted.
func (r *Renderer) FilterBar(active Filter) string {
	esc := html.EscapeString
	var b strings.Builder
	b.WriteString(`<div class="filter-bar" id="attackTypeFilter">`)
	options := append([]string{FilterAll}, classNames()...)
	for _, opt := range options {
		label := opt
		if opt == FilterAll {
			label = "All"
		}
		class := "filter-btn"
		if Filter(opt) == active {
			class += " active"
		}
		fmt.Fprintf(&b, `<a class="%s" data-type="%s" href="%s">%s</a>`,
			class, esc(opt), esc(pageHref(Filter(opt), false, 0, "")), esc(label))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// SampleGrid renders one card per sample, or "No samples found".
func (r *Renderer) SampleGrid(samples []*models.Sample, filter Filter) string {
	defer observe("samples", time.Now())
	esc := html.EscapeString
	featured := r.AttributionModel()

	var b strings.Builder
	b.WriteString(`<div class="samples-grid" id="samplesGrid">`)
	if len(samples) == 0 {
		b.WriteString(`<p class="empty-samples">No samples found</p>`)
		b.WriteString(`</div>`)
		return b.String()
	}
	for _, s := range samples {
		label := string(s.TrueLabel)
		fmt.Fprintf(&b, `<a class="sample-card" data-sample-id="%d" data-label="%s" data-default-model="%s" href="%s">`,
			s.ID, esc(label), esc(defaultModelFor(s, featured)), esc(pageHref(filter, true, s.ID, "")))
		fmt.Fprintf(&b, `<div class="sample-header"><span class="sample-id">Sample #%d</span><span class="attack-badge %s">%s</span></div>`,
			s.ID, esc(badgeClass(s.TrueLabel)), esc(label))
		fmt.Fprintf(&b, `<div class="sample-body"><div class="accuracy-display"><div class="accuracy-label">Model Accuracy</div><div class="accuracy-value">%d/%d models correct</div></div>`,
			s.CorrectCount(), len(models.ModelOrder))
		if pred, ok := s.Prediction(featured); ok {
			state := "nn-incorrect"
			if pred.Prediction == s.TrueLabel {
				state = "nn-correct"
			}
			fmt.Fprintf(&b, `<div class="nn-highlight"><div class="nn-label">%s detected as:</div><div class="nn-prediction %s">%s <span class="nn-confidence">%.0f%%</span></div></div>`,
				esc(models.ModelDisplayName(featured)), state, esc(string(pred.Prediction)), pred.Confidence)
		}
		b.WriteString(`<span class="details-btn">View All Model Predictions</span></div></a>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Modal renders the full modal body for a sample with model selected.
func (r *Renderer) Modal(ctx context.Context, s *models.Sample, model string, filter Filter) (string, error) {
	if s == nil {
		return "", ErrSampleNotFound
	}
	detail, err := r.ModelDetail(ctx, s, model)
	if err != nil {
		return "", err
	}
	defer observe("modal", time.Now())
	esc := html.EscapeString

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="modal-body" data-sample-id="%d" data-model="%s">`, s.ID, esc(model))
	fmt.Fprintf(&b, `<div class="modal-header"><h2 class="modal-title">Sample #%d</h2><div class="modal-meta"><span class="meta-label">Actual Traffic Type:</span> <span class="attack-badge %s">%s</span> <span class="meta-divider">&bull;</span> <span class="meta-label">%d of %d models correct</span></div>`,
		s.ID, esc(badgeClass(s.TrueLabel)), esc(string(s.TrueLabel)), s.CorrectCount(), len(models.ModelOrder))
	fmt.Fprintf(&b, `<a class="modal-close" href="%s">&times;</a></div>`, esc(pageHref(filter, false, 0, "")))

	b.WriteString(`<div class="modal-section"><h3 class="section-title">Select a Model to See Detailed Analysis</h3><div class="model-tabs">`)
	for _, m := range sampleModels(s) {
		pred := s.Models[m]
		class := "model-tab-btn"
		if m == model {
			class += " active"
		}
		mark, result := "&#10007;", "tab-incorrect"
		if pred.Prediction == s.TrueLabel {
			mark, result = "&#10003;", "tab-correct"
		}
		fmt.Fprintf(&b, `<a class="%s" data-model="%s" href="%s"><div class="tab-model-name">%s</div><div class="tab-model-result %s">%s %s</div></a>`,
			class, esc(m), esc(pageHref(filter, true, s.ID, m)), esc(models.ModelDisplayName(m)), result, mark, esc(string(pred.Prediction)))
	}
	b.WriteString(`</div></div>`)

	b.WriteString(`<div class="model-detail-view">`)
	b.WriteString(detail)
	b.WriteString(`</div></div>`)
	return b.String(), nil
}

// ModelDetail renders the prediction box and the explanation for one model.
func (r *Renderer) ModelDetail(ctx context.Context, s *models.Sample, model string) (string, error) {
	if _, ok := s.Prediction(model); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	exp, err := r.explainer.Explain(ctx, s, model)
	if err != nil {
		if errors.Is(err, explain.ErrModelNotFound) {
			return "", fmt.Errorf("%w: %q", ErrUnknownModel, model)
		}
		return "", err
	}
	defer observe("detail", time.Now())
	return renderDetail(exp), nil
}

func renderDetail(exp *models.Explanation) string {
	esc := html.EscapeString
	name := models.ModelDisplayName(exp.Model)

	var b strings.Builder
	b.WriteString(`<div class="modal-section detail-section"><div class="simple-prediction-box"><div class="prediction-header-row"><div>`)
	fmt.Fprintf(&b, `<div class="model-label">%s</div><div class="prediction-value-large">%s</div>`, esc(name), esc(string(exp.Prediction)))
	if !exp.Correct {
		fmt.Fprintf(&b, `<div class="actual-note">Actually: <strong>%s</strong></div>`, esc(string(exp.TrueLabel)))
	}
	if exp.Correct {
		b.WriteString(`</div><div class="result-badge badge-correct">&#10003; Correct</div></div>`)
	} else {
		b.WriteString(`</div><div class="result-badge badge-incorrect">&#10007; Incorrect</div></div>`)
	}
	fmt.Fprintf(&b, `<div class="confidence-row"><span class="conf-label">Confidence</span><span class="conf-value">%.1f%%</span><div class="conf-bar-track"><div class="conf-bar-fill" style="width: %s%%"></div></div></div></div>`,
		exp.Confidence, strconv.FormatFloat(clampPercent(exp.Confidence), 'f', 1, 64))

	switch {
	case exp.HasAttribution && exp.Narrative != nil:
		b.WriteString(`<div class="shap-section"><h3 class="subsection-title">Feature Analysis</h3>`)
		writeNarrative(&b, name, exp)
		writeFeatureTable(&b, exp.Features)
		if exp.Narrative.Closing != "" {
			fmt.Fprintf(&b, `<div class="bottom-note"><strong>Note:</strong> %s</div>`, esc(exp.Narrative.Closing))
		}
		b.WriteString(`</div>`)
	case exp.Narrative != nil && exp.Narrative.Fallback:
		b.WriteString(`<div class="shap-section"><h3 class="subsection-title">Feature Analysis</h3><p class="no-shap">No significant features found</p>`)
		fmt.Fprintf(&b, `<p>%s</p></div>`, esc(exp.Narrative.Reasoning))
		writeModelNote(&b, name, exp.ModelNote)
	default:
		writeModelNote(&b, name, exp.ModelNote)
	}

	fmt.Fprintf(&b, `<div class="confidence-note"><h3 class="subsection-title">Understanding the Confidence</h3><p>%s</p></div>`, esc(exp.ConfidenceNote))
	b.WriteString(`</div>`)
	return b.String()
}

func writeModelNote(b *strings.Builder, name, note string) {
	if note == "" {
		return
	}
	esc := html.EscapeString
	fmt.Fprintf(b, `<div class="model-explanation"><h3 class="subsection-title">How %s Works</h3><p>%s</p></div>`, esc(name), esc(note))
}

func writeNarrative(b *strings.Builder, name string, exp *models.Explanation) {
	esc := html.EscapeString
	n := exp.Narrative
	fmt.Fprintf(b, `<details class="explanation-box"><summary class="box-title">Why the %s Predicted &quot;%s&quot;</summary><div class="box-content">`,
		esc(name), esc(string(exp.Prediction)))
	fmt.Fprintf(b, `<p class="reasoning">%s</p>`, esc(n.Reasoning))
	b.WriteString(explain.FeatureListHTML(*n))
	if n.Caveat != "" {
		fmt.Fprintf(b, `<p class="reasoning-caveat">%s</p>`, esc(n.Caveat))
	}
	if n.ConfidenceRationale != "" {
		fmt.Fprintf(b, `<div class="confidence-explanation-box"><strong>How it reached its confidence level:</strong><br>%s</div>`, esc(n.ConfidenceRationale))
	}
	b.WriteString(`</div></details>`)

	b.WriteString(`<details class="explanation-box"><summary class="box-title">Understanding the Impact Scores</summary><div class="box-content">`)
	b.WriteString(`<div class="legend-item"><span class="impact-badge impact-attack">Attack +0.0450</span> Positive impact increased the model's belief that this is an attack.</div>`)
	b.WriteString(`<div class="legend-item"><span class="impact-badge impact-normal">Normal -0.0190</span> Negative impact decreased the model's belief that this is an attack.</div>`)
	b.WriteString(`<p>Larger absolute values mean stronger influence. Strength is relative to the strongest feature of this prediction.</p></div></details>`)
}

func writeFeatureTable(b *strings.Builder, rows []models.ExplainedFeature) {
	esc := html.EscapeString
	b.WriteString(`<table class="features-table"><thead><tr><th>Feature</th><th>Value</th><th>Impact</th><th>Strength</th><th>What it means</th></tr></thead><tbody>`)
	for _, f := range rows {
		impactClass, impactLabel := "impact-normal", "Normal"
		if f.PushesAttack {
			impactClass, impactLabel = "impact-attack", "Attack"
		}
		fmt.Fprintf(b, `<tr class="feature-row" data-feature="%s">`, esc(f.Feature))
		fmt.Fprintf(b, `<td class="feature-name-col"><div class="feat-name">%s</div><div class="feat-desc">%s</div></td>`, esc(f.DisplayName), esc(f.Description))
		fmt.Fprintf(b, `<td class="value-col">%s</td>`, esc(f.FormattedValue))
		fmt.Fprintf(b, `<td class="impact-col"><span class="impact-badge %s">%s %s</span></td>`, impactClass, impactLabel, esc(f.Impact))
		fmt.Fprintf(b, `<td class="strength-col">%s</td>`, esc(f.Strength))
		fmt.Fprintf(b, `<td class="analysis-col"><div class="feat-analysis">%s</div><div class="feat-rationale">%s</div></td>`, esc(f.Analysis), esc(f.Rationale))
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
}

// pageHref builds a dashboard link that preserves the filter and, when
// sampleID is non-zero, opens the modal.
func pageHref(filter Filter, open bool, sampleID int, model string) string {
	q := url.Values{}
	if filter != "" && filter != FilterAll {
		q.Set("filter", string(filter))
	}
	if open {
		q.Set("sample", strconv.Itoa(sampleID))
		if model != "" {
			q.Set("model", model)
		}
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// sampleModels lists a sample's models in display order, then unknown
// keys alphabetically.
func sampleModels(s *models.Sample) []string {
	return s.ModelKeys()
}

func orderedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	for _, k := range models.ModelOrder {
		if _, ok := m[k]; ok {
			out = append(out, k)
			seen[k] = struct{}{}
		}
	}
	extra := make([]string, 0)
	for k := range m {
		if _, ok := seen[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func defaultModelFor(s *models.Sample, preferred string) string {
	if _, ok := s.Models[preferred]; ok {
		return preferred
	}
	return firstModel(s)
}

func classNames() []string {
	out := make([]string, 0, len(models.Classes))
	for _, c := range models.Classes {
		out = append(out, string(c))
	}
	return out
}

func badgeClass(c models.PredictedClass) string {
	if c.Known() {
		return string(c)
	}
	return "Unknown"
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
