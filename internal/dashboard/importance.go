package dashboard

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"nidsboard/pkg/models"
)

// ImportanceKeys lists the feature-importance sets in the artifact, sorted.
func (r *Renderer) ImportanceKeys() []string {
	keys := make([]string, 0, len(r.artifact.FeatureImportance))
	for k := range r.artifact.FeatureImportance {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultImportanceKey prefers the attribution model's SHAP importance.
func (r *Renderer) DefaultImportanceKey() string {
	model := r.AttributionModel()
	for _, k := range []string{model + "_shap", model} {
		if _, ok := r.artifact.FeatureImportance[k]; ok {
			return k
		}
	}
	if keys := r.ImportanceKeys(); len(keys) > 0 {
		return keys[0]
	}
	return ""
}

// ImportanceChart renders horizontal bars scaled to the largest score.
func (r *Renderer) ImportanceChart(key string) string {
	defer observe("importance", time.Now())
	esc := html.EscapeString

	fi, ok := r.artifact.FeatureImportance[key]
	if !ok || len(fi.Features) == 0 {
		return `<div class="importance-chart"><p>No data available</p></div>`
	}

	maxValue := fi.Importance[0]
	for _, v := range fi.Importance[1:] {
		if v > maxValue {
			maxValue = v
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="importance-chart" data-key="%s">`, esc(key))
	for i, feature := range fi.Features {
		value := fi.Importance[i]
		pct := 0.0
		if maxValue > 0 {
			pct = clampPercent(value / maxValue * 100)
		}
		fmt.Fprintf(&b, `<div class="importance-row"><div class="importance-label">%s</div><div class="importance-bar-container"><div class="importance-bar" style="width: %s%%"></div></div><div class="importance-value">%.4f</div></div>`,
			esc(feature), strconv.FormatFloat(pct, 'f', 1, 64), value)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// ImportanceSelector renders a GET form that switches the chart.
func (r *Renderer) ImportanceSelector(active string, filter Filter) string {
	esc := html.EscapeString
	var b strings.Builder
	b.WriteString(`<form class="importance-select" method="get" action="/">`)
	if filter != "" && filter != FilterAll {
		fmt.Fprintf(&b, `<input type="hidden" name="filter" value="%s">`, esc(string(filter)))
	}
	b.WriteString(`<select name="importance" id="importanceModelSelect" onchange="this.form.submit()">`)
	for _, k := range r.ImportanceKeys() {
		selected := ""
		if k == active {
			selected = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, esc(k), selected, esc(importanceLabel(k)))
	}
	b.WriteString(`</select><noscript><button type="submit">Show</button></noscript></form>`)
	return b.String()
}

func importanceLabel(key string) string {
	if base, ok := strings.CutSuffix(key, "_shap"); ok {
		return models.ModelDisplayName(base) + " (SHAP)"
	}
	return models.ModelDisplayName(key)
}
