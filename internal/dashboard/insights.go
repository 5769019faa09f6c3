package dashboard

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"nidsboard/pkg/models"
)

// Insight tab names.
const (
	InsightOverview        = "overview"
	InsightNeuralNetwork   = "neural-network"
	InsightRecommendations = "recommendations"
)

// InsightTabs is the display order of the insights panel tabs.
var InsightTabs = []string{InsightOverview, InsightNeuralNetwork, InsightRecommendations}

var insightTitles = map[string]string{
	InsightOverview:        "Overview",
	InsightNeuralNetwork:   "Neural Network Analysis",
	InsightRecommendations: "Recommendations",
}

// modelProfile holds the evaluation facts that are not in the artifact.
type modelProfile struct {
	U2RF1        string
	TrainingTime string
	BestFor      string
}

var profiles = map[string]modelProfile{
	models.ModelXGBoost:       {U2RF1: "10.96%", TrainingTime: "-", BestFor: "General purpose deployment"},
	models.ModelDecisionTree:  {U2RF1: "24.39%", TrainingTime: "0.41s", BestFor: "Explainability & speed"},
	models.ModelRandomForest:  {U2RF1: "0.0%", TrainingTime: "-", BestFor: "Ensemble robustness"},
	models.ModelNeuralNetwork: {U2RF1: "43.18%", TrainingTime: "20.47s", BestFor: "Rare attack detection (U2R)"},
}

// Insights renders one insights tab. Unknown tabs fall back to the overview.
func (r *Renderer) Insights(tab string) string {
	defer observe("insights", time.Now())
	switch tab {
	case InsightNeuralNetwork:
		return neuralNetworkInsight
	case InsightRecommendations:
		return r.recommendationsInsight()
	default:
		return r.overviewInsight()
	}
}

// InsightTabBar renders the tab links with active highlighted.
func (r *Renderer) InsightTabBar(active string, filter Filter) string {
	esc := html.EscapeString
	var b strings.Builder
	b.WriteString(`<div class="insight-tabs">`)
	for _, tab := range InsightTabs {
		class := "insight-tab"
		if tab == active {
			class += " active"
		}
		href := "/?insight=" + tab
		if filter != "" && filter != FilterAll {
			href += "&filter=" + string(filter)
		}
		fmt.Fprintf(&b, `<a class="%s" data-insight="%s" href="%s">%s</a>`, class, esc(tab), esc(href), esc(insightTitles[tab]))
	}
	b.WriteString(`</div>`)
	return b.String()
}

func (r *Renderer) accuracy(model string) (float64, bool) {
	p, ok := r.artifact.Performance[model]
	return p.Accuracy * 100, ok
}

func (r *Renderer) accuracyText(model string) string {
	if acc, ok := r.accuracy(model); ok {
		return fmt.Sprintf("%.2f%%", acc)
	}
	return "-"
}

func (r *Renderer) overviewInsight() string {
	esc := html.EscapeString
	keys := orderedKeys(r.artifact.Performance)
	sort.SliceStable(keys, func(i, j int) bool {
		return r.artifact.Performance[keys[i]].Accuracy > r.artifact.Performance[keys[j]].Accuracy
	})

	var b strings.Builder
	b.WriteString(`<div class="comparison-table"><table><thead><tr><th>Model</th><th>Accuracy</th><th>U2R F1-Score</th><th>Training Time</th><th>Best For</th></tr></thead><tbody>`)
	for i, key := range keys {
		p, ok := profiles[key]
		if !ok {
			p = modelProfile{U2RF1: "-", TrainingTime: "-", BestFor: "-"}
		}
		row := "<tr>"
		if i == 0 {
			row = `<tr class="highlight-row">`
		}
		fmt.Fprintf(&b, `%s<td><strong>%s</strong></td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			row, esc(models.ModelDisplayName(key)), esc(r.accuracyText(key)), esc(p.U2RF1), esc(p.TrainingTime), esc(p.BestFor))
	}
	b.WriteString(`</tbody></table></div>`)
	b.WriteString(`<div class="key-insight"><strong>Key Finding:</strong> Neural Network achieved lower overall accuracy but significantly better U2R detection (43.18% vs 24.39%). This demonstrates that algorithm complexity does not guarantee better performance. Data quality and problem fit matter more.</div>`)
	return b.String()
}

func (r *Renderer) recommendationsInsight() string {
	esc := html.EscapeString
	var b strings.Builder
	b.WriteString(`<h3>Production Deployment Recommendation</h3>`)
	fmt.Fprintf(&b, `<div class="rec-box rec-primary"><div class="rec-header"><span class="rec-label">Recommended</span><span class="rec-model">XGBoost</span></div><p><strong>%s accuracy</strong>: best overall performance across all attack types</p><p>Use for general-purpose intrusion detection systems</p></div>`,
		esc(r.accuracyText(models.ModelXGBoost)))
	fmt.Fprintf(&b, `<div class="rec-box rec-secondary"><div class="rec-header"><span class="rec-label">Alternative</span><span class="rec-model">Decision Tree</span></div><p><strong>%s accuracy</strong>: 50x faster training, fully explainable</p><p>Use when explainability and audit trails are required</p></div>`,
		esc(r.accuracyText(models.ModelDecisionTree)))
	b.WriteString(`<div class="rec-box rec-specialist"><div class="rec-header"><span class="rec-label">Specialist Only</span><span class="rec-model">Neural Network</span></div><p><strong>43.18% U2R F1</strong>: nearly 2x better than Decision Tree</p><p>Reserve for U2R-specialized systems where privilege escalation detection is critical</p></div>`)
	b.WriteString(`<div class="bottom-line"><p><strong>Bottom Line:</strong> Start with XGBoost for production deployment. Reserve Neural Network for specialized U2R detection. Always address class imbalance before comparing complex models.</p></div>`)
	return b.String()
}

const neuralNetworkInsight = `<h3>Why Neural Network Didn't Outperform Simpler Models</h3>
<div class="reason-box"><div class="reason-title">1. Severe Class Imbalance</div><p>Only 52 U2R training samples (0.04% of dataset). Neural networks need substantial data to learn patterns effectively.</p></div>
<div class="reason-box"><div class="reason-title">2. Tabular Data Nature</div><p>Decision trees naturally excel at structured features with clear thresholds. Neural networks shine with unstructured data (images, text).</p></div>
<div class="reason-box"><div class="reason-title">3. Training Cost vs Benefit</div><p>50x slower training (20.47s vs 0.41s) for -0.9% accuracy. Not worth the computational cost for general deployment.</p></div>
<div class="reason-box"><div class="reason-title">4. Lost Explainability</div><p>Decision trees provide extractable rules. Neural networks are black boxes requiring SHAP analysis.</p></div>
<h3>When to Use Neural Network</h3>
<ul class="simple-list">
<li><strong>U2R-specific systems:</strong> If privilege escalation detection is critical (43.18% F1 vs 24.39%)</li>
<li><strong>Complex patterns:</strong> When attacks have subtle, non-linear signatures</li>
<li><strong>Balanced datasets:</strong> With sufficient rare attack samples for proper training</li>
</ul>
<h3>How to Improve Neural Network</h3>
<ol class="simple-list">
<li>Address class imbalance first (SMOTE, class weighting)</li>
<li>Hyperparameter tuning (layer sizes, learning rate, epochs)</li>
<li>Ensemble approach (combine NN for U2R with XGBoost for general detection)</li>
<li>Collect more real-world rare attack samples</li>
</ol>`
