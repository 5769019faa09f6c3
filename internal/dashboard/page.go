package dashboard

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
)

// View carries the page state that lives outside the Controller.
type View struct {
	InsightTab    string
	ImportanceKey string
}

// Page renders the served dashboard for the controller's current state.
func (r *Renderer) Page(ctx context.Context, c *Controller, v View) (string, error) {
	start := time.Now()
	if v.InsightTab == "" {
		v.InsightTab = InsightOverview
	}
	if v.ImportanceKey == "" {
		v.ImportanceKey = r.DefaultImportanceKey()
	}
	filter := c.Filter()

	var b strings.Builder
	writeHead(&b, "Network Intrusion Detection: Explainable AI Dashboard")
	writeIntro(&b)

	b.WriteString(`<section class="section"><h2>Model Performance</h2>`)
	b.WriteString(r.PerformanceCards())
	b.WriteString(`</section>`)

	b.WriteString(`<section class="section"><h2>Model Insights</h2>`)
	b.WriteString(r.InsightTabBar(v.InsightTab, filter))
	fmt.Fprintf(&b, `<div class="insight-content" id="insightContent">%s</div></section>`, r.Insights(v.InsightTab))

	b.WriteString(`<section class="section"><h2>Sample Predictions</h2>`)
	b.WriteString(r.FilterBar(filter))
	b.WriteString(r.SampleGrid(c.VisibleSamples(), filter))
	b.WriteString(`</section>`)

	b.WriteString(`<section class="section"><h2>Feature Importance</h2>`)
	b.WriteString(r.ImportanceSelector(v.ImportanceKey, filter))
	b.WriteString(r.ImportanceChart(v.ImportanceKey))
	b.WriteString(`</section>`)

	panel, err := r.SimulatorPanel()
	if err != nil {
		return "", err
	}
	b.WriteString(`<section class="section"><h2>Live Attack Simulator</h2>`)
	b.WriteString(panel)
	b.WriteString(`</section>`)

	if m := c.Modal(); m.Open {
		s, _ := c.CurrentSample()
		body, err := r.Modal(ctx, s, m.Model, filter)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, `<div class="modal active" id="sampleModal"><div class="modal-content">%s</div></div>`, body)
	}

	b.WriteString(`</main></body></html>`)
	observe("page", start)
	return b.String(), nil
}

// Export renders a self-contained page with every fragment pre-rendered.
// Inline script handles filtering, the modal and model switching offline.
func (r *Renderer) Export(ctx context.Context) (string, error) {
	start := time.Now()
	esc := html.EscapeString
	ctrl := NewController(r.artifact, r.AttributionModel())

	var b strings.Builder
	writeHead(&b, "Network Intrusion Detection: Explainable AI Report")
	writeIntro(&b)

	b.WriteString(`<section class="section"><h2>Model Performance</h2>`)
	b.WriteString(r.PerformanceCards())
	b.WriteString(`</section>`)

	b.WriteString(`<section class="section"><h2>Model Insights</h2>`)
	b.WriteString(r.InsightTabBar(InsightOverview, FilterAll))
	for _, tab := range InsightTabs {
		hidden := ""
		if tab != InsightOverview {
			hidden = ` hidden`
		}
		fmt.Fprintf(&b, `<div class="insight-content" data-insight="%s"%s>%s</div>`, esc(tab), hidden, r.Insights(tab))
	}
	b.WriteString(`</section>`)

	b.WriteString(`<section class="section"><h2>Sample Predictions</h2>`)
	b.WriteString(r.FilterBar(FilterAll))
	b.WriteString(r.SampleGrid(ctrl.VisibleSamples(), FilterAll))
	b.WriteString(`<p class="empty-samples" id="emptySamples" hidden>No samples found</p></section>`)

	active := r.DefaultImportanceKey()
	b.WriteString(`<section class="section"><h2>Feature Importance</h2>`)
	b.WriteString(r.ImportanceSelector(active, FilterAll))
	for _, key := range r.ImportanceKeys() {
		hidden := ""
		if key != active {
			hidden = ` hidden`
		}
		fmt.Fprintf(&b, `<div class="importance-panel" data-key="%s"%s>%s</div>`, esc(key), hidden, r.ImportanceChart(key))
	}
	b.WriteString(`</section>`)

	b.WriteString(`<div class="modal" id="sampleModal"><div class="modal-content" id="modalBody"></div></div>`)
	for i := range r.artifact.Samples {
		s := &r.artifact.Samples[i]
		for _, m := range sampleModels(s) {
			body, err := r.Modal(ctx, s, m, FilterAll)
			if err != nil {
				return "", fmt.Errorf("export sample %d/%s: %w", s.ID, m, err)
			}
			fmt.Fprintf(&b, `<template id="modal-%d-%s">%s</template>`, s.ID, esc(m), body)
		}
	}

	b.WriteString(`<script>` + exportJS + `</script>`)
	b.WriteString(`</main></body></html>`)
	observe("export", start)
	return b.String(), nil
}

func writeHead(b *strings.Builder, title string) {
	b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">`)
	fmt.Fprintf(b, `<title>%s</title>`, html.EscapeString(title))
	b.WriteString(`<style>` + pageCSS + `</style></head><body><main class="container">`)
	fmt.Fprintf(b, `<header class="page-header"><h1>%s</h1></header>`, html.EscapeString(title))
}

func writeIntro(b *strings.Builder) {
	b.WriteString(`<p class="intro">Four classifiers were trained on NSL-KDD connection records. Each sample below shows what every model predicted, and SHAP attributions explain why the Neural Network reached its verdict.</p>`)
}

const exportJS = `(function(){
var modal=document.getElementById('sampleModal'),body=document.getElementById('modalBody');
function applyFilter(t){var n=0;document.querySelectorAll('.sample-card').forEach(function(c){var show=t==='all'||c.dataset.label===t;c.style.display=show?'':'none';if(show)n++;});
document.getElementById('emptySamples').hidden=n>0;document.querySelectorAll('.filter-btn').forEach(function(b){b.classList.toggle('active',b.dataset.type===t);});}
function showModel(id,model){var tpl=document.getElementById('modal-'+id+'-'+model);if(!tpl)return;body.textContent='';body.appendChild(tpl.content.cloneNode(true));modal.classList.add('active');}
function closeModal(){modal.classList.remove('active');body.textContent='';}
document.querySelectorAll('.filter-btn').forEach(function(b){b.addEventListener('click',function(e){e.preventDefault();applyFilter(b.dataset.type);});});
document.querySelectorAll('.sample-card').forEach(function(c){c.addEventListener('click',function(e){e.preventDefault();showModel(c.dataset.sampleId,c.dataset.defaultModel);});});
body.addEventListener('click',function(e){var tab=e.target.closest('.model-tab-btn');if(tab){e.preventDefault();showModel(body.firstElementChild.dataset.sampleId,tab.dataset.model);return;}
if(e.target.closest('.modal-close')){e.preventDefault();closeModal();}});
modal.addEventListener('click',function(e){if(e.target===modal)closeModal();});
document.querySelectorAll('.insight-tab').forEach(function(t){t.addEventListener('click',function(e){e.preventDefault();document.querySelectorAll('.insight-tab').forEach(function(x){x.classList.toggle('active',x===t);});
document.querySelectorAll('.insight-content').forEach(function(p){p.hidden=p.dataset.insight!==t.dataset.insight;});});});
var sel=document.getElementById('importanceModelSelect');if(sel){sel.onchange=function(){document.querySelectorAll('.importance-panel').forEach(function(p){p.hidden=p.dataset.key!==sel.value;});};}
})();`

const pageCSS = `
:root{--ink:#1e293b;--muted:#64748b;--line:#e2e8f0;--bg:#f8fafc;--attack:#dc2626;--normal:#2563eb;--ok:#16a34a;--primary:#0f172a}
*{box-sizing:border-box}
body{margin:0;font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,sans-serif;color:var(--ink);background:var(--bg)}
.container{max-width:1200px;margin:0 auto;padding:24px}
.page-header h1{font-size:24px;margin:0 0 8px}
.intro{color:var(--muted);margin:0 0 24px}
.section{background:#fff;border:1px solid var(--line);border-radius:8px;padding:20px;margin-bottom:20px}
.section h2{font-size:18px;margin:0 0 16px}
.performance-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(200px,1fr));gap:16px}
.stat-card{border:1px solid var(--line);border-radius:6px;padding:16px}
.stat-card h3{margin:0;font-size:14px;color:var(--muted)}
.stat-value{font-size:28px;font-weight:700;margin:8px 0 4px}
.stat-label{font-size:12px;color:var(--muted)}
.filter-bar,.insight-tabs,.preset-bar{display:flex;gap:8px;flex-wrap:wrap;margin-bottom:16px}
.filter-btn,.insight-tab,.preset-btn,.model-tab-btn{border:1px solid var(--line);border-radius:4px;padding:6px 12px;text-decoration:none;color:var(--ink);background:#fff;cursor:pointer}
.filter-btn.active,.insight-tab.active,.model-tab-btn.active{background:var(--primary);color:#fff}
.samples-grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(240px,1fr));gap:16px}
.sample-card{display:block;border:1px solid var(--line);border-radius:6px;padding:14px;color:inherit;text-decoration:none}
.sample-header{display:flex;justify-content:space-between;margin-bottom:10px}
.attack-badge{font-size:12px;padding:2px 8px;border-radius:10px;background:#e2e8f0}
.attack-badge.Normal{background:#dcfce7;color:#166534}.attack-badge.DoS{background:#fee2e2;color:#991b1b}
.attack-badge.Probe{background:#fef3c7;color:#92400e}.attack-badge.U2R{background:#f3e8ff;color:#6b21a8}.attack-badge.R2L{background:#dbeafe;color:#1e40af}
.empty-samples{grid-column:1/-1;text-align:center;color:var(--muted)}
.nn-correct{color:var(--ok)}.nn-incorrect{color:var(--attack)}
.details-btn{display:inline-block;margin-top:10px;font-size:12px;color:var(--normal)}
.modal{display:none;position:fixed;inset:0;background:rgba(15,23,42,.5);overflow:auto;padding:40px 16px}
.modal.active{display:block}
.modal-content{background:#fff;max-width:960px;margin:0 auto;border-radius:8px;padding:24px}
.modal-header{position:relative;margin-bottom:16px}.modal-close{position:absolute;right:0;top:0;font-size:24px;text-decoration:none;color:var(--muted)}
.model-tabs{display:grid;grid-template-columns:repeat(4,1fr);gap:8px}
.tab-correct{color:var(--ok)}.tab-incorrect{color:var(--attack)}
.model-tab-btn.active .tab-correct,.model-tab-btn.active .tab-incorrect{color:#fff}
.simple-prediction-box{border:1px solid var(--line);border-radius:6px;padding:16px;margin:16px 0}
.prediction-header-row{display:flex;justify-content:space-between}
.prediction-value-large{font-size:24px;font-weight:700}
.badge-correct{color:var(--ok)}.badge-incorrect{color:var(--attack)}
.conf-bar-track{height:6px;background:var(--line);border-radius:3px;margin-top:6px}.conf-bar-fill{height:6px;background:var(--primary);border-radius:3px}
.explanation-box{border:1px solid var(--line);border-radius:6px;margin-bottom:10px;padding:10px 14px}
.box-title{font-weight:600;cursor:pointer}
.reasoning-list{margin:8px 0 0 20px;padding:0}.reasoning-attack strong{color:var(--attack)}.reasoning-normal strong{color:var(--normal)}
.confidence-explanation-box{background:var(--bg);border-left:3px solid var(--normal);padding:10px;margin-top:10px}
.features-table{width:100%;border-collapse:collapse;font-size:13px;margin:12px 0}
.features-table th,.features-table td{border-bottom:1px solid var(--line);padding:8px;text-align:left;vertical-align:top}
.feat-desc,.feat-rationale{color:var(--muted);font-size:12px}
.impact-badge{padding:2px 6px;border-radius:4px;font-size:12px;white-space:nowrap}
.impact-attack{background:#fee2e2;color:#991b1b}.impact-normal{background:#dbeafe;color:#1e40af}
.bottom-note,.key-insight,.bottom-line{background:var(--bg);border-left:3px solid var(--primary);padding:10px 12px;margin-top:12px;font-size:13px}
.no-shap{color:var(--muted)}
.importance-row{display:grid;grid-template-columns:200px 1fr 80px;gap:8px;align-items:center;margin-bottom:6px;font-size:13px}
.importance-bar-container{background:var(--line);border-radius:3px;height:10px}.importance-bar{background:var(--normal);height:10px;border-radius:3px}
.comparison-table table{width:100%;border-collapse:collapse}.comparison-table th,.comparison-table td{border-bottom:1px solid var(--line);padding:8px;text-align:left}
.highlight-row{background:#f0fdf4}
.reason-box,.rec-box{border:1px solid var(--line);border-radius:6px;padding:12px;margin-bottom:10px}
.reason-title{font-weight:600}.rec-header{display:flex;gap:8px;font-weight:600}
.sim-form{display:grid;grid-template-columns:repeat(auto-fill,minmax(260px,1fr));gap:10px;align-items:center}
.hint-box{font-size:12px;color:var(--muted)}
.sim-compare{display:grid;grid-template-columns:1fr 1fr;gap:20px;margin-top:16px}
.sim-col{border:1px solid var(--line);border-radius:6px;padding:14px}
.top-features{background:var(--bg);padding:8px;margin:8px 0;font-size:12px}
.analyst-doubt{color:var(--attack);margin-top:8px}.analyst-trust{color:var(--ok);margin-top:8px}
.indicator-tag{display:inline-block;font-size:11px;margin:6px 6px 0 0;padding:2px 6px;border-radius:4px;background:var(--line)}
.indicator-tag.severity-critical,.indicator-tag.severity-high{background:#fee2e2;color:#991b1b}
`
