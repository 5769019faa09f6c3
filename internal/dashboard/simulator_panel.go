package dashboard

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"nidsboard/internal/simulator"
	"nidsboard/pkg/models"
)

type panelHints struct {
	Models   map[string]simulator.ModelHint `json:"models"`
	Services map[string]string              `json:"services"`
	Flags    map[string]string              `json:"flags"`
}

type rangeInput struct {
	name  string
	label string
	max   int
	value int
}

// SimulatorPanel renders the traffic builder. The form posts JSON to
// /api/simulate and shows the verdict next to the bare prediction.
func (r *Renderer) SimulatorPanel() (string, error) {
	defer observe("simulator", time.Now())
	esc := html.EscapeString

	presets := make(map[string]simulator.Preset)
	for _, p := range simulator.Presets() {
		presets[p.Name] = p
	}
	hints := panelHints{Models: map[string]simulator.ModelHint{}, Services: map[string]string{}, Flags: map[string]string{}}
	for _, m := range models.ModelOrder {
		if h, ok := simulator.HintForModel(m); ok {
			hints.Models[m] = h
		}
	}
	for _, s := range simulator.Services {
		hints.Services[s] = simulator.ServiceHint(s)
	}
	for _, f := range simulator.Flags {
		hints.Flags[f] = simulator.FlagHint(f)
	}
	presetJSON, err := scriptJSON(presets)
	if err != nil {
		return "", err
	}
	hintJSON, err := scriptJSON(hints)
	if err != nil {
		return "", err
	}

	normal, _ := simulator.PresetByName("normal")
	start := normal.Sample

	var b strings.Builder
	b.WriteString(`<div class="simulator-panel" id="simulatorContent">`)
	b.WriteString(`<div class="preset-bar">`)
	for _, p := range simulator.Presets() {
		fmt.Fprintf(&b, `<button type="button" class="preset-btn" data-preset="%s" title="%s">%s</button>`,
			esc(p.Name), esc(p.Description), esc(strings.ToUpper(p.Name)))
	}
	b.WriteString(`</div><p class="preset-note" id="presetNote"></p>`)

	b.WriteString(`<form id="simForm" class="sim-form">`)
	writeSelect(&b, "model", "Model", models.ModelOrder, r.AttributionModel(), models.ModelDisplayName)
	b.WriteString(`<div class="hint-box" id="modelHint"></div>`)
	writeSelect(&b, "protocol_type", "Protocol", simulator.Protocols, start.ProtocolType, nil)
	writeSelect(&b, "service", "Service", simulator.Services, start.Service, nil)
	b.WriteString(`<div class="hint-box" id="serviceHint"></div>`)
	writeSelect(&b, "flag", "Flag", simulator.Flags, start.Flag, nil)
	b.WriteString(`<div class="hint-box" id="flagHint"></div>`)

	for _, in := range []rangeInput{
		{"duration", "Duration (s)", 60, start.Duration},
		{"serror_rate", "SYN error rate (%)", 100, start.SErrorRate},
		{"dst_host_serror_rate", "Host SYN error rate (%)", 100, start.DstHostSErrorRate},
		{"srv_serror_rate", "Service SYN error rate (%)", 100, start.SrvSErrorRate},
		{"count", "Connections (2s window)", 500, start.Count},
		{"same_srv_rate", "Same service rate (%)", 100, start.SameSrvRate},
		{"num_failed_logins", "Failed logins", 10, start.NumFailedLogins},
	} {
		fmt.Fprintf(&b, `<label class="sim-range">%s <input type="range" name="%s" min="0" max="%d" value="%d"> <span id="%s_val">%d</span></label>`,
			esc(in.label), in.name, in.max, in.value, in.name, in.value)
	}
	for _, cb := range []struct {
		name, label string
		on          bool
	}{
		{"logged_in", "Logged in", start.LoggedIn},
		{"root_shell", "Root shell", start.RootShell},
		{"su_attempted", "su attempted", start.SuAttempted},
	} {
		checked := ""
		if cb.on {
			checked = " checked"
		}
		fmt.Fprintf(&b, `<label class="sim-check"><input type="checkbox" name="%s"%s> %s</label>`, cb.name, checked, esc(cb.label))
	}
	b.WriteString(`<button type="submit" class="classify-btn">Classify Traffic</button></form>`)
	b.WriteString(`<div id="simulatorResults" class="simulator-results"></div>`)
	fmt.Fprintf(&b, `<script type="application/json" id="simPresets">%s</script>`, presetJSON)
	fmt.Fprintf(&b, `<script type="application/json" id="simHints">%s</script>`, hintJSON)
	b.WriteString(`<script>` + simulatorJS + `</script></div>`)
	return b.String(), nil
}

func writeSelect(b *strings.Builder, name, label string, options []string, selected string, display func(string) string) {
	esc := html.EscapeString
	fmt.Fprintf(b, `<label class="sim-select">%s <select name="%s">`, esc(label), name)
	for _, opt := range options {
		text := opt
		if display != nil {
			text = display(opt)
		}
		sel := ""
		if opt == selected {
			sel = " selected"
		}
		fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, esc(opt), sel, esc(text))
	}
	b.WriteString(`</select></label>`)
}

// scriptJSON encodes v for embedding in a script element.
func scriptJSON(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode script data: %w", err)
	}
	return strings.ReplaceAll(string(raw), "</", `<\/`), nil
}

const simulatorJS = `(function(){
var form=document.getElementById('simForm');if(!form)return;
var presets=JSON.parse(document.getElementById('simPresets').textContent);
var hints=JSON.parse(document.getElementById('simHints').textContent);
var ints=['duration','serror_rate','dst_host_serror_rate','srv_serror_rate','count','same_srv_rate','num_failed_logins'];
var bools=['logged_in','root_shell','su_attempted'];
function setField(name,v){var el=form.elements[name];if(!el)return;if(el.type==='checkbox'){el.checked=!!v;}else{el.value=v;}var out=document.getElementById(name+'_val');if(out)out.textContent=v;}
function refreshHints(){var m=hints.models[form.elements.model.value];document.getElementById('modelHint').textContent=m?m.hint:'';document.getElementById('serviceHint').textContent=hints.services[form.elements.service.value]||'';document.getElementById('flagHint').textContent=hints.flags[form.elements.flag.value]||'';}
document.querySelectorAll('.preset-btn').forEach(function(btn){btn.addEventListener('click',function(){var p=presets[btn.dataset.preset];if(!p)return;Object.keys(p.sample).forEach(function(k){setField(k,p.sample[k]);});refreshHints();document.getElementById('presetNote').textContent='Loaded: '+p.description+'. Why these values? '+p.reasoning;});});
ints.forEach(function(n){form.elements[n].addEventListener('input',function(){document.getElementById(n+'_val').textContent=form.elements[n].value;});});
['model','service','flag'].forEach(function(n){form.elements[n].addEventListener('change',refreshHints);});
function el(tag,cls,text){var e=document.createElement(tag);if(cls)e.className=cls;if(text!==undefined)e.textContent=text;return e;}
function show(res){var out=document.getElementById('simulatorResults');out.textContent='';
if(!res||res.message){out.appendChild(el('p','sim-error',(res&&res.message)||'Simulation failed'));return;}
var bare=el('div','sim-col sim-bare');bare.appendChild(el('strong',null,'Without XAI:'));bare.appendChild(el('div',null,'Prediction: '+res.prediction));bare.appendChild(el('div',null,'Confidence: '+res.confidence+'%'));bare.appendChild(el('div','analyst-doubt','Analyst: "Why should I trust this?"'));
var xai=el('div','sim-col sim-xai');xai.appendChild(el('strong',null,'With XAI (SHAP):'));xai.appendChild(el('div',null,'Prediction: '+res.prediction));xai.appendChild(el('div',null,'Confidence: '+res.confidence+'%'));
var kf=res.key_features||[];if(kf.length){var box=el('div','top-features');box.appendChild(el('div','top-features-title','TOP FEATURES:'));kf.slice(0,3).forEach(function(f,i){box.appendChild(el('div',null,(i+1)+'. '+f.name+' = '+f.value+' ('+f.impact+')'));});xai.appendChild(box);}
xai.appendChild(el('div','sim-reasoning',(res.reasoning||[]).slice(0,2).join('. ')));
(res.indicators||[]).forEach(function(t){xai.appendChild(el('span','indicator-tag severity-'+t.severity,t.name+(t.technique?' ('+t.technique+')':'')));});
xai.appendChild(el('div','analyst-trust','Analyst: "I trust this alert and will act."'));
var grid=el('div','sim-compare');grid.appendChild(bare);grid.appendChild(xai);out.appendChild(grid);}
form.addEventListener('submit',function(e){e.preventDefault();var sample={protocol_type:form.elements.protocol_type.value,service:form.elements.service.value,flag:form.elements.flag.value};
ints.forEach(function(n){sample[n]=parseInt(form.elements[n].value,10)||0;});bools.forEach(function(n){sample[n]=form.elements[n].checked;});
fetch('/api/simulate',{method:'POST',headers:{'Content-Type':'application/json'},body:JSON.stringify({model:form.elements.model.value,sample:sample})}).then(function(r){return r.json();}).then(show).catch(function(){show(null);});});
refreshHints();
})();`
