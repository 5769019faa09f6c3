package simulator

// ModelHint describes what a classifier leans on most.
type ModelHint struct {
	Top3 []string `json:"top3"`
	Hint string   `json:"hint"`
}

var modelHints = map[string]ModelHint{
	"neural_network": {
		Top3: []string{"serror_rate", "dst_host_serror_rate", "same_srv_rate"},
		Hint: "NN focuses on ERROR RATES (serror ~25%, dst_host_serror ~20%) + connection patterns (~15%). Best for rare U2R attacks!",
	},
	"xgboost": {
		Top3: []string{"dst_host_serror_rate", "serror_rate", "count"},
		Hint: "XGBoost balances ERROR RATES (dst_host_serror ~22%, serror ~20%) + CONNECTION COUNT (~15%). Highest overall accuracy (76.69%)!",
	},
	"decision_tree": {
		Top3: []string{"dst_host_serror_rate", "serror_rate", "srv_count"},
		Hint: "Decision Tree splits on HOST ERROR RATE (~25%) first, then SYN errors (~18%). Fastest & most explainable!",
	},
	"random_forest": {
		Top3: []string{"dst_host_serror_rate", "serror_rate", "same_srv_rate"},
		Hint: "Random Forest aggregates ERROR RATES (dst_host ~20%, serror ~18%) across trees. Failed at U2R (0%) but good for DoS!",
	},
}

var serviceHints = map[string]string{
	"http":     "Most common (32% of traffic) - Normal browsing",
	"private":  "Heavily targeted! 66% of DoS + 43% of Probe attacks",
	"telnet":   "U2R vector! 60% of privilege escalation attacks use Telnet",
	"eco_i":    "Probe indicator! 34% of reconnaissance attacks",
	"ftp":      "R2L vector - often targeted for brute force",
	"ssh":      "Secure shell - generally safer",
	"smtp":     "Email service",
	"domain_u": "DNS service",
}

var flagHints = map[string]string{
	"SF":     "Normal - Complete connection (60% of traffic, 95% of Normal)",
	"S0":     "DoS INDICATOR! No response = flooding (69% of DoS attacks)",
	"REJ":    "Probe INDICATOR! Rejected = scanning (27% of Probe attacks)",
	"RSTO":   "Client reset - Neutral",
	"RSTOS0": "Server rejected SYN - Scan indicator",
	"SH":     "Malformed packet - Attack indicator",
}

// Services lists the service choices offered by the traffic builder.
var Services = []string{"http", "private", "telnet", "eco_i", "ftp", "ssh", "smtp", "domain_u"}

// Flags lists the connection flag choices offered by the traffic builder.
var Flags = []string{"SF", "S0", "REJ", "RSTO", "RSTOS0", "SH"}

// Protocols lists the protocol choices offered by the traffic builder.
var Protocols = []string{"tcp", "udp", "icmp"}

// HintForModel returns the key-feature hint for a model key.
func HintForModel(model string) (ModelHint, bool) {
	h, ok := modelHints[model]
	return h, ok
}

// ServiceHint returns the hint for a service, or "" when there is none.
func ServiceHint(service string) string {
	return serviceHints[service]
}

// FlagHint returns the hint for a connection flag, or "" when there is none.
func FlagHint(flag string) string {
	return flagHints[flag]
}
