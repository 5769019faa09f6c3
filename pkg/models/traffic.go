package models

import "fmt"

// TrafficSample is a hand-built connection record for the simulator.
// Rates are whole percentages.
type TrafficSample struct {
	ProtocolType      string `json:"protocol_type" validate:"required,oneof=tcp udp icmp"`
	Service           string `json:"service" validate:"required"`
	Flag              string `json:"flag" validate:"required,oneof=SF S0 REJ RSTO RSTOS0 SH"`
	Duration          int    `json:"duration" validate:"gte=0"`
	SErrorRate        int    `json:"serror_rate" validate:"gte=0,lte=100"`
	DstHostSErrorRate int    `json:"dst_host_serror_rate" validate:"gte=0,lte=100"`
	SrvSErrorRate     int    `json:"srv_serror_rate" validate:"gte=0,lte=100"`
	Count             int    `json:"count" validate:"gte=0"`
	SameSrvRate       int    `json:"same_srv_rate" validate:"gte=0,lte=100"`
	LoggedIn          bool   `json:"logged_in"`
	RootShell         bool   `json:"root_shell"`
	SuAttempted       bool   `json:"su_attempted"`
	NumFailedLogins   int    `json:"num_failed_logins" validate:"gte=0"`
}

// Fields flattens the sample into string-valued fields for rule matching.
func (t *TrafficSample) Fields() map[string]interface{} {
	if t == nil {
		return nil
	}
	return map[string]interface{}{
		"protocol_type":        t.ProtocolType,
		"service":              t.Service,
		"flag":                 t.Flag,
		"duration":             fmt.Sprintf("%d", t.Duration),
		"serror_rate":          fmt.Sprintf("%d", t.SErrorRate),
		"dst_host_serror_rate": fmt.Sprintf("%d", t.DstHostSErrorRate),
		"srv_serror_rate":      fmt.Sprintf("%d", t.SrvSErrorRate),
		"count":                fmt.Sprintf("%d", t.Count),
		"same_srv_rate":        fmt.Sprintf("%d", t.SameSrvRate),
		"logged_in":            boolField(t.LoggedIn),
		"root_shell":           boolField(t.RootShell),
		"su_attempted":         boolField(t.SuAttempted),
		"num_failed_logins":    fmt.Sprintf("%d", t.NumFailedLogins),
	}
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// KeyFeature is one input that moved a simulated verdict.
type KeyFeature struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Impact string `json:"impact"`
	Type   string `json:"type"` // attack or normal
}

// SimulationResult is the rule-table verdict for a TrafficSample.
type SimulationResult struct {
	Model       string         `json:"model"`
	Prediction  PredictedClass `json:"prediction"`
	Confidence  int            `json:"confidence"`
	Reasoning   []string       `json:"reasoning"`
	KeyFeatures []KeyFeature   `json:"key_features"`
	Indicators  []IndicatorTag `json:"indicators,omitempty"`
}
