package simulator

import (
	"sort"

	"nidsboard/pkg/models"
)

// Preset is a named, realistic traffic scenario.
type Preset struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Reasoning   string               `json:"reasoning"`
	Sample      models.TrafficSample `json:"sample"`
}

var presets = map[string]Preset{
	"normal": {
		Name:        "normal",
		Description: "Legitimate HTTP browsing - Complete connection (SF), low errors, authenticated",
		Reasoning:   "SF flag = normal completion. Low error rates <5%. Authenticated. Duration 15s = human browsing.",
		Sample: models.TrafficSample{
			ProtocolType: "tcp", Service: "http", Flag: "SF",
			Duration: 15, SErrorRate: 2, DstHostSErrorRate: 3, SrvSErrorRate: 2,
			Count: 8, SameSrvRate: 60, LoggedIn: true,
		},
	},
	"dos": {
		Name:        "dos",
		Description: "SYN flood DoS - S0 flag + 85% errors + 420 connections",
		Reasoning:   "S0 flag (69% of DoS). SYN errors 85% (top feature). 420 rapid connections. Private service targeted.",
		Sample: models.TrafficSample{
			ProtocolType: "tcp", Service: "private", Flag: "S0",
			Duration: 0, SErrorRate: 85, DstHostSErrorRate: 88, SrvSErrorRate: 87,
			Count: 420, SameSrvRate: 92,
		},
	},
	"probe": {
		Name:        "probe",
		Description: "Port scan (Nmap-style) - REJ flag + varied services + 150 attempts",
		Reasoning:   "REJ flag (27% of Probe). Moderate errors from rejections. 150 attempts. Low same_srv_rate = varied targets.",
		Sample: models.TrafficSample{
			ProtocolType: "tcp", Service: "http", Flag: "REJ",
			Duration: 2, SErrorRate: 18, DstHostSErrorRate: 22, SrvSErrorRate: 20,
			Count: 150, SameSrvRate: 30,
		},
	},
	"u2r": {
		Name:        "u2r",
		Description: "Privilege escalation (Buffer overflow) - Telnet + authenticated + ROOT SHELL",
		Reasoning:   "Telnet (60% of U2R). Logged in required. Root shell = 30% impact! Su_attempted = escalation. Low errors.",
		Sample: models.TrafficSample{
			ProtocolType: "tcp", Service: "telnet", Flag: "SF",
			Duration: 25, SErrorRate: 6, DstHostSErrorRate: 8, SrvSErrorRate: 7,
			Count: 5, SameSrvRate: 80, LoggedIn: true, RootShell: true, SuAttempted: true,
		},
	},
	"r2l": {
		Name:        "r2l",
		Description: "Remote access (FTP brute force) - 4 failed logins",
		Reasoning:   "FTP service. 4 failed logins = brute force indicator. Not logged in. Moderate connection count.",
		Sample: models.TrafficSample{
			ProtocolType: "tcp", Service: "ftp", Flag: "SF",
			Duration: 12, SErrorRate: 10, DstHostSErrorRate: 12, SrvSErrorRate: 11,
			Count: 18, SameSrvRate: 85, NumFailedLogins: 4,
		},
	},
}

// presetOrder is the display order of the preset buttons.
var presetOrder = []string{"normal", "dos", "probe", "u2r", "r2l"}

// PresetByName returns a copy of the named preset.
func PresetByName(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// Presets returns all presets in display order.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, name := range presetOrder {
		out = append(out, presets[name])
	}
	return out
}

// PresetNames returns preset names sorted alphabetically.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
