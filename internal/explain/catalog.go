package explain

import "strings"

// FeatureDescriptor is the plain-language description of a feature key.
type FeatureDescriptor struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Rationale   string `json:"rationale"`
}

var catalog = map[string]FeatureDescriptor{
	"duration":                    {DisplayName: "Connection Duration", Description: "How long the network connection lasted", Rationale: "Attacks often have very short or very long connection times"},
	"src_bytes":                   {DisplayName: "Data Sent", Description: "Amount of data sent from source", Rationale: "Large amounts may indicate data exfiltration"},
	"dst_bytes":                   {DisplayName: "Data Received", Description: "Amount of data received", Rationale: "Unusual patterns can indicate suspicious activity"},
	"count":                       {DisplayName: "Connection Count", Description: "Number of connections in time window", Rationale: "Many rapid connections often indicate scanning"},
	"srv_count":                   {DisplayName: "Service Connections", Description: "Connections to same service", Rationale: "High count may show automated attacks"},
	"same_srv_rate":               {DisplayName: "Same Service Rate", Description: "Percentage to same service", Rationale: "Attackers often target one service"},
	"diff_srv_rate":               {DisplayName: "Different Service Rate", Description: "Percentage to different services", Rationale: "Low variety can indicate focused attack"},
	"serror_rate":                 {DisplayName: "SYN Error Rate", Description: "Connection errors percentage", Rationale: "High rate often indicates port scanning"},
	"dst_host_serror_rate":        {DisplayName: "Host Error Rate", Description: "Errors for this destination", Rationale: "Shows if host is being scanned"},
	"protocol_type_encoded":       {DisplayName: "Protocol Type", Description: "Network protocol (TCP/UDP/ICMP)", Rationale: "Certain protocols common in attacks"},
	"service_encoded":             {DisplayName: "Network Service", Description: "Service accessed (HTTP, FTP, etc.)", Rationale: "Attackers target vulnerable services"},
	"flag_encoded":                {DisplayName: "Connection Status", Description: "Connection completion status", Rationale: "Shows normal or error completion"},
	"hot":                         {DisplayName: "Hot Indicators", Description: "Sensitive file access count", Rationale: "Access to important system files"},
	"num_failed_logins":           {DisplayName: "Failed Logins", Description: "Unsuccessful login attempts", Rationale: "Multiple failures suggest brute force"},
	"logged_in":                   {DisplayName: "Login Success", Description: "Whether login succeeded", Rationale: "Success after failures is suspicious"},
	"num_compromised":             {DisplayName: "Compromised Signs", Description: "Indicators of breach", Rationale: "Signs system may be compromised"},
	"root_shell":                  {DisplayName: "Root Access", Description: "Administrator shell obtained", Rationale: "Strongest sign of privilege escalation"},
	"su_attempted":                {DisplayName: "Admin Attempt", Description: "Tried to become admin", Rationale: "Attempting to gain higher privileges"},
	"num_root":                    {DisplayName: "Root Operations", Description: "Administrator-level actions", Rationale: "Multiple root accesses are suspicious"},
	"num_file_creations":          {DisplayName: "Files Created", Description: "New files made", Rationale: "May indicate malware installation"},
	"num_shells":                  {DisplayName: "Shell Access", Description: "Command line access gained", Rationale: "Key indicator of successful breach"},
	"num_access_files":            {DisplayName: "Permission Files", Description: "Access control file touches", Rationale: "Attackers modify for more access"},
	"dst_host_count":              {DisplayName: "Host Connections", Description: "Connections to destination", Rationale: "Too many may indicate attack"},
	"dst_host_same_srv_rate":      {DisplayName: "Host Service Focus", Description: "Rate to same service on host", Rationale: "Consistent targeting pattern"},
	"dst_host_diff_srv_rate":      {DisplayName: "Host Service Variety", Description: "Rate to different services", Rationale: "Service scanning behavior"},
	"dst_host_same_src_port_rate": {DisplayName: "Port Consistency", Description: "Same source port usage", Rationale: "Unusual port patterns"},
	"land":                        {DisplayName: "Land Attack", Description: "Source equals destination", Rationale: "Classic denial-of-service"},
	"wrong_fragment":              {DisplayName: "Bad Packets", Description: "Malformed packet fragments", Rationale: "Often used in attacks"},
	"urgent":                      {DisplayName: "Urgent Flags", Description: "Urgent packet count", Rationale: "Abnormal flags may indicate attack"},
}

// Describe returns the descriptor for a feature key. It never fails:
// unknown keys get a title-cased display name and generic text.
func Describe(key string) FeatureDescriptor {
	if d, ok := catalog[key]; ok {
		d.Key = key
		return d
	}
	return FeatureDescriptor{
		Key:         key,
		DisplayName: titleCase(key),
		Description: "Network traffic characteristic",
		Rationale:   "Used by the model to detect patterns",
	}
}

// titleCase replaces underscores with spaces and upper-cases the first
// letter of every word.
func titleCase(key string) string {
	b := []byte(strings.ReplaceAll(key, "_", " "))
	start := true
	for i, c := range b {
		if isWordByte(c) {
			if start && c >= 'a' && c <= 'z' {
				b[i] = c - 'a' + 'A'
			}
			start = false
			continue
		}
		start = true
	}
	return string(b)
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
