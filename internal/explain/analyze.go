package explain

import (
	"fmt"
	"math"
)

// Per-feature thresholds on the normalized value.
const (
	durationThreshold         = 0.5
	srcBytesThreshold         = 0.3
	dstBytesThreshold         = 0.5
	countHighThreshold        = 0.5
	countLowThreshold         = -0.3
	srvCountThreshold         = 0.5
	sameSrvHighThreshold      = 0.7
	sameSrvLowThreshold       = 0.3
	diffSrvLowThreshold       = -0.5
	diffSrvHighThreshold      = 0.5
	serrorHighThreshold       = 0.5
	serrorLowThreshold        = -0.5
	dstHostSerrorThreshold    = 0.6
	failedLoginsThreshold     = 0.3
	numRootThreshold          = 0.5
	fileCreationsThreshold    = 0.4
	hotThreshold              = 0.3
	numShellsThreshold        = 0.2
	wrongFragmentThreshold    = 0.2
	urgentThreshold           = 0.3
	rootShellDetectedSentence = "Root shell access detected. The model treats any root shell as the strongest U2R (privilege escalation) indicator, since it is the end goal of these attacks."
	landDetectedSentence      = "LAND attack detected. Source and destination addresses are identical, a classic denial-of-service technique."
)

// Analyze explains, in plain text, why a feature value pushed the model
// toward attack or toward normal. It is total over any key and value.
func Analyze(key string, value float64, pushesAttack bool) string {
	pct := percent(value)

	switch key {
	case "duration":
		switch {
		case pushesAttack && math.Abs(value) > durationThreshold:
			tail := "Very short connections combined with other features suggest scanning behavior."
			if value > 0 {
				tail = "Very long connections can indicate DoS attacks trying to hold resources."
			}
			return fmt.Sprintf("The model learned that connection times like this (%s%%) are unusual for normal traffic. %s", pct, tail)
		case pushesAttack:
			return fmt.Sprintf("While the duration (%s%%) seems normal by itself, the model found it increases attack probability when combined with this specific pattern of other features.", pct)
		default:
			return fmt.Sprintf("The duration (%s%%) fits the pattern of legitimate traffic seen during training.", pct)
		}

	case "src_bytes":
		switch {
		case pushesAttack && math.Abs(value) > srcBytesThreshold:
			tail := "Low volumes with other suspicious features suggest scanning."
			if value > 0 {
				tail = "High volumes often indicate DoS floods."
			}
			return fmt.Sprintf("Data volume like this (%s%%) matches attack patterns learned from training. %s", pct, tail)
		case pushesAttack:
			return fmt.Sprintf("Even though %s%% seems moderate, this specific data pattern increased suspicion based on how it correlates with attacks in training data.", pct)
		default:
			return fmt.Sprintf("Data volume (%s%%) matches legitimate traffic patterns, making an attack less likely.", pct)
		}

	case "dst_bytes":
		if pushesAttack {
			tail := "Combined with other features, this pattern looks suspicious."
			if math.Abs(value) > dstBytesThreshold {
				tail = "This could indicate data exfiltration or attack responses."
			}
			return fmt.Sprintf("Receiving %s%% of data in this scenario is unusual for normal behavior. %s", pct, tail)
		}
		return fmt.Sprintf("Received data (%s%%) fits normal traffic distribution patterns, reducing attack probability.", pct)

	case "count":
		switch {
		case pushesAttack && value > countHighThreshold:
			return fmt.Sprintf("This connection count (%s%%) is significantly higher than normal traffic. Attackers create many connections for scanning or flooding.", pct)
		case pushesAttack:
			return fmt.Sprintf("The connection count (%s%%) increases attack probability when seen with this combination of other features.", pct)
		case value < countLowThreshold:
			return fmt.Sprintf("Low connection count (%s%%) matches normal single-request behavior.", pct)
		default:
			return fmt.Sprintf("Connection count (%s%%) aligns with legitimate usage.", pct)
		}

	case "srv_count":
		if pushesAttack && value > srvCountThreshold {
			return fmt.Sprintf("%s%% same-service connections is unusually high and attack-like. Attackers focus on specific targets.", pct)
		}
		return fmt.Sprintf("Service connection rate (%s%%) %s.", pct, pick(pushesAttack, "contributed to attack suspicion in this pattern", "is consistent with normal behavior"))

	case "same_srv_rate":
		switch {
		case pushesAttack && value > sameSrvHighThreshold:
			return fmt.Sprintf("%s%% of connections targeting one service is an extreme focus associated with automated attacks or scanning.", pct)
		case !pushesAttack && value < sameSrvLowThreshold:
			return fmt.Sprintf("Diverse service usage (only %s%% to the same service) is typical of human browsing.", pct)
		default:
			return fmt.Sprintf("Same service rate (%s%%) %s.", pct, pick(pushesAttack, "seems high for normal use in this context", "is reasonable for legitimate activity"))
		}

	case "diff_srv_rate":
		switch {
		case pushesAttack && value < diffSrvLowThreshold:
			return fmt.Sprintf("Very low service diversity (%s%%) suggests automated tools rather than human behavior.", pct)
		case !pushesAttack && value > diffSrvHighThreshold:
			return fmt.Sprintf("Good service variety (%s%%) matches natural human browsing.", pct)
		default:
			return fmt.Sprintf("Service diversity (%s%%) %s.", pct, pick(pushesAttack, "is suspiciously low", "is acceptable"))
		}

	case "serror_rate":
		switch {
		case pushesAttack && value > serrorHighThreshold:
			return fmt.Sprintf("A %s%% SYN error rate is extremely high. The model strongly associates this with scanning and flooding, where most connection attempts fail.", pct)
		case !pushesAttack && value < serrorLowThreshold:
			return fmt.Sprintf("Very low SYN error rate (%s%%) indicates clean, legitimate connections.", pct)
		default:
			return fmt.Sprintf("SYN error rate (%s%%) %s.", pct, pick(pushesAttack, "is elevated above what the model expects for normal traffic", "is within typical ranges"))
		}

	case "dst_host_serror_rate":
		if pushesAttack && value > dstHostSerrorThreshold {
			return fmt.Sprintf("A %s%% error rate at the destination host strongly indicates the host is being scanned or attacked.", pct)
		}
		return fmt.Sprintf("Destination error rate (%s%%) %s.", pct, pick(pushesAttack, "contributes to attack suspicion", "indicates stable connections"))

	case "logged_in":
		if value > 0 {
			return fmt.Sprintf("Successful authentication (logged_in=1) %s.", pick(pushesAttack, "matters because attackers can authenticate before escalating privileges", "is a normal indicator of legitimate access"))
		}
		return fmt.Sprintf("No successful login %s.", pick(pushesAttack, "combined with other patterns suggests unauthorized access attempts", "might be normal for certain service types"))

	case "num_failed_logins":
		if pushesAttack && value > failedLoginsThreshold {
			return fmt.Sprintf("Multiple failed login attempts (%s%%) is a classic brute-force attack signature.", pct)
		}
		return fmt.Sprintf("Failed login count (%s%%) %s.", pct, pick(pushesAttack, "adds to suspicion", "is not concerning"))

	case "root_shell":
		if value > 0 {
			return rootShellDetectedSentence
		}
		return "No root shell access detected in this connection."

	case "num_root":
		if pushesAttack && value > numRootThreshold {
			return fmt.Sprintf("Multiple root operations (%s%%) are associated with privilege escalation or system compromise.", pct)
		}
		return fmt.Sprintf("Root operations (%s%%) %s.", pct, pick(pushesAttack, "contributed to the overall attack pattern", "are minimal"))

	case "num_file_creations":
		if pushesAttack && value > fileCreationsThreshold {
			return fmt.Sprintf("High file creation activity (%s%%) is linked to malware installation or attackers establishing persistence.", pct)
		}
		return fmt.Sprintf("File creation (%s%%) %s.", pct, pick(pushesAttack, "is part of the suspicious pattern", "is normal activity"))

	case "hot":
		if pushesAttack && value > hotThreshold {
			return fmt.Sprintf("Accessing sensitive files (%s%%) is flagged. Attackers typically touch security-critical files such as /etc/passwd to escalate privileges.", pct)
		}
		return fmt.Sprintf("Sensitive file access (%s%%) %s.", pct, pick(pushesAttack, "adds to the attack pattern", "is minimal"))

	case "num_shells":
		if pushesAttack && value > numShellsThreshold {
			return fmt.Sprintf("Shell access obtained (%s%%) is a major attack success indicator.", pct)
		}
		return fmt.Sprintf("Shell access indicators at %s%%.", pct)

	case "wrong_fragment":
		if value > wrongFragmentThreshold {
			return fmt.Sprintf("Malformed packet fragments detected (%s%%). Attackers deliberately craft bad packets to exploit vulnerabilities or evade detection.", pct)
		}
		return fmt.Sprintf("Packet integrity (%s%%) %s.", pct, pick(pushesAttack, "shows some anomalies", "is good"))

	case "urgent":
		if value > urgentThreshold {
			return fmt.Sprintf("Abnormal urgent flags (%s%%). Excessive urgent packets are rarely used legitimately and often indicate attacks.", pct)
		}
		return fmt.Sprintf("Urgent flag usage (%s%%) %s.", pct, pick(pushesAttack, "is slightly elevated", "is normal"))

	case "land":
		if value > 0 {
			return landDetectedSentence
		}
		return "No LAND attack pattern detected."
	}

	dir := pick(value > 0, "higher", "lower")
	if pushesAttack {
		return fmt.Sprintf("This feature's value (%s%%) is %s than typical for normal traffic, pushing the model toward detecting an attack.", pct, dir)
	}
	return fmt.Sprintf("This feature's value (%s%%) is %s than attack patterns, pushing the model toward classifying this as normal traffic.", pct, dir)
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
