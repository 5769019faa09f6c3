package simulator

import (
	"fmt"
	"math"

	"nidsboard/pkg/models"
)

// Classify runs the fixed rule table over a traffic sample. Rules are applied
// in order and later rules may override earlier verdicts.
func Classify(t models.TrafficSample, model string) models.SimulationResult {
	prediction := models.ClassNormal
	confidence := 50
	reasoning := make([]string, 0, 8)
	keyFeatures := make([]models.KeyFeature, 0, 6)

	attack := func(name, value, impact string) {
		keyFeatures = append(keyFeatures, models.KeyFeature{Name: name, Value: value, Impact: impact, Type: "attack"})
	}

	// Connection flag is the strongest single signal.
	switch t.Flag {
	case "S0":
		prediction, confidence = models.ClassDoS, 85
		reasoning = append(reasoning, "S0 flag detected (SYN with no response) - Strong DoS indicator")
		attack("flag", "S0", "+45%")
	case "REJ":
		prediction, confidence = models.ClassProbe, 75
		reasoning = append(reasoning, "REJ flag detected (Connection rejected) - Scanning behavior")
		attack("flag", "REJ", "+35%")
	}

	if t.SErrorRate > 50 {
		if prediction == models.ClassNormal {
			prediction, confidence = models.ClassDoS, 90
		} else {
			confidence = min(95, confidence+10)
		}
		reasoning = append(reasoning, fmt.Sprintf("High SYN error rate (%d%%) - Flooding detected", t.SErrorRate))
		attack("serror_rate", fmt.Sprintf("%d%%", t.SErrorRate), fmt.Sprintf("+%d%%", roundDiv(t.SErrorRate, 2)))
	}

	if t.DstHostSErrorRate > 50 {
		confidence = min(98, confidence+5)
		reasoning = append(reasoning, fmt.Sprintf("High host error rate (%d%%) - Target overwhelmed", t.DstHostSErrorRate))
		attack("dst_host_serror_rate", fmt.Sprintf("%d%%", t.DstHostSErrorRate), fmt.Sprintf("+%d%%", roundDiv(t.DstHostSErrorRate, 3)))
	}

	if t.RootShell {
		prediction = models.ClassU2R
		confidence = 70
		if model == models.ModelNeuralNetwork {
			confidence = 95
		}
		reasoning = append(reasoning, "ROOT SHELL ACCESS detected - Privilege escalation confirmed!")
		attack("root_shell", "1 (Yes)", "+50%")
	}

	if t.SuAttempted && prediction == models.ClassNormal {
		prediction = models.ClassU2R
		confidence = 60
		if model == models.ModelNeuralNetwork {
			confidence = 80
		}
		reasoning = append(reasoning, "Privilege escalation attempt (su_attempted)")
		attack("su_attempted", "1 (Yes)", "+30%")
	}

	if t.NumFailedLogins >= 3 {
		if prediction == models.ClassNormal {
			prediction, confidence = models.ClassR2L, 80
		}
		reasoning = append(reasoning, fmt.Sprintf("Multiple failed logins (%d) - Brute force attempt", t.NumFailedLogins))
		attack("num_failed_logins", fmt.Sprintf("%d", t.NumFailedLogins), "+25%")
	}

	if t.Count > 200 {
		switch prediction {
		case models.ClassNormal:
			prediction, confidence = models.ClassDoS, 75
		case models.ClassDoS:
			confidence = min(98, confidence+10)
		}
		reasoning = append(reasoning, fmt.Sprintf("High connection count (%d) - Rapid flooding pattern", t.Count))
		attack("count", fmt.Sprintf("%d", t.Count), "+20%")
	}

	if t.Service == "telnet" && t.LoggedIn {
		if prediction == models.ClassNormal {
			prediction, confidence = models.ClassU2R, 70
		}
		reasoning = append(reasoning, "Telnet with authentication - U2R attack vector (60% of U2R use Telnet)")
	}

	if t.Service == "private" && (t.Flag == "S0" || t.SErrorRate > 30) {
		if prediction == models.ClassNormal {
			prediction, confidence = models.ClassDoS, 80
		}
		reasoning = append(reasoning, "Private service + errors/S0 flag - Common DoS target")
	}

	// A clean completed connection overrides everything above.
	if t.Flag == "SF" && t.SErrorRate < 10 && t.DstHostSErrorRate < 10 && t.Count < 50 && !t.RootShell && t.NumFailedLogins == 0 {
		prediction, confidence = models.ClassNormal, 85
		reasoning = []string{
			"SF flag (complete connection)",
			"Low error rates (<10%)",
			"Normal connection count",
			"No security violations",
		}
		keyFeatures = append(keyFeatures,
			models.KeyFeature{Name: "flag", Value: "SF", Impact: "-40%", Type: "normal"},
			models.KeyFeature{Name: "serror_rate", Value: fmt.Sprintf("%d%%", t.SErrorRate), Impact: "-20%", Type: "normal"},
		)
	}

	switch {
	case model == models.ModelNeuralNetwork && prediction == models.ClassU2R:
		confidence = min(98, confidence+10)
	case model == models.ModelRandomForest && prediction == models.ClassU2R:
		confidence = max(5, confidence-20)
		reasoning = append(reasoning, "Note: Random Forest struggles with U2R (0% F1-score). Neural Network recommended!")
	case model == models.ModelXGBoost && prediction != models.ClassU2R:
		confidence = min(95, confidence+5)
	}

	if t.Duration < 2 && prediction == models.ClassDoS {
		confidence = min(98, confidence+3)
		reasoning = append(reasoning, fmt.Sprintf("Very short duration (%ds) - Automated attack", t.Duration))
		attack("duration", fmt.Sprintf("%ds", t.Duration), "+15%")
	}

	return models.SimulationResult{
		Model:       model,
		Prediction:  prediction,
		Confidence:  confidence,
		Reasoning:   reasoning,
		KeyFeatures: keyFeatures,
	}
}

// roundDiv rounds v/d half away from zero.
func roundDiv(v, d int) int {
	return int(math.Round(float64(v) / float64(d)))
}
