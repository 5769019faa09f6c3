package explain

import (
	"fmt"
	"math"

	"nidsboard/pkg/models"
)

// ModelNote describes how a model without attributions reaches a verdict.
func ModelNote(model string, confidence float64, correct bool) string {
	conf := math.Round(confidence)
	switch model {
	case models.ModelDecisionTree:
		return fmt.Sprintf("Makes predictions using yes/no questions about network features. Confidence of %.0f%% based on learned rules. %s",
			conf, pick(correct, "Correctly identified this pattern.", "Rules led to incorrect classification."))
	case models.ModelRandomForest:
		return fmt.Sprintf("Combines multiple decision trees and votes. %.0f%% confidence shows agreement level. %s",
			conf, pick(correct, "Forest correctly identified the pattern.", "Majority vote was incorrect."))
	case models.ModelXGBoost:
		return fmt.Sprintf("Builds trees sequentially, each correcting previous mistakes. %.0f%% confidence from combined prediction. %s",
			conf, pick(correct, "Advanced learning captured this correctly.", "Misclassified despite sophistication."))
	}
	return "Analyzes network traffic patterns to make predictions."
}

// Confidence bands.
const (
	confidenceExtreme  = 95
	confidenceHigh     = 80
	confidenceModerate = 60
)

// ConfidenceNote explains a confidence level in light of correctness.
func ConfidenceNote(confidence float64, correct bool) string {
	conf := math.Round(confidence)
	switch {
	case confidence >= confidenceExtreme && !correct:
		return fmt.Sprintf("The model is extremely confident (%.0f%%) in this prediction, but it was wrong. "+
			"Sophisticated attacks can mimic normal traffic, the training data may have held similar patterns, "+
			"edge cases with rare feature combinations exist, and some attacks share characteristics with normal traffic. "+
			"High confidence does not mean always correct, which is why security systems use multiple models and human oversight.", conf)
	case confidence >= confidenceExtreme:
		return fmt.Sprintf("The model is extremely confident (%.0f%%) and correct. The traffic matches known signatures closely, "+
			"several strong indicators point the same way, and similar examples were well represented in training.", conf)
	case confidence >= confidenceHigh:
		return fmt.Sprintf("The model is quite confident (%.0f%%) in this prediction. %s", conf,
			pick(correct, "This strong confidence was correct.", "However, this confident prediction turned out to be wrong; the model was misled by deceptive patterns."))
	case confidence >= confidenceModerate:
		return fmt.Sprintf("The model has moderate confidence (%.0f%%). %s", conf,
			pick(correct, "Even with moderate certainty, it made the right call.", "This uncertainty led to an incorrect prediction; the features were ambiguous."))
	default:
		return fmt.Sprintf("The model has low confidence (%.0f%%), meaning it was very uncertain. %s", conf,
			pick(correct, "Despite the uncertainty, it happened to be correct.", "This reflects the difficulty of classifying this sample; it has characteristics of both attack and normal traffic."))
	}
}
