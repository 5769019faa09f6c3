package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestArtifactDecodeNormalizesLabels(t *testing.T) {
	raw := `{
		"performance": {"neural_network": {"accuracy": 0.7494}},
		"samples": [{
			"sample_id": 7,
			"true_label": "normal",
			"models": {
				"neural_network": {"prediction": "normal", "confidence": 91.2, "shap_explanation": [{"feature": "serror_rate", "value": -0.4, "shap_value": -0.02}]},
				"xgboost": {"prediction": "dos", "confidence": 55}
			}
		}],
		"feature_importance": {"neural_network_shap": {"features": ["serror_rate"], "importance": [0.12]}}
	}`

	var a Artifact
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	s, ok := a.Sample(7)
	if !ok {
		t.Fatalf("expected sample 7")
	}
	if s.TrueLabel != ClassNormal {
		t.Fatalf("expected Normal, got %q", s.TrueLabel)
	}
	if p, _ := s.Prediction(ModelXGBoost); p.Prediction != ClassDoS {
		t.Fatalf("expected DoS, got %q", p.Prediction)
	}
	if got := s.CorrectCount(); got != 1 {
		t.Fatalf("expected 1 correct model, got %d", got)
	}
	nn, _ := s.Prediction(ModelNeuralNetwork)
	if len(nn.Attributions) != 1 || nn.Attributions[0].PushesAttack() {
		t.Fatalf("unexpected attributions: %+v", nn.Attributions)
	}
}

func TestParseClassKeepsUnknownLabels(t *testing.T) {
	if got := ParseClass(" u2r "); got != ClassU2R {
		t.Fatalf("expected U2R, got %q", got)
	}
	got := ParseClass("worm")
	if got != "worm" || got.Known() {
		t.Fatalf("expected unknown label to pass through, got %q", got)
	}
}

func TestArtifactValidateRejectsDuplicatesAndRaggedImportance(t *testing.T) {
	dup := Artifact{Samples: []Sample{
		{ID: 1, Models: map[string]ModelPrediction{ModelXGBoost: {}}},
		{ID: 1, Models: map[string]ModelPrediction{ModelXGBoost: {}}},
	}}
	if err := dup.Validate(); err == nil {
		t.Fatalf("expected duplicate id error")
	}

	ragged := Artifact{FeatureImportance: map[string]FeatureImportance{
		"xgboost": {Features: []string{"a", "b"}, Importance: []float64{1}},
	}}
	if err := ragged.Validate(); err == nil {
		t.Fatalf("expected ragged importance error")
	}
}

func TestArtifactValidateIgnoresFieldValues(t *testing.T) {
	a := Artifact{Samples: []Sample{
		{ID: 0, TrueLabel: "Worm", Models: map[string]ModelPrediction{
			"svm": {Prediction: "Worm", Confidence: 250, Attributions: []FeatureAttribution{{Feature: "", Attribution: -9}}},
		}},
	}}
	if err := a.Validate(); err != nil {
		t.Fatalf("values are trusted as exported: %v", err)
	}

	empty := Artifact{Samples: []Sample{{ID: 3}}}
	if err := empty.Validate(); err == nil || !strings.Contains(err.Error(), "sample 3") {
		t.Fatalf("expected error naming the sample without predictions, got %v", err)
	}
}

func TestModelNamesFallBackToKey(t *testing.T) {
	if ModelDisplayName(ModelXGBoost) != "XGBoost" || ModelShortName(ModelRandomForest) != "RF" {
		t.Fatalf("unexpected model names")
	}
	if ModelDisplayName("svm") != "svm" {
		t.Fatalf("expected unknown key verbatim")
	}
}
