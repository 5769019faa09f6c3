package models

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// PredictedClass is a traffic category label.
type PredictedClass string

const (
	ClassNormal PredictedClass = "Normal"
	ClassDoS    PredictedClass = "DoS"
	ClassProbe  PredictedClass = "Probe"
	ClassU2R    PredictedClass = "U2R"
	ClassR2L    PredictedClass = "R2L"
)

// Classes lists the known labels in display order.
var Classes = []PredictedClass{ClassNormal, ClassDoS, ClassProbe, ClassU2R, ClassR2L}

// ParseClass maps a raw label onto a known class, case-insensitively.
// Unknown labels are returned verbatim.
func ParseClass(raw string) PredictedClass {
	v := strings.TrimSpace(raw)
	for _, c := range Classes {
		if strings.EqualFold(v, string(c)) {
			return c
		}
	}
	return PredictedClass(v)
}

// UnmarshalText normalizes labels such as "normal" to their canonical form.
func (c *PredictedClass) UnmarshalText(text []byte) error {
	*c = ParseClass(string(text))
	return nil
}

// Known reports whether the label is one of the five known classes.
func (c PredictedClass) Known() bool {
	for _, k := range Classes {
		if c == k {
			return true
		}
	}
	return false
}

// IsAttack reports whether the label names an attack category.
func (c PredictedClass) IsAttack() bool {
	return c != ClassNormal
}

// Model keys used in the artifact.
const (
	ModelDecisionTree  = "decision_tree"
	ModelRandomForest  = "random_forest"
	ModelNeuralNetwork = "neural_network"
	ModelXGBoost       = "xgboost"
)

// ModelOrder is the fixed display order of the four classifiers.
var ModelOrder = []string{ModelDecisionTree, ModelRandomForest, ModelNeuralNetwork, ModelXGBoost}

var modelNames = map[string][2]string{
	ModelDecisionTree:  {"Decision Tree", "DT"},
	ModelRandomForest:  {"Random Forest", "RF"},
	ModelNeuralNetwork: {"Neural Network", "NN"},
	ModelXGBoost:       {"XGBoost", "XGB"},
}

// ModelDisplayName returns the human name for a model key.
func ModelDisplayName(key string) string {
	if n, ok := modelNames[key]; ok {
		return n[0]
	}
	return key
}

// ModelShortName returns the abbreviation for a model key.
func ModelShortName(key string) string {
	if n, ok := modelNames[key]; ok {
		return n[1]
	}
	return key
}

// FeatureAttribution is one feature's signed contribution to a prediction.
// Positive attribution pushes toward attack, negative toward normal.
type FeatureAttribution struct {
	Feature     string  `json:"feature"`
	Value       float64 `json:"value"`
	Attribution float64 `json:"shap_value"`
}

// PushesAttack reports whether the attribution favors the attack side.
func (a FeatureAttribution) PushesAttack() bool {
	return a.Attribution > 0
}

// ModelPrediction is one classifier's output for a sample.
type ModelPrediction struct {
	Prediction   PredictedClass       `json:"prediction"`
	Confidence   float64              `json:"confidence"`
	Attributions []FeatureAttribution `json:"shap_explanation,omitempty"`
}

// Sample is one labeled connection with predictions from every model.
type Sample struct {
	ID        int                        `json:"sample_id"`
	TrueLabel PredictedClass             `json:"true_label"`
	Models    map[string]ModelPrediction `json:"models"`
}

// Prediction returns the prediction for a model key.
func (s *Sample) Prediction(model string) (ModelPrediction, bool) {
	if s == nil || s.Models == nil {
		return ModelPrediction{}, false
	}
	p, ok := s.Models[model]
	return p, ok
}

// ModelKeys lists the sample's model keys in ModelOrder, then any unknown
// keys sorted.
func (s *Sample) ModelKeys() []string {
	keys := make([]string, 0, len(s.Models))
	for _, m := range ModelOrder {
		if _, ok := s.Models[m]; ok {
			keys = append(keys, m)
		}
	}
	var extra []string
	for k := range s.Models {
		if !slices.Contains(ModelOrder, k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Correct reports whether the given model matched the true label.
func (s *Sample) Correct(model string) bool {
	p, ok := s.Prediction(model)
	return ok && p.Prediction == s.TrueLabel
}

// CorrectCount counts models in ModelOrder that matched the true label.
func (s *Sample) CorrectCount() int {
	n := 0
	for _, m := range ModelOrder {
		if s.Correct(m) {
			n++
		}
	}
	return n
}

// ModelPerformance holds aggregate metrics for one model.
type ModelPerformance struct {
	Accuracy float64 `json:"accuracy"`
}

// FeatureImportance is a parallel list of feature names and scores.
type FeatureImportance struct {
	Features   []string  `json:"features"`
	Importance []float64 `json:"importance"`
}

// Artifact is the precomputed dashboard input.
type Artifact struct {
	Performance       map[string]ModelPerformance  `json:"performance"`
	Samples           []Sample                     `json:"samples"`
	FeatureImportance map[string]FeatureImportance `json:"feature_importance"`
}

// Sample looks up a sample by id.
func (a *Artifact) Sample(id int) (*Sample, bool) {
	if a == nil {
		return nil, false
	}
	for i := range a.Samples {
		if a.Samples[i].ID == id {
			return &a.Samples[i], true
		}
	}
	return nil, false
}

// Validate checks structural consistency after decoding: unique sample ids,
// at least one prediction per sample and parallel importance arrays. Field
// values are not range-checked.
func (a *Artifact) Validate() error {
	if a == nil {
		return fmt.Errorf("artifact is nil")
	}
	seen := make(map[int]struct{}, len(a.Samples))
	for _, s := range a.Samples {
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("duplicate sample_id %d", s.ID)
		}
		seen[s.ID] = struct{}{}
		if len(s.Models) == 0 {
			return fmt.Errorf("sample %d has no model predictions", s.ID)
		}
	}
	for key, fi := range a.FeatureImportance {
		if len(fi.Features) != len(fi.Importance) {
			return fmt.Errorf("feature_importance %s: %d features but %d scores", key, len(fi.Features), len(fi.Importance))
		}
	}
	return nil
}
