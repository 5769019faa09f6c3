package models

import "time"

// Clause is one bullet of a composed narrative.
type Clause struct {
	Feature     string  `json:"feature"`
	DisplayName string  `json:"display_name"`
	Value       string  `json:"value"`
	Attribution float64 `json:"attribution"`
	Direction   string  `json:"direction"` // attack or normal
	Text        string  `json:"text"`
}

// Narrative is the composed plain-text reasoning for one prediction.
type Narrative struct {
	Reasoning           string   `json:"reasoning"`
	Clauses             []Clause `json:"clauses,omitempty"`
	ConfidenceRationale string   `json:"confidence_rationale,omitempty"`
	Caveat              string   `json:"caveat,omitempty"`
	Closing             string   `json:"closing,omitempty"`
	Fallback            bool     `json:"fallback,omitempty"`
}

// ExplainedFeature is one row of the attribution table.
type ExplainedFeature struct {
	Feature        string  `json:"feature"`
	DisplayName    string  `json:"display_name"`
	Description    string  `json:"description"`
	Rationale      string  `json:"rationale"`
	Value          float64 `json:"value"`
	FormattedValue string  `json:"formatted_value"`
	Attribution    float64 `json:"attribution"`
	Impact         string  `json:"impact"`
	Strength       string  `json:"strength"`
	PushesAttack   bool    `json:"pushes_attack"`
	Analysis       string  `json:"analysis"`
}

// Explanation is everything the detail view shows for one sample and model.
type Explanation struct {
	RunID          string             `json:"run_id,omitempty"`
	SampleID       int                `json:"sample_id"`
	Model          string             `json:"model"`
	TrueLabel      PredictedClass     `json:"true_label"`
	Prediction     PredictedClass     `json:"prediction"`
	Confidence     float64            `json:"confidence"`
	Correct        bool               `json:"correct"`
	HasAttribution bool               `json:"has_attribution"`
	Narrative      *Narrative         `json:"narrative,omitempty"`
	Features       []ExplainedFeature `json:"features,omitempty"`
	ModelNote      string             `json:"model_note,omitempty"`
	ConfidenceNote string             `json:"confidence_note"`
	GeneratedAt    time.Time          `json:"generated_at"`
}
