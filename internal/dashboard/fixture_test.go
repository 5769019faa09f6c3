package dashboard

import (
	"nidsboard/internal/explain"
	"nidsboard/pkg/models"
)

func fixtureArtifact() *models.Artifact {
	return &models.Artifact{
		Performance: map[string]models.ModelPerformance{
			models.ModelDecisionTree:  {Accuracy: 0.7584},
			models.ModelRandomForest:  {Accuracy: 0.7466},
			models.ModelNeuralNetwork: {Accuracy: 0.7494},
			models.ModelXGBoost:       {Accuracy: 0.7669},
		},
		Samples: []models.Sample{
			{
				ID:        0,
				TrueLabel: models.ClassDoS,
				Models: map[string]models.ModelPrediction{
					models.ModelDecisionTree: {Prediction: models.ClassDoS, Confidence: 100},
					models.ModelRandomForest: {Prediction: models.ClassDoS, Confidence: 98},
					models.ModelNeuralNetwork: {Prediction: models.ClassDoS, Confidence: 99.7, Attributions: []models.FeatureAttribution{
						{Feature: "serror_rate", Value: 0.85, Attribution: 0.22},
						{Feature: "count", Value: 0.9, Attribution: 0.15},
						{Feature: "logged_in", Value: -0.8, Attribution: -0.012},
						{Feature: "duration", Value: -0.1, Attribution: 0.0004},
					}},
					models.ModelXGBoost: {Prediction: models.ClassDoS, Confidence: 99.1},
				},
			},
			{
				ID:        1,
				TrueLabel: models.ClassNormal,
				Models: map[string]models.ModelPrediction{
					models.ModelDecisionTree:  {Prediction: models.ClassNormal, Confidence: 92},
					models.ModelRandomForest:  {Prediction: models.ClassNormal, Confidence: 81},
					models.ModelNeuralNetwork: {Prediction: models.ClassNormal, Confidence: 88.3},
					models.ModelXGBoost:       {Prediction: models.ClassProbe, Confidence: 55.5},
				},
			},
			{
				ID:        2,
				TrueLabel: models.ClassR2L,
				Models: map[string]models.ModelPrediction{
					models.ModelDecisionTree: {Prediction: models.ClassNormal, Confidence: 77},
					models.ModelRandomForest: {Prediction: models.ClassNormal, Confidence: 69},
					models.ModelNeuralNetwork: {Prediction: models.ClassNormal, Confidence: 96.2, Attributions: []models.FeatureAttribution{
						{Feature: "num_failed_logins", Value: 0, Attribution: 0.0002},
					}},
					models.ModelXGBoost: {Prediction: models.ClassR2L, Confidence: 61},
				},
			},
		},
		FeatureImportance: map[string]models.FeatureImportance{
			"neural_network_shap": {
				Features:   []string{"serror_rate", "dst_host_serror_rate", "same_srv_rate", "count"},
				Importance: []float64{0.0812, 0.0644, 0.0433, 0.0301},
			},
			"xgboost": {
				Features:   []string{"dst_host_serror_rate", "serror_rate", "count"},
				Importance: []float64{0.22, 0.2, 0.15},
			},
		},
	}
}

func fixtureRenderer() *Renderer {
	return NewRenderer(fixtureArtifact(), explain.NewExplainer(explain.Options{}, nil))
}
