package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nidsboard/pkg/models"
)

type memoryCache struct {
	data    map[string][]byte
	gets    int
	sets    int
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.gets++
	if c.failGet {
		return nil, false, errors.New("boom")
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte) error {
	c.sets++
	c.data[key] = value
	return nil
}

func fixtureSample() *models.Sample {
	return &models.Sample{
		ID:        42,
		TrueLabel: models.ClassDoS,
		Models: map[string]models.ModelPrediction{
			models.ModelNeuralNetwork: {
				Prediction: models.ClassDoS,
				Confidence: 97.4,
				Attributions: []models.FeatureAttribution{
					{Feature: "count", Value: 0.9, Attribution: 0.15},
					{Feature: "noise", Value: 0.1, Attribution: 0.0004},
					{Feature: "serror_rate", Value: 0.85, Attribution: 0.22},
					{Feature: "logged_in", Value: 0, Attribution: -0.03},
				},
			},
			models.ModelRandomForest: {Prediction: models.ClassProbe, Confidence: 64},
			models.ModelXGBoost: {
				Prediction:   models.ClassDoS,
				Confidence:   88,
				Attributions: []models.FeatureAttribution{{Feature: "count", Attribution: 0.5}},
			},
		},
	}
}

func TestExplainAttributionModel(t *testing.T) {
	e := NewExplainer(Options{}, nil)
	exp, err := e.Explain(context.Background(), fixtureSample(), models.ModelNeuralNetwork)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !exp.HasAttribution || exp.Narrative == nil || exp.Narrative.Fallback {
		t.Fatalf("expected attribution narrative: %+v", exp)
	}
	if len(exp.Features) != 3 {
		t.Fatalf("noise should be dropped, got %d features", len(exp.Features))
	}
	if exp.Features[0].Feature != "serror_rate" || exp.Features[0].Strength != "Very Strong" {
		t.Fatalf("unexpected first row: %+v", exp.Features[0])
	}
	if exp.Features[2].PushesAttack || exp.Features[2].Impact != "-0.0300" {
		t.Fatalf("unexpected normal-side row: %+v", exp.Features[2])
	}
	if !exp.Correct || exp.ModelNote != "" || exp.ConfidenceNote == "" {
		t.Fatalf("unexpected notes: %+v", exp)
	}
	if exp.Narrative.Caveat == "" {
		t.Fatalf("opposing logged_in should produce a caveat")
	}
}

func TestExplainOtherModelUsesModelNote(t *testing.T) {
	e := NewExplainer(Options{}, nil)
	exp, err := e.Explain(context.Background(), fixtureSample(), models.ModelXGBoost)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if exp.HasAttribution || exp.Narrative != nil || len(exp.Features) != 0 {
		t.Fatalf("attributions are only narrated for the designated model: %+v", exp)
	}
	if exp.ModelNote == "" {
		t.Fatalf("expected model note")
	}

	rf, _ := e.Explain(context.Background(), fixtureSample(), models.ModelRandomForest)
	if rf.Correct || rf.ConfidenceNote == "" {
		t.Fatalf("random forest prediction should be incorrect: %+v", rf)
	}
}

func TestExplainConfigurableAttributionModel(t *testing.T) {
	e := NewExplainer(Options{AttributionModel: models.ModelXGBoost}, nil)
	exp, err := e.Explain(context.Background(), fixtureSample(), models.ModelXGBoost)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !exp.HasAttribution || len(exp.Features) != 1 {
		t.Fatalf("expected xgboost attributions: %+v", exp)
	}
}

func TestExplainInsignificantAttributionsFallBack(t *testing.T) {
	s := &models.Sample{ID: 1, TrueLabel: models.ClassNormal, Models: map[string]models.ModelPrediction{
		models.ModelNeuralNetwork: {Prediction: models.ClassNormal, Confidence: 70, Attributions: []models.FeatureAttribution{
			{Feature: "count", Attribution: 0.0005},
		}},
	}}
	exp, err := NewExplainer(Options{}, nil).Explain(context.Background(), s, models.ModelNeuralNetwork)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if exp.HasAttribution || exp.Narrative == nil || !exp.Narrative.Fallback || exp.Narrative.Reasoning == "" {
		t.Fatalf("expected fallback narrative: %+v", exp)
	}
}

func TestExplainMissingModel(t *testing.T) {
	_, err := NewExplainer(Options{}, nil).Explain(context.Background(), fixtureSample(), models.ModelDecisionTree)
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestExplainUsesCache(t *testing.T) {
	cache := newMemoryCache()
	e := NewExplainer(Options{Namespace: "abc"}, cache)
	s := fixtureSample()

	first, err := e.Explain(context.Background(), s, models.ModelNeuralNetwork)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}
	if len(cache.data) != 1 {
		t.Fatalf("unexpected cache keys: %v", cache.data)
	}
	for key := range cache.data {
		if !strings.HasPrefix(key, "abc:") || !strings.HasSuffix(key, ":neural_network:42") {
			t.Fatalf("unexpected cache key %q", key)
		}
	}

	// A cached entry wins even if the sample changes underneath.
	s.Models[models.ModelNeuralNetwork] = models.ModelPrediction{Prediction: models.ClassNormal}
	second, err := e.Explain(context.Background(), s, models.ModelNeuralNetwork)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if second.Prediction != first.Prediction || len(second.Features) != len(first.Features) {
		t.Fatalf("expected cached explanation, got %+v", second)
	}
	if cache.sets != 1 {
		t.Fatalf("cache hit should not write again")
	}
}

func TestExplainCacheErrorsDegrade(t *testing.T) {
	cache := newMemoryCache()
	cache.failGet = true
	exp, err := NewExplainer(Options{}, cache).Explain(context.Background(), fixtureSample(), models.ModelNeuralNetwork)
	if err != nil || exp == nil {
		t.Fatalf("cache errors must not fail explain: %v", err)
	}
}

func TestExplainCacheScopedByOptions(t *testing.T) {
	cache := newMemoryCache()
	s := fixtureSample()

	before := NewExplainer(Options{Namespace: "abc"}, cache)
	exp, err := before.Explain(context.Background(), s, models.ModelXGBoost)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if exp.HasAttribution {
		t.Fatalf("xgboost is not the attribution model yet: %+v", exp)
	}

	after := NewExplainer(Options{Namespace: "abc", AttributionModel: models.ModelXGBoost}, cache)
	exp, err = after.Explain(context.Background(), s, models.ModelXGBoost)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !exp.HasAttribution || exp.ModelNote != "" {
		t.Fatalf("entry built under the old attribution model was served: %+v", exp)
	}
	if cache.sets != 2 || len(cache.data) != 2 {
		t.Fatalf("expected separate entries per option set, sets=%d keys=%v", cache.sets, cache.data)
	}

	lowered := NewExplainer(Options{Namespace: "abc", Threshold: 0.2}, cache)
	if lowered.cacheKey(42, models.ModelNeuralNetwork) == before.cacheKey(42, models.ModelNeuralNetwork) {
		t.Fatalf("threshold change should change the cache key")
	}
}

func TestExplainCacheMissThenHit(t *testing.T) {
	cache := newMemoryCache()
	e := NewExplainer(Options{}, cache)
	s := fixtureSample()

	if _, err := e.Explain(context.Background(), s, models.ModelRandomForest); err != nil {
		t.Fatalf("explain: %v", err)
	}
	if cache.gets != 1 || cache.sets != 1 {
		t.Fatalf("miss should read once and write once, gets=%d sets=%d", cache.gets, cache.sets)
	}
	exp, err := e.Explain(context.Background(), s, models.ModelRandomForest)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if cache.gets != 2 || cache.sets != 1 {
		t.Fatalf("hit should read without writing, gets=%d sets=%d", cache.gets, cache.sets)
	}
	if exp.Model != models.ModelRandomForest || exp.SampleID != 42 || exp.ModelNote == "" {
		t.Fatalf("unexpected cached explanation: %+v", exp)
	}
}

func TestExplainNeuralNetworkNoteWhenNotNarrated(t *testing.T) {
	e := NewExplainer(Options{AttributionModel: models.ModelXGBoost}, nil)
	exp, err := e.Explain(context.Background(), fixtureSample(), models.ModelNeuralNetwork)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if exp.HasAttribution || exp.ModelNote != "Analyzes network traffic patterns to make predictions." {
		t.Fatalf("unexpected neural network note: %q", exp.ModelNote)
	}
}
