package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"nidsboard/internal/explain"
	"nidsboard/pkg/models"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(RedisConfig{Addr: mr.Addr(), TTL: ttl})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	start := time.Now()
	_, err := NewRedisStore(RedisConfig{Addr: "127.0.0.1:1"})
	if err == nil {
		t.Fatalf("expected ping error for closed port")
	}
	if time.Since(start) > 10*time.Second {
		t.Fatalf("ping should be bounded by its timeout")
	}
}

func TestRedisStoreKeys(t *testing.T) {
	s := &RedisStore{prefix: "nidsboard:explain"}
	if got := s.entryKey("abc:neural_network:7"); got != "nidsboard:explain:abc:neural_network:7" {
		t.Fatalf("unexpected entry key %q", got)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "neural_network:1"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "neural_network:1", []byte(`{"sample_id":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, ok, err := s.Get(ctx, "neural_network:1")
	if err != nil || !ok || string(raw) != `{"sample_id":1}` {
		t.Fatalf("unexpected get: %q ok=%v err=%v", raw, ok, err)
	}
	if !mr.Exists("nidsboard:explain:neural_network:1") {
		t.Fatalf("entry should be stored under the key prefix, keys=%v", mr.Keys())
	}
	if ttl := mr.TTL("nidsboard:explain:neural_network:1"); ttl != time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	mr.FastForward(time.Hour + time.Second)
	if _, ok, err := s.Get(ctx, "neural_network:1"); ok || err != nil {
		t.Fatalf("entry should expire, got ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreNoTTL(t *testing.T) {
	s, mr := newTestStore(t, 0)
	if err := s.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("nidsboard:explain:k"); ttl != 0 {
		t.Fatalf("zero TTL should persist entries, got %v", ttl)
	}
}

func TestRedisStoreServerErrors(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	mr.SetError("ERR cache unavailable")
	if _, _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected read error")
	}
	if err := s.Set(context.Background(), "k", []byte("v")); err == nil {
		t.Fatalf("expected write error")
	}
}

func TestExplainerServesFromRedis(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	sample := &models.Sample{ID: 0, TrueLabel: models.ClassDoS, Models: map[string]models.ModelPrediction{
		models.ModelNeuralNetwork: {Prediction: models.ClassDoS, Confidence: 99, Attributions: []models.FeatureAttribution{
			{Feature: "serror_rate", Value: 0.9, Attribution: 0.3},
		}},
	}}

	e := explain.NewExplainer(explain.Options{Namespace: "digest"}, s)
	first, err := e.Explain(context.Background(), sample, models.ModelNeuralNetwork)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected one cached entry, got %v", mr.Keys())
	}

	// Drop the attributions so only a cache hit can still narrate them.
	sample.Models[models.ModelNeuralNetwork] = models.ModelPrediction{Prediction: models.ClassDoS, Confidence: 99}
	second, err := e.Explain(context.Background(), sample, models.ModelNeuralNetwork)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !second.HasAttribution || len(second.Features) != 1 || !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Fatalf("expected cached explanation, got %+v", second)
	}

	other := explain.NewExplainer(explain.Options{Namespace: "digest", AttributionModel: models.ModelXGBoost}, s)
	third, err := other.Explain(context.Background(), sample, models.ModelNeuralNetwork)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if third.HasAttribution || third.ModelNote == "" {
		t.Fatalf("different options must not reuse the entry: %+v", third)
	}
	if len(mr.Keys()) != 2 {
		t.Fatalf("expected a second entry for the new options, got %v", mr.Keys())
	}
}

func TestCloseNilStore(t *testing.T) {
	var s *RedisStore
	if err := s.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}
