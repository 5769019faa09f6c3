package explain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nidsboard/internal/logger"
	"nidsboard/internal/metrics"
	"nidsboard/pkg/models"
)

// ErrModelNotFound is returned when a sample has no prediction for a model.
var ErrModelNotFound = errors.New("model prediction not found")

// Cache stores encoded explanations keyed by sample and model.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Options configures an Explainer.
type Options struct {
	Threshold        float64
	TableTopN        int
	AttributionModel string
	// Namespace scopes cache keys, usually to an artifact digest.
	Namespace string
}

// Explainer builds per-sample explanations and optionally memoizes them.
type Explainer struct {
	opts  Options
	cache Cache
	now   func() time.Time
	// optsTag fingerprints the options that shape an explanation.
	optsTag string
}

// NewExplainer creates an Explainer. cache may be nil.
func NewExplainer(opts Options, cache Cache) *Explainer {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.TableTopN <= 0 {
		opts.TableTopN = TableTopN
	}
	if opts.AttributionModel == "" {
		opts.AttributionModel = models.ModelNeuralNetwork
	}
	return &Explainer{opts: opts, cache: cache, now: time.Now, optsTag: optionsTag(opts)}
}

func optionsTag(opts Options) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%g|%d", opts.AttributionModel, opts.Threshold, opts.TableTopN)))
	return hex.EncodeToString(sum[:4])
}

// AttributionModel returns the model whose attributions are narrated.
func (e *Explainer) AttributionModel() string {
	return e.opts.AttributionModel
}

// Explain returns the explanation for one sample and model.
func (e *Explainer) Explain(ctx context.Context, sample *models.Sample, model string) (*models.Explanation, error) {
	if sample == nil {
		return nil, fmt.Errorf("explain: nil sample")
	}
	pred, ok := sample.Prediction(model)
	if !ok {
		return nil, fmt.Errorf("sample %d: %s: %w", sample.ID, model, ErrModelNotFound)
	}

	key := e.cacheKey(sample.ID, model)
	if cached, ok := e.lookup(ctx, key); ok {
		return cached, nil
	}

	exp := e.build(sample, model, pred)
	e.store(ctx, key, exp)
	return exp, nil
}

func (e *Explainer) build(sample *models.Sample, model string, pred models.ModelPrediction) *models.Explanation {
	correct := pred.Prediction == sample.TrueLabel
	exp := &models.Explanation{
		SampleID:       sample.ID,
		Model:          model,
		TrueLabel:      sample.TrueLabel,
		Prediction:     pred.Prediction,
		Confidence:     pred.Confidence,
		Correct:        correct,
		ConfidenceNote: ConfidenceNote(pred.Confidence, correct),
		GeneratedAt:    e.now().UTC(),
	}

	if model != e.opts.AttributionModel {
		exp.ModelNote = ModelNote(model, pred.Confidence, correct)
		return exp
	}

	if !Significant(pred.Attributions, e.opts.Threshold) {
		n := Compose(pred.Prediction, nil, models.FeatureAttribution{})
		exp.Narrative = &n
		exp.ModelNote = ModelNote(model, pred.Confidence, correct)
		return exp
	}

	ranked := Rank(pred.Attributions, e.opts.Threshold, e.opts.TableTopN)
	maxAbs := MaxMagnitude(ranked)
	exp.Features = make([]models.ExplainedFeature, 0, len(ranked))
	for _, a := range ranked {
		d := Describe(a.Feature)
		exp.Features = append(exp.Features, models.ExplainedFeature{
			Feature:        a.Feature,
			DisplayName:    d.DisplayName,
			Description:    d.Description,
			Rationale:      d.Rationale,
			Value:          a.Value,
			FormattedValue: FormatSignedValue(a.Value, a.PushesAttack()),
			Attribution:    a.Attribution,
			Impact:         FormatImpact(a.Attribution),
			Strength:       StrengthLabel(a.Attribution, maxAbs),
			PushesAttack:   a.PushesAttack(),
			Analysis:       Analyze(a.Feature, a.Value, a.PushesAttack()),
		})
	}
	n := Compose(pred.Prediction, ranked, ranked[0])
	exp.Narrative = &n
	exp.HasAttribution = true
	return exp
}

// cacheKey scopes entries by namespace and options fingerprint.
func (e *Explainer) cacheKey(sampleID int, model string) string {
	if e.opts.Namespace == "" {
		return fmt.Sprintf("%s:%s:%d", e.optsTag, model, sampleID)
	}
	return fmt.Sprintf("%s:%s:%s:%d", e.opts.Namespace, e.optsTag, model, sampleID)
}

func (e *Explainer) lookup(ctx context.Context, key string) (*models.Explanation, bool) {
	if e.cache == nil {
		metrics.ExplanationCacheLookups.WithLabelValues("disabled").Inc()
		return nil, false
	}
	raw, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		logger.Warnf("Explanation cache get %s failed: %v", key, err)
		metrics.ExplanationCacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	if !ok {
		metrics.ExplanationCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	var exp models.Explanation
	if err := json.Unmarshal(raw, &exp); err != nil {
		logger.Warnf("Explanation cache entry %s is corrupt: %v", key, err)
		metrics.ExplanationCacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.ExplanationCacheLookups.WithLabelValues("hit").Inc()
	return &exp, true
}

func (e *Explainer) store(ctx context.Context, key string, exp *models.Explanation) {
	if e.cache == nil {
		return
	}
	raw, err := json.Marshal(exp)
	if err != nil {
		logger.Warnf("Failed to encode explanation %s: %v", key, err)
		return
	}
	if err := e.cache.Set(ctx, key, raw); err != nil {
		logger.Warnf("Explanation cache set %s failed: %v", key, err)
	}
}
