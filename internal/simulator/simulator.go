package simulator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"nidsboard/internal/logger"
	"nidsboard/internal/metrics"
	"nidsboard/internal/rules"
	"nidsboard/pkg/models"
)

var (
	// ErrUnknownModel is returned for a model key outside the four classifiers.
	ErrUnknownModel = errors.New("unknown model")
	// ErrInvalidSample wraps field validation failures.
	ErrInvalidSample = errors.New("invalid traffic sample")
)

// Simulator validates hand-built traffic, classifies it and tags it with
// indicator rules.
type Simulator struct {
	engine   rules.Engine
	validate *validator.Validate
}

// New builds a Simulator. A nil engine disables indicator tagging.
func New(engine rules.Engine) *Simulator {
	if engine == nil {
		engine = &rules.NoopEngine{}
	}
	return &Simulator{engine: engine, validate: validator.New()}
}

// Simulate classifies sample as model would, per the rule table.
func (s *Simulator) Simulate(sample models.TrafficSample, model string) (*models.SimulationResult, error) {
	if _, ok := modelHints[model]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	if err := s.validate.Struct(&sample); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSample, err)
	}

	result := Classify(sample, model)
	result.Indicators = s.engine.Apply(&sample)

	metrics.SimulationsTotal.WithLabelValues(model, string(result.Prediction)).Inc()
	for _, tag := range result.Indicators {
		metrics.IndicatorMatches.WithLabelValues(tag.ID).Inc()
	}
	logger.Debugf("Simulated %s/%s/%s with %s: %s %d%% indicators=%d",
		sample.ProtocolType, sample.Service, sample.Flag, model, result.Prediction, result.Confidence, len(result.Indicators))
	return &result, nil
}
