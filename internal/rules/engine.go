package rules

import "nidsboard/pkg/models"

// Engine tags simulated traffic with indicator labels.
type Engine interface {
	Apply(sample *models.TrafficSample) []models.IndicatorTag
}

// NoopEngine returns no tags.
type NoopEngine struct{}

// Apply returns an empty tag list.
func (n *NoopEngine) Apply(sample *models.TrafficSample) []models.IndicatorTag {
	return nil
}
