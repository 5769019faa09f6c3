package pipeline

import "nidsboard/pkg/models"

// NarrativeWriter writes batches of composed explanations.
type NarrativeWriter interface {
	WriteExplanations(exps []*models.Explanation) error
	Close() error
}
