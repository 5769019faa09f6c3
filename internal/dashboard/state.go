package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"nidsboard/pkg/models"
)

var (
	ErrModalClosed    = errors.New("modal is closed")
	ErrSampleNotFound = errors.New("sample not found")
	ErrUnknownModel   = errors.New("unknown model")
	ErrInvalidFilter  = errors.New("invalid filter")
)

// FilterAll shows every sample.
const FilterAll = "all"

// Filter is either FilterAll or one of the five traffic classes.
type Filter string

// ParseFilter accepts "all" or a class name, case-insensitively. An empty
// string means all.
func ParseFilter(raw string) (Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, FilterAll) {
		return FilterAll, nil
	}
	c := models.ParseClass(raw)
	if !c.Known() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}
	return Filter(c), nil
}

// Matches reports whether a sample passes the filter.
func (f Filter) Matches(s *models.Sample) bool {
	return f == FilterAll || models.PredictedClass(f) == s.TrueLabel
}

// Modal is the detail overlay state. Model is meaningful only when Open.
type Modal struct {
	Open     bool
	SampleID int
	Model    string
}

// Controller holds the dashboard's UI state: the active filter and the
// sample modal.
type Controller struct {
	artifact     *models.Artifact
	defaultModel string
	filter       Filter
	modal        Modal
}

// NewController starts with filter "all" and the modal closed.
func NewController(a *models.Artifact, defaultModel string) *Controller {
	if defaultModel == "" {
		defaultModel = models.ModelNeuralNetwork
	}
	return &Controller{artifact: a, defaultModel: defaultModel, filter: FilterAll}
}

// Filter returns the active filter.
func (c *Controller) Filter() Filter {
	return c.filter
}

// SetFilter changes the active filter. On error the filter is unchanged.
func (c *Controller) SetFilter(raw string) error {
	f, err := ParseFilter(raw)
	if err != nil {
		return err
	}
	c.filter = f
	return nil
}

// VisibleSamples returns the samples matching the active filter, in
// artifact order.
func (c *Controller) VisibleSamples() []*models.Sample {
	out := make([]*models.Sample, 0, len(c.artifact.Samples))
	for i := range c.artifact.Samples {
		s := &c.artifact.Samples[i]
		if c.filter.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}

// Open shows the modal for a sample with the default model selected.
func (c *Controller) Open(sampleID int) error {
	s, ok := c.artifact.Sample(sampleID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrSampleNotFound, sampleID)
	}
	model := c.defaultModel
	if _, ok := s.Prediction(model); !ok {
		model = firstModel(s)
	}
	c.modal = Modal{Open: true, SampleID: sampleID, Model: model}
	return nil
}

// SelectModel switches the open modal to another model.
func (c *Controller) SelectModel(model string) error {
	if !c.modal.Open {
		return ErrModalClosed
	}
	s, ok := c.artifact.Sample(c.modal.SampleID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrSampleNotFound, c.modal.SampleID)
	}
	if _, ok := s.Prediction(model); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	c.modal.Model = model
	return nil
}

// Close hides the modal. Closing an already closed modal is a no-op.
func (c *Controller) Close() {
	c.modal = Modal{}
}

// Modal returns the current modal state.
func (c *Controller) Modal() Modal {
	return c.modal
}

// CurrentSample returns the sample shown in the modal, if open.
func (c *Controller) CurrentSample() (*models.Sample, bool) {
	if !c.modal.Open {
		return nil, false
	}
	return c.artifact.Sample(c.modal.SampleID)
}

// firstModel picks the first model in display order that the sample has,
// falling back to any model key.
func firstModel(s *models.Sample) string {
	for _, m := range models.ModelOrder {
		if _, ok := s.Models[m]; ok {
			return m
		}
	}
	for m := range s.Models {
		return m
	}
	return ""
}
