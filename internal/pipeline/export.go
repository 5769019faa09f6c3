package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"nidsboard/internal/explain"
	"nidsboard/internal/logger"
	"nidsboard/internal/metrics"
	"nidsboard/pkg/models"
)

// ExportOptions tunes the export pipeline.
type ExportOptions struct {
	Workers       int
	BatchSize     int
	FlushInterval time.Duration
	// Models restricts the export to these model keys. Empty means every
	// model present on each sample.
	Models []string
	RunID  string
	// MaxRetries bounds write attempts per batch.
	MaxRetries int
}

// ExportStats summarizes one export run.
type ExportStats struct {
	RunID   string
	Samples int
	Written int64
	Skipped int64
	Dropped int64
}

// ExportPipeline explains every sample of an artifact and writes the
// results in batches.
type ExportPipeline struct {
	explainer *explain.Explainer
	writer    NarrativeWriter
	sink      string
	opts      ExportOptions

	written atomic.Int64
	skipped atomic.Int64
	dropped atomic.Int64
}

type exportWorkItem struct {
	exps []*models.Explanation
}

// NewExportPipeline creates an export pipeline writing to writer. sink names
// the writer in metrics.
func NewExportPipeline(explainer *explain.Explainer, writer NarrativeWriter, sink string, opts ExportOptions) *ExportPipeline {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &ExportPipeline{
		explainer: explainer,
		writer:    writer,
		sink:      sink,
		opts:      opts,
	}
}

// RunID returns the identifier stamped on every exported record.
func (p *ExportPipeline) RunID() string {
	return p.opts.RunID
}

// Run explains samples and writes them until all are processed or ctx is
// cancelled. Batches that still fail after MaxRetries are dropped and
// reported in the returned error.
func (p *ExportPipeline) Run(ctx context.Context, samples []models.Sample) (ExportStats, error) {
	logger.Infof("Explanation export started: run=%s samples=%d sink=%s", p.opts.RunID, len(samples), p.sink)

	sampleCh := make(chan *models.Sample, p.opts.Workers*4)
	workCh := make(chan exportWorkItem, p.opts.Workers*4)

	var workers sync.WaitGroup
	var writerDone sync.WaitGroup

	go func() {
		defer close(sampleCh)
		p.feedLoop(ctx, samples, sampleCh)
	}()

	for i := 0; i < p.opts.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			p.workerLoop(ctx, sampleCh, workCh)
		}()
	}

	writerDone.Add(1)
	go func() {
		defer writerDone.Done()
		p.writeLoop(ctx, workCh)
	}()

	workers.Wait()
	close(workCh)
	writerDone.Wait()

	stats := ExportStats{
		RunID:   p.opts.RunID,
		Samples: len(samples),
		Written: p.written.Load(),
		Skipped: p.skipped.Load(),
		Dropped: p.dropped.Load(),
	}
	logger.Infof("Explanation export finished: run=%s written=%d skipped=%d dropped=%d",
		stats.RunID, stats.Written, stats.Skipped, stats.Dropped)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if stats.Dropped > 0 {
		return stats, fmt.Errorf("export run %s: %d explanations dropped after %d write attempts", stats.RunID, stats.Dropped, p.opts.MaxRetries)
	}
	return stats, nil
}

// Close releases the writer.
func (p *ExportPipeline) Close() error {
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			logger.Errorf("Failed to close explanation writer: %v", err)
			return err
		}
	}
	return nil
}

func (p *ExportPipeline) feedLoop(ctx context.Context, samples []models.Sample, out chan<- *models.Sample) {
	for i := range samples {
		select {
		case <-ctx.Done():
			return
		case out <- &samples[i]:
		}
	}
}

func (p *ExportPipeline) workerLoop(ctx context.Context, in <-chan *models.Sample, out chan<- exportWorkItem) {
	for sample := range in {
		keys := p.opts.Models
		if len(keys) == 0 {
			keys = sample.ModelKeys()
		}

		exps := make([]*models.Explanation, 0, len(keys))
		for _, model := range keys {
			exp, err := p.explainer.Explain(ctx, sample, model)
			if err != nil {
				if !errors.Is(err, explain.ErrModelNotFound) {
					logger.Warnf("Failed to explain sample %d for %s: %v", sample.ID, model, err)
				}
				p.skipped.Add(1)
				continue
			}
			// Explanations may come from a shared cache; stamp a copy.
			stamped := *exp
			stamped.RunID = p.opts.RunID
			exps = append(exps, &stamped)
		}
		if len(exps) == 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case out <- exportWorkItem{exps: exps}:
		}
	}
}

func (p *ExportPipeline) writeLoop(ctx context.Context, in <-chan exportWorkItem) {
	ticker := time.NewTicker(p.opts.FlushInterval)
	defer ticker.Stop()

	var batch []*models.Explanation

	flush := func() {
		if len(batch) == 0 {
			return
		}
		for attempt := 1; ; attempt++ {
			err := p.writer.WriteExplanations(batch)
			if err == nil {
				p.written.Add(int64(len(batch)))
				metrics.ExportedExplanations.WithLabelValues(p.sink).Add(float64(len(batch)))
				break
			}
			logger.Errorf("Failed to write explanations (attempt %d/%d): %v", attempt, p.opts.MaxRetries, err)
			if attempt >= p.opts.MaxRetries {
				p.dropped.Add(int64(len(batch)))
				break
			}
			select {
			case <-ctx.Done():
				p.dropped.Add(int64(len(batch)))
				batch = nil
				return
			case <-time.After(1 * time.Second):
			}
		}
		batch = nil
	}

	for {
		select {
		case <-ticker.C:
			flush()
		case item, ok := <-in:
			if !ok {
				flush()
				return
			}
			batch = append(batch, item.exps...)
			if len(batch) >= p.opts.BatchSize {
				flush()
			}
		}
	}
}
