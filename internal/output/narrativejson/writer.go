package narrativejson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"nidsboard/internal/logger"
	"nidsboard/pkg/models"
)

// Record kinds written to the export file.
const (
	KindRun         = "run"
	KindExplanation = "explanation"
	KindSummary     = "summary"
)

// Record is one line of the export file. A run opens with a KindRun line,
// carries one KindExplanation line per sample and model, and is closed by a
// KindSummary line when the writer is closed or the run changes.
type Record struct {
	Kind        string              `json:"kind"`
	RunID       string              `json:"run_id,omitempty"`
	At          time.Time           `json:"at"`
	Explanation *models.Explanation `json:"explanation,omitempty"`
	Summary     *RunSummary         `json:"summary,omitempty"`
}

// RunSummary tallies what a run exported.
type RunSummary struct {
	Explanations int            `json:"explanations"`
	Correct      int            `json:"correct"`
	Narrated     int            `json:"narrated"`
	ByModel      map[string]int `json:"by_model"`
	FirstSample  int            `json:"first_sample"`
	LastSample   int            `json:"last_sample"`
}

// Writer appends explanation records for export runs to a JSON lines file.
type Writer struct {
	path string
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
	now  func() time.Time

	mu      sync.Mutex
	run     string
	open    bool
	summary RunSummary
}

// NewWriter creates the export file, truncating any previous content.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create export directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file %s: %w", path, err)
	}
	buf := bufio.NewWriter(f)
	logger.Infof("Explanation export file opened: %s", path)
	return &Writer{path: path, file: f, buf: buf, enc: json.NewEncoder(buf), now: time.Now}, nil
}

// WriteExplanations appends one batch and flushes it to disk. Nil entries
// are skipped. A batch whose run id differs from the previous one closes the
// previous run with its summary first.
func (w *Writer) WriteExplanations(exps []*models.Explanation) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("export file %s is closed", w.path)
	}
	for _, exp := range exps {
		if exp == nil {
			continue
		}
		if !w.open || exp.RunID != w.run {
			if err := w.startRun(exp.RunID); err != nil {
				return err
			}
		}
		if err := w.enc.Encode(Record{Kind: KindExplanation, RunID: w.run, At: w.now().UTC(), Explanation: exp}); err != nil {
			return fmt.Errorf("encode sample %d/%s: %w", exp.SampleID, exp.Model, err)
		}
		w.count(exp)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) startRun(runID string) error {
	if err := w.endRun(); err != nil {
		return err
	}
	if err := w.enc.Encode(Record{Kind: KindRun, RunID: runID, At: w.now().UTC()}); err != nil {
		return fmt.Errorf("encode run %s header: %w", runID, err)
	}
	w.run, w.open = runID, true
	w.summary = RunSummary{ByModel: map[string]int{}}
	return nil
}

func (w *Writer) endRun() error {
	if !w.open {
		return nil
	}
	s := w.summary
	if err := w.enc.Encode(Record{Kind: KindSummary, RunID: w.run, At: w.now().UTC(), Summary: &s}); err != nil {
		return fmt.Errorf("encode run %s summary: %w", w.run, err)
	}
	w.open = false
	return nil
}

func (w *Writer) count(exp *models.Explanation) {
	s := &w.summary
	if s.Explanations == 0 || exp.SampleID < s.FirstSample {
		s.FirstSample = exp.SampleID
	}
	if s.Explanations == 0 || exp.SampleID > s.LastSample {
		s.LastSample = exp.SampleID
	}
	s.Explanations++
	s.ByModel[exp.Model]++
	if exp.Correct {
		s.Correct++
	}
	if exp.HasAttribution {
		s.Narrated++
	}
}

// Close writes the summary of the open run and closes the file. Closing
// twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.endRun()
	if ferr := w.buf.Flush(); err == nil {
		err = ferr
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	if w.summary.ByModel != nil {
		names := make([]string, 0, len(w.summary.ByModel))
		for m := range w.summary.ByModel {
			names = append(names, m)
		}
		sort.Strings(names)
		logger.Infof("Explanation export %s closed: run=%s explanations=%d models=%v", w.path, w.run, w.summary.Explanations, names)
	}
	return err
}
