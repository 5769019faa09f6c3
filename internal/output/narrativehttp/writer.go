package narrativehttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"nidsboard/pkg/models"
)

// Header names set on every delivery.
const (
	HeaderRunID     = "X-Nidsboard-Run"
	HeaderRequestID = "X-Request-Id"
)

// Envelope is the JSON body of one delivery. Every envelope carries
// explanations from a single export run.
type Envelope struct {
	RunID        string                `json:"run_id"`
	SentAt       time.Time             `json:"sent_at"`
	Count        int                   `json:"count"`
	FirstSample  int                   `json:"first_sample"`
	LastSample   int                   `json:"last_sample"`
	Explanations []*models.Explanation `json:"explanations"`
}

// Config configures the HTTP sink.
type Config struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
	// MaxBatch caps explanations per request. Zero sends each run's share
	// of a batch in one request.
	MaxBatch int
}

// Writer delivers explanation envelopes to a collector endpoint.
type Writer struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// NewWriter creates an HTTP sink.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("explanation sink URL is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Writer{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, now: time.Now}, nil
}

// WriteExplanations groups a batch by run, splits each group by MaxBatch and
// posts one envelope per chunk. Nil entries are skipped. Delivery stops at
// the first failed request.
func (w *Writer) WriteExplanations(exps []*models.Explanation) error {
	for _, chunk := range w.envelopes(exps) {
		if err := w.post(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) envelopes(exps []*models.Explanation) []Envelope {
	var order []string
	byRun := map[string][]*models.Explanation{}
	for _, exp := range exps {
		if exp == nil {
			continue
		}
		if _, ok := byRun[exp.RunID]; !ok {
			order = append(order, exp.RunID)
		}
		byRun[exp.RunID] = append(byRun[exp.RunID], exp)
	}

	var out []Envelope
	for _, run := range order {
		group := byRun[run]
		size := w.cfg.MaxBatch
		if size <= 0 {
			size = len(group)
		}
		for start := 0; start < len(group); start += size {
			end := min(start+size, len(group))
			out = append(out, newEnvelope(run, group[start:end]))
		}
	}
	return out
}

func newEnvelope(run string, exps []*models.Explanation) Envelope {
	env := Envelope{RunID: run, Count: len(exps), Explanations: exps}
	for i, exp := range exps {
		if i == 0 || exp.SampleID < env.FirstSample {
			env.FirstSample = exp.SampleID
		}
		if i == 0 || exp.SampleID > env.LastSample {
			env.LastSample = exp.SampleID
		}
	}
	return env
}

func (w *Writer) post(env Envelope) error {
	env.SentAt = w.now().UTC()
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal run %s samples %d-%d: %w", env.RunID, env.FirstSample, env.LastSample, err)
	}

	req, err := http.NewRequest(http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set(HeaderRunID, env.RunID)
	reqID := uuid.NewString()
	req.Header.Set(HeaderRequestID, reqID)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver run %s samples %d-%d: %w", env.RunID, env.FirstSample, env.LastSample, err)
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("deliver run %s samples %d-%d (request %s): status %s: %s",
			env.RunID, env.FirstSample, env.LastSample, reqID, resp.Status, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// Close is a no-op.
func (w *Writer) Close() error {
	return nil
}
