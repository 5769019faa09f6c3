package narrativeclickhouse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nidsboard/internal/explain"
	"nidsboard/pkg/models"
)

// Config configures the ClickHouse HTTP writer.
type Config struct {
	URL      string
	Database string
	Table    string
	Username string
	Password string
	Timeout  time.Duration
	Headers  map[string]string
}

// Row is the flattened explanation stored per sample and model.
type Row struct {
	RunID          string   `json:"run_id"`
	SampleID       int      `json:"sample_id"`
	Model          string   `json:"model"`
	TrueLabel      string   `json:"true_label"`
	Prediction     string   `json:"prediction"`
	Confidence     float64  `json:"confidence"`
	Correct        uint8    `json:"correct"`
	HasAttribution uint8    `json:"has_attribution"`
	TopFeatures    []string `json:"top_features"`
	TopImpacts     []string `json:"top_impacts"`
	Narrative      string   `json:"narrative"`
	ModelNote      string   `json:"model_note"`
	ConfidenceNote string   `json:"confidence_note"`
	GeneratedAt    string   `json:"generated_at"`
}

// Writer sends explanations to ClickHouse via HTTP JSONEachRow.
type Writer struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// NewWriter creates a ClickHouse HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("clickhouse URL is empty")
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Table == "" {
		cfg.Table = "nids_explanations"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	q := fmt.Sprintf("INSERT INTO %s.%s FORMAT JSONEachRow", quoteIdent(cfg.Database), quoteIdent(cfg.Table))
	base := strings.TrimRight(cfg.URL, "/")
	endpoint := base + "/?query=" + url.QueryEscape(q)

	headers := map[string]string{}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.Username != "" {
		headers["X-ClickHouse-User"] = cfg.Username
	}
	if cfg.Password != "" {
		headers["X-ClickHouse-Key"] = cfg.Password
	}

	return &Writer{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// ToRow flattens an explanation for insertion.
func ToRow(exp *models.Explanation) Row {
	row := Row{
		RunID:          exp.RunID,
		SampleID:       exp.SampleID,
		Model:          exp.Model,
		TrueLabel:      string(exp.TrueLabel),
		Prediction:     string(exp.Prediction),
		Confidence:     exp.Confidence,
		Correct:        boolByte(exp.Correct),
		HasAttribution: boolByte(exp.HasAttribution),
		TopFeatures:    make([]string, 0, len(exp.Features)),
		TopImpacts:     make([]string, 0, len(exp.Features)),
		ModelNote:      exp.ModelNote,
		ConfidenceNote: exp.ConfidenceNote,
		GeneratedAt:    exp.GeneratedAt.UTC().Format("2006-01-02 15:04:05"),
	}
	for _, f := range exp.Features {
		row.TopFeatures = append(row.TopFeatures, f.Feature)
		row.TopImpacts = append(row.TopImpacts, f.Impact)
	}
	if exp.Narrative != nil {
		row.Narrative = explain.NarrativeText(*exp.Narrative)
	}
	return row
}

// WriteExplanations sends a batch of explanations.
func (w *Writer) WriteExplanations(exps []*models.Explanation) error {
	if len(exps) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, exp := range exps {
		if exp == nil {
			continue
		}
		if err := enc.Encode(ToRow(exp)); err != nil {
			return fmt.Errorf("failed to marshal explanation row: %w", err)
		}
	}

	req, err := http.NewRequest(http.MethodPost, w.endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("clickhouse request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("clickhouse request failed with status %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Close releases resources.
func (w *Writer) Close() error {
	return nil
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

func quoteIdent(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "`", "")
	return "`" + v + "`"
}
