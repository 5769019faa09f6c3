package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nidsboard/internal/artifact"
	"nidsboard/internal/dashboard"
	"nidsboard/internal/explain"
	"nidsboard/internal/rules"
	"nidsboard/internal/simulator"
	"nidsboard/pkg/models"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	loaded, err := artifact.Load(context.Background(), artifact.Config{Path: "../artifact/testdata/frontend_data.json"})
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	engine, _, err := rules.NewBuiltinEngine("")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	explainer := explain.NewExplainer(explain.Options{Namespace: loaded.Digest}, nil)
	renderer := dashboard.NewRenderer(loaded.Artifact, explainer)
	return New(Options{EnableMetrics: true}, renderer, explainer, simulator.New(engine)).Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Sample Predictions") || strings.Contains(body, "modal active") {
		t.Fatalf("unexpected index page")
	}

	rec = do(t, h, http.MethodGet, "/?sample=0&model=xgboost", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "modal active") {
		t.Fatalf("expected open modal, got %d", rec.Code)
	}

	if rec := do(t, h, http.MethodGet, "/?filter=bogus", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad filter, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/?sample=99", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing sample, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/?sample=0&model=knn", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing model, got %d", rec.Code)
	}
}

func TestFragments(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/fragments/samples?filter=U2R", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No samples found") {
		t.Fatalf("expected empty grid, got %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/fragments/samples?filter=dos", nil)
	if got := strings.Count(rec.Body.String(), `class="sample-card"`); got != 1 {
		t.Fatalf("expected one DoS card, got %d", got)
	}

	rec = do(t, h, http.MethodGet, "/fragments/samples/0?model=neural_network", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Sample #0") {
		t.Fatalf("unexpected modal fragment: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/fragments/samples/x", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}

	if rec := do(t, h, http.MethodGet, "/fragments/importance/xgboost", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected importance chart, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/fragments/importance/knn", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown importance key, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/fragments/insights/recommendations", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected insights tab, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/fragments/insights/bogus", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown tab, got %d", rec.Code)
	}
}

func TestExplanationAPI(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/samples/0/explanation", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"neural_network"`) {
		t.Fatalf("unexpected explanation response: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/samples/0/explanation?model=knn", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var e ResponseError
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Message == "" {
		t.Fatalf("expected error message, got %s", rec.Body.String())
	}

	if rec := do(t, h, http.MethodGet, "/api/samples/42/explanation", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing sample, got %d", rec.Code)
	}
}

func TestPresetsAPI(t *testing.T) {
	h := newTestServer(t)

	if rec := do(t, h, http.MethodGet, "/api/presets", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "SYN flood") {
		t.Fatalf("unexpected presets response: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/presets/probe", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected preset, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/presets/worm", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSimulateAPI(t *testing.T) {
	h := newTestServer(t)

	dos, _ := simulator.PresetByName("dos")
	body, _ := json.Marshal(SimulateRequest{Model: models.ModelNeuralNetwork, Sample: dos.Sample})
	rec := do(t, h, http.MethodPost, "/api/simulate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	var res models.SimulationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Prediction != models.ClassDoS || res.Confidence != 98 || len(res.Indicators) == 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	body, _ = json.Marshal(SimulateRequest{Sample: dos.Sample})
	if rec := do(t, h, http.MethodPost, "/api/simulate", body); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without model, got %d", rec.Code)
	}

	bad := dos.Sample
	bad.ProtocolType = "sctp"
	body, _ = json.Marshal(SimulateRequest{Model: models.ModelXGBoost, Sample: bad})
	if rec := do(t, h, http.MethodPost, "/api/simulate", body); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid sample, got %d", rec.Code)
	}

	body, _ = json.Marshal(SimulateRequest{Model: "knn", Sample: dos.Sample})
	if rec := do(t, h, http.MethodPost, "/api/simulate", body); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown model, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"samples":3`) {
		t.Fatalf("unexpected health response: %s", rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected metrics endpoint, got %d", rec.Code)
	}
}
