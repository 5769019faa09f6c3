package dashboard

import (
	"context"
	"strings"
	"testing"
)

func TestPageClosedModal(t *testing.T) {
	r := fixtureRenderer()
	c := NewController(r.Artifact(), r.AttributionModel())
	out, err := r.Page(context.Background(), c, View{})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	for _, want := range []string{"<!DOCTYPE html>", "Model Performance", "Sample Predictions", "Feature Importance", "Live Attack Simulator", `id="simPresets"`, "Key Finding:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q", want)
		}
	}
	if strings.Contains(out, `class="modal active"`) {
		t.Fatalf("modal should be closed")
	}
}

func TestPageOpenModal(t *testing.T) {
	r := fixtureRenderer()
	c := NewController(r.Artifact(), r.AttributionModel())
	if err := c.Open(0); err != nil {
		t.Fatalf("open: %v", err)
	}
	out, err := r.Page(context.Background(), c, View{InsightTab: InsightRecommendations, ImportanceKey: "xgboost"})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if !strings.Contains(out, `class="modal active"`) || !strings.Contains(out, "Why the Neural Network Predicted") {
		t.Fatalf("expected open modal")
	}
	if !strings.Contains(out, "Production Deployment Recommendation") || !strings.Contains(out, `data-key="xgboost"`) {
		t.Fatalf("view state not honored")
	}
}

func TestSimulatorPanel(t *testing.T) {
	out, err := fixtureRenderer().SimulatorPanel()
	if err != nil {
		t.Fatalf("panel: %v", err)
	}
	for _, want := range []string{`data-preset="dos"`, `data-preset="r2l"`, `name="serror_rate"`, `name="root_shell"`, "/api/simulate", "SYN flood DoS"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q", want)
		}
	}
}

func TestExport(t *testing.T) {
	out, err := fixtureRenderer().Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Count(out, "<template id=\"modal-") != 12 {
		t.Fatalf("expected one template per sample and model")
	}
	for _, want := range []string{`id="modal-0-neural_network"`, `id="emptySamples" hidden`, `data-insight="neural-network" hidden`, `data-key="xgboost" hidden`, "applyFilter"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q", want)
		}
	}
	if strings.Contains(out, "/api/simulate") {
		t.Fatalf("static export must not depend on the server")
	}
}
