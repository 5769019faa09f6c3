package simulator

import (
	"errors"
	"testing"

	"nidsboard/internal/rules"
	"nidsboard/pkg/models"
)

func TestSimulateAddsIndicators(t *testing.T) {
	engine, _, err := rules.NewBuiltinEngine("")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	sim := New(engine)
	p, _ := PresetByName("dos")
	res, err := sim.Simulate(p.Sample, models.ModelNeuralNetwork)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if res.Prediction != models.ClassDoS || len(res.Indicators) == 0 {
		t.Fatalf("expected DoS with indicators, got %+v", res)
	}
	// Indicators annotate but never change the verdict.
	plain := Classify(p.Sample, models.ModelNeuralNetwork)
	if plain.Confidence != res.Confidence || plain.Prediction != res.Prediction {
		t.Fatalf("indicators changed the verdict")
	}
}

func TestSimulateRejectsUnknownModel(t *testing.T) {
	p, _ := PresetByName("normal")
	_, err := New(nil).Simulate(p.Sample, "svm")
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestSimulateValidatesSample(t *testing.T) {
	p, _ := PresetByName("normal")
	bad := p.Sample
	bad.SErrorRate = 140
	if _, err := New(nil).Simulate(bad, models.ModelXGBoost); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("expected ErrInvalidSample for rate > 100, got %v", err)
	}
	bad = p.Sample
	bad.Flag = "XX"
	if _, err := New(nil).Simulate(bad, models.ModelXGBoost); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("expected ErrInvalidSample for unknown flag, got %v", err)
	}
}

func TestPresetsAndHints(t *testing.T) {
	ps := Presets()
	if len(ps) != 5 || ps[0].Name != "normal" || ps[4].Name != "r2l" {
		t.Fatalf("unexpected preset order: %+v", ps)
	}
	if _, ok := PresetByName("worm"); ok {
		t.Fatalf("unexpected preset")
	}
	for _, m := range models.ModelOrder {
		h, ok := HintForModel(m)
		if !ok || len(h.Top3) != 3 || h.Hint == "" {
			t.Fatalf("missing hint for %s", m)
		}
	}
	if FlagHint("S0") == "" || ServiceHint("telnet") == "" || ServiceHint("gopher") != "" {
		t.Fatalf("unexpected hint lookup")
	}
}
