package narrativejson

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"nidsboard/pkg/models"
)

func readRecords(t *testing.T, path string) []Record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		out = append(out, r)
	}
	return out
}

func TestWriterFramesRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "explanations.jsonl")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	batch := []*models.Explanation{
		{RunID: "r1", SampleID: 4, Model: models.ModelNeuralNetwork, Prediction: models.ClassDoS, Correct: true, HasAttribution: true},
		nil,
		{RunID: "r1", SampleID: 2, Model: models.ModelXGBoost, Prediction: models.ClassNormal},
	}
	if err := w.WriteExplanations(batch); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Batches are flushed, so a reader sees them before Close.
	if got := readRecords(t, path); len(got) != 3 || got[0].Kind != KindRun || got[0].RunID != "r1" {
		t.Fatalf("unexpected records before close: %+v", got)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	got := readRecords(t, path)
	if len(got) != 4 {
		t.Fatalf("expected header, two explanations and summary, got %d", len(got))
	}
	if got[1].Kind != KindExplanation || got[1].Explanation.SampleID != 4 || got[2].Explanation.Model != models.ModelXGBoost {
		t.Fatalf("unexpected explanation records: %+v %+v", got[1], got[2])
	}
	sum := got[3].Summary
	if got[3].Kind != KindSummary || sum == nil {
		t.Fatalf("expected summary record, got %+v", got[3])
	}
	if sum.Explanations != 2 || sum.Correct != 1 || sum.Narrated != 1 || sum.FirstSample != 2 || sum.LastSample != 4 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.ByModel[models.ModelNeuralNetwork] != 1 || sum.ByModel[models.ModelXGBoost] != 1 {
		t.Fatalf("unexpected per-model counts: %+v", sum.ByModel)
	}
}

func TestWriterRunChangeClosesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explanations.jsonl")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteExplanations([]*models.Explanation{{RunID: "a", SampleID: 1, Model: models.ModelDecisionTree}}); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := w.WriteExplanations([]*models.Explanation{{RunID: "b", SampleID: 1, Model: models.ModelDecisionTree}}); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var kinds []string
	for _, r := range readRecords(t, path) {
		kinds = append(kinds, r.Kind+":"+r.RunID)
	}
	want := []string{"run:a", "explanation:a", "summary:a", "run:b", "explanation:b", "summary:b"}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("got %v, want %v", kinds, want)
		}
	}
}

func TestWriterRejectsWritesAfterClose(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "out.jsonl"))
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.WriteExplanations([]*models.Explanation{{SampleID: 1}}); err == nil {
		t.Fatalf("expected error writing to a closed export")
	}
}
