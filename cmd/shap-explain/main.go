package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"nidsboard/internal/artifact"
	"nidsboard/internal/explain"
	"nidsboard/pkg/models"
)

func main() {
	path := flag.String("artifact", "data/frontend_data.json", "Dashboard artifact JSON path")
	url := flag.String("url", "", "Fetch the artifact from this URL instead of -artifact")
	sampleID := flag.Int("sample", -1, "Sample id to explain (default: every sample)")
	model := flag.String("model", models.ModelNeuralNetwork, "Attribution model key")
	threshold := flag.Float64("threshold", explain.DefaultThreshold, "Noise threshold for attributions")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loaded, err := artifact.Load(ctx, artifact.Config{Path: *path, URL: *url})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load artifact: %v\n", err)
		os.Exit(1)
	}

	explainer := explain.NewExplainer(explain.Options{
		Threshold:        *threshold,
		AttributionModel: *model,
	}, nil)

	samples := loaded.Artifact.Samples
	if *sampleID >= 0 {
		s, ok := loaded.Artifact.Sample(*sampleID)
		if !ok {
			fmt.Fprintf(os.Stderr, "sample %d not found\n", *sampleID)
			os.Exit(1)
		}
		samples = []models.Sample{*s}
	}

	explained := 0
	for i := range samples {
		exp, err := explainer.Explain(ctx, &samples[i], *model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sample %d: %v\n", samples[i].ID, err)
			continue
		}
		printNarrative(exp)
		explained++
	}

	fmt.Printf("explained samples=%d model=%s\n", explained, *model)
}

func printNarrative(exp *models.Explanation) {
	fmt.Printf("== Sample #%d: %s predicted %s (%.1f%%), actual %s\n",
		exp.SampleID, models.ModelShortName(exp.Model), exp.Prediction, exp.Confidence, exp.TrueLabel)
	if exp.Narrative != nil {
		fmt.Println(explain.NarrativeText(*exp.Narrative))
	} else if exp.ModelNote != "" {
		fmt.Println(exp.ModelNote)
	}
	fmt.Println()
}
