package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"nidsboard/internal/dashboard"
	"nidsboard/internal/explain"
	"nidsboard/internal/logger"
	"nidsboard/internal/pipeline"
	"nidsboard/internal/server"
	"nidsboard/internal/simulator"
	"nidsboard/pkg/models"
)

func runServe(args []string) {
	configArg := ""
	if len(args) > 0 {
		configArg = args[0]
	}

	a := bootstrap(configArg, true)
	defer a.Close()
	c := a.cfg.NidsBoard

	logger.Infof("NIDS dashboard starting")

	renderer := dashboard.NewRenderer(a.loaded.Artifact, a.explainer)
	srv := server.New(server.Options{
		Addr:           c.Server.Addr,
		AllowOrigins:   c.Server.AllowOrigins,
		RequestTimeout: c.Server.RequestTimeout,
		EnableMetrics:  c.Metrics.Enabled,
		AccessLog:      c.Server.AccessLog,
	}, renderer, a.explainer, newSimulator(c.Simulator.Rules))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Errorf("Server error: %v", err)
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}

	logger.Infof("NIDS dashboard stopped")
}

func runRender(args []string) int {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	output := fs.String("output", "output/dashboard.html", "Static HTML output path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a := bootstrap(*configArg, false)
	defer a.Close()

	page, err := dashboard.NewRenderer(a.loaded.Artifact, a.explainer).Export(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render dashboard: %v\n", err)
		return 1
	}
	if err := writeFile(*output, []byte(page)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dashboard: %v\n", err)
		return 1
	}

	fmt.Printf("rendered samples=%d output=%s\n", len(a.loaded.Artifact.Samples), *output)
	return 0
}

func runExplain(args []string) int {
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	sampleID := fs.Int("sample", 0, "Sample id")
	model := fs.String("model", "", "Model key (default: the attribution model)")
	asJSON := fs.Bool("json", false, "Print the full explanation as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a := bootstrap(*configArg, false)
	defer a.Close()

	sample, ok := a.loaded.Artifact.Sample(*sampleID)
	if !ok {
		fmt.Fprintf(os.Stderr, "sample %d not found\n", *sampleID)
		return 1
	}
	if *model == "" {
		*model = a.explainer.AttributionModel()
	}

	exp, err := a.explainer.Explain(context.Background(), sample, *model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to explain sample: %v\n", err)
		return 1
	}
	if *asJSON {
		return printJSON(exp)
	}
	printExplanation(exp)
	return 0
}

func runSimulate(args []string) int {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	preset := fs.String("preset", "dos", "Preset name ("+strings.Join(simulator.PresetNames(), ", ")+")")
	input := fs.String("input", "", "JSON file with a traffic sample; overrides -preset")
	model := fs.String("model", models.ModelNeuralNetwork, "Model key to simulate")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, _ := loadConfig(*configArg)
	if err := logger.Init(false, cfg.NidsBoard.Logging.Level, "", false); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	var sample models.TrafficSample
	if *input != "" {
		raw, err := os.ReadFile(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read sample: %v\n", err)
			return 1
		}
		if err := json.Unmarshal(raw, &sample); err != nil {
			fmt.Fprintf(os.Stderr, "failed to decode sample: %v\n", err)
			return 1
		}
	} else {
		p, ok := simulator.PresetByName(*preset)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown preset %q (available: %s)\n", *preset, strings.Join(simulator.PresetNames(), ", "))
			return 1
		}
		sample = p.Sample
	}

	res, err := newSimulator(cfg.NidsBoard.Simulator.Rules).Simulate(sample, *model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		return 1
	}
	return printJSON(res)
}

func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a := bootstrap(*configArg, true)
	defer a.Close()
	c := a.cfg.NidsBoard.Export

	writer, err := newNarrativeWriter(c.Output)
	if err != nil {
		logger.Errorf("Failed to create explanation writer: %v", err)
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		return 1
	}

	pipe := pipeline.NewExportPipeline(a.explainer, writer, c.Output.Mode, pipeline.ExportOptions{
		Workers:       c.Workers,
		BatchSize:     c.BatchSize,
		FlushInterval: c.FlushInterval,
		Models:        c.Models,
		MaxRetries:    c.MaxRetries,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := pipe.Run(ctx, a.loaded.Artifact.Samples)
	if cerr := pipe.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		return 1
	}

	fmt.Printf("exported run=%s samples=%d written=%d skipped=%d\n", stats.RunID, stats.Samples, stats.Written, stats.Skipped)
	return 0
}

func printExplanation(exp *models.Explanation) {
	fmt.Printf("Sample #%d  %s: %s (%.1f%%)  actual: %s\n",
		exp.SampleID, models.ModelDisplayName(exp.Model), exp.Prediction, exp.Confidence, exp.TrueLabel)
	if exp.Narrative != nil {
		fmt.Println()
		fmt.Println(explain.NarrativeText(*exp.Narrative))
	}
	if len(exp.Features) > 0 {
		fmt.Println()
		for _, f := range exp.Features {
			fmt.Printf("  %-28s %10s  %s  %s\n", f.DisplayName, f.FormattedValue, f.Impact, f.Strength)
		}
	}
	if exp.ModelNote != "" {
		fmt.Println()
		fmt.Println(exp.ModelNote)
	}
	fmt.Println()
	fmt.Println(exp.ConfidenceNote)
}

func printJSON(v interface{}) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode output: %v\n", err)
		return 1
	}
	return 0
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "render":
			os.Exit(runRender(os.Args[2:]))
		case "explain":
			os.Exit(runExplain(os.Args[2:]))
		case "simulate":
			os.Exit(runSimulate(os.Args[2:]))
		case "export":
			os.Exit(runExport(os.Args[2:]))
		default:
			// First arg is a config path.
			runServe(os.Args[1:])
			return
		}
	}

	runServe(nil)
}
