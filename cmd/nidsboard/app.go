package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nidsboard/config"
	"nidsboard/internal/artifact"
	"nidsboard/internal/cache"
	"nidsboard/internal/explain"
	"nidsboard/internal/logger"
	"nidsboard/internal/metrics"
	"nidsboard/internal/output/narrativeclickhouse"
	"nidsboard/internal/output/narrativehttp"
	"nidsboard/internal/output/narrativejson"
	"nidsboard/internal/pipeline"
	"nidsboard/internal/rules"
	"nidsboard/internal/simulator"
	"nidsboard/pkg/models"
)

// app bundles the services every subcommand builds from config.
type app struct {
	cfg        *config.Config
	configPath string
	loaded     *artifact.Loaded
	explainer  *explain.Explainer
	store      *cache.RedisStore
}

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("nidsboard.yml"); err == nil {
		return "nidsboard.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "nidsboard.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func applyDefaults(cfg *config.Config) {
	c := &cfg.NidsBoard
	if c.Artifact.Path == "" && c.Artifact.URL == "" {
		c.Artifact.Path = "data/frontend_data.json"
	}
	if c.Artifact.Timeout <= 0 {
		c.Artifact.Timeout = 30 * time.Second
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 10 * time.Second
	}

	if c.Explain.AttributionModel == "" {
		c.Explain.AttributionModel = models.ModelNeuralNetwork
	}
	if c.Explain.Threshold <= 0 {
		c.Explain.Threshold = explain.DefaultThreshold
	}
	if c.Explain.TableTopN <= 0 {
		c.Explain.TableTopN = explain.TableTopN
	}

	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Cache.Redis.KeyPrefix == "" {
		c.Cache.Redis.KeyPrefix = "nidsboard:explain"
	}
	if c.Cache.Redis.TTL <= 0 {
		c.Cache.Redis.TTL = 24 * time.Hour
	}

	if c.Export.Workers <= 0 {
		c.Export.Workers = 8
	}
	if c.Export.BatchSize <= 0 {
		c.Export.BatchSize = 1000
	}
	if c.Export.FlushInterval <= 0 {
		c.Export.FlushInterval = 2 * time.Second
	}
	if c.Export.MaxRetries <= 0 {
		c.Export.MaxRetries = 3
	}
	if c.Export.Output.Mode == "" {
		c.Export.Output.Mode = "file"
	}
	if c.Export.Output.File.Path == "" {
		c.Export.Output.File.Path = "output/explanations.jsonl"
	}
	if c.Export.Output.ClickHouse.Database == "" {
		c.Export.Output.ClickHouse.Database = "nidsboard"
	}
	if c.Export.Output.ClickHouse.Table == "" {
		c.Export.Output.ClickHouse.Table = "nids_explanations"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// loadConfig resolves, parses and defaults the configuration. A missing
// file is allowed; env vars and defaults still apply.
func loadConfig(configArg string) (*config.Config, string) {
	configPath := findConfigFile(configArg)

	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	config.ApplyEnv(cfg)
	applyDefaults(cfg)
	return cfg, configPath
}

// bootstrap loads config, logging, metrics, the artifact and the explainer.
// The artifact is required: on failure the process exits without serving.
func bootstrap(configArg string, logging bool) *app {
	cfg, configPath := loadConfig(configArg)
	c := cfg.NidsBoard

	if err := logger.Init(c.Logging.Enabled && logging, c.Logging.Level, c.Logging.File, c.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if configPath != "" {
		logger.Infof("Config loaded from: %s", configPath)
	} else {
		logger.Infof("No config file found; using defaults and environment")
	}
	if c.Metrics.Enabled {
		metrics.Init()
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Artifact.Timeout)
	defer cancel()
	loaded, err := artifact.Load(ctx, artifact.Config{
		Path:    c.Artifact.Path,
		URL:     c.Artifact.URL,
		Timeout: c.Artifact.Timeout,
		Headers: c.Artifact.Headers,
	})
	if err != nil {
		logger.Errorf("Failed to load dashboard data: %v", err)
		fmt.Fprintf(os.Stderr, "Failed to load dashboard data: %v\n", err)
		os.Exit(1)
	}

	a := &app{cfg: cfg, configPath: configPath, loaded: loaded}

	var explanationCache explain.Cache
	if c.Cache.Enabled {
		store, err := cache.NewRedisStore(cache.RedisConfig{
			Addr:      c.Cache.Redis.Addr,
			Password:  c.Cache.Redis.Password,
			DB:        c.Cache.Redis.DB,
			KeyPrefix: c.Cache.Redis.KeyPrefix,
			TTL:       c.Cache.Redis.TTL,
		})
		if err != nil {
			logger.Warnf("Explanation cache disabled: %v", err)
		} else {
			a.store = store
			explanationCache = store
			logger.Infof("Explanation cache: redis (%s, ttl=%s)", c.Cache.Redis.Addr, c.Cache.Redis.TTL)
		}
	}

	a.explainer = explain.NewExplainer(explain.Options{
		Threshold:        c.Explain.Threshold,
		TableTopN:        c.Explain.TableTopN,
		AttributionModel: c.Explain.AttributionModel,
		Namespace:        loaded.Digest,
	}, explanationCache)
	return a
}

// newSimulator builds the simulator with the configured indicator rules.
func newSimulator(cfg config.RulesConfig) *simulator.Simulator {
	var engine rules.Engine
	var stats rules.SigmaLoadStats
	var err error

	switch {
	case !cfg.DisableBuiltin:
		var se *rules.SigmaEngine
		se, stats, err = rules.NewBuiltinEngine(cfg.Path)
		engine = se
	case strings.TrimSpace(cfg.Path) != "":
		var se *rules.SigmaEngine
		se, stats, err = rules.NewSigmaEngine(cfg.Path)
		engine = se
	default:
		logger.Infof("Indicator rules disabled")
		return simulator.New(nil)
	}
	if err != nil {
		logger.Errorf("Failed to load Sigma rules: %v", err)
		log.Fatalf("Failed to load Sigma rules: %v", err)
	}

	logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
		stats.Loaded,
		stats.SkippedComplex,
		stats.SkippedDatasource,
		stats.SkippedInvalid,
		stats.TotalFiles,
	)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible Sigma rules loaded; indicator tagging is effectively disabled")
	}
	return simulator.New(engine)
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Errorf("Failed to close explanation cache: %v", err)
		}
	}
	logger.Close()
}

// newNarrativeWriter builds the export sink selected by cfg.Mode.
func newNarrativeWriter(cfg config.OutputConfig) (pipeline.NarrativeWriter, error) {
	switch cfg.Mode {
	case "file":
		w, err := narrativejson.NewWriter(cfg.File.Path)
		if err != nil {
			return nil, fmt.Errorf("file writer: %w", err)
		}
		logger.Infof("Export output mode: file (%s)", cfg.File.Path)
		return w, nil
	case "http":
		w, err := narrativehttp.NewWriter(narrativehttp.Config{
			URL:      cfg.HTTP.URL,
			Timeout:  cfg.HTTP.Timeout,
			Headers:  cfg.HTTP.Headers,
			MaxBatch: cfg.HTTP.MaxBatch,
		})
		if err != nil {
			return nil, fmt.Errorf("http writer: %w", err)
		}
		logger.Infof("Export output mode: http (%s)", cfg.HTTP.URL)
		return w, nil
	case "clickhouse":
		w, err := narrativeclickhouse.NewWriter(narrativeclickhouse.Config{
			URL:      cfg.ClickHouse.URL,
			Database: cfg.ClickHouse.Database,
			Table:    cfg.ClickHouse.Table,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
			Timeout:  cfg.ClickHouse.Timeout,
			Headers:  cfg.ClickHouse.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("clickhouse writer: %w", err)
		}
		logger.Infof("Export output mode: clickhouse (%s/%s.%s)", cfg.ClickHouse.URL, cfg.ClickHouse.Database, cfg.ClickHouse.Table)
		return w, nil
	default:
		return nil, fmt.Errorf("unknown export output mode %q", cfg.Mode)
	}
}
