package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	NidsBoard NidsBoardConfig `yaml:"nidsboard"`
}

// NidsBoardConfig is the project configuration.
type NidsBoardConfig struct {
	Artifact  ArtifactConfig  `yaml:"artifact"`
	Server    ServerConfig    `yaml:"server"`
	Explain   ExplainConfig   `yaml:"explain"`
	Cache     CacheConfig     `yaml:"cache"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Export    ExportConfig    `yaml:"export"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ArtifactConfig locates the precomputed dashboard data. URL wins over Path.
type ArtifactConfig struct {
	Path    string            `yaml:"path"`
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowOrigins   []string      `yaml:"allow_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AccessLog      bool          `yaml:"access_log"`
}

// ExplainConfig tunes narrative generation.
type ExplainConfig struct {
	AttributionModel string  `yaml:"attribution_model"`
	Threshold        float64 `yaml:"threshold"`
	TableTopN        int     `yaml:"table_top_n"`
}

// CacheConfig controls the explanation cache.
type CacheConfig struct {
	Enabled bool        `yaml:"enabled"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig controls the Redis connection.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// SimulatorConfig controls the traffic simulator.
type SimulatorConfig struct {
	Rules RulesConfig `yaml:"rules"`
}

// RulesConfig controls Sigma indicator rules.
type RulesConfig struct {
	DisableBuiltin bool   `yaml:"disable_builtin"`
	Path           string `yaml:"path"`
}

// ExportConfig controls the explanation export pipeline.
type ExportConfig struct {
	Workers       int           `yaml:"workers"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	MaxRetries    int           `yaml:"max_retries"`
	Models        []string      `yaml:"models"`
	Output        OutputConfig  `yaml:"output"`
}

// OutputConfig selects the export sink.
type OutputConfig struct {
	Mode       string                 `yaml:"mode"` // file|http|clickhouse
	File       FileOutputConfig       `yaml:"file"`
	HTTP       HTTPOutputConfig       `yaml:"http"`
	ClickHouse ClickHouseOutputConfig `yaml:"clickhouse"`
}

// ClickHouseOutputConfig config for ClickHouse HTTP JSONEachRow writes.
type ClickHouseOutputConfig struct {
	URL      string            `yaml:"url"`
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL      string            `yaml:"url"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
	MaxBatch int               `yaml:"max_batch"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnv loads .env if present and lets NIDSBOARD_* variables override
// the file.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load()

	c := &cfg.NidsBoard
	c.Artifact.Path = getEnv("NIDSBOARD_ARTIFACT", c.Artifact.Path)
	c.Artifact.URL = getEnv("NIDSBOARD_ARTIFACT_URL", c.Artifact.URL)
	c.Server.Addr = getEnv("NIDSBOARD_ADDR", c.Server.Addr)
	c.Logging.Level = getEnv("NIDSBOARD_LOG_LEVEL", c.Logging.Level)
	c.Explain.AttributionModel = getEnv("NIDSBOARD_ATTRIBUTION_MODEL", c.Explain.AttributionModel)
	if addr := getEnv("NIDSBOARD_REDIS_ADDR", ""); addr != "" {
		c.Cache.Enabled = true
		c.Cache.Redis.Addr = addr
	}
	c.Cache.Redis.Password = getEnv("NIDSBOARD_REDIS_PASSWORD", c.Cache.Redis.Password)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
