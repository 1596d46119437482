// Package config provides configuration management with hot-reload
// support. It uses fsnotify to watch for file changes and atomic pointer
// swaps for zero-downtime updates; retrieval tuning parameters (fusion
// weights, budget split) are hot-reloadable.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete hindsight configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Indexes   IndexesConfig   `yaml:"indexes"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// RetrievalConfig contains orchestrator tuning parameters.
type RetrievalConfig struct {
	// Strategy selects the default graph retriever (bfs, ppr).
	Strategy string `yaml:"strategy"`

	// StrategyTimeout bounds each of the four retrieval strategies.
	StrategyTimeout time.Duration `yaml:"strategy_timeout"`

	// SemanticK, LexicalK, TemporalK are the fixed per-call budget
	// shares of the cheap index-backed strategies; the rest of the
	// thinking budget goes to the graph strategy.
	SemanticK int `yaml:"semantic_k"`
	LexicalK  int `yaml:"lexical_k"`
	TemporalK int `yaml:"temporal_k"`

	// SeedK is how many semantic hits seed the graph traversal.
	SeedK int `yaml:"seed_k"`

	// Weights blend the normalized per-strategy scores during fusion.
	Weights FusionWeights `yaml:"weights"`
}

// FusionWeights holds the per-strategy fusion weights. They are a tuning
// parameter, not a structural invariant.
type FusionWeights struct {
	Semantic float64 `yaml:"semantic"`
	Lexical  float64 `yaml:"lexical"`
	Graph    float64 `yaml:"graph"`
	Temporal float64 `yaml:"temporal"`
}

// RerankConfig contains rerank stage settings.
type RerankConfig struct {
	// Strategy selects the default reranker (heuristic, cross-encoder).
	Strategy string `yaml:"strategy"`

	// TopKMultiplier sizes the rerank slice as a multiple of the
	// requested max results.
	TopKMultiplier int `yaml:"top_k_multiplier"`

	// BatchSize and BatchTimeout apply to the cross-encoder only.
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`

	// CacheTTL keeps cross-encoder pair scores; zero disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// ScoringURL is the cross-encoder scoring backend endpoint.
	ScoringURL string `yaml:"scoring_url"`
	ScoringKey string `yaml:"scoring_key"`
}

// IndexesConfig selects and configures the backing indexes.
type IndexesConfig struct {
	// Semantic selects the semantic index backend: inmem, chromem,
	// qdrant.
	Semantic string `yaml:"semantic"`

	// Temporal selects the temporal index backend: inmem, redis.
	Temporal string `yaml:"temporal"`

	Qdrant QdrantConfig `yaml:"qdrant"`
	Redis  RedisConfig  `yaml:"redis"`
}

// QdrantConfig configures the Qdrant-backed semantic index.
type QdrantConfig struct {
	Address    string        `yaml:"address"`
	APIKey     string        `yaml:"api_key"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// RedisConfig configures the Redis-backed temporal index.
type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`     // OTLP endpoint (e.g., "localhost:4317")
	ServiceName string  `yaml:"service_name"` // Service name for traces
	SampleRate  float64 `yaml:"sample_rate"`  // Sampling rate (0.0 to 1.0)
	Insecure    bool    `yaml:"insecure"`     // Use insecure connection (no TLS)
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Retrieval: RetrievalConfig{
			Strategy:        "bfs",
			StrategyTimeout: 2 * time.Second,
			SemanticK:       16,
			LexicalK:        16,
			TemporalK:       8,
			SeedK:           5,
			Weights: FusionWeights{
				Semantic: 0.40,
				Lexical:  0.25,
				Graph:    0.20,
				Temporal: 0.15,
			},
		},
		Rerank: RerankConfig{
			Strategy:       "heuristic",
			TopKMultiplier: 3,
			BatchSize:      8,
			BatchTimeout:   2 * time.Second,
			CacheTTL:       5 * time.Minute,
		},
		Indexes: IndexesConfig{
			Semantic: "inmem",
			Temporal: "inmem",
			Qdrant: QdrantConfig{
				Collection: "hindsight_facts",
				Timeout:    30 * time.Second,
			},
			Redis: RedisConfig{
				KeyPrefix: "hindsight",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "hindsight",
			SampleRate:  1.0,
			Insecure:    true,
		},
	}
}

// LoadFromFile reads and parses a YAML configuration file.
// Environment variables in the format ${VAR_NAME} are expanded.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	r := c.Retrieval
	if r.Strategy != "bfs" && r.Strategy != "ppr" {
		return fmt.Errorf("retrieval.strategy must be bfs or ppr, got %q", r.Strategy)
	}
	if r.StrategyTimeout <= 0 {
		return fmt.Errorf("retrieval.strategy_timeout must be positive")
	}
	if r.SemanticK <= 0 || r.LexicalK <= 0 || r.TemporalK <= 0 || r.SeedK <= 0 {
		return fmt.Errorf("retrieval k values must be positive")
	}
	w := r.Weights
	if w.Semantic < 0 || w.Lexical < 0 || w.Graph < 0 || w.Temporal < 0 {
		return fmt.Errorf("fusion weights cannot be negative")
	}
	if w.Semantic+w.Lexical+w.Graph+w.Temporal == 0 {
		return fmt.Errorf("at least one fusion weight must be positive")
	}

	if c.Rerank.Strategy != "heuristic" && c.Rerank.Strategy != "cross-encoder" {
		return fmt.Errorf("rerank.strategy must be heuristic or cross-encoder, got %q", c.Rerank.Strategy)
	}
	if c.Rerank.TopKMultiplier <= 0 {
		return fmt.Errorf("rerank.top_k_multiplier must be positive")
	}
	// The cross-encoder strategy needs a scoring backend, but the
	// backend can also arrive as an injected instance, so the check
	// lives with whoever constructs the reranker.

	switch c.Indexes.Semantic {
	case "inmem", "chromem":
	case "qdrant":
		if c.Indexes.Qdrant.Address == "" {
			return fmt.Errorf("indexes.qdrant.address is required for the qdrant backend")
		}
	default:
		return fmt.Errorf("unknown semantic index backend: %q", c.Indexes.Semantic)
	}

	switch c.Indexes.Temporal {
	case "inmem":
	case "redis":
		if c.Indexes.Redis.Address == "" {
			return fmt.Errorf("indexes.redis.address is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown temporal index backend: %q", c.Indexes.Temporal)
	}

	return nil
}
