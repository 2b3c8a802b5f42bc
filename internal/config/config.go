package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Triage/internal/scoring"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
	RateLimit   int    `yaml:"rate_limit_per_minute"`
}

// DatabaseConfig points at the Postgres instance used for ranking runs.
// An empty URL disables persistence.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type ScoringConfig struct {
	Weights      ScoringWeights `yaml:"weights"`
	UrgentLabels []string       `yaml:"urgent_labels"`
	Parallelism  int            `yaml:"parallelism"`
}

type ScoringWeights struct {
	BasePriority float64 `yaml:"base_priority"`
	Age          float64 `yaml:"age"`
	Complexity   float64 `yaml:"complexity"`
	Dependencies float64 `yaml:"dependencies"`
	Labels       float64 `yaml:"labels"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WeightSet converts the configured weights into the scorer's weight table.
func (c *Config) WeightSet() scoring.WeightSet {
	w := c.Scoring.Weights
	return scoring.WeightSet{
		BasePriority: w.BasePriority,
		Age:          w.Age,
		Complexity:   w.Complexity,
		Dependencies: w.Dependencies,
		Labels:       w.Labels,
	}
}

// NewScorer builds a scorer from the scoring section.
func (c *Config) NewScorer() (*scoring.Scorer, error) {
	return scoring.NewScorer(c.WeightSet(), c.Scoring.UrgentLabels)
}

// SlogLevel maps the configured level name onto a slog level. Unknown names
// fall back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger: JSON by default, text when
// format is "text".
func (l LoggingConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func Load(path string) (*Config, error) {
	defaults := scoring.DefaultWeights()
	cfg := &Config{
		Server: ServerConfig{
			Port:        8610,
			MetricsPort: 8611,
			RateLimit:   120,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Scoring: ScoringConfig{
			Weights: ScoringWeights{
				BasePriority: defaults.BasePriority,
				Age:          defaults.Age,
				Complexity:   defaults.Complexity,
				Dependencies: defaults.Dependencies,
				Labels:       defaults.Labels,
			},
			UrgentLabels: scoring.DefaultUrgentLabels(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRIAGE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("TRIAGE_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("TRIAGE_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("TRIAGE_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TRIAGE_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("TRIAGE_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.Parallelism = n
		}
	}
	if v := os.Getenv("TRIAGE_URGENT_LABELS"); v != "" {
		var labels []string
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				labels = append(labels, l)
			}
		}
		cfg.Scoring.UrgentLabels = labels
	}
	if v := os.Getenv("TRIAGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRIAGE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
