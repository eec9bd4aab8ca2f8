// Package config provides configuration loading and structs for the Serasi server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/balailatih/serasi/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Data       DataConfig       `yaml:"data"`
	Text       TextConfig       `yaml:"text"`
	Thresholds models.MatchThresholds `yaml:"thresholds"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	History    HistoryConfig    `yaml:"history"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DataConfig holds dataset file paths.
type DataConfig struct {
	TrainingPath   string `yaml:"training_path"`
	JobsPath       string `yaml:"jobs_path"`
	PlacementsPath string `yaml:"placements_path"`
}

// TextConfig holds preprocessing settings.
type TextConfig struct {
	// Language selects the stemmer; only "id" is supported.
	Language string `yaml:"language"`
	// ExtraStopwords are appended to the built-in stopword list.
	ExtraStopwords []string `yaml:"extra_stopwords"`
	// StemRules override the stemmer for specific tokens.
	StemRules map[string]string `yaml:"stem_rules"`
}

// RecommendConfig holds recommendation defaults.
type RecommendConfig struct {
	TopN      int     `yaml:"top_n"`
	Threshold float64 `yaml:"threshold"`
	Metric    string  `yaml:"metric"`
}

// AnalysisConfig holds market-gap analysis defaults.
type AnalysisConfig struct {
	JobThreshold     float64 `yaml:"job_threshold"`
	ProgramThreshold float64 `yaml:"program_threshold"`
}

// HistoryConfig holds experiment history settings.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"`
	Enabled      *bool  `yaml:"enabled"`
}

// EnabledOrDefault returns whether history persistence is on; defaults to true.
func (h *HistoryConfig) EnabledOrDefault() bool {
	if h.Enabled != nil {
		return *h.Enabled
	}
	return true
}

// WatchConfig holds dataset file watch settings.
type WatchConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// EnabledOrDefault returns whether dataset watching is on; defaults to true.
func (w *WatchConfig) EnabledOrDefault() bool {
	if w.Enabled != nil {
		return *w.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed, or if the threshold
// ordering is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	configDir := filepath.Dir(path)
	cfg.Data.TrainingPath = expandPath(cfg.Data.TrainingPath, configDir)
	cfg.Data.JobsPath = expandPath(cfg.Data.JobsPath, configDir)
	cfg.Data.PlacementsPath = expandPath(cfg.Data.PlacementsPath, configDir)
	cfg.History.DatabasePath = expandPath(cfg.History.DatabasePath, configDir)

	return &cfg, nil
}

// Save writes the config to path. Used for persisting threshold updates.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
