package config

import "github.com/balailatih/serasi/internal/models"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Data.TrainingPath == "" {
		cfg.Data.TrainingPath = "./data/training.json"
	}
	if cfg.Data.JobsPath == "" {
		cfg.Data.JobsPath = "./data/jobs.json"
	}
	if cfg.Data.PlacementsPath == "" {
		cfg.Data.PlacementsPath = "./data/placements.json"
	}
	if cfg.Text.Language == "" {
		cfg.Text.Language = "id"
	}
	if cfg.Thresholds == (models.MatchThresholds{}) {
		cfg.Thresholds = models.DefaultThresholds()
	}
	if cfg.Recommend.TopN == 0 {
		cfg.Recommend.TopN = 3
	}
	if cfg.Recommend.Threshold == 0 {
		cfg.Recommend.Threshold = 0.01
	}
	if cfg.Recommend.Metric == "" {
		cfg.Recommend.Metric = "cosine"
	}
	if cfg.Analysis.JobThreshold == 0 {
		cfg.Analysis.JobThreshold = 0.3
	}
	if cfg.Analysis.ProgramThreshold == 0 {
		cfg.Analysis.ProgramThreshold = 0.3
	}
	if cfg.History.DatabasePath == "" {
		cfg.History.DatabasePath = "./data/history.db"
	}
}
