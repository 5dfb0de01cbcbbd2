package config

import (
	"time"

	"github.com/ziltek/calcombine/internal/models"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8050
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite3"
	}
	if cfg.Storage.DSN == "" && cfg.Storage.Driver == "sqlite3" {
		cfg.Storage.DSN = "./data/calcombine.db"
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = "./combine.csv"
	}
	if cfg.Sources == nil {
		cfg.Sources = []models.SourceFile{
			{Path: "./mk1 Technical test Master copy.xlsm", Type: "mk1"},
			{Path: "./mk2 Technical test Master copy.xlsx", Type: "mk2"},
		}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 400 * time.Millisecond
	}
}
