package config

import (
	"fmt"

	coreconfig "github.com/go-core-fx/config"
)

type Config struct {
	CatalogFile        string  `koanf:"catalog_file"`
	AnalysisMode       string  `koanf:"analysis_mode"`
	HighValueThreshold float64 `koanf:"high_value_threshold"`
	SortBy             string  `koanf:"sort_by"`
	Theme              string  `koanf:"theme"`
	ReportCacheSize    int     `koanf:"report_cache_size"`
	HistorySize        int     `koanf:"history_size"`
	LogFile            string  `koanf:"log_file"`
	Debug              bool    `koanf:"debug"`
}

func Default() Config {
	return Config{
		AnalysisMode:       "value",
		HighValueThreshold: 40,
		SortBy:             "subtotal",
		Theme:              "light",
		ReportCacheSize:    16,
		HistorySize:        20,
		LogFile:            "./storefront.log",
		Debug:              false,
	}
}

func New() (Config, error) {
	cfg := Default()

	if err := coreconfig.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}
