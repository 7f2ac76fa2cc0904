package cli

import (
	"storefront/internal/config"
)

type Options struct {
	CatalogFile string
	Mode        string
	Threshold   float64
	SortBy      string
	Theme       string
	JSON        bool
}

func optionsFromConfig(cfg config.Config) Options {
	return Options{
		CatalogFile: cfg.CatalogFile,
		Mode:        cfg.AnalysisMode,
		Threshold:   cfg.HighValueThreshold,
		SortBy:      cfg.SortBy,
		Theme:       cfg.Theme,
	}
}
