package catalog

import (
	"storefront/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"catalog",
		fx.Provide(func(cfg config.Config, logger *zap.Logger) (*Catalog, error) {
			return Open(cfg.CatalogFile, logger.Named("catalog"))
		}),
	)
}
