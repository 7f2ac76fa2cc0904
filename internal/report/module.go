package report

import (
	"storefront/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"report",
		fx.Provide(func(cfg config.Config, logger *zap.Logger) (*Memo, error) {
			return NewMemo(cfg.ReportCacheSize, logger)
		}),
	)
}
