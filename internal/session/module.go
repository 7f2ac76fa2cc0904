package session

import (
	"storefront/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"session",
		fx.Provide(func(cfg config.Config, logger *zap.Logger) (*State, error) {
			theme, err := ParseTheme(cfg.Theme)
			if err != nil {
				return nil, err
			}
			return New(theme, logger), nil
		}),
	)
}
