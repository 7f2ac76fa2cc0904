package internal

import (
	"context"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/cli"
	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/report"
	"storefront/internal/session"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Run() error {
	var runner *cli.Runner

	app := fx.New(
		logger.Module(),
		logger.WithFxDefaultLogger(),
		config.Module(),
		logging.Module(),
		cart.Module(),
		catalog.Module(),
		report.Module(),
		session.Module(),
		cli.Module(),
		fx.Populate(&runner),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = app.Stop(ctx)
	}()

	return runner.Execute()
}
