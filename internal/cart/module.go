package cart

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module(
		"cart",
		fx.Provide(NewStore),
	)
}
